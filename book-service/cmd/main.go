package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/azaliaz/bookshelf/book-service/internal/catalog"
	"github.com/azaliaz/bookshelf/book-service/internal/config"
	"github.com/azaliaz/bookshelf/book-service/internal/domain/consts"
	"github.com/azaliaz/bookshelf/book-service/internal/logger"
	"github.com/azaliaz/bookshelf/book-service/internal/server"
	"github.com/azaliaz/bookshelf/book-service/internal/storage"
)

func main() {
	cfg, err := config.ReadConfig()
	if err != nil {
		log.Fatal(err)
	}
	log := logger.Get(cfg.Debug)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		<-c

		log.Debug().Msg("ctx cancel; catch os signal")
		cancel()
	}()

	log.Debug().Any("cfg", cfg).Send()

	stor, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Storage).Msg("open library storage failed")
	}
	defer closeStore()

	books := catalog.New(stor)
	if err := books.LoadWarning(); err != nil {
		log.Warn().Err(err).Msg("library could not be loaded; changes will overwrite it")
	}

	serv := server.New(*cfg, books)
	if cfg.Secret != "" {
		token, err := server.CreateToken("owner", cfg.Secret)
		if err != nil {
			log.Fatal().Err(err).Msg("create access token failed")
		}
		log.Info().Str("token", token).Msg("use this bearer token for add/remove/save actions")
	}

	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return serv.Run(gCtx)
	})
	group.Go(func() error {
		log.Debug().Msg("error chan listener started")
		defer log.Debug().Msg("error chan listener - end")
		select {
		case err := <-serv.ErrChan:
			return err
		case <-gCtx.Done():
			return nil
		}
	})
	group.Go(func() error {
		<-gCtx.Done()
		return serv.ShutdownServer()
	})

	if err = group.Wait(); err != nil && !errors.Is(err, server.ErrExitRequested) {
		log.Info().Str("stoping reason", err.Error()).Msg("Server stoped")
		return
	}
	log.Info().Msg("server stoped")
}

// openStore picks the backend named in cfg. An unreachable Postgres server
// leaves the library in memory only, as the original service did.
func openStore(ctx context.Context, cfg *config.Config) (catalog.Store, func(), error) {
	log := logger.Get()
	switch cfg.Storage {
	case config.StoragePostgres:
		connCtx, cancel := context.WithTimeout(ctx, consts.DBCtxTimeout)
		defer cancel()
		db, err := storage.NewDB(connCtx, cfg.DBDsn)
		if err != nil {
			log.Error().Err(err).Msg("connecting to data base failed, library kept in memory only")
			return storage.New(), func() {}, nil
		}
		if err := storage.Migrations(cfg.DBDsn, cfg.MigratePath); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations failed: %w", err)
		}
		return db, db.Close, nil
	case config.StorageSQLite:
		db, err := storage.NewSQLite(cfg.LibraryFile)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return storage.NewFile(cfg.LibraryFile), func() {}, nil
	}
}
