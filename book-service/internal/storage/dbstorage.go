package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/azaliaz/bookshelf/book-service/internal/domain/consts"
	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
	"github.com/azaliaz/bookshelf/book-service/internal/logger"
)

var bookColumns = []string{"position", "bid", "title", "author", "year", "genre", "read", "rating"}

// DBStorage mirrors the library into a PostgreSQL table.
type DBStorage struct {
	pool *pgxpool.Pool
}

func NewDB(ctx context.Context, addr string) (*DBStorage, error) {
	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DBStorage{pool: pool}, nil
}

func (dbs *DBStorage) Load() ([]models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	rows, err := dbs.pool.Query(ctx, `SELECT bid, title, author, year, genre, read, rating FROM books ORDER BY position`)
	if err != nil {
		log.Error().Err(err).Msg("failed get all books from db")
		return nil, err
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Year, &book.Genre, &book.Read, &book.Rating); err != nil {
			log.Error().Err(err).Msg("failed to scan data from db")
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// Save replaces the table contents with the given library in one transaction.
func (dbs *DBStorage) Save(books []models.Book) (err error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	tx, err := dbs.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM books`); err != nil {
		log.Error().Err(err).Msg("clear books failed")
		return err
	}

	rows := make([][]any, 0, len(books))
	for i, book := range books {
		rows = append(rows, []any{i, book.ID, book.Title, book.Author, book.Year, book.Genre, book.Read, book.Rating})
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"books"}, bookColumns, pgx.CopyFromRows(rows))
	if err != nil {
		log.Error().Err(err).Msg("insert books failed")
		return err
	}
	log.Debug().Int64("rows", n).Msg("books saved to db")
	return nil
}

func (dbs *DBStorage) Close() {
	dbs.pool.Close()
}

func Migrations(dbDsn string, migrationsPath string) error {
	log := logger.Get()
	migratePath := fmt.Sprintf("file://%s", migrationsPath)
	m, err := migrate.New(migratePath, dbDsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no migrations apply")
			return nil
		}
		return err
	}
	log.Info().Msg("all migrations apply")
	return nil
}
