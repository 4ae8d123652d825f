package storage

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/azaliaz/bookshelf/book-service/internal/domain/consts"
	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
	"github.com/azaliaz/bookshelf/book-service/internal/logger"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS books (
	position INTEGER NOT NULL,
	bid      TEXT PRIMARY KEY,
	title    TEXT NOT NULL,
	author   TEXT NOT NULL,
	year     INTEGER NOT NULL,
	genre    TEXT NOT NULL,
	read     INTEGER NOT NULL,
	rating   INTEGER NOT NULL
)`

// SQLiteStorage mirrors the library into a single-file SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStorage{db: db}, nil
}

func (ss *SQLiteStorage) Load() ([]models.Book, error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	rows, err := ss.db.QueryContext(ctx, `SELECT bid, title, author, year, genre, read, rating FROM books ORDER BY position`)
	if err != nil {
		log.Error().Err(err).Msg("failed get all books from sqlite")
		return nil, err
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Year, &book.Genre, &book.Read, &book.Rating); err != nil {
			log.Error().Err(err).Msg("failed to scan data from sqlite")
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (ss *SQLiteStorage) Save(books []models.Book) (err error) {
	log := logger.Get()
	ctx, cancel := context.WithTimeout(context.Background(), consts.DBCtxTimeout)
	defer cancel()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		log.Error().Err(err).Msg("clear books failed")
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO books (position, bid, title, author, year, genre, read, rating) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, book := range books {
		if _, err = stmt.ExecContext(ctx, i, book.ID, book.Title, book.Author, book.Year, book.Genre, book.Read, book.Rating); err != nil {
			log.Error().Err(err).Str("bid", book.ID).Msg("insert book failed")
			return err
		}
	}
	return nil
}

func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
