package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
	"github.com/azaliaz/bookshelf/book-service/internal/logger"
	storerrros "github.com/azaliaz/bookshelf/book-service/internal/storage/errors"
)

// FileStorage keeps the library as a JSON array in a single flat file.
type FileStorage struct {
	path string
}

func NewFile(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (fs *FileStorage) Path() string {
	return fs.path
}

func (fs *FileStorage) Load() ([]models.Book, error) {
	log := logger.Get()
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("path", fs.path).Msg("library file not found, starting empty")
			return []models.Book{}, nil
		}
		log.Error().Err(err).Str("path", fs.path).Msg("read library file failed")
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Book{}, nil
	}

	var books []models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		log.Error().Err(err).Str("path", fs.path).Msg("parse library file failed")
		return nil, fmt.Errorf("%w: %w", storerrros.ErrCorruptLibrary, err)
	}
	if books == nil {
		books = []models.Book{}
	}
	log.Debug().Int("books", len(books)).Str("path", fs.path).Msg("library loaded")
	return books, nil
}

// Save overwrites the file with the whole library. The data is written to a
// temp file in the same directory and renamed over the target.
func (fs *FileStorage) Save(books []models.Book) error {
	log := logger.Get()
	if books == nil {
		books = []models.Book{}
	}
	data, err := json.MarshalIndent(books, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		log.Error().Err(err).Str("path", fs.path).Msg("create temp file failed")
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	// CreateTemp opens with 0600; keep the library's existing mode instead.
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(fs.path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err = tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		log.Error().Err(err).Str("path", tmpName).Msg("write library failed")
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, fs.path); err != nil {
		log.Error().Err(err).Str("path", fs.path).Msg("replace library file failed")
		return err
	}
	log.Debug().Int("books", len(books)).Str("path", fs.path).Msg("library saved")
	return nil
}
