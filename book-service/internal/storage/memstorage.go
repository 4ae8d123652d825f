package storage

import (
	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
)

// MemStorage keeps the persisted copy in memory only. It is used when the
// configured database is unreachable and in tests.
type MemStorage struct {
	books []models.Book
	saves int
}

func New() *MemStorage {
	return &MemStorage{}
}

func (ms *MemStorage) Load() ([]models.Book, error) {
	books := make([]models.Book, len(ms.books))
	copy(books, ms.books)
	return books, nil
}

func (ms *MemStorage) Save(books []models.Book) error {
	ms.books = make([]models.Book, len(books))
	copy(ms.books, books)
	ms.saves++
	return nil
}

// Saves reports how many times Save was called.
func (ms *MemStorage) Saves() int {
	return ms.saves
}
