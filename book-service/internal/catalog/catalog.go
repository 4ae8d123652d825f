// Package catalog holds the in-memory library and the operations on it.
// Every mutation is written through to the injected Store.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
	"github.com/azaliaz/bookshelf/book-service/internal/logger"
	storerrros "github.com/azaliaz/bookshelf/book-service/internal/storage/errors"
)

type Store interface {
	Load() ([]models.Book, error)
	Save([]models.Book) error
}

type Catalog struct {
	mu      sync.Mutex
	store   Store
	valid   *validator.Validate
	caser   cases.Caser
	books   []models.Book
	loadErr error
}

// New loads the library from store. A failed load leaves the catalog empty;
// the failure is kept and reported by LoadWarning.
func New(store Store) *Catalog {
	log := logger.Get()
	c := &Catalog{
		store: store,
		valid: validator.New(),
		caser: cases.Title(language.Und),
	}

	books, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("load library failed, starting with an empty library")
		c.loadErr = err
		books = nil
	}
	for i := range books {
		if books[i].ID == "" {
			books[i].ID = uuid.New().String()
		}
	}
	c.books = books
	log.Info().Int("books", len(books)).Msg("library loaded")
	return c
}

func (c *Catalog) LoadWarning() error {
	return c.loadErr
}

// Add normalises and validates book, assigns it a fresh id and appends it.
// When only persisting fails the book stays in the library and the returned
// error wraps ErrSaveFailed.
func (c *Catalog) Add(book models.Book) (models.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	book = c.normalize(book)
	if err := c.validate(book); err != nil {
		return models.Book{}, err
	}
	book.ID = uuid.New().String()
	c.books = append(c.books, book)
	logger.Get().Info().Str("bid", book.ID).Str("title", book.Title).Msg("book added")
	return book, c.persist()
}

func (c *Catalog) Get(id string) (models.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, book := range c.books {
		if book.ID == id {
			return book, nil
		}
	}
	return models.Book{}, storerrros.ErrBookNoExist
}

func (c *Catalog) Remove(id string) error {
	log := logger.Get()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.books) == 0 {
		return storerrros.ErrEmptyLibrary
	}
	for i, book := range c.books {
		if book.ID == id {
			c.books = append(c.books[:i:i], c.books[i+1:]...)
			log.Info().Str("bid", id).Msg("book deleted successfully")
			return c.persist()
		}
	}
	log.Warn().Str("bid", id).Msg("book not found")
	return storerrros.ErrBookNoExist
}

// RemoveByTitle drops every book whose title equals title exactly. Titles are
// not unique, so this may remove more than one record.
func (c *Catalog) RemoveByTitle(title string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.books) == 0 {
		return 0, storerrros.ErrEmptyLibrary
	}
	kept := make([]models.Book, 0, len(c.books))
	for _, book := range c.books {
		if book.Title != title {
			kept = append(kept, book)
		}
	}
	removed := len(c.books) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	c.books = kept
	logger.Get().Info().Str("title", title).Int("removed", removed).Msg("books deleted by title")
	return removed, c.persist()
}

// Search returns books whose field contains query, ignoring case, in library
// order. An empty query matches nothing.
func (c *Catalog) Search(field models.SearchField, query string) ([]models.Book, error) {
	var pick func(models.Book) string
	switch field {
	case models.SearchByTitle:
		pick = func(b models.Book) string { return b.Title }
	case models.SearchByAuthor:
		pick = func(b models.Book) string { return b.Author }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	result := []models.Book{}
	if query == "" {
		return result, nil
	}
	query = strings.ToLower(query)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, book := range c.books {
		if strings.Contains(strings.ToLower(pick(book)), query) {
			result = append(result, book)
		}
	}
	return result, nil
}

func (c *Catalog) List(sortedByTitle bool) []models.Entry {
	books := c.Books()
	if sortedByTitle {
		sort.SliceStable(books, func(i, j int) bool {
			return books[i].Title < books[j].Title
		})
	}
	entries := make([]models.Entry, 0, len(books))
	for i, book := range books {
		entries = append(entries, models.Entry{Index: i + 1, Book: book})
	}
	return entries
}

func (c *Catalog) Titles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	titles := make([]string, 0, len(c.books))
	for _, book := range c.books {
		titles = append(titles, book.Title)
	}
	return titles
}

// Books returns a copy of the library in insertion order.
func (c *Catalog) Books() []models.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	books := make([]models.Book, len(c.books))
	copy(books, c.books)
	return books
}

func (c *Catalog) Statistics() models.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := models.Stats{Total: len(c.books)}
	for _, book := range c.books {
		if book.Read {
			stats.Read++
		}
	}
	stats.Unread = stats.Total - stats.Read
	if stats.Total == 0 {
		return stats
	}
	readPct := percent(stats.Read, stats.Total)
	unreadPct := percent(stats.Unread, stats.Total)
	stats.ReadPercent = &readPct
	stats.UnreadPercent = &unreadPct
	return stats
}

// Save flushes the whole library to the store.
func (c *Catalog) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist()
}

func (c *Catalog) persist() error {
	if err := c.store.Save(c.books); err != nil {
		logger.Get().Error().Err(err).Msg("save library failed")
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return nil
}

// normalize must be called with mu held; the caser keeps state.
func (c *Catalog) normalize(book models.Book) models.Book {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = c.caser.String(strings.TrimSpace(book.Author))
	book.Genre = c.caser.String(strings.TrimSpace(book.Genre))
	return book
}

func (c *Catalog) validate(book models.Book) error {
	err := c.valid.Struct(book)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidBook, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Errorf("%w: missing or out of range: %s", ErrInvalidBook, strings.Join(fields, ", "))
}

func percent(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
