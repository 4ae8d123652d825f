package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
	"github.com/azaliaz/bookshelf/book-service/internal/storage"
	storerrros "github.com/azaliaz/bookshelf/book-service/internal/storage/errors"
)

type brokenStore struct {
	loadErr error
	saveErr error
}

func (b brokenStore) Load() ([]models.Book, error) { return nil, b.loadErr }
func (b brokenStore) Save([]models.Book) error    { return b.saveErr }

func dune() models.Book {
	return models.Book{Title: "Dune", Author: "Frank Herbert", Year: 1965, Genre: "Science Fiction", Read: true, Rating: 5}
}

func book(title, author string, read bool) models.Book {
	return models.Book{Title: title, Author: author, Year: 2000, Genre: "Fiction", Read: read, Rating: 3}
}

func TestCatalog_AddSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.txt")
	c := New(storage.NewFile(path))
	require.NoError(t, c.LoadWarning())

	added, err := c.Add(dune())
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	restarted := New(storage.NewFile(path))
	require.NoError(t, restarted.LoadWarning())
	assert.Equal(t, []models.Book{added}, restarted.Books())
}

func TestCatalog_AddStatisticsExample(t *testing.T) {
	c := New(storage.New())
	_, err := c.Add(dune())
	require.NoError(t, err)

	assert.Len(t, c.Books(), 1)
	stats := c.Statistics()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Read)
	assert.Equal(t, 0, stats.Unread)
	require.NotNil(t, stats.ReadPercent)
	assert.Equal(t, 100.0, *stats.ReadPercent)
	assert.Equal(t, 0.0, *stats.UnreadPercent)
}

func TestCatalog_AddNormalizes(t *testing.T) {
	c := New(storage.New())
	added, err := c.Add(models.Book{Title: "  Dune ", Author: "frank HERBERT", Genre: "science fiction", Year: 1965, Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "Dune", added.Title)
	assert.Equal(t, "Frank Herbert", added.Author)
	assert.Equal(t, "Science Fiction", added.Genre)
}

func TestCatalog_AddTitleCasing(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "j. r. r. tolkien", want: "J. R. R. Tolkien"},
		{in: "ursula k. LE GUIN", want: "Ursula K. Le Guin"},
		{in: "gabriel garcía márquez", want: "Gabriel García Márquez"},
		{in: "flannery o'connor", want: "Flannery O'connor"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := New(storage.New())
			added, err := c.Add(models.Book{Title: "T", Author: tt.in, Genre: "G", Rating: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, added.Author)
		})
	}
}

func TestCatalog_AddValidation(t *testing.T) {
	tests := []struct {
		name  string
		book  models.Book
		field string
	}{
		{name: "empty title", book: models.Book{Author: "A", Genre: "G", Rating: 1}, field: "title"},
		{name: "blank author", book: models.Book{Title: "T", Author: "   ", Genre: "G", Rating: 1}, field: "author"},
		{name: "empty genre", book: models.Book{Title: "T", Author: "A", Rating: 1}, field: "genre"},
		{name: "year too late", book: models.Book{Title: "T", Author: "A", Genre: "G", Year: 2026, Rating: 1}, field: "year"},
		{name: "negative year", book: models.Book{Title: "T", Author: "A", Genre: "G", Year: -1, Rating: 1}, field: "year"},
		{name: "rating zero", book: models.Book{Title: "T", Author: "A", Genre: "G", Rating: 0}, field: "rating"},
		{name: "rating six", book: models.Book{Title: "T", Author: "A", Genre: "G", Rating: 6}, field: "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.New()
			c := New(store)
			_, err := c.Add(tt.book)
			require.ErrorIs(t, err, ErrInvalidBook)
			assert.Contains(t, err.Error(), tt.field)
			assert.Empty(t, c.Books())
			assert.Zero(t, store.Saves())
		})
	}
}

func TestCatalog_AddSaveFailureKeepsBook(t *testing.T) {
	c := New(brokenStore{saveErr: errors.New("disk full")})
	added, err := c.Add(dune())
	require.ErrorIs(t, err, ErrSaveFailed)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []models.Book{added}, c.Books())
}

func TestCatalog_LoadFailureStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.txt")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	c := New(storage.NewFile(path))
	assert.ErrorIs(t, c.LoadWarning(), storerrros.ErrCorruptLibrary)
	assert.Empty(t, c.Books())
	assert.Equal(t, models.Stats{}, c.Statistics())
}

func TestCatalog_LoadAssignsMissingIDs(t *testing.T) {
	store := storage.New()
	require.NoError(t, store.Save([]models.Book{book("Echo", "A", false), book("Echo", "B", true)}))

	books := New(store).Books()
	require.Len(t, books, 2)
	assert.NotEmpty(t, books[0].ID)
	assert.NotEqual(t, books[0].ID, books[1].ID)
}

func TestCatalog_RemoveByTitle(t *testing.T) {
	store := storage.New()
	c := New(store)
	for _, b := range []models.Book{book("Echo", "A", false), book("Dune", "B", true), book("Echo", "C", true)} {
		_, err := c.Add(b)
		require.NoError(t, err)
	}

	removed, err := c.RemoveByTitle("Echo")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"Dune"}, c.Titles())

	saves := store.Saves()
	before := c.Books()
	removed, err = c.RemoveByTitle("Echo")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, before, c.Books())
	assert.Equal(t, saves, store.Saves())
}

func TestCatalog_RemoveByTitleIsCaseSensitive(t *testing.T) {
	c := New(storage.New())
	_, err := c.Add(book("Echo", "A", false))
	require.NoError(t, err)

	removed, err := c.RemoveByTitle("echo")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Len(t, c.Books(), 1)
}

func TestCatalog_RemoveByID(t *testing.T) {
	store := storage.New()
	c := New(store)
	first, err := c.Add(book("Echo", "A", false))
	require.NoError(t, err)
	second, err := c.Add(book("Echo", "B", false))
	require.NoError(t, err)

	require.NoError(t, c.Remove(first.ID))
	assert.Equal(t, []models.Book{second}, c.Books())

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []models.Book{second}, persisted)

	assert.ErrorIs(t, c.Remove(first.ID), storerrros.ErrBookNoExist)
}

func TestCatalog_RemoveFromEmpty(t *testing.T) {
	c := New(storage.New())
	assert.ErrorIs(t, c.Remove("missing"), storerrros.ErrEmptyLibrary)
	_, err := c.RemoveByTitle("Echo")
	assert.ErrorIs(t, err, storerrros.ErrEmptyLibrary)
}

func TestCatalog_Get(t *testing.T) {
	c := New(storage.New())
	added, err := c.Add(dune())
	require.NoError(t, err)

	got, err := c.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, storerrros.ErrBookNoExist)
}

func TestCatalog_Search(t *testing.T) {
	c := New(storage.New())
	for _, b := range []models.Book{
		book("The Hobbit", "J. R. R. Tolkien", true),
		book("Dune", "Frank Herbert", false),
		book("The Silmarillion", "J. R. R. Tolkien", false),
	} {
		_, err := c.Add(b)
		require.NoError(t, err)
	}

	got, err := c.Search(models.SearchByTitle, "THE")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "The Hobbit", got[0].Title)
	assert.Equal(t, "The Silmarillion", got[1].Title)

	got, err = c.Search(models.SearchByAuthor, "herb")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dune", got[0].Title)

	got, err = c.Search(models.SearchByTitle, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Search(models.SearchByAuthor, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = c.Search("genre", "fiction")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCatalog_SearchEmptyLibrary(t *testing.T) {
	c := New(storage.New())
	for _, field := range []models.SearchField{models.SearchByTitle, models.SearchByAuthor} {
		got, err := c.Search(field, "anything")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestCatalog_List(t *testing.T) {
	c := New(storage.New())
	for _, title := range []string{"b", "C", "a"} {
		_, err := c.Add(book(title, "Author", false))
		require.NoError(t, err)
	}

	titles := func(entries []models.Entry) []string {
		var out []string
		for i, e := range entries {
			assert.Equal(t, i+1, e.Index)
			out = append(out, e.Book.Title)
		}
		return out
	}
	assert.Equal(t, []string{"b", "C", "a"}, titles(c.List(false)))
	assert.Equal(t, []string{"C", "a", "b"}, titles(c.List(true)))
	assert.Equal(t, []string{"b", "C", "a"}, c.Titles(), "sorting must not reorder the library")
}

func TestCatalog_Statistics(t *testing.T) {
	c := New(storage.New())
	stats := c.Statistics()
	assert.Equal(t, models.Stats{}, stats)
	assert.Nil(t, stats.ReadPercent)

	for _, read := range []bool{true, false, false} {
		_, err := c.Add(book("T", "A", read))
		require.NoError(t, err)
	}
	stats = c.Statistics()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Read)
	assert.Equal(t, 2, stats.Unread)
	assert.Equal(t, 33.33, *stats.ReadPercent)
	assert.Equal(t, 66.67, *stats.UnreadPercent)
}

func TestCatalog_Save(t *testing.T) {
	store := storage.New()
	c := New(store)
	require.NoError(t, c.Save())
	assert.Equal(t, 1, store.Saves())

	c = New(brokenStore{saveErr: errors.New("read-only")})
	assert.ErrorIs(t, c.Save(), ErrSaveFailed)
}
