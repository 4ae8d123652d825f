package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/azaliaz/bookshelf/book-service/internal/catalog"
	"github.com/azaliaz/bookshelf/book-service/internal/domain/consts"
	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
	"github.com/azaliaz/bookshelf/book-service/internal/logger"
	storerrros "github.com/azaliaz/bookshelf/book-service/internal/storage/errors"
)

// bookForm mirrors the add-book form; year and rating arrive as text.
// A missing read answer counts as "Yes", the selector's first option.
type bookForm struct {
	Title  string  `form:"title"`
	Author string  `form:"author"`
	Year   string  `form:"year"`
	Genre  string  `form:"genre"`
	Read   *string `form:"read"`
	Rating string  `form:"rating"`
}

// newBook returns a book carrying the form defaults.
func newBook() models.Book {
	return models.Book{Year: consts.MaxYear, Read: true, Rating: consts.MinRating}
}

type action struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

var menu = []action{
	{Name: "Add Book", Method: http.MethodPost, Path: "/books"},
	{Name: "Remove Book", Method: http.MethodDelete, Path: "/books/:id"},
	{Name: "Search Book", Method: http.MethodGet, Path: "/books/search"},
	{Name: "Display All Books", Method: http.MethodGet, Path: "/books"},
	{Name: "Statistics", Method: http.MethodGet, Path: "/stats"},
	{Name: "Save & Exit", Method: http.MethodPost, Path: "/save-exit"},
}

func (s *Server) Menu(ctx *gin.Context) {
	resp := gin.H{"menu": menu}
	if warning := s.loadWarning(); warning != "" {
		resp["warning"] = warning
	}
	ctx.JSON(http.StatusOK, resp)
}

// loadWarning describes a failed startup load. The next change overwrites
// the unreadable library, so the user has to hear about it.
func (s *Server) loadWarning() string {
	err := s.Catalog.LoadWarning()
	if err == nil {
		return ""
	}
	return fmt.Sprintf("library could not be loaded, started empty; the next change will overwrite it: %v", err)
}

func (s *Server) AddBook(ctx *gin.Context) {
	log := logger.Get()

	book, err := bindBook(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := s.Catalog.Add(book)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrInvalidBook):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, catalog.ErrSaveFailed):
		log.Error().Err(err).Str("bid", added.ID).Msg("book added but not saved")
		ctx.JSON(http.StatusCreated, gin.H{"book": added, "warning": err.Error()})
		return
	default:
		log.Error().Err(err).Msg("add book failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"book":    added,
		"message": fmt.Sprintf("Book '%s' by %s added successfully!", added.Title, added.Author),
	})
}

func bindBook(ctx *gin.Context) (models.Book, error) {
	if ctx.ContentType() == binding.MIMEJSON {
		book := newBook()
		if err := ctx.ShouldBindJSON(&book); err != nil {
			return models.Book{}, errors.New("incorrectly entered data")
		}
		return book, nil
	}

	var form bookForm
	if err := ctx.ShouldBind(&form); err != nil {
		return models.Book{}, errors.New("failed to parse form")
	}
	book := newBook()
	book.Title = form.Title
	book.Author = form.Author
	book.Genre = form.Genre
	if form.Read != nil {
		book.Read = models.ParseRead(*form.Read)
	}
	if v := strings.TrimSpace(form.Year); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return models.Book{}, errors.New("invalid year value")
		}
		book.Year = year
	}
	if v := strings.TrimSpace(form.Rating); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil {
			return models.Book{}, errors.New("invalid rating value")
		}
		book.Rating = rating
	}
	return book, nil
}

func (s *Server) RemoveBook(ctx *gin.Context) {
	log := logger.Get()

	id := ctx.Param("id")
	if id == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing book ID"})
		return
	}

	if err := s.Catalog.Remove(id); err != nil {
		switch {
		case errors.Is(err, storerrros.ErrEmptyLibrary):
			ctx.JSON(http.StatusNotFound, gin.H{"warning": err.Error()})
		case errors.Is(err, storerrros.ErrBookNoExist):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, catalog.ErrSaveFailed):
			ctx.JSON(http.StatusOK, gin.H{"message": "book deleted", "warning": err.Error()})
		default:
			log.Error().Err(err).Msg("failed to delete book")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete book"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

// RemoveByTitle removes every book carrying the given title.
func (s *Server) RemoveByTitle(ctx *gin.Context) {
	title := ctx.Query("title")
	if title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing book title"})
		return
	}

	removed, err := s.Catalog.RemoveByTitle(title)
	switch {
	case errors.Is(err, storerrros.ErrEmptyLibrary):
		ctx.JSON(http.StatusNotFound, gin.H{"warning": err.Error()})
		return
	case errors.Is(err, catalog.ErrSaveFailed):
		ctx.JSON(http.StatusOK, gin.H{"removed": removed, "warning": err.Error()})
		return
	case err != nil:
		logger.Get().Error().Err(err).Msg("failed to delete books by title")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete book"})
		return
	}
	if removed == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"warning": fmt.Sprintf("no book titled '%s'", title)})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"removed": removed,
		"message": fmt.Sprintf("Book '%s' removed successfully.", title),
	})
}

func (s *Server) SearchBooks(ctx *gin.Context) {
	field := models.SearchField(strings.ToLower(ctx.DefaultQuery("by", string(models.SearchByTitle))))
	query := ctx.Query("q")

	books, err := s.Catalog.Search(field, query)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownField) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if query != "" && len(books) == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"warning": "No matching books found."})
		return
	}

	ctx.JSON(http.StatusOK, books)
}

func (s *Server) AllBooks(ctx *gin.Context) {
	sorted := ctx.DefaultQuery("sorted", "true") == "true"

	entries := s.Catalog.List(sorted)
	if len(entries) == 0 {
		warning := "Library is empty."
		if lw := s.loadWarning(); lw != "" {
			warning = lw
		}
		ctx.JSON(http.StatusNotFound, gin.H{"warning": warning})
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

func (s *Server) Titles(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.Catalog.Titles())
}

func (s *Server) BookInfo(ctx *gin.Context) {
	id := ctx.Param("id")
	book, err := s.Catalog.Get(id)
	if err != nil {
		if errors.Is(err, storerrros.ErrBookNoExist) {
			ctx.String(http.StatusNotFound, err.Error())
			return
		}
		ctx.String(http.StatusInternalServerError, err.Error())
		return
	}
	ctx.JSON(http.StatusOK, book)
}

func (s *Server) Statistics(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.Catalog.Statistics())
}

// SaveAndExit flushes the library and asks the process to stop. A failed
// save keeps the service running so the action can be retried.
func (s *Server) SaveAndExit(ctx *gin.Context) {
	log := logger.Get()
	if err := s.Catalog.Save(); err != nil {
		log.Error().Err(err).Msg("save library failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Library saved successfully. Exiting..."})
	select {
	case s.ErrChan <- ErrExitRequested:
	default:
	}
}
