package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/azaliaz/bookshelf/book-service/internal/config"
	"github.com/azaliaz/bookshelf/book-service/internal/domain/models"
	"github.com/azaliaz/bookshelf/book-service/internal/logger"
)

//go:generate mockgen -source=server.go -destination=./mocks/catalog_mock.go -package=mocks

var ErrInvalidToken = errors.New("invalid token")

// ErrExitRequested is sent on ErrChan after the Save & Exit action.
var ErrExitRequested = errors.New("save & exit requested")

const tokenTTL = 24 * time.Hour

type Claims struct {
	jwt.RegisteredClaims
	Owner string
}

type Catalog interface {
	Add(models.Book) (models.Book, error)
	Get(string) (models.Book, error)
	Remove(string) error
	RemoveByTitle(string) (int, error)
	Search(models.SearchField, string) ([]models.Book, error)
	List(bool) []models.Entry
	Titles() []string
	Statistics() models.Stats
	Save() error
	LoadWarning() error
}

type Server struct {
	serv    *http.Server
	Catalog Catalog
	Secret  string
	ErrChan chan error
}

func New(cfg config.Config, catalog Catalog) *Server {
	server := http.Server{ //nolint:gosec // local single-user service
		Addr: cfg.Addr,
	}
	return &Server{
		serv:    &server,
		Catalog: catalog,
		Secret:  cfg.Secret,
		ErrChan: make(chan error, 1),
	}
}

func (s *Server) ShutdownServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.serv.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	router.GET("/", s.Menu)
	books := router.Group("/books")
	{
		books.GET("", s.AllBooks)
		books.GET("/search", s.SearchBooks)
		books.GET("/titles", s.Titles)
		books.GET("/:id", s.BookInfo)
		books.POST("", s.JWTAuthMiddleware(), s.AddBook)
		books.DELETE("", s.JWTAuthMiddleware(), s.RemoveByTitle)
		books.DELETE("/:id", s.JWTAuthMiddleware(), s.RemoveBook)
	}
	router.GET("/stats", s.Statistics)
	router.POST("/save-exit", s.JWTAuthMiddleware(), s.SaveAndExit)
	return router
}

func (s *Server) Run(ctx context.Context) error {
	log := logger.Get()
	s.serv.Handler = s.Router()
	log.Info().Str("host", s.serv.Addr).Msg("server started")
	if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// JWTAuthMiddleware guards mutating routes. Without a configured secret the
// catalog is open, which is the normal localhost setup.
func (s *Server) JWTAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if s.Secret == "" {
			ctx.Next()
			return
		}
		log := logger.Get()

		tokenHeader := ctx.GetHeader("Authorization")
		if tokenHeader == "" {
			ctx.String(http.StatusUnauthorized, "Authorization header is required")
			ctx.Abort()
			return
		}

		tokenParts := strings.Split(tokenHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			ctx.String(http.StatusUnauthorized, "Invalid token format")
			ctx.Abort()
			return
		}

		owner, err := validToken(tokenParts[1], s.Secret)
		if err != nil {
			log.Error().Err(err).Msg("validate jwt failed")
			ctx.String(http.StatusUnauthorized, "Invalid token")
			ctx.Abort()
			return
		}

		ctx.Set("owner", owner)
		ctx.Next()
	}
}

func validToken(tokenStr, secret string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Owner, nil
}

// CreateToken issues a bearer token accepted by JWTAuthMiddleware.
func CreateToken(owner, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
		Owner: owner,
	})
	return token.SignedString([]byte(secret))
}
