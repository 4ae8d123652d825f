package consts

import "time"

const (
	DBCtxTimeout = 5 * time.Second

	LibraryFile = "library.txt"
	SQLiteFile  = "library.db"

	MinYear   = 0
	MaxYear   = 2025
	MinRating = 1
	MaxRating = 5
)
