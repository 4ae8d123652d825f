package catalog

import "errors"

var (
	ErrInvalidBook  = errors.New("invalid book")
	ErrUnknownField = errors.New("unknown search field")
	ErrSaveFailed   = errors.New("saving library failed")
)
