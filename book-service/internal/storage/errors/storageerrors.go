package storerrros

import "errors"

var (
	ErrBookNoExist    = errors.New("book does not exists")
	ErrEmptyLibrary   = errors.New("no books in the library yet")
	ErrCorruptLibrary = errors.New("library file is corrupt")
)
