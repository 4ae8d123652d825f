package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Book struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	Year   int    `json:"year" validate:"gte=0,lte=2025"`
	Genre  string `json:"genre" validate:"required"`
	Read   bool   `json:"read"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

// UnmarshalJSON also accepts files written by older versions, where read was
// stored as "Yes"/"No" and rating as a quoted number. Absent keys keep the
// receiver's values.
func (b *Book) UnmarshalJSON(data []byte) error {
	type alias Book
	aux := struct {
		*alias
		Read   flexBool `json:"read"`
		Rating flexInt  `json:"rating"`
	}{alias: (*alias)(b), Read: flexBool(b.Read), Rating: flexInt(b.Rating)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Read = bool(aux.Read)
	b.Rating = int(aux.Rating)
	return nil
}

func (b Book) String() string {
	status := "Unread"
	if b.Read {
		status = "Read"
	}
	return fmt.Sprintf("%s by %s (%d) - %s - %s - %d/5", b.Title, b.Author, b.Year, b.Genre, status, b.Rating)
}

type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("read: expected bool or string, got %s", data)
	}
	*f = flexBool(ParseRead(s))
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexInt(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("rating: expected number or string, got %s", data)
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	*f = flexInt(v)
	return nil
}

// ParseRead maps the answers of the "did you read it" selector to a bool.
func ParseRead(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "on", "1":
		return true
	}
	return false
}

type SearchField string

const (
	SearchByTitle  SearchField = "title"
	SearchByAuthor SearchField = "author"
)

// Entry is a book as shown in the numbered listing.
type Entry struct {
	Index int  `json:"index"`
	Book  Book `json:"book"`
}

type Stats struct {
	Total         int      `json:"total"`
	Read          int      `json:"read"`
	Unread        int      `json:"unread"`
	ReadPercent   *float64 `json:"read_percent,omitempty"`
	UnreadPercent *float64 `json:"unread_percent,omitempty"`
}
