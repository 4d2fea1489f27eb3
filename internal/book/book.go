package book

import (
	"bytes"
	"encoding/json"
)

// Book represents a book entity as exposed to clients.
type Book struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"ISBN"`
	Genre           string `json:"genre"`
	PublicationYear int    `json:"publication_year"`
}

// Input is the payload for creating a book.
type Input struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"ISBN"`
	Genre           string `json:"genre"`
	PublicationYear int    `json:"publication_year"`
}

// Optional holds a JSON field that may be absent, null or set.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked for keys present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Patch is a partial update. Fields that are not Set stay untouched.
type Patch struct {
	Title           Optional[string] `json:"title"`
	Author          Optional[string] `json:"author"`
	ISBN            Optional[string] `json:"ISBN"`
	Genre           Optional[string] `json:"genre"`
	PublicationYear Optional[int]    `json:"publication_year"`
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return !p.Title.Set && !p.Author.Set && !p.ISBN.Set && !p.Genre.Set && !p.PublicationYear.Set
}

// Page is a skip/limit window over a result set.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter selects books by attribute. At least one field must be set.
type Filter struct {
	Genre           string
	PublicationYear *int
}

// Empty reports whether no filter attribute was provided.
func (f Filter) Empty() bool {
	return f.Genre == "" && f.PublicationYear == nil
}

// UnknownGenre groups books stored without a genre.
const UnknownGenre = "Unknown"

// GenreCount is the number of books in one genre.
type GenreCount struct {
	Genre string
	Count int64
}
