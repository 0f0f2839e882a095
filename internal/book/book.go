package book

import (
	"errors"
)

var (
	// ErrNotFound is returned when no book matches the requested ISBN.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned when inserting an ISBN that already exists.
	ErrDuplicateISBN = errors.New("book with this isbn already exists")
)

// Book represents a book record keyed by its ISBN.
type Book struct {
	ISBN      string `json:"isbn"`
	AmazonURL string `json:"amazon_url"`
	Author    string `json:"author"`
	Language  string `json:"language"`
	Pages     int    `json:"pages"`
	Publisher string `json:"publisher"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
}

// Fields holds every non-key column of a book. Updates replace all of them.
type Fields struct {
	AmazonURL string
	Author    string
	Language  string
	Pages     int
	Publisher string
	Title     string
	Year      int
}

// Fields returns the non-key part of b.
func (b Book) Fields() Fields {
	return Fields{
		AmazonURL: b.AmazonURL,
		Author:    b.Author,
		Language:  b.Language,
		Pages:     b.Pages,
		Publisher: b.Publisher,
		Title:     b.Title,
		Year:      b.Year,
	}
}

// WithISBN builds a full book from f keyed by isbn.
func (f Fields) WithISBN(isbn string) Book {
	return Book{
		ISBN:      isbn,
		AmazonURL: f.AmazonURL,
		Author:    f.Author,
		Language:  f.Language,
		Pages:     f.Pages,
		Publisher: f.Publisher,
		Title:     f.Title,
		Year:      f.Year,
	}
}
