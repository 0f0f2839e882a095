package book

import (
	"context"
	"fmt"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every stored book.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// GetByISBN returns a book by its ISBN.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	b, err := s.repo.GetByISBN(ctx, isbn)
	if err != nil {
		return Book{}, fmt.Errorf("get book %q: %w", isbn, err)
	}
	return b, nil
}

// Create stores a new book. The payload must already be validated.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	created, err := s.repo.Insert(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("create book %q: %w", b.ISBN, err)
	}
	return created, nil
}

// Update replaces every non-key field of the book identified by isbn.
func (s *Service) Update(ctx context.Context, isbn string, f Fields) (Book, error) {
	updated, err := s.repo.UpdateByISBN(ctx, isbn, f)
	if err != nil {
		return Book{}, fmt.Errorf("update book %q: %w", isbn, err)
	}
	return updated, nil
}

// Delete removes the book identified by isbn.
func (s *Service) Delete(ctx context.Context, isbn string) error {
	if err := s.repo.DeleteByISBN(ctx, isbn); err != nil {
		return fmt.Errorf("delete book %q: %w", isbn, err)
	}
	return nil
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
