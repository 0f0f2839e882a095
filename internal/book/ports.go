package book

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

import (
	"context"
)

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context) ([]Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	Insert(ctx context.Context, b Book) (Book, error)
	UpdateByISBN(ctx context.Context, isbn string, f Fields) (Book, error)
	DeleteByISBN(ctx context.Context, isbn string) error
	Ping(ctx context.Context) error
}
