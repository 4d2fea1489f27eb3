package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book document storage.
type Repository interface {
	Insert(ctx context.Context, b Book) (string, error)
	GetByID(ctx context.Context, id string) (Book, error)
	UpdateByID(ctx context.Context, id string, p Patch) (Book, error)
	DeleteByID(ctx context.Context, id string) error
	// ExistsByISBN reports whether a book other than excludeID uses isbn.
	// An empty excludeID checks the whole collection.
	ExistsByISBN(ctx context.Context, isbn, excludeID string) (bool, error)
	List(ctx context.Context, page Page) ([]Book, error)
	Search(ctx context.Context, query string, page Page) ([]Book, error)
	Filter(ctx context.Context, f Filter, page Page) ([]Book, error)
	CountAll(ctx context.Context) (int64, error)
	CountByGenre(ctx context.Context) (GenreCounts, error)
	Probe(ctx context.Context) error
}
