package book

import (
	"context"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates in, rejects a known ISBN and stores the book.
// The store's unique index still decides races between concurrent creates.
func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	b, err := in.Normalize()
	if err != nil {
		return Book{}, err
	}

	taken, err := s.repo.ExistsByISBN(ctx, b.ISBN, "")
	if err != nil {
		return Book{}, err
	}
	if taken {
		return Book{}, ErrDuplicateISBN
	}

	id, err := s.repo.Insert(ctx, b)
	if err != nil {
		return Book{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies the set fields of p to the book with the given id.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Book, error) {
	p, err := p.Normalize()
	if err != nil {
		return Book{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	if p.ISBN.Set {
		taken, err := s.repo.ExistsByISBN(ctx, p.ISBN.Value, current.ID)
		if err != nil {
			return Book{}, err
		}
		if taken {
			return Book{}, ErrDuplicateISBN
		}
	}

	if p.IsEmpty() {
		return Book{}, ErrNoFields
	}
	return s.repo.UpdateByID(ctx, id, p)
}

// Delete removes the book with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteByID(ctx, id)
}

// List returns a page of books in store order.
func (s *Service) List(ctx context.Context, page Page) ([]Book, error) {
	return s.repo.List(ctx, page)
}

// Search returns books whose title or author contains query.
func (s *Service) Search(ctx context.Context, query string, page Page) ([]Book, error) {
	return s.repo.Search(ctx, query, page)
}

// Filter returns books matching genre and/or publication year.
func (s *Service) Filter(ctx context.Context, f Filter, page Page) ([]Book, error) {
	if f.Empty() {
		return nil, ErrMissingFilter
	}
	return s.repo.Filter(ctx, f, page)
}

// CountAll returns the number of books in the collection.
func (s *Service) CountAll(ctx context.Context) (int64, error) {
	return s.repo.CountAll(ctx)
}

// CountByGenre returns book counts per genre, largest first.
func (s *Service) CountByGenre(ctx context.Context) (GenreCounts, error) {
	return s.repo.CountByGenre(ctx)
}

// Probe checks that the store answers reads.
func (s *Service) Probe(ctx context.Context) error {
	return s.repo.Probe(ctx)
}
