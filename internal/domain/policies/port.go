package policies

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested policy does not exist
var ErrNotFound = errors.New("policy not found")

// Repository port (interface for persistence)
type Repository interface {
	Save(ctx context.Context, p *Policy) error
	Get(ctx context.Context, id PolicyID) (*Policy, error)
	Delete(ctx context.Context, id PolicyID) error
	IncrementViews(ctx context.Context, id PolicyID) error

	List(ctx context.Context, filter ListFilter, page, pageSize int) (PaginatedResult, error)
	Search(ctx context.Context, q SearchQuery) (PaginatedResult, error)
	Stats(ctx context.Context) (DashboardStats, error)
	CountCreatedSince(ctx context.Context, sinceDays int) (int, error)
}

// ExportStore port (object storage for archive snapshots)
type ExportStore interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
}
