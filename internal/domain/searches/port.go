package searches

import "context"

// Repository defines persistence for the search log
type Repository interface {
	Save(ctx context.Context, s *Search) error
	Popular(ctx context.Context, sinceDays, limit int) ([]*PopularSearch, error)
	CountSince(ctx context.Context, sinceDays int) (int, error)
}
