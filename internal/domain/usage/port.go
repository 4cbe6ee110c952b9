package usage

import "context"

// Repository defines persistence for usage records. Entries are never
// mutated or deleted by this subsystem.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Summary(ctx context.Context, sinceDays int) (Summary, error)
	Latest(ctx context.Context, limit int) ([]*Record, error)
}
