package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/crediview/policyhub/internal/domain/searches"
)

type SearchHistoryRepository struct {
	db *sql.DB
}

func NewSearchHistoryRepository(db *sql.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: db}
}

func (r *SearchHistoryRepository) Save(ctx context.Context, s *domain.Search) error {
	const q = `
INSERT INTO search_history (user_id, query, results_count, created_at)
VALUES (?,?,?,?);
`
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, stringOrDash(s.UserID), s.Query, s.ResultsCount, created)
	return err
}

// Popular returns the most repeated queries of the last N days
func (r *SearchHistoryRepository) Popular(ctx context.Context, sinceDays, limit int) ([]*domain.PopularSearch, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	if limit <= 0 {
		limit = 10
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT query, COUNT(*) AS cnt,
       COALESCE(ROUND(AVG(results_count)), 0) AS avg_results,
       MAX(created_at) AS last_searched
FROM search_history
WHERE created_at >= ?
GROUP BY query
ORDER BY cnt DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, cut, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PopularSearch
	for rows.Next() {
		var p domain.PopularSearch
		if err := rows.Scan(&p.Query, &p.SearchCount, &p.AvgResults, &p.LastSearched); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *SearchHistoryRepository) CountSince(ctx context.Context, sinceDays int) (int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_history WHERE created_at >= ?;`, cut).Scan(&n)
	return n, err
}
