package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/crediview/policyhub/internal/domain/usage"
)

type UsageLogRepository struct {
	db *sql.DB
}

func NewUsageLogRepository(db *sql.DB) *UsageLogRepository { return &UsageLogRepository{db: db} }

// Save appends one usage record; rows are never updated
func (r *UsageLogRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO ai_usage_logs
  (analysis_type, content_length, processing_time_ms, tokens_used, success, error_message, created_at)
VALUES (?,?,?,?,?,?,?)
`
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(rec.AnalysisType), rec.ContentLength, rec.ProcessingTimeMS,
		rec.TokensUsed, rec.Success, rec.ErrorMessage, created,
	)
	return err
}

// Summary aggregates usage over the last N days
func (r *UsageLogRepository) Summary(ctx context.Context, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(success), 0) AS successful,
       COALESCE(AVG(processing_time_ms), 0) AS avg_ms,
       COALESCE(SUM(tokens_used), 0) AS tokens
FROM ai_usage_logs
WHERE created_at >= ?;
`
	var s domain.Summary
	var avg float64
	if err := r.db.QueryRowContext(ctx, q, cut).Scan(&s.TotalRequests, &s.Successful, &avg, &s.TotalTokens); err != nil {
		return domain.Summary{}, err
	}
	s.Failed = s.TotalRequests - s.Successful
	s.AvgProcessingMS = int64(avg)

	s.ByAnalysisType = map[string]int{}
	rows, err := r.db.QueryContext(ctx,
		`SELECT analysis_type, COUNT(*) FROM ai_usage_logs WHERE created_at >= ? GROUP BY analysis_type;`, cut)
	if err != nil {
		return domain.Summary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return domain.Summary{}, err
		}
		s.ByAnalysisType[typ] = n
	}
	return s, rows.Err()
}

// Latest returns the most recent records for the stats endpoint
func (r *UsageLogRepository) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT id, analysis_type, content_length, processing_time_ms, tokens_used, success, error_message, created_at
FROM ai_usage_logs
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.AnalysisType, &rec.ContentLength, &rec.ProcessingTimeMS,
			&rec.TokensUsed, &rec.Success, &rec.ErrorMessage, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
