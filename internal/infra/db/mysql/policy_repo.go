package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/crediview/policyhub/internal/domain/analysis"
	domain "github.com/crediview/policyhub/internal/domain/policies"
)

type PolicyRepository struct {
	db *sql.DB
}

func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

const policyColumns = `id, title, content, category, department, priority, status,
       effective_date, expiry_date, tags, target_audience, approvers,
       created_by, views, analysis_json, analysis_success, created_at, updated_at`

// Save insert/update a policy record
func (r *PolicyRepository) Save(ctx context.Context, p *domain.Policy) error {
	const q = `
INSERT INTO policies
(id, title, content, category, department, priority, status,
 effective_date, expiry_date, tags, target_audience, approvers,
 created_by, views, analysis_json, analysis_success, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 title=VALUES(title), content=VALUES(content), category=VALUES(category),
 department=VALUES(department), priority=VALUES(priority), status=VALUES(status),
 effective_date=VALUES(effective_date), expiry_date=VALUES(expiry_date),
 tags=VALUES(tags), target_audience=VALUES(target_audience), approvers=VALUES(approvers),
 analysis_json=VALUES(analysis_json), analysis_success=VALUES(analysis_success),
 updated_at=VALUES(updated_at);
`
	// Non-nullable string columns get safe defaults
	category := stringOrDash(p.Category)
	department := stringOrDash(p.Department)
	priority := stringOrDash(string(p.Priority))
	status := stringOrDash(string(p.Status))

	analysisJSON := "{}"
	if p.Analysis != nil {
		b, err := json.Marshal(p.Analysis)
		if err == nil {
			analysisJSON = string(b)
		}
	}

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.Title, p.Content, category, department, priority, status,
		nullTime(p.EffectiveDate), nullTime(p.ExpiryDate),
		marshalJSON(p.Tags), marshalJSON(p.TargetAudience), marshalJSON(p.Approvers),
		p.CreatedBy, p.Views, analysisJSON, p.AnalysisSuccess, created, updated,
	)
	return err
}

// Get by ID
func (r *PolicyRepository) Get(ctx context.Context, id domain.PolicyID) (*domain.Policy, error) {
	q := `SELECT ` + policyColumns + ` FROM policies WHERE id=? LIMIT 1;`
	p, err := scanPolicy(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// Delete removes a policy row
func (r *PolicyRepository) Delete(ctx context.Context, id domain.PolicyID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM policies WHERE id=?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter
func (r *PolicyRepository) IncrementViews(ctx context.Context, id domain.PolicyID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE policies SET views = views + 1 WHERE id=?;`, id)
	return err
}

// List with equality/keyword filters, newest first, offset pagination
func (r *PolicyRepository) List(ctx context.Context, filter domain.ListFilter, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	where, args := listFilterClauses(filter)
	query := `SELECT ` + policyColumns + ` FROM policies` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying policies: %w", err)
	}
	defer rows.Close()

	out, err := collectPolicies(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	countWhere, countArgs := listFilterClauses(filter)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policies`+countWhere, countArgs...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting policies: %w", err)
	}

	return domain.PaginatedResult{
		Data:       out,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Search with the advanced query: keyword over title/content/tags,
// tag containment, equality filters, date range.
func (r *PolicyRepository) Search(ctx context.Context, sq domain.SearchQuery) (domain.PaginatedResult, error) {
	page := sq.Page
	if page <= 0 {
		page = 1
	}
	pageSize := sq.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	where, args := searchClauses(sq)
	query := `SELECT ` + policyColumns + ` FROM policies` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("searching policies: %w", err)
	}
	defer rows.Close()

	out, err := collectPolicies(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	countWhere, countArgs := searchClauses(sq)
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policies`+countWhere, countArgs...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting search results: %w", err)
	}

	return domain.PaginatedResult{
		Data:       out,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Stats groups counts for the dashboard
func (r *PolicyRepository) Stats(ctx context.Context) (domain.DashboardStats, error) {
	stats := domain.DashboardStats{
		ByStatus:     map[string]int{},
		ByCategory:   map[string]int{},
		ByDepartment: map[string]int{},
		ByPriority:   map[string]int{},
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policies;`).Scan(&stats.TotalPolicies); err != nil {
		return stats, err
	}

	for col, target := range map[string]map[string]int{
		"status":     stats.ByStatus,
		"category":   stats.ByCategory,
		"department": stats.ByDepartment,
		"priority":   stats.ByPriority,
	} {
		if err := r.groupCount(ctx, col, target); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// CountCreatedSince counts policies created in the last N days
func (r *PolicyRepository) CountCreatedSince(ctx context.Context, sinceDays int) (int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policies WHERE created_at >= ?;`, cut).Scan(&n)
	return n, err
}

func (r *PolicyRepository) groupCount(ctx context.Context, column string, target map[string]int) error {
	// column names come from a fixed internal map, never from input
	q := fmt.Sprintf(`SELECT %s, COUNT(*) FROM policies GROUP BY %s;`, column, column)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		target[key] = n
	}
	return rows.Err()
}

func listFilterClauses(f domain.ListFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Department != "" {
		conds = append(conds, "department = ?")
		args = append(args, f.Department)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Keyword != "" {
		kw := "%" + escapeLikePattern(f.Keyword) + "%"
		conds = append(conds, "(title LIKE ? OR content LIKE ?)")
		args = append(args, kw, kw)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func searchClauses(sq domain.SearchQuery) (string, []any) {
	var conds []string
	var args []any
	if sq.Keyword != "" {
		kw := "%" + escapeLikePattern(sq.Keyword) + "%"
		conds = append(conds, "(title LIKE ? OR content LIKE ? OR JSON_CONTAINS(tags, JSON_QUOTE(?)))")
		args = append(args, kw, kw, sq.Keyword)
	}
	if sq.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, sq.Category)
	}
	if sq.Department != "" {
		conds = append(conds, "department = ?")
		args = append(args, sq.Department)
	}
	if sq.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, sq.Status)
	}
	if sq.Priority != "" {
		conds = append(conds, "priority = ?")
		args = append(args, sq.Priority)
	}
	for _, tag := range sq.Tags {
		conds = append(conds, "JSON_CONTAINS(tags, JSON_QUOTE(?))")
		args = append(args, tag)
	}
	if sq.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *sq.From)
	}
	if sq.To != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *sq.To)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*domain.Policy, error) {
	var p domain.Policy
	var effective, expiry sql.NullTime
	var tags, audience, approvers, analysisJSON string
	if err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Category, &p.Department, &p.Priority, &p.Status,
		&effective, &expiry, &tags, &audience, &approvers,
		&p.CreatedBy, &p.Views, &analysisJSON, &p.AnalysisSuccess, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if effective.Valid {
		p.EffectiveDate = &effective.Time
	}
	if expiry.Valid {
		p.ExpiryDate = &expiry.Time
	}
	p.Tags = unmarshalStrings(tags)
	p.TargetAudience = unmarshalStrings(audience)
	p.Approvers = unmarshalStrings(approvers)
	if strings.TrimSpace(analysisJSON) != "" && analysisJSON != "{}" {
		var res analysis.Result
		if json.Unmarshal([]byte(analysisJSON), &res) == nil {
			p.Analysis = &res
		}
	}
	return &p, nil
}

func collectPolicies(rows *sql.Rows) ([]*domain.Policy, error) {
	var out []*domain.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
