package policies

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crediview/policyhub/internal/application"
	appanalysis "github.com/crediview/policyhub/internal/application/analysis"
	domanalysis "github.com/crediview/policyhub/internal/domain/analysis"
	domain "github.com/crediview/policyhub/internal/domain/policies"
	"github.com/crediview/policyhub/internal/domain/searches"
	"github.com/crediview/policyhub/internal/domain/usage"
)

// Service implements use-cases for policies. Safe for concurrent use.
type Service struct {
	Repo     domain.Repository
	Searches searches.Repository
	Usage    usage.Repository
	AI       *appanalysis.Service
	Exports  domain.ExportStore
	Clock    application.Clock
}

//
// ==== USE CASES ====
//

type CreatePolicyCommand struct {
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Category       string     `json:"category"`
	Department     string     `json:"department"`
	Priority       string     `json:"priority"`
	EffectiveDate  *time.Time `json:"effective_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	Tags           []string   `json:"tags"`
	TargetAudience []string   `json:"target_audience"`
	Approvers      []string   `json:"approvers"`
	CreatedBy      string     `json:"created_by"`
}

type CreatePolicyResult struct {
	Policy   *domain.Policy      `json:"policy"`
	Analysis domanalysis.Outcome `json:"analysis"`
}

// Create runs AI enrichment then persists the policy with the structured
// result attached. A policy can always be created even when enrichment
// completely fails; the success flag on the outcome is the only signal.
func (s *Service) Create(ctx context.Context, cmd CreatePolicyCommand) (CreatePolicyResult, error) {
	if cmd.Title == "" || cmd.Content == "" || cmd.Category == "" || cmd.Department == "" || cmd.CreatedBy == "" {
		return CreatePolicyResult{}, fmt.Errorf("title, content, category, department and created_by are required")
	}

	outcome, err := s.AI.Process(ctx, domanalysis.Request{
		Title:   cmd.Title,
		Content: cmd.Content,
		Mode:    domanalysis.ModeFull,
	})
	if err != nil {
		return CreatePolicyResult{}, err
	}

	now := s.Clock.Now()
	priority := domain.Priority(cmd.Priority)
	switch priority {
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
	default:
		priority = domain.PriorityMedium
	}

	tags := cmd.Tags
	if len(tags) == 0 {
		tags = outcome.Result.Tags
	}
	audience := cmd.TargetAudience
	if len(audience) == 0 {
		audience = outcome.Result.TargetAudience
	}

	p := &domain.Policy{
		ID:              domain.PolicyID(uuid.New().String()),
		Title:           cmd.Title,
		Content:         cmd.Content,
		Category:        cmd.Category,
		Department:      cmd.Department,
		Priority:        priority,
		Status:          domain.StatusDraft,
		EffectiveDate:   cmd.EffectiveDate,
		ExpiryDate:      cmd.ExpiryDate,
		Tags:            tags,
		TargetAudience:  audience,
		Approvers:       cmd.Approvers,
		CreatedBy:       cmd.CreatedBy,
		Views:           0,
		Analysis:        &outcome.Result,
		AnalysisSuccess: outcome.Success,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Save(ctx, p); err != nil {
		return CreatePolicyResult{}, err
	}
	return CreatePolicyResult{Policy: p, Analysis: outcome}, nil
}

// Get fetches one policy and bumps its view counter. A failed counter
// update never fails the read.
func (s *Service) Get(ctx context.Context, id domain.PolicyID) (*domain.Policy, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.Repo.IncrementViews(ctx, id)
	p.Views++
	return p, nil
}

type UpdatePolicyCommand struct {
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Category       string     `json:"category"`
	Department     string     `json:"department"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	EffectiveDate  *time.Time `json:"effective_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	Tags           []string   `json:"tags"`
	TargetAudience []string   `json:"target_audience"`
	Approvers      []string   `json:"approvers"`
}

// Update applies non-empty fields onto the stored policy
func (s *Service) Update(ctx context.Context, id domain.PolicyID, cmd UpdatePolicyCommand) (*domain.Policy, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Title != "" {
		p.Title = cmd.Title
	}
	if cmd.Content != "" {
		p.Content = cmd.Content
	}
	if cmd.Category != "" {
		p.Category = cmd.Category
	}
	if cmd.Department != "" {
		p.Department = cmd.Department
	}
	if cmd.Priority != "" {
		p.Priority = domain.Priority(cmd.Priority)
	}
	if cmd.Status != "" {
		p.Status = domain.Status(cmd.Status)
	}
	if cmd.EffectiveDate != nil {
		p.EffectiveDate = cmd.EffectiveDate
	}
	if cmd.ExpiryDate != nil {
		p.ExpiryDate = cmd.ExpiryDate
	}
	if len(cmd.Tags) > 0 {
		p.Tags = cmd.Tags
	}
	if len(cmd.TargetAudience) > 0 {
		p.TargetAudience = cmd.TargetAudience
	}
	if len(cmd.Approvers) > 0 {
		p.Approvers = cmd.Approvers
	}
	p.UpdatedAt = s.Clock.Now()

	if err := s.Repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a policy
func (s *Service) Delete(ctx context.Context, id domain.PolicyID) error {
	return s.Repo.Delete(ctx, id)
}

// List returns a filtered page, newest first
func (s *Service) List(ctx context.Context, filter domain.ListFilter, page, pageSize int) (domain.PaginatedResult, error) {
	return s.Repo.List(ctx, filter, page, pageSize)
}

// Search runs the advanced search and logs the query to the search history.
// Logging is fire-and-forget; a failed write never affects the response.
func (s *Service) Search(ctx context.Context, userID string, q domain.SearchQuery) (domain.PaginatedResult, error) {
	res, err := s.Repo.Search(ctx, q)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	if s.Searches != nil && q.Keyword != "" {
		_ = s.Searches.Save(ctx, &searches.Search{
			UserID:       userID,
			Query:        q.Keyword,
			ResultsCount: int(res.Total),
			CreatedAt:    s.Clock.Now(),
		})
	}
	return res, nil
}

// PopularSearches returns the most repeated queries of the last 30 days
func (s *Service) PopularSearches(ctx context.Context) ([]*searches.PopularSearch, error) {
	return s.Searches.Popular(ctx, 30, 10)
}

// DashboardStats aggregates counts by status/category/department/priority
func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	return s.Repo.Stats(ctx)
}

// DetailedStats combines creation, search and AI usage volume over a period
func (s *Service) DetailedStats(ctx context.Context, period string) (map[string]any, error) {
	days := periodDays(period)

	created, err := s.Repo.CountCreatedSince(ctx, days)
	if err != nil {
		return nil, err
	}
	searched, err := s.Searches.CountSince(ctx, days)
	if err != nil {
		return nil, err
	}
	aiSummary, err := s.Usage.Summary(ctx, days)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"period":           period,
		"policies_created": created,
		"searches":         searched,
		"ai_usage":         aiSummary,
	}, nil
}

// Export uploads a JSON snapshot of a policy to the archive store and
// returns the object URL.
func (s *Service) Export(ctx context.Context, id domain.PolicyID) (string, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	dept := p.Department
	if dept == "" {
		dept = "unassigned"
	}
	key := fmt.Sprintf("%s/%s.json", dept, p.ID)
	return s.Exports.PutJSON(ctx, key, p)
}

func periodDays(period string) int {
	switch period {
	case "7d":
		return 7
	case "90d":
		return 90
	case "1y":
		return 365
	default:
		return 30
	}
}
