package policies

import (
	"time"

	"github.com/crediview/policyhub/internal/domain/analysis"
)

// ID type for Policy
type PolicyID string

// Status enum
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusExpiring Status = "expiring"
	StatusArchived Status = "archived"
)

// Priority enum
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Aggregate Root: Policy
type Policy struct {
	ID              PolicyID         `json:"id"`
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	Category        string           `json:"category"`
	Department      string           `json:"department"`
	Priority        Priority         `json:"priority"`
	Status          Status           `json:"status"`
	EffectiveDate   *time.Time       `json:"effective_date,omitempty"`
	ExpiryDate      *time.Time       `json:"expiry_date,omitempty"`
	Tags            []string         `json:"tags"`
	TargetAudience  []string         `json:"target_audience"`
	Approvers       []string         `json:"approvers"`
	CreatedBy       string           `json:"created_by"`
	Views           int              `json:"views"`
	Analysis        *analysis.Result `json:"ai_structured,omitempty"`
	AnalysisSuccess bool             `json:"ai_success"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ListFilter narrows List results
type ListFilter struct {
	Category   string
	Department string
	Status     string
	Keyword    string
}

// SearchQuery is the advanced search input
type SearchQuery struct {
	Keyword    string     `json:"keyword"`
	Category   string     `json:"category"`
	Department string     `json:"department"`
	Status     string     `json:"status"`
	Priority   string     `json:"priority"`
	Tags       []string   `json:"tags"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Page       int        `json:"page"`
	PageSize   int        `json:"limit"`
}

// DashboardStats is the aggregate view for the dashboard
type DashboardStats struct {
	TotalPolicies int            `json:"total_policies"`
	ByStatus      map[string]int `json:"by_status"`
	ByCategory    map[string]int `json:"by_category"`
	ByDepartment  map[string]int `json:"by_department"`
	ByPriority    map[string]int `json:"by_priority"`
}
