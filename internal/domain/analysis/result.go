package analysis

// RiskLevel enum
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Mode enum for analysis depth
type Mode string

const (
	ModeFull    Mode = "full"
	ModeQuick   Mode = "quick"
	ModeSummary Mode = "summary"
)

// Compliance value object
type Compliance struct {
	Required    bool     `json:"isRequired"`
	Checkpoints []string `json:"checkpoints"`
}

// Result is the structured record produced for a policy document.
// Every field carries a non-zero default after Normalized() so persistence
// never deals with missing AI output.
type Result struct {
	Category       string     `json:"category"`
	PolicyType     string     `json:"policyType"`
	KeyPoints      []string   `json:"keyPoints"`
	Tags           []string   `json:"tags"`
	BusinessArea   string     `json:"businessArea"`
	Compliance     Compliance `json:"compliance"`
	Summary        string     `json:"summary"`
	RiskLevel      RiskLevel  `json:"riskLevel"`
	TargetAudience []string   `json:"targetAudience"`
	EffectiveScope string     `json:"effectiveScope"`
}

// Request is one analysis invocation
type Request struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mode    Mode   `json:"analysis_type"`
}

// Outcome wraps a Result with per-invocation diagnostics
type Outcome struct {
	Result           Result `json:"result"`
	Mode             Mode   `json:"analysis_type"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	TokensUsed       int    `json:"tokens_used"`
	Success          bool   `json:"success"`
}

// Default field values used when the provider (or the fallback) left a hole.
const (
	DefaultCategory     = "Uncategorized"
	DefaultPolicyType   = "Regulation"
	DefaultBusinessArea = "Company-wide"
	DefaultScope        = "Company-wide"
	DefaultSummary      = "No summary available."
	DefaultKeyPoint     = "Defines the core requirements of the policy."
)

// Normalized returns a copy with every empty field replaced by its default,
// so a degraded result is always substitutable for a failed call.
func (r Result) Normalized() Result {
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if r.PolicyType == "" {
		r.PolicyType = DefaultPolicyType
	}
	if len(r.KeyPoints) == 0 {
		r.KeyPoints = []string{DefaultKeyPoint}
	}
	if len(r.Tags) == 0 {
		r.Tags = []string{"general", "policy"}
	}
	if r.BusinessArea == "" {
		r.BusinessArea = DefaultBusinessArea
	}
	if len(r.Compliance.Checkpoints) == 0 {
		r.Compliance.Checkpoints = []string{"Periodic review recommended"}
	}
	if r.Summary == "" {
		r.Summary = DefaultSummary
	}
	switch r.RiskLevel {
	case RiskHigh, RiskMedium, RiskLow:
	default:
		r.RiskLevel = RiskMedium
	}
	if len(r.TargetAudience) == 0 {
		r.TargetAudience = []string{"All employees"}
	}
	if r.EffectiveScope == "" {
		r.EffectiveScope = DefaultScope
	}
	return r
}
