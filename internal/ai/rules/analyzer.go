package rules

import (
	"fmt"
	"strings"

	"github.com/crediview/policyhub/internal/domain/analysis"
)

// DefaultCategory is used when no keyword table scores above zero (or on ties)
const DefaultCategory = "Operations Policy"

// categoryTable maps a category to its keyword list. Order matters: ties
// resolve to the first entry seen, so this is a slice, not a map.
type categoryEntry struct {
	name     string
	keywords []string
}

var categoryTable = []categoryEntry{
	{"Security Policy", []string{"security", "encryption", "access", "password", "authentication", "firewall", "vpn", "confidential"}},
	{"HR Policy", []string{"hiring", "recruitment", "evaluation", "salary", "leave", "training", "promotion", "onboarding"}},
	{"Finance Policy", []string{"finance", "budget", "expense", "spending", "accounting", "invoice", "investment"}},
	{"Operations Policy", []string{"operations", "process", "procedure", "workflow", "management", "escalation"}},
	{"Technology Policy", []string{"technology", "development", "software", "hardware", "infrastructure", "deployment"}},
	{"Legal Policy", []string{"legal", "contract", "regulation", "compliance", "governance", "audit"}},
}

// riskKeywords is the fixed set driving the risk tier. Presence counts,
// not frequency: >=3 hits is high, >=1 medium, else low.
var riskKeywords = []string{"risk", "critical", "mandatory", "prohibited", "restricted", "confidential"}

// Analyzer is the deterministic, dependency-free fallback used when the
// provider is unavailable, over quota, or fails. Pure function, no I/O.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

// Analyze categorizes, tags and risk-scores raw policy text. The returned
// result always has every field populated.
func (a *Analyzer) Analyze(content, title string) analysis.Result {
	text := strings.ToLower(title + " " + content)

	category := detectCategory(text)
	risk := scoreRisk(text)

	res := analysis.Result{
		Category:     category,
		PolicyType:   analysis.DefaultPolicyType,
		KeyPoints:    extractKeyPoints(content),
		Tags:         extractTags(text),
		BusinessArea: analysis.DefaultBusinessArea,
		Compliance: analysis.Compliance{
			Required:    risk == analysis.RiskHigh,
			Checkpoints: checkpointsFor(risk),
		},
		Summary:        summarize(title, category),
		RiskLevel:      risk,
		TargetAudience: []string{"All employees"},
		EffectiveScope: analysis.DefaultScope,
	}
	return res.Normalized()
}

// detectCategory picks the category with the strictly highest keyword
// occurrence count. Ties and all-zero scores fall to the default.
func detectCategory(text string) string {
	best := DefaultCategory
	maxScore := 0
	for _, entry := range categoryTable {
		score := 0
		for _, kw := range entry.keywords {
			score += strings.Count(text, kw)
		}
		if score > maxScore {
			maxScore = score
			best = entry.name
		}
	}
	return best
}

// extractTags flattens all keyword lists; a keyword becomes a tag when it
// appears anywhere in the lowercased text. Capped at 5.
func extractTags(text string) []string {
	var tags []string
	for _, entry := range categoryTable {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, kw)
				if len(tags) == 5 {
					return tags
				}
			}
		}
	}
	return tags
}

// extractKeyPoints keeps the first 3 sentences longer than 10 characters
func extractKeyPoints(content string) []string {
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var points []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(s) > 10 {
			points = append(points, s)
			if len(points) == 3 {
				break
			}
		}
	}
	return points
}

func scoreRisk(text string) analysis.RiskLevel {
	score := 0
	for _, kw := range riskKeywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	switch {
	case score >= 3:
		return analysis.RiskHigh
	case score >= 1:
		return analysis.RiskMedium
	default:
		return analysis.RiskLow
	}
}

func checkpointsFor(risk analysis.RiskLevel) []string {
	if risk == analysis.RiskHigh {
		return []string{"Requires periodic review", "Approval required"}
	}
	return []string{"Periodic review recommended"}
}

func summarize(title, category string) string {
	if strings.TrimSpace(title) == "" {
		title = "This document"
	}
	return fmt.Sprintf("%s sets out the main rules in the %s area.", title, category)
}
