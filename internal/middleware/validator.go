package middleware

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

// ValidateAnalysisType checks the requested analysis mode
func ValidateAnalysisType(t string) error {
	switch strings.ToLower(t) {
	case "", "full", "quick", "summary":
		return nil
	}
	return fmt.Errorf("invalid analysis type: %s (allowed: full, quick, summary)", t)
}

// ValidateStatus checks the policy lifecycle status
func ValidateStatus(s string) error {
	switch strings.ToLower(s) {
	case "", "draft", "pending", "active", "expiring", "archived":
		return nil
	}
	return fmt.Errorf("invalid status: %s (allowed: draft, pending, active, expiring, archived)", s)
}

// ValidatePriority checks the policy priority
func ValidatePriority(p string) error {
	switch strings.ToLower(p) {
	case "", "low", "medium", "high":
		return nil
	}
	return fmt.Errorf("invalid priority: %s (allowed: low, medium, high)", p)
}

// ValidatePolicyID checks the id is a UUID
func ValidatePolicyID(id string) error {
	if id == "" {
		return fmt.Errorf("policy ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid policy ID format")
	}
	return nil
}

// SanitizeString removes null bytes and control characters
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit clamps pagination page size
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 10 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays clamps period parameters
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
