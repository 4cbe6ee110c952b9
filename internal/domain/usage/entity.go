package usage

import "time"

// Record represents one orchestration invocation, persisted append-only
type Record struct {
	ID               int64     `json:"id"`
	AnalysisType     string    `json:"analysis_type"`
	ContentLength    int       `json:"content_length"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	TokensUsed       int       `json:"tokens_used"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary aggregates usage over a period for the stats endpoint
type Summary struct {
	TotalRequests   int            `json:"total_requests"`
	Successful      int            `json:"successful_requests"`
	Failed          int            `json:"failed_requests"`
	AvgProcessingMS int64          `json:"avg_processing_time_ms"`
	TotalTokens     int64          `json:"total_tokens"`
	ByAnalysisType  map[string]int `json:"by_analysis_type"`
}
