package searches

import "time"

// Search is one logged search invocation
type Search struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// PopularSearch aggregates repeated queries for the popular-searches view
type PopularSearch struct {
	Query        string    `json:"query"`
	SearchCount  int       `json:"search_count"`
	AvgResults   int       `json:"avg_results"`
	LastSearched time.Time `json:"last_searched"`
}
