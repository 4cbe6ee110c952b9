package analysis

import "context"

// Provider port (interface for the text-completion adapter).
// Each call reports tokens consumed alongside its payload.
type Provider interface {
	Structure(ctx context.Context, content, title string) (Result, int, error)
	Summarize(ctx context.Context, content, title string) (string, int, error)
	ExtractTags(ctx context.Context, content, title string) ([]string, int, error)
	QuickClassify(ctx context.Context, content, title string) (string, []string, int, error)
}

// Analyzer port (rule-based fallback; pure, never fails)
type Analyzer interface {
	Analyze(content, title string) Result
}

// Meter port (daily usage budget)
type Meter interface {
	CheckAndReserve() error
	RecordUsage()
}
