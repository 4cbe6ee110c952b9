package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/crediview/policyhub/internal/application"
	domain "github.com/crediview/policyhub/internal/domain/analysis"
	"github.com/crediview/policyhub/internal/domain/usage"
)

// Service is the AI pipeline entry point. Given title and content it decides
// between the provider path and the rule-based fallback, runs the selected
// sub-tasks and merges results. It never returns an error other than
// ErrEmptyContent: provider failures degrade into the fallback output with
// Success=false.
type Service struct {
	Provider domain.Provider
	Fallback domain.Analyzer
	Usage    usage.Repository
	Clock    application.Clock
}

// per-task slot for the concurrent fan-out
type taskResult[T any] struct {
	value  T
	tokens int
	err    error
}

func (t taskResult[T]) ok() bool { return t.err == nil }

// Process runs one analysis invocation. The outcome always carries a
// structurally valid Result.
func (s *Service) Process(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if strings.TrimSpace(req.Content) == "" {
		return domain.Outcome{}, domain.ErrEmptyContent
	}
	mode := req.Mode
	switch mode {
	case domain.ModeQuick, domain.ModeSummary:
	default:
		mode = domain.ModeFull
	}

	start := s.Clock.Now()
	out := domain.Outcome{Mode: mode}

	func() {
		// The orchestrator itself never panics past this boundary; an
		// unexpected internal error degrades to the fallback result.
		defer func() {
			if r := recover(); r != nil {
				out.Result = s.Fallback.Analyze(req.Content, req.Title)
				out.Success = false
			}
		}()
		switch mode {
		case domain.ModeQuick:
			out.Result, out.TokensUsed, out.Success = s.quick(ctx, req)
		case domain.ModeSummary:
			out.Result, out.TokensUsed, out.Success = s.summaryOnly(ctx, req)
		default:
			out.Result, out.TokensUsed, out.Success = s.full(ctx, req)
		}
	}()

	out.ProcessingTimeMS = s.Clock.Now().Sub(start).Milliseconds()
	s.logUsage(ctx, req, out)
	return out, nil
}

// full runs structure, summarize and extract-tags concurrently, waits for
// all three to settle, then merges per field: the specialist task's value
// when present, else the structuring result's, else the rule-based
// analyzer's. Success is true when any of the three succeeded.
func (s *Service) full(ctx context.Context, req domain.Request) (domain.Result, int, bool) {
	base := s.Fallback.Analyze(req.Content, req.Title)

	var (
		wg        sync.WaitGroup
		structure taskResult[domain.Result]
		summary   taskResult[string]
		tags      taskResult[[]string]
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		structure.value, structure.tokens, structure.err = s.Provider.Structure(ctx, req.Content, req.Title)
	}()
	go func() {
		defer wg.Done()
		summary.value, summary.tokens, summary.err = s.Provider.Summarize(ctx, req.Content, req.Title)
	}()
	go func() {
		defer wg.Done()
		tags.value, tags.tokens, tags.err = s.Provider.ExtractTags(ctx, req.Content, req.Title)
	}()
	wg.Wait()

	res := base
	if structure.ok() {
		res = structure.value.Normalized()
	}
	if summary.ok() && strings.TrimSpace(summary.value) != "" {
		res.Summary = summary.value
	}
	if tags.ok() && len(tags.value) > 0 {
		res.Tags = dedupe(tags.value)
	}

	tokens := structure.tokens + summary.tokens + tags.tokens
	success := structure.ok() || summary.ok() || tags.ok()
	return res, tokens, success
}

// quick asks for category and tags only; everything else comes from the
// fallback so the result stays fully populated.
func (s *Service) quick(ctx context.Context, req domain.Request) (domain.Result, int, bool) {
	res := s.Fallback.Analyze(req.Content, req.Title)
	category, tags, tokens, err := s.Provider.QuickClassify(ctx, req.Content, req.Title)
	if err != nil {
		return res, tokens, false
	}
	if category != "" {
		res.Category = category
	}
	if len(tags) > 0 {
		res.Tags = dedupe(tags)
	}
	return res, tokens, true
}

func (s *Service) summaryOnly(ctx context.Context, req domain.Request) (domain.Result, int, bool) {
	res := s.Fallback.Analyze(req.Content, req.Title)
	summary, tokens, err := s.Provider.Summarize(ctx, req.Content, req.Title)
	if err != nil {
		return res, tokens, false
	}
	res.Summary = summary
	return res, tokens, true
}

// logUsage appends one record per invocation, fire-and-forget: a failing
// log store never blocks or alters the primary outcome.
func (s *Service) logUsage(ctx context.Context, req domain.Request, out domain.Outcome) {
	if s.Usage == nil {
		return
	}
	defer func() { _ = recover() }()
	rec := &usage.Record{
		AnalysisType:     string(out.Mode),
		ContentLength:    len(req.Content),
		ProcessingTimeMS: out.ProcessingTimeMS,
		TokensUsed:       out.TokensUsed,
		Success:          out.Success,
		CreatedAt:        s.Clock.Now(),
	}
	if !out.Success {
		rec.ErrorMessage = fmt.Sprintf("%s analysis degraded to rule-based result", out.Mode)
	}
	_ = s.Usage.Save(ctx, rec)
}

// dedupe preserves insertion order for display
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
