package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crediview/policyhub/internal/ai/rules"
	domain "github.com/crediview/policyhub/internal/domain/analysis"
	"github.com/crediview/policyhub/internal/domain/usage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(5 * time.Millisecond)
	return c.now
}

type stubProvider struct {
	structure    domain.Result
	structureErr error
	summary      string
	summaryErr   error
	tags         []string
	tagsErr      error
	quickCat     string
	quickTags    []string
	quickErr     error
}

func (p *stubProvider) Structure(ctx context.Context, content, title string) (domain.Result, int, error) {
	return p.structure, 100, p.structureErr
}

func (p *stubProvider) Summarize(ctx context.Context, content, title string) (string, int, error) {
	return p.summary, 20, p.summaryErr
}

func (p *stubProvider) ExtractTags(ctx context.Context, content, title string) ([]string, int, error) {
	return p.tags, 10, p.tagsErr
}

func (p *stubProvider) QuickClassify(ctx context.Context, content, title string) (string, []string, int, error) {
	return p.quickCat, p.quickTags, 5, p.quickErr
}

type recordingUsageRepo struct {
	records []*usage.Record
	saveErr error
	panics  bool
}

func (r *recordingUsageRepo) Save(ctx context.Context, rec *usage.Record) error {
	if r.panics {
		panic("log store down")
	}
	r.records = append(r.records, rec)
	return r.saveErr
}

func (r *recordingUsageRepo) Summary(ctx context.Context, sinceDays int) (usage.Summary, error) {
	return usage.Summary{}, nil
}

func (r *recordingUsageRepo) Latest(ctx context.Context, limit int) ([]*usage.Record, error) {
	return nil, nil
}

func newService(p domain.Provider, repo usage.Repository) *Service {
	return &Service{
		Provider: p,
		Fallback: rules.New(),
		Usage:    repo,
		Clock:    &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
}

const testContent = "All passwords are rotated monthly. Confidential material is restricted. Sharing credentials is prohibited."

func TestProcess_EmptyContentRejected(t *testing.T) {
	svc := newService(&stubProvider{}, &recordingUsageRepo{})

	_, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
}

func TestProcess_FullMergesSpecialistResults(t *testing.T) {
	p := &stubProvider{
		structure: domain.Result{
			Category:  "Security Policy",
			Summary:   "structure summary",
			Tags:      []string{"from-structure"},
			RiskLevel: domain.RiskHigh,
		},
		summary: "specialist summary",
		tags:    []string{"vpn", "password", "vpn"},
	}
	svc := newService(p, &recordingUsageRepo{})

	out, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeFull})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "Security Policy", out.Result.Category)
	// specialist values win over the structuring call's fields
	assert.Equal(t, "specialist summary", out.Result.Summary)
	assert.Equal(t, []string{"vpn", "password"}, out.Result.Tags, "tags deduplicated, order preserved")
	assert.Equal(t, 130, out.TokensUsed)
}

func TestProcess_AllCallsFailFallsBack(t *testing.T) {
	boom := errors.New("provider down")
	p := &stubProvider{structureErr: boom, summaryErr: boom, tagsErr: boom}
	svc := newService(p, &recordingUsageRepo{})

	out, err := svc.Process(context.Background(), domain.Request{Title: "Remote Work", Content: testContent, Mode: domain.ModeFull})
	require.NoError(t, err, "provider failures never surface to the caller")

	assert.False(t, out.Success)
	// structurally valid result from the rule-based path
	assert.NotEmpty(t, out.Result.Category)
	assert.NotEmpty(t, out.Result.Summary)
	assert.NotEmpty(t, out.Result.KeyPoints)
	assert.NotEmpty(t, out.Result.Tags)
	assert.NotEmpty(t, out.Result.RiskLevel)
	assert.GreaterOrEqual(t, out.ProcessingTimeMS, int64(0))
}

func TestProcess_PartialSuccessStillSucceeds(t *testing.T) {
	boom := errors.New("provider down")
	p := &stubProvider{
		structureErr: boom,
		summary:      "only the summary made it",
		tagsErr:      boom,
	}
	svc := newService(p, &recordingUsageRepo{})

	out, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeFull})
	require.NoError(t, err)

	assert.True(t, out.Success, "any succeeding sub-call marks the outcome successful")
	assert.Equal(t, "only the summary made it", out.Result.Summary)
	// everything else comes from the fallback
	assert.NotEmpty(t, out.Result.Category)
}

func TestProcess_QuickMode(t *testing.T) {
	p := &stubProvider{quickCat: "HR Policy", quickTags: []string{"leave", "vacation"}}
	svc := newService(p, &recordingUsageRepo{})

	out, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeQuick})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "HR Policy", out.Result.Category)
	assert.Equal(t, []string{"leave", "vacation"}, out.Result.Tags)
	assert.Equal(t, 5, out.TokensUsed)
	// the rest of the record stays populated
	assert.NotEmpty(t, out.Result.Summary)
	assert.NotEmpty(t, out.Result.RiskLevel)
}

func TestProcess_SummaryMode(t *testing.T) {
	p := &stubProvider{summary: "two sentences about the policy"}
	svc := newService(p, &recordingUsageRepo{})

	out, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeSummary})
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "two sentences about the policy", out.Result.Summary)
}

func TestProcess_UsageLoggedPerInvocation(t *testing.T) {
	repo := &recordingUsageRepo{}
	svc := newService(&stubProvider{summary: "s", tags: []string{"a"}}, repo)

	_, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeFull})
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	rec := repo.records[0]
	assert.Equal(t, "full", rec.AnalysisType)
	assert.Equal(t, len(testContent), rec.ContentLength)
	assert.True(t, rec.Success)
}

func TestProcess_LoggingFailureDoesNotAffectOutcome(t *testing.T) {
	repo := &recordingUsageRepo{saveErr: errors.New("disk full")}
	svc := newService(&stubProvider{summary: "s"}, repo)

	out, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeSummary})
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestProcess_LoggingPanicSwallowed(t *testing.T) {
	repo := &recordingUsageRepo{panics: true}
	svc := newService(&stubProvider{summary: "s"}, repo)

	out, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeSummary})
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestProcess_NilUsageRepoTolerated(t *testing.T) {
	svc := newService(&stubProvider{summary: "s"}, nil)
	svc.Usage = nil

	_, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: domain.ModeSummary})
	assert.NoError(t, err)
}

func TestProcess_UnknownModeDefaultsToFull(t *testing.T) {
	p := &stubProvider{summary: "s", tags: []string{"a"}}
	svc := newService(p, &recordingUsageRepo{})

	out, err := svc.Process(context.Background(), domain.Request{Title: "t", Content: testContent, Mode: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeFull, out.Mode)
}
