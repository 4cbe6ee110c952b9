package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crediview/policyhub/internal/domain/analysis"
)

type fakeMeter struct {
	reserveErr error
	recorded   int
}

func (m *fakeMeter) CheckAndReserve() error { return m.reserveErr }
func (m *fakeMeter) RecordUsage()           { m.recorded++ }

func TestExtractJSON_ToleratesSurroundingProse(t *testing.T) {
	reply := "Here is the result:\n{\"category\":\"X\"}\nThanks!"
	raw, ok := extractJSON(reply)
	require.True(t, ok)
	assert.Equal(t, `{"category":"X"}`, raw)
}

func TestExtractJSON_NestedAndStrings(t *testing.T) {
	reply := `prefix {"a":{"b":"braces } in { string"},"c":[1,2]} suffix {"d":1}`
	raw, ok := extractJSON(reply)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":"braces } in { string"},"c":[1,2]}`, raw)
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, ok := extractJSON("no json here")
	assert.False(t, ok)

	_, ok = extractJSON("unbalanced {\"a\": 1")
	assert.False(t, ok)
}

func TestSplitTags(t *testing.T) {
	tags := splitTags(" security, vpn , , remote work ,")
	assert.Equal(t, []string{"security", "vpn", "remote work"}, tags)

	assert.Empty(t, splitTags("  ,, "))
}

func newFakeServer(t *testing.T, content string, tokens int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
			"usage": map[string]any{"total_tokens": tokens},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(srvURL string, meter analysis.Meter) *Client {
	cfg := gopenai.DefaultConfig("test-key")
	cfg.BaseURL = srvURL + "/v1"
	return NewClientWithConfig(cfg, meter, "", "")
}

func TestStructure_ParsesProseWrappedReply(t *testing.T) {
	reply := "Sure! Here you go:\n{\"category\":\"Security Policy\",\"summary\":\"Keep things safe.\",\"riskLevel\":\"high\"}\nLet me know."
	srv := newFakeServer(t, reply, 42)
	defer srv.Close()

	meter := &fakeMeter{}
	c := newTestClient(srv.URL, meter)

	res, tokens, err := c.Structure(context.Background(), "content", "title")
	require.NoError(t, err)
	assert.Equal(t, "Security Policy", res.Category)
	assert.Equal(t, "Keep things safe.", res.Summary)
	assert.Equal(t, analysis.RiskHigh, res.RiskLevel)
	assert.Equal(t, 42, tokens)
	assert.Equal(t, 1, meter.recorded)

	// Defaults fill the holes the model left
	assert.NotEmpty(t, res.PolicyType)
	assert.NotEmpty(t, res.Tags)
	assert.NotEmpty(t, res.TargetAudience)
}

func TestStructure_ParseFailure(t *testing.T) {
	srv := newFakeServer(t, "I could not produce JSON, sorry.", 10)
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeMeter{})
	_, _, err := c.Structure(context.Background(), "content", "title")
	assert.ErrorIs(t, err, analysis.ErrParse)
}

func TestSummarize_EmptyReplyIsFailure(t *testing.T) {
	srv := newFakeServer(t, "   ", 5)
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeMeter{})
	_, _, err := c.Summarize(context.Background(), "content", "title")
	assert.ErrorIs(t, err, analysis.ErrEmptyReply)
}

func TestExtractTags_SplitsReply(t *testing.T) {
	srv := newFakeServer(t, "security, vpn, remote work, access control", 8)
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeMeter{})
	tags, tokens, err := c.ExtractTags(context.Background(), "content", "title")
	require.NoError(t, err)
	assert.Equal(t, []string{"security", "vpn", "remote work", "access control"}, tags)
	assert.Equal(t, 8, tokens)
}

func TestQuickClassify(t *testing.T) {
	srv := newFakeServer(t, `{"category":"HR Policy","tags":["leave","vacation"]}`, 6)
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeMeter{})
	category, tags, _, err := c.QuickClassify(context.Background(), "content", "title")
	require.NoError(t, err)
	assert.Equal(t, "HR Policy", category)
	assert.Equal(t, []string{"leave", "vacation"}, tags)
}

func TestQuotaExceeded_SkipsProviderCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	meter := &fakeMeter{reserveErr: analysis.ErrQuotaExceeded}
	c := newTestClient(srv.URL, meter)

	_, _, err := c.Structure(context.Background(), "content", "title")
	assert.ErrorIs(t, err, analysis.ErrQuotaExceeded)
	assert.False(t, called, "provider must not be contacted when over quota")
	assert.Zero(t, meter.recorded)
}

func TestProviderError_Wrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	meter := &fakeMeter{}
	c := newTestClient(srv.URL, meter)

	_, _, err := c.Summarize(context.Background(), "content", "title")
	assert.ErrorIs(t, err, analysis.ErrProvider)
	assert.Zero(t, meter.recorded, "failed calls do not consume quota")
}
