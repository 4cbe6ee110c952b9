package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/crediview/policyhub/internal/domain/analysis"
	"github.com/crediview/policyhub/internal/infra/ai/prompt"
)

const (
	defaultModel      = "gpt-4o"
	defaultQuickModel = "gpt-4o-mini"

	structureMaxTokens = 800
	summaryMaxTokens   = 150
	tagsMaxTokens      = 100

	// A hanging provider becomes a provider error so the fallback path
	// stays reachable.
	callTimeout = 30 * time.Second

	quickContentLimit = 500
)

// Client wraps the completion provider for the analysis tasks. Every call
// checks the meter first; local failures never consume quota.
type Client struct {
	api        *openai.Client
	meter      analysis.Meter
	model      string
	quickModel string
}

func NewClient(apiKey string, meter analysis.Meter, model, quickModel string) *Client {
	if model == "" {
		model = defaultModel
	}
	if quickModel == "" {
		quickModel = defaultQuickModel
	}
	return &Client{
		api:        openai.NewClient(apiKey),
		meter:      meter,
		model:      model,
		quickModel: quickModel,
	}
}

// NewClientWithConfig is used by tests to point the client at a fake server
func NewClientWithConfig(cfg openai.ClientConfig, meter analysis.Meter, model, quickModel string) *Client {
	c := NewClient("", meter, model, quickModel)
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

// Structure converts free-text policy content into the fixed-shape record
func (c *Client) Structure(ctx context.Context, content, title string) (analysis.Result, int, error) {
	reply, tokens, err := c.complete(ctx, c.model, structureMaxTokens, 0.3,
		prompt.StructureSystem(), prompt.StructureUser(content, title))
	if err != nil {
		return analysis.Result{}, tokens, err
	}

	raw, ok := extractJSON(reply)
	if !ok {
		return analysis.Result{}, tokens, fmt.Errorf("%w: no JSON object in reply", analysis.ErrParse)
	}
	var res analysis.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return analysis.Result{}, tokens, fmt.Errorf("%w: %v", analysis.ErrParse, err)
	}
	return res.Normalized(), tokens, nil
}

// Summarize returns a 2-3 sentence free-text summary
func (c *Client) Summarize(ctx context.Context, content, title string) (string, int, error) {
	reply, tokens, err := c.complete(ctx, c.model, summaryMaxTokens, 0.3,
		prompt.SummarizeSystem(), prompt.SummarizeUser(content, title))
	if err != nil {
		return "", tokens, err
	}
	summary := strings.TrimSpace(reply)
	if summary == "" {
		return "", tokens, analysis.ErrEmptyReply
	}
	return summary, tokens, nil
}

// ExtractTags returns the comma-separated tags from the reply, trimmed,
// empties dropped. No cap here; callers may cap.
func (c *Client) ExtractTags(ctx context.Context, content, title string) ([]string, int, error) {
	reply, tokens, err := c.complete(ctx, c.model, tagsMaxTokens, 0.2,
		prompt.TagsSystem(), prompt.TagsUser(content, title))
	if err != nil {
		return nil, tokens, err
	}
	tags := splitTags(reply)
	if len(tags) == 0 {
		return nil, tokens, analysis.ErrEmptyReply
	}
	return tags, tokens, nil
}

// QuickClassify is the cheap single-call path returning category and tags
func (c *Client) QuickClassify(ctx context.Context, content, title string) (string, []string, int, error) {
	if len(content) > quickContentLimit {
		content = content[:quickContentLimit]
	}
	reply, tokens, err := c.complete(ctx, c.quickModel, tagsMaxTokens, 0.1,
		"", prompt.QuickUser(content, title))
	if err != nil {
		return "", nil, tokens, err
	}
	raw, ok := extractJSON(reply)
	if !ok {
		return "", nil, tokens, fmt.Errorf("%w: no JSON object in reply", analysis.ErrParse)
	}
	var out struct {
		Category string   `json:"category"`
		Tags     []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", nil, tokens, fmt.Errorf("%w: %v", analysis.ErrParse, err)
	}
	return out.Category, out.Tags, tokens, nil
}

// complete issues one chat completion. Quota is checked before the call;
// usage is recorded only after the provider answered.
func (c *Client) complete(ctx context.Context, model string, maxTokens int, temperature float32, system, user string) (string, int, error) {
	if err := c.meter.CheckAndReserve(); err != nil {
		return "", 0, err
	}

	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: user,
	})

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}
	// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	ctx2, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx2, req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", analysis.ErrProvider, err)
	}
	c.meter.RecordUsage()
	if len(resp.Choices) == 0 {
		return "", resp.Usage.TotalTokens, analysis.ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, resp.Usage.TotalTokens, nil
}

// extractJSON locates the first balanced {...} span, tolerant of leading
// and trailing prose around the object.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func splitTags(reply string) []string {
	var tags []string
	for _, t := range strings.Split(reply, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
