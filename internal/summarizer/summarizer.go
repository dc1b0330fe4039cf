// Package summarizer is the boundary to the extraction model. It turns raw
// meeting text into a structured summary, derives issue drafts from free
// text, and answers grounded prompts for retrieval QA.
//
// The contract is shape-only: malformed or missing model output degrades to
// empty defaults, never to a pipeline abort.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/meetingd/internal/meeting"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
	defaultModel     = "gpt-4o"
	defaultTimeout   = 60 * time.Second
)

// IssueDraft is the structured form derived from free text for the
// issue-from-text flow. AssigneeName stays unresolved free text.
type IssueDraft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	AssigneeName string `json:"assigneeName"`
}

// Service is the extraction model contract consumed by the pipeline, the
// issue creator and retrieval QA.
type Service interface {
	// SummarizeMeeting extracts a structured summary from notes plus an
	// optional transcript. Exactly one call is made per meeting.
	SummarizeMeeting(ctx context.Context, notes, transcript string) (meeting.Summary, error)

	// ExtractIssue derives an issue draft from free text.
	ExtractIssue(ctx context.Context, text string) (IssueDraft, error)

	// Complete runs a plain completion with a system instruction.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config holds configuration for the OpenAI-backed service.
type Config struct {
	// BaseURL is an OpenAI-compatible endpoint. Empty means api.openai.com.
	BaseURL string `json:"base_url"`

	// Model is the chat model, e.g. gpt-4o.
	Model string `json:"model"`

	// APIKey is the API key. Required.
	APIKey string `json:"api_key"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	return nil
}

// OpenAIService implements Service via langchaingo's OpenAI client.
type OpenAIService struct {
	llm     *openai.LLM
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewOpenAIService creates the extraction service.
func NewOpenAIService(config Config, logger *zap.Logger) (*OpenAIService, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAIService{
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:  logger,
	}, nil
}

const summarizeSystemPrompt = `You are a meeting notes assistant. Extract structured information from meeting notes and transcripts.
Return JSON with this exact shape:
{
  "summary": "2-3 sentence summary of the meeting",
  "keyDecisions": ["decision 1", "decision 2"],
  "actionItems": [{"task": "what needs to be done", "assignee": "person name or null"}],
  "discussionPoints": ["topic 1", "topic 2"]
}
Be concise. Extract ALL action items with assignees when mentioned.`

// SummarizeMeeting extracts a structured summary. Malformed model output is
// substituted with empty defaults rather than returned as an error.
func (s *OpenAIService) SummarizeMeeting(ctx context.Context, notes, transcript string) (meeting.Summary, error) {
	var sb strings.Builder
	sb.WriteString("## Meeting Notes\n")
	sb.WriteString(notes)
	if transcript != "" {
		sb.WriteString("\n\n## Transcript\n")
		sb.WriteString(transcript)
	}

	raw, err := s.complete(ctx, summarizeSystemPrompt, sb.String(), true)
	if err != nil {
		return meeting.Summary{}, fmt.Errorf("summarize call: %w", err)
	}
	return ParseSummary(raw, s.logger), nil
}

const extractIssueSystemPrompt = `Extract a tracker issue from the user text. Return JSON:
{"title": "short issue title", "description": "detailed description", "assigneeName": "person name or null"}
Be concise. The title should be actionable (start with a verb).`

// ExtractIssue derives an issue draft from free text.
func (s *OpenAIService) ExtractIssue(ctx context.Context, text string) (IssueDraft, error) {
	raw, err := s.complete(ctx, extractIssueSystemPrompt, text, true)
	if err != nil {
		return IssueDraft{}, fmt.Errorf("extract issue call: %w", err)
	}
	return ParseIssueDraft(raw), nil
}

// Complete runs a plain completion with a system instruction.
func (s *OpenAIService) Complete(ctx context.Context, system, prompt string) (string, error) {
	return s.complete(ctx, system, prompt, false)
}

func (s *OpenAIService) complete(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	var opts []llms.CallOption
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := s.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

// summaryPayload mirrors the JSON shape requested from the model.
type summaryPayload struct {
	Summary      string `json:"summary"`
	KeyDecisions []string `json:"keyDecisions"`
	ActionItems  []struct {
		Task     string `json:"task"`
		Assignee string `json:"assignee"`
	} `json:"actionItems"`
	DiscussionPoints []string `json:"discussionPoints"`
}

// ParseSummary parses model output into a Summary. Malformed output yields
// empty defaults: extraction quality degradation is recoverable, a pipeline
// abort for a parsing glitch is not.
func ParseSummary(raw string, logger *zap.Logger) meeting.Summary {
	if logger == nil {
		logger = zap.NewNop()
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		logger.Warn("unparseable summary output, using empty defaults",
			zap.Int("raw_len", len(raw)),
			zap.Error(err),
		)
		return emptySummary()
	}

	summary := meeting.Summary{
		Text:             payload.Summary,
		KeyDecisions:     payload.KeyDecisions,
		ActionItems:      make([]meeting.ActionItem, 0, len(payload.ActionItems)),
		DiscussionPoints: payload.DiscussionPoints,
	}
	if summary.KeyDecisions == nil {
		summary.KeyDecisions = []string{}
	}
	if summary.DiscussionPoints == nil {
		summary.DiscussionPoints = []string{}
	}
	for _, item := range payload.ActionItems {
		if item.Task == "" {
			continue
		}
		summary.ActionItems = append(summary.ActionItems, meeting.ActionItem{
			Task:     item.Task,
			Assignee: sanitizeNull(item.Assignee),
		})
	}
	return summary
}

// ParseIssueDraft parses model output into an IssueDraft, falling back to a
// placeholder title on malformed output.
func ParseIssueDraft(raw string) IssueDraft {
	var draft IssueDraft
	if err := json.Unmarshal([]byte(extractJSON(raw)), &draft); err != nil {
		return IssueDraft{Title: "Untitled Issue"}
	}
	if draft.Title == "" {
		draft.Title = "Untitled Issue"
	}
	draft.AssigneeName = sanitizeNull(draft.AssigneeName)
	return draft
}

func emptySummary() meeting.Summary {
	return meeting.Summary{
		KeyDecisions:     []string{},
		ActionItems:      []meeting.ActionItem{},
		DiscussionPoints: []string{},
	}
}

// extractJSON trims code fences and any prose around the outermost JSON
// object. Models occasionally wrap JSON despite JSON mode.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// sanitizeNull drops literal "null" strings some models emit for absent
// optional fields.
func sanitizeNull(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "null") {
		return ""
	}
	return strings.TrimSpace(s)
}
