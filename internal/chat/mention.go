// Package chat handles bot mentions: intent classification, thread
// summarization, and the meeting-summary post-process hook. The chat
// platform's socket transport is an external collaborator; a thin broker
// adapter feeds mentions into the handler.
package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/notify"
)

// Intent is the coarse classification of a mention.
type Intent string

const (
	// IntentSummarize asks for a thread summary.
	IntentSummarize Intent = "summarize"

	// IntentCreateIssue asks for an issue/ticket to be created.
	IntentCreateIssue Intent = "create_issue"

	// IntentQuestion is the default: answer from the knowledge base.
	IntentQuestion Intent = "question"
)

// mentionTag strips platform user tags like <@U123ABC> from mention text.
var mentionTag = regexp.MustCompile(`<@[A-Z0-9]+>`)

// ClassifyIntent classifies mention text by keyword presence.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "summarize"):
		return IntentSummarize
	case strings.Contains(lower, "create issue"),
		strings.Contains(lower, "make ticket"),
		strings.Contains(lower, "create ticket"):
		return IntentCreateIssue
	default:
		return IntentQuestion
	}
}

// Mention is one bot mention event.
type Mention struct {
	// Text is the mention body, possibly still carrying the bot tag.
	Text string `json:"text"`

	// Channel is the channel the mention was posted in.
	Channel string `json:"channel"`

	// Timestamp identifies the mention message.
	Timestamp string `json:"ts"`

	// ThreadTimestamp identifies the enclosing thread, if the mention was
	// posted inside one.
	ThreadTimestamp string `json:"thread_ts,omitempty"`
}

// thread returns the id follow-ups should be threaded under.
func (m Mention) thread() string {
	if m.ThreadTimestamp != "" {
		return m.ThreadTimestamp
	}
	return m.Timestamp
}

// Answerer answers free-text questions. Satisfied by qa.Answerer.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// IssueCreator runs the issue-from-text flow. provider.IssueCreator also
// returns the created item, which the handler has no use for (progress is
// reported through the notifier inside the flow itself), so it is adapted
// via IssueCreatorFunc rather than satisfying this interface directly.
type IssueCreator interface {
	CreateFromText(ctx context.Context, providerName, text, channel, thread string) error
}

// IssueCreatorFunc adapts a plain function to IssueCreator.
type IssueCreatorFunc func(ctx context.Context, providerName, text, channel, thread string) error

// CreateFromText implements IssueCreator.
func (f IssueCreatorFunc) CreateFromText(ctx context.Context, providerName, text, channel, thread string) error {
	return f(ctx, providerName, text, channel, thread)
}

// Handler dispatches mentions by intent.
type Handler struct {
	answerer     Answerer
	issues       IssueCreator
	threads      *ThreadSummarizer
	notifier     notify.Notifier
	providerName string
	logger       *zap.Logger
}

// NewHandler wires the mention handler. threads may be nil to disable
// thread summarization; issues may be nil when no provider is registered.
func NewHandler(answerer Answerer, issues IssueCreator, threads *ThreadSummarizer, notifier notify.Notifier, providerName string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		answerer:     answerer,
		issues:       issues,
		threads:      threads,
		notifier:     notifier,
		providerName: providerName,
		logger:       logger,
	}
}

// HandleMention classifies and dispatches one mention. Errors are reported
// back into the thread and never propagated to the transport.
func (h *Handler) HandleMention(ctx context.Context, m Mention) {
	text := strings.TrimSpace(mentionTag.ReplaceAllString(m.Text, ""))
	thread := m.thread()
	logger := h.logger.With(zap.String("channel", m.Channel), zap.String("thread", thread))

	logger.Info("mention received", zap.String("intent", string(ClassifyIntent(text))))

	var err error
	switch intent := ClassifyIntent(text); {
	case intent == IntentSummarize && m.ThreadTimestamp != "" && h.threads != nil:
		err = h.summarize(ctx, m, thread)
	case intent == IntentCreateIssue && h.issues != nil:
		err = h.issues.CreateFromText(ctx, h.providerName, text, m.Channel, thread)
	default:
		err = h.answer(ctx, text, m.Channel, thread)
	}

	if err != nil {
		logger.Error("mention handling failed", zap.Error(err))
		if _, perr := h.notifier.Post(ctx, m.Channel, thread, fmt.Sprintf("Something went wrong: %v", err)); perr != nil {
			logger.Warn("error notification failed", zap.Error(perr))
		}
	}
}

func (h *Handler) summarize(ctx context.Context, m Mention, thread string) error {
	summary, err := h.threads.Summarize(ctx, m.Channel, m.ThreadTimestamp)
	if err != nil {
		return err
	}
	_, err = h.notifier.Post(ctx, m.Channel, thread, summary)
	return err
}

func (h *Handler) answer(ctx context.Context, question, channel, thread string) error {
	answer, err := h.answerer.Answer(ctx, question)
	if err != nil {
		return err
	}
	_, err = h.notifier.Post(ctx, channel, thread, answer)
	return err
}
