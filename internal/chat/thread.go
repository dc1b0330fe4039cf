package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NotEnoughMessages is returned when a thread is too short to summarize.
const NotEnoughMessages = "Not enough messages in this thread to summarize."

const threadSummaryFallback = "Could not summarize."

const threadSystemPrompt = `Summarize this chat thread concisely. Highlight key points, decisions, and any action items.`

// threadReplyLimit caps how many messages are fetched per thread.
const threadReplyLimit = 200

// ThreadMessage is one message in a chat thread.
type ThreadMessage struct {
	User      string
	Timestamp string
	Text      string
}

// ThreadReader fetches the messages of a thread from the chat platform.
// Implemented by the excluded platform adapter.
type ThreadReader interface {
	Replies(ctx context.Context, channel, thread string, limit int) ([]ThreadMessage, error)
}

// Completer runs a completion with a system instruction. Satisfied by
// summarizer.Service.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Upserter stores the thread summary in the knowledge base. Satisfied by
// vectorstore.Index.
type Upserter interface {
	Upsert(ctx context.Context, documentID, text string, metadata map[string]string) error
}

// ThreadSummarizer summarizes a chat thread and indexes the result so later
// questions can retrieve the discussion.
type ThreadSummarizer struct {
	reader    ThreadReader
	completer Completer
	index     Upserter
	logger    *zap.Logger
}

// NewThreadSummarizer wires a thread summarizer.
func NewThreadSummarizer(reader ThreadReader, completer Completer, index Upserter, logger *zap.Logger) *ThreadSummarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThreadSummarizer{
		reader:    reader,
		completer: completer,
		index:     index,
		logger:    logger,
	}
}

// Summarize fetches the thread, summarizes it and upserts the summary into
// the index under thread-{channel}-{thread}.
func (t *ThreadSummarizer) Summarize(ctx context.Context, channel, thread string) (string, error) {
	messages, err := t.reader.Replies(ctx, channel, thread, threadReplyLimit)
	if err != nil {
		return "", fmt.Errorf("fetching thread replies: %w", err)
	}
	if len(messages) < 2 {
		return NotEnoughMessages, nil
	}

	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("[%s] (%s): %s", m.User, m.Timestamp, m.Text)
	}

	summary, err := t.completer.Complete(ctx, threadSystemPrompt, strings.Join(lines, "\n"))
	if err != nil {
		return "", fmt.Errorf("summarizing thread: %w", err)
	}
	if strings.TrimSpace(summary) == "" {
		summary = threadSummaryFallback
	}

	docID := fmt.Sprintf("thread-%s-%s", channel, thread)
	if err := t.index.Upsert(ctx, docID, "Thread Summary:\n"+summary, map[string]string{
		"type":    "thread-summary",
		"channel": channel,
	}); err != nil {
		return "", fmt.Errorf("indexing thread summary: %w", err)
	}

	t.logger.Info("thread summarized",
		zap.String("channel", channel),
		zap.String("document_id", docID),
		zap.Int("messages", len(messages)),
	)
	return summary, nil
}
