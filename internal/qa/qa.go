// Package qa composes retrieval-augmented answers over the vector index.
package qa

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/metrics"
	"github.com/fyrsmithlabs/meetingd/internal/vectorstore"
)

// DefaultTopK is the number of index entries retrieved per question.
const DefaultTopK = 5

// NoKnowledgeMessage is returned when the index has no matching entries.
// The model is not called in that case: the empty state stays deterministic
// and saves a completion.
const NoKnowledgeMessage = "I don't have any meeting notes that match your question yet. Try ingesting some meetings first."

// FallbackAnswer is returned when the model produces no output.
const FallbackAnswer = "Sorry, I couldn't generate an answer."

const answerSystemPrompt = `You are a meeting knowledge assistant. Answer questions using ONLY the provided meeting context below.
- Cite which meeting the information came from when possible.
- If the answer is not in the context, say "I couldn't find that in the meeting notes."
- Be concise and direct.

## Meeting Context
%s`

// Retriever is the slice of the vector index contract QA needs.
type Retriever interface {
	Query(ctx context.Context, question string, topK int) ([]vectorstore.Result, error)
}

// Completer runs a completion with a system instruction.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Answerer answers free-text questions grounded in retrieved context.
type Answerer struct {
	retriever Retriever
	completer Completer
	topK      int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// New creates an Answerer with the default topK. m may be nil to disable
// instrumentation.
func New(retriever Retriever, completer Completer, m *metrics.Metrics, logger *zap.Logger) *Answerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{
		retriever: retriever,
		completer: completer,
		topK:      DefaultTopK,
		metrics:   m,
		logger:    logger,
	}
}

// Answer retrieves the topK most relevant entries and asks the model to
// answer strictly from them.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	results, err := a.retriever.Query(ctx, question, a.topK)
	if err != nil {
		return "", fmt.Errorf("querying index: %w", err)
	}

	if len(results) == 0 {
		a.logger.Debug("no index entries for question", zap.Int("question_len", len(question)))
		return NoKnowledgeMessage, nil
	}

	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source %d (score: %.2f)]\n%s", i+1, r.Score, r.Text)
	}
	contextBlob := strings.Join(blocks, "\n\n---\n\n")

	answer, err := a.completer.Complete(ctx, fmt.Sprintf(answerSystemPrompt, contextBlob), question)
	if err != nil {
		return "", fmt.Errorf("completing answer: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return FallbackAnswer, nil
	}

	if a.metrics != nil {
		a.metrics.QuestionsAnswered.Inc()
	}
	a.logger.Debug("answered question",
		zap.Int("sources", len(results)),
		zap.Int("answer_len", len(answer)),
	)
	return answer, nil
}
