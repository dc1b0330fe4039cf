// Package pipeline orchestrates one meeting submission end to end:
// dedup gate, extraction, persistence, vector indexing and hook fan-out.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/meeting"
	"github.com/fyrsmithlabs/meetingd/internal/metrics"
)

var pipelineTracer = otel.Tracer("meetingd.pipeline")

// DefaultTitle is applied when intake carries no title.
const DefaultTitle = "Untitled Meeting"

// Status reports how a submission was handled.
type Status string

const (
	// StatusProcessed means the full pipeline ran and the meeting is now in
	// the knowledge base.
	StatusProcessed Status = "processed"

	// StatusDuplicate means the dedup ledger short-circuited the run. Not
	// an error.
	StatusDuplicate Status = "already_processed"
)

// Result is the outcome of one submission.
type Result struct {
	Status Status
	Record *meeting.Record
}

// Hook is a post-process callback receiving the finished record and its
// summary. Hooks run after indexing; a hook's failure is caught and logged
// and never blocks later hooks or the overall success of the submission.
type Hook func(ctx context.Context, record *meeting.Record, summary meeting.Summary) error

// Ledger gates pipeline entry per meeting id.
type Ledger interface {
	IsProcessed(id string) bool
	MarkProcessed(id string) error
}

// RecordStore persists meeting records.
type RecordStore interface {
	Save(record *meeting.Record) error
}

// Summarizer is the extraction boundary.
type Summarizer interface {
	SummarizeMeeting(ctx context.Context, notes, transcript string) (meeting.Summary, error)
}

// Indexer is the vector index boundary.
type Indexer interface {
	Upsert(ctx context.Context, documentID, text string, metadata map[string]string) error
}

// NoteSource fetches notes/transcript by meeting id when intake omits them.
type NoteSource interface {
	Meeting(ctx context.Context, id string) (string, error)
	Transcript(ctx context.Context, id string) (string, error)
}

// Pipeline sequences processing for one meeting and fans out to hooks.
// All collaborators are injected at construction; hooks are append-only.
type Pipeline struct {
	ledger     Ledger
	store      RecordStore
	summarizer Summarizer
	index      Indexer
	notes      NoteSource // optional
	metrics    *metrics.Metrics
	logger     *zap.Logger

	hooksMu sync.Mutex
	hooks   []Hook

	locks keyedLocks
}

// New creates a pipeline. notes may be nil when no note source is
// configured; m may be nil to disable instrumentation.
func New(ledger Ledger, store RecordStore, summarizer Summarizer, index Indexer, notes NoteSource, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		ledger:     ledger,
		store:      store,
		summarizer: summarizer,
		index:      index,
		notes:      notes,
		metrics:    m,
		logger:     logger,
	}
}

// AddHook appends a post-process hook. Hooks run in registration order.
// There is no unregister.
func (p *Pipeline) AddHook(hook Hook) {
	p.hooksMu.Lock()
	defer p.hooksMu.Unlock()
	p.hooks = append(p.hooks, hook)
}

// Process runs one submission: Received → Gated → Extracted → Persisted →
// Indexed → HooksRun → Done.
//
// A per-id lock is held for the whole run, so two concurrent submissions of
// the same id cannot both pass the gate. Independent ids proceed
// concurrently with no cross-meeting ordering guarantee.
//
// The meeting is marked processed only after the full pipeline completes; a
// failed attempt stays retryable by resubmitting the same id.
func (p *Pipeline) Process(ctx context.Context, in meeting.Intake) (*Result, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("meeting id required")
	}

	ctx, span := pipelineTracer.Start(ctx, "Pipeline.Process")
	defer span.End()
	span.SetAttributes(attribute.String("meeting_id", in.ID))

	unlock := p.locks.lock(in.ID)
	defer unlock()

	runID := uuid.NewString()
	logger := p.logger.With(zap.String("meeting_id", in.ID), zap.String("run_id", runID))

	if p.ledger.IsProcessed(in.ID) {
		logger.Info("duplicate submission skipped")
		span.SetAttributes(attribute.Bool("duplicate", true))
		if p.metrics != nil {
			p.metrics.DuplicatesSkipped.Inc()
		}
		return &Result{Status: StatusDuplicate}, nil
	}

	applyDefaults(&in)
	p.fetchMissingNotes(ctx, &in, logger)

	// One extraction call per meeting. A failed or malformed extraction
	// degrades to an empty summary; the meeting still enters the knowledge
	// base with its raw text.
	summary, err := p.summarizer.SummarizeMeeting(ctx, in.RawNotes, in.Transcript)
	if err != nil {
		logger.Warn("extraction failed, continuing with empty summary", zap.Error(err))
		summary = meeting.Summary{
			KeyDecisions:     []string{},
			ActionItems:      []meeting.ActionItem{},
			DiscussionPoints: []string{},
		}
		if p.metrics != nil {
			p.metrics.ExtractionFallback.Inc()
		}
	}

	record := &meeting.Record{
		ID:              in.ID,
		Title:           in.Title,
		Date:            in.Date,
		Participants:    orEmpty(in.Participants),
		RawNotes:        in.RawNotes,
		Transcript:      in.Transcript,
		ExternalSummary: in.ExternalSummary,
		Summary:         summary,
		CreatedAt:       time.Now().UTC(),
	}

	if err := p.store.Save(record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if p.metrics != nil {
			p.metrics.PipelineFailures.Inc()
		}
		return nil, fmt.Errorf("persisting record: %w", err)
	}

	if err := p.index.Upsert(ctx, record.ID, VectorText(record), map[string]string{
		"title": record.Title,
		"date":  record.Date,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if p.metrics != nil {
			p.metrics.PipelineFailures.Inc()
		}
		return nil, fmt.Errorf("indexing record: %w", err)
	}

	p.runHooks(ctx, record, summary, logger)

	if err := p.ledger.MarkProcessed(record.ID); err != nil {
		// The knowledge-base write succeeded but the mark did not commit;
		// a resubmission will overwrite the record, which is idempotent.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("marking processed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.MeetingsProcessed.Inc()
	}
	span.SetStatus(codes.Ok, "success")
	logger.Info("meeting processed",
		zap.String("title", record.Title),
		zap.Int("action_items", len(summary.ActionItems)),
		zap.Int("key_decisions", len(summary.KeyDecisions)),
	)
	return &Result{Status: StatusProcessed, Record: record}, nil
}

// fetchMissingNotes pulls notes and transcript from the note source when the
// intake carries none. Fetch failures degrade to empty text.
func (p *Pipeline) fetchMissingNotes(ctx context.Context, in *meeting.Intake, logger *zap.Logger) {
	if in.RawNotes != "" || p.notes == nil {
		return
	}

	notes, err := p.notes.Meeting(ctx, in.ID)
	if err != nil {
		logger.Warn("note fetch failed", zap.Error(err))
	} else {
		in.RawNotes = notes
	}

	if in.Transcript == "" {
		transcript, err := p.notes.Transcript(ctx, in.ID)
		if err != nil {
			logger.Warn("transcript fetch failed", zap.Error(err))
		} else {
			in.Transcript = transcript
		}
	}
}

// runHooks executes every registered hook. Hook failures are isolated:
// caught, logged, counted, and never propagated.
func (p *Pipeline) runHooks(ctx context.Context, record *meeting.Record, summary meeting.Summary, logger *zap.Logger) {
	p.hooksMu.Lock()
	hooks := make([]Hook, len(p.hooks))
	copy(hooks, p.hooks)
	p.hooksMu.Unlock()

	for i, hook := range hooks {
		if err := hook(ctx, record, summary); err != nil {
			logger.Error("post-process hook failed",
				zap.Int("hook", i),
				zap.Error(err),
			)
			if p.metrics != nil {
				p.metrics.HookFailures.Inc()
			}
		}
	}
}

// VectorText builds the embeddable blob for a record: title and date, the
// summary text, then decisions, action items and discussion points.
func VectorText(record *meeting.Record) string {
	items := make([]string, 0, len(record.Summary.ActionItems))
	for _, item := range record.Summary.ActionItems {
		if item.Assignee != "" {
			items = append(items, fmt.Sprintf("%s (%s)", item.Task, item.Assignee))
		} else {
			items = append(items, item.Task)
		}
	}

	return strings.Join([]string{
		fmt.Sprintf("Meeting: %s (%s)", record.Title, record.Date),
		record.Summary.Text,
		"Key Decisions: " + strings.Join(record.Summary.KeyDecisions, "; "),
		"Action Items: " + strings.Join(items, "; "),
		"Discussion: " + strings.Join(record.Summary.DiscussionPoints, "; "),
	}, "\n")
}

func applyDefaults(in *meeting.Intake) {
	if in.Title == "" {
		in.Title = DefaultTitle
	}
	if in.Date == "" {
		in.Date = time.Now().UTC().Format(time.RFC3339)
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// keyedLocks serializes pipeline runs per meeting id.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the lock for key and returns its release func.
func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*entry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
