package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("meetingd.vectorstore.chromem")

// ChromemConfig holds configuration for the chromem-go embedded index.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string `json:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `json:"compress"`

	// Collection is the collection name holding all meeting documents.
	Collection string `json:"collection"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.local/share/meetingd/index"
	}
	if c.Collection == "" {
		c.Collection = "meetings"
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	return nil
}

// ChromemIndex implements Index using chromem-go, an embeddable vector
// database with persistence to gob files. No external service is needed.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	config     ChromemConfig
	logger     *zap.Logger
}

// NewChromemIndex opens (or creates) the persistent index at config.Path.
//
// Initialization is idempotent: an existing collection is reused, never
// recreated, so prior embeddings survive restarts.
func NewChromemIndex(config ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	idx := &ChromemIndex{
		db:       db,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	// GetOrCreateCollection is a no-op for an existing collection; a fresh
	// embedding func must always be supplied because chromem falls back to
	// its default OpenAI embedder when given nil.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, idx.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}
	idx.collection = collection

	logger.Info("vector index ready",
		zap.String("path", path),
		zap.String("collection", config.Collection),
		zap.Int("documents", collection.Count()),
	)
	return idx, nil
}

// embeddingFunc adapts the Embedder interface to chromem's EmbeddingFunc.
func (i *ChromemIndex) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return i.embedder.EmbedQuery(ctx, text)
	}
}

// Upsert inserts or replaces the entry under documentID. The existing entry,
// if any, is deleted first so exactly one entry stays live per id.
func (i *ChromemIndex) Upsert(ctx context.Context, documentID, text string, metadata map[string]string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Upsert")
	defer span.End()
	span.SetAttributes(attribute.String("document_id", documentID))

	if documentID == "" || text == "" {
		return ErrEmptyDocument
	}

	if _, err := i.collection.GetByID(ctx, documentID); err == nil {
		if err := i.collection.Delete(ctx, nil, nil, documentID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("deleting stale entry %s: %w", documentID, err)
		}
		i.logger.Debug("replaced stale index entry", zap.String("document_id", documentID))
	}

	embedding, err := i.embedder.EmbedQuery(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	doc := chromem.Document{
		ID:        documentID,
		Content:   text,
		Metadata:  metadata,
		Embedding: embedding,
	}
	if err := i.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding document %s: %w", documentID, err)
	}

	span.SetStatus(codes.Ok, "success")
	i.logger.Debug("upserted index entry",
		zap.String("document_id", documentID),
		zap.Int("text_len", len(text)),
	)
	return nil
}

// Query returns up to topK entries ordered by descending cosine similarity.
func (i *ChromemIndex) Query(ctx context.Context, question string, topK int) ([]Result, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", topK))

	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	// chromem requires nResults <= document count.
	count := i.collection.Count()
	if count == 0 {
		return []Result{}, nil
	}
	if topK > count {
		topK = count
	}

	hits, err := i.collection.Query(ctx, question, topK, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", i.config.Collection, err)
	}

	results := make([]Result, len(hits))
	for n, hit := range hits {
		results[n] = Result{
			ID:       hit.ID,
			Text:     hit.Content,
			Score:    hit.Similarity,
			Metadata: hit.Metadata,
		}
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	span.SetStatus(codes.Ok, "success")
	i.logger.Debug("queried vector index",
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Close releases index resources. chromem persists on write, so there is
// nothing to flush.
func (i *ChromemIndex) Close() error {
	return nil
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
