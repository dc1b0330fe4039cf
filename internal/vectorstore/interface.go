// Package vectorstore provides the similarity index over meeting knowledge.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrEmptyDocument indicates an upsert with no id or no text.
	ErrEmptyDocument = errors.New("document id and text required")
)

// Result is a single similarity search hit.
//
// Score is an implementation-defined similarity measure on a single
// consistent scale: higher means more relevant within one query, but callers
// must not assume a fixed numeric range across implementations.
type Result struct {
	ID       string
	Text     string
	Score    float32
	Metadata map[string]string
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is the similarity index keyed by caller-chosen document ids.
type Index interface {
	// Upsert inserts or replaces the entry stored under documentID. Any
	// existing entry under the same id is deleted before the insert, so no
	// duplicate or stale entries accumulate.
	Upsert(ctx context.Context, documentID, text string, metadata map[string]string) error

	// Query returns up to topK entries ordered by descending relevance.
	Query(ctx context.Context, question string, topK int) ([]Result, error)

	// Close releases index resources.
	Close() error
}
