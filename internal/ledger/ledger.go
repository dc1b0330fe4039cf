// Package ledger tracks which meeting ids have already been processed.
//
// The ledger gates pipeline entry: a meeting id passes the gate exactly once
// in the steady state. Membership is persisted as a single versioned JSON
// snapshot, rewritten wholesale on each insertion. That is acceptable at low
// ingestion rates; a production replacement should use an atomic append or a
// transactional upsert.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const snapshotVersion = 1

// snapshot is the persisted ledger structure.
type snapshot struct {
	Version int      `json:"version"`
	IDs     []string `json:"ids"`
}

// Ledger is a durable set of processed meeting ids.
//
// MarkProcessed persists synchronously: once it returns nil the mark survives
// a restart. If persistence fails, the in-memory mark is rolled back so a
// retried submission of the same id passes the gate again.
type Ledger struct {
	mu     sync.Mutex
	path   string
	seen   map[string]struct{}
	logger *zap.Logger
}

// New creates a ledger backed by the snapshot file at path, loading any
// existing snapshot.
func New(path string, logger *zap.Logger) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	l := &Ledger{
		path:   path,
		seen:   make(map[string]struct{}),
		logger: logger,
	}

	if err := l.load(); err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	logger.Info("dedup ledger ready",
		zap.String("path", path),
		zap.Int("entries", len(l.seen)),
	)
	return l, nil
}

func (l *Ledger) load() error {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot %s: %w", l.path, err)
	}
	for _, id := range snap.IDs {
		l.seen[id] = struct{}{}
	}
	return nil
}

// IsProcessed reports whether id has already been processed.
func (l *Ledger) IsProcessed(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// MarkProcessed records id as processed and persists the snapshot before
// returning. On persistence failure the mark is not committed.
func (l *Ledger) MarkProcessed(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return nil
	}

	l.seen[id] = struct{}{}
	if err := l.persistLocked(); err != nil {
		delete(l.seen, id)
		return fmt.Errorf("persisting ledger: %w", err)
	}

	l.logger.Debug("marked processed", zap.String("meeting_id", id))
	return nil
}

// Len returns the number of processed ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// persistLocked writes the snapshot via a temp file and rename so readers
// never observe a partial write. Caller must hold l.mu.
func (l *Ledger) persistLocked() error {
	snap := snapshot{Version: snapshotVersion, IDs: make([]string, 0, len(l.seen))}
	for id := range l.seen {
		snap.IDs = append(snap.IDs, id)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
