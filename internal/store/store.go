// Package store persists meeting records as one JSON document per meeting id.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/meeting"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("meeting record not found")

// Store is a durable per-meeting record store. Save is an idempotent
// overwrite (last write wins); there is no versioning and records are never
// deleted. Writes to different ids are safe concurrently; same-id writes are
// excluded upstream by the dedup ledger gate.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates a record store rooted at dir.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save writes the record, overwriting any previous version.
func (s *Store) Save(record *meeting.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record with id required")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", record.ID, err)
	}

	path := s.recordPath(record.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing record %s: %w", record.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing record %s: %w", record.ID, err)
	}

	s.logger.Debug("saved meeting record", zap.String("meeting_id", record.ID))
	return nil
}

// Get returns the record for id, or ErrNotFound.
func (s *Store) Get(id string) (*meeting.Record, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", id, err)
	}

	var record meeting.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", id, err)
	}
	return &record, nil
}

// recordPath maps an opaque meeting id to a filename. Ids are hex/uuid-like
// in practice; anything outside the safe set is replaced.
func (s *Store) recordPath(id string) string {
	safe := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			safe = append(safe, r)
		default:
			safe = append(safe, '_')
		}
	}
	return filepath.Join(s.dir, string(safe)+".json")
}
