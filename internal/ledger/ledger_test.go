package ledger_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/ledger"
)

func TestNew_RequiresPath(t *testing.T) {
	_, err := ledger.New("", nil)
	require.Error(t, err)
}

func TestMarkProcessed_Idempotent(t *testing.T) {
	l, err := ledger.New(filepath.Join(t.TempDir(), "processed.json"), nil)
	require.NoError(t, err)

	assert.False(t, l.IsProcessed("meeting-1"))

	require.NoError(t, l.MarkProcessed("meeting-1"))
	assert.True(t, l.IsProcessed("meeting-1"))
	assert.Equal(t, 1, l.Len())

	// Marking again is a no-op, not an error.
	require.NoError(t, l.MarkProcessed("meeting-1"))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")

	l, err := ledger.New(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.MarkProcessed("meeting-1"))
	require.NoError(t, l.MarkProcessed("meeting-2"))

	reloaded, err := ledger.New(path, nil)
	require.NoError(t, err)
	assert.True(t, reloaded.IsProcessed("meeting-1"))
	assert.True(t, reloaded.IsProcessed("meeting-2"))
	assert.False(t, reloaded.IsProcessed("meeting-3"))
	assert.Equal(t, 2, reloaded.Len())
}

func TestLedger_CorruptSnapshotRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := ledger.New(path, nil)
	require.Error(t, err)
}

func TestLedger_ConcurrentMarks(t *testing.T) {
	l, err := ledger.New(filepath.Join(t.TempDir(), "processed.json"), nil)
	require.NoError(t, err)

	ids := []string{"a", "b", "c", "d", "e"}
	var wg sync.WaitGroup
	for range 10 {
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, l.MarkProcessed(id))
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, len(ids), l.Len())
	for _, id := range ids {
		assert.True(t, l.IsProcessed(id))
	}
}
