package vectorstore_test

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/vectorstore"
)

// fakeEmbedder produces deterministic normalized bag-of-words embeddings so
// texts sharing tokens score higher cosine similarity. No network involved.
type fakeEmbedder struct{}

const fakeDims = 64

func (fakeEmbedder) embed(text string) []float32 {
	vec := make([]float32, fakeDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%fakeDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (f fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.embed(text), nil
}

func newTestIndex(t *testing.T) *vectorstore.ChromemIndex {
	t.Helper()
	idx, err := vectorstore.NewChromemIndex(vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Collection: "meetings-test",
	}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestNewChromemIndex_RequiresEmbedder(t *testing.T) {
	_, err := vectorstore.NewChromemIndex(vectorstore.ChromemConfig{Path: t.TempDir()}, nil, nil)
	require.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsert_RejectsEmptyDocument(t *testing.T) {
	idx := newTestIndex(t)

	require.ErrorIs(t, idx.Upsert(context.Background(), "", "text", nil), vectorstore.ErrEmptyDocument)
	require.ErrorIs(t, idx.Upsert(context.Background(), "id", "", nil), vectorstore.ErrEmptyDocument)
}

func TestUpsert_ReplaceKeepsOneEntry(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "meeting-1", "budget planning for launch", map[string]string{"title": "v1"}))
	require.NoError(t, idx.Upsert(ctx, "meeting-1", "budget planning revised for launch", map[string]string{"title": "v2"}))

	results, err := idx.Query(ctx, "budget planning launch", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "meeting-1", results[0].ID)
	assert.Contains(t, results[0].Text, "revised")
	assert.Equal(t, "v2", results[0].Metadata["title"])
}

func TestQuery_OrderedByRelevance(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "m-launch", "launch timeline launch dates launch review", nil))
	require.NoError(t, idx.Upsert(ctx, "m-hiring", "hiring pipeline interviews headcount", nil))

	results, err := idx.Query(ctx, "launch timeline", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "m-launch", results[0].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQuery_TopKCappedAtCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, "only", "a single meeting about roadmaps", nil))

	results, err := idx.Query(ctx, "roadmaps", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := vectorstore.NewChromemIndex(vectorstore.ChromemConfig{Path: dir, Collection: "meetings-test"}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, "m1", "retention metrics dashboard", nil))
	require.NoError(t, idx.Close())

	reopened, err := vectorstore.NewChromemIndex(vectorstore.ChromemConfig{Path: dir, Collection: "meetings-test"}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	results, err := reopened.Query(ctx, "retention metrics", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].ID)
}
