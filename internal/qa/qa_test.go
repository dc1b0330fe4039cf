package qa_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/qa"
	"github.com/fyrsmithlabs/meetingd/internal/vectorstore"
)

type fakeRetriever struct {
	results []vectorstore.Result
	err     error
	topK    int
}

func (f *fakeRetriever) Query(_ context.Context, _ string, topK int) ([]vectorstore.Result, error) {
	f.topK = topK
	return f.results, f.err
}

type fakeCompleter struct {
	answer string
	err    error
	system string
	prompt string
	calls  int
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system = system
	f.prompt = prompt
	return f.answer, f.err
}

func TestAnswer_EmptyIndexSkipsModel(t *testing.T) {
	completer := &fakeCompleter{answer: "should not be used"}
	a := qa.New(&fakeRetriever{}, completer, nil, nil)

	answer, err := a.Answer(context.Background(), "what did we decide?")
	require.NoError(t, err)
	assert.Equal(t, qa.NoKnowledgeMessage, answer)
	assert.Zero(t, completer.calls)
}

func TestAnswer_UsesDefaultTopK(t *testing.T) {
	retriever := &fakeRetriever{}
	a := qa.New(retriever, &fakeCompleter{}, nil, nil)

	_, err := a.Answer(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, qa.DefaultTopK, retriever.topK)
}

func TestAnswer_BuildsContextBlocks(t *testing.T) {
	retriever := &fakeRetriever{results: []vectorstore.Result{
		{ID: "m1", Text: "Meeting: Planning\nShip Friday", Score: 0.91},
		{ID: "m2", Text: "Meeting: Standup\nNo blockers", Score: 0.42},
	}}
	completer := &fakeCompleter{answer: "We ship Friday."}
	a := qa.New(retriever, completer, nil, nil)

	answer, err := a.Answer(context.Background(), "when do we ship?")
	require.NoError(t, err)
	assert.Equal(t, "We ship Friday.", answer)

	assert.Contains(t, completer.system, "[Source 1 (score: 0.91)]")
	assert.Contains(t, completer.system, "[Source 2 (score: 0.42)]")
	assert.Contains(t, completer.system, "Ship Friday")
	assert.Contains(t, completer.system, "\n\n---\n\n")
	assert.Equal(t, "when do we ship?", completer.prompt)
}

func TestAnswer_EmptyModelOutputFallsBack(t *testing.T) {
	retriever := &fakeRetriever{results: []vectorstore.Result{{ID: "m1", Text: "notes", Score: 0.5}}}
	a := qa.New(retriever, &fakeCompleter{answer: "  \n"}, nil, nil)

	answer, err := a.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, qa.FallbackAnswer, answer)
}

func TestAnswer_PropagatesErrors(t *testing.T) {
	a := qa.New(&fakeRetriever{err: errors.New("index down")}, &fakeCompleter{}, nil, nil)
	_, err := a.Answer(context.Background(), "q")
	require.Error(t, err)

	retriever := &fakeRetriever{results: []vectorstore.Result{{ID: "m1", Text: "notes", Score: 0.5}}}
	a = qa.New(retriever, &fakeCompleter{err: errors.New("model down")}, nil, nil)
	_, err = a.Answer(context.Background(), "q")
	require.Error(t, err)
}
