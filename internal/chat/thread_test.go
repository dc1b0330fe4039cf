package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/chat"
)

type fakeThreadReader struct {
	messages []chat.ThreadMessage
	err      error
}

func (f *fakeThreadReader) Replies(context.Context, string, string, int) ([]chat.ThreadMessage, error) {
	return f.messages, f.err
}

type fakeThreadCompleter struct {
	summary string
	err     error
	prompt  string
}

func (f *fakeThreadCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.summary, f.err
}

type fakeUpserter struct {
	docID    string
	text     string
	metadata map[string]string
	err      error
}

func (f *fakeUpserter) Upsert(_ context.Context, documentID, text string, metadata map[string]string) error {
	f.docID = documentID
	f.text = text
	f.metadata = metadata
	return f.err
}

func threadFixture() []chat.ThreadMessage {
	return []chat.ThreadMessage{
		{User: "ana", Timestamp: "100.1", Text: "Can we ship Friday?"},
		{User: "bob", Timestamp: "100.2", Text: "Yes, if the migration lands."},
	}
}

func TestThreadSummarize(t *testing.T) {
	completer := &fakeThreadCompleter{summary: "Ship Friday pending migration."}
	upserter := &fakeUpserter{}
	ts := chat.NewThreadSummarizer(&fakeThreadReader{messages: threadFixture()}, completer, upserter, nil)

	summary, err := ts.Summarize(context.Background(), "C1", "100.1")
	require.NoError(t, err)
	assert.Equal(t, "Ship Friday pending migration.", summary)

	// Messages are formatted [user] (ts): text for the model.
	assert.Contains(t, completer.prompt, "[ana] (100.1): Can we ship Friday?")
	assert.Contains(t, completer.prompt, "[bob] (100.2):")

	assert.Equal(t, "thread-C1-100.1", upserter.docID)
	assert.Contains(t, upserter.text, "Thread Summary:")
	assert.Equal(t, "thread-summary", upserter.metadata["type"])
}

func TestThreadSummarize_TooShort(t *testing.T) {
	reader := &fakeThreadReader{messages: threadFixture()[:1]}
	upserter := &fakeUpserter{}
	ts := chat.NewThreadSummarizer(reader, &fakeThreadCompleter{}, upserter, nil)

	summary, err := ts.Summarize(context.Background(), "C1", "100.1")
	require.NoError(t, err)
	assert.Equal(t, chat.NotEnoughMessages, summary)
	assert.Empty(t, upserter.docID)
}

func TestThreadSummarize_EmptyModelOutputFallsBack(t *testing.T) {
	ts := chat.NewThreadSummarizer(&fakeThreadReader{messages: threadFixture()}, &fakeThreadCompleter{summary: "  "}, &fakeUpserter{}, nil)

	summary, err := ts.Summarize(context.Background(), "C1", "100.1")
	require.NoError(t, err)
	assert.Equal(t, "Could not summarize.", summary)
}

func TestThreadSummarize_Errors(t *testing.T) {
	ts := chat.NewThreadSummarizer(&fakeThreadReader{err: errors.New("platform down")}, &fakeThreadCompleter{}, &fakeUpserter{}, nil)
	_, err := ts.Summarize(context.Background(), "C1", "100.1")
	require.Error(t, err)

	ts = chat.NewThreadSummarizer(&fakeThreadReader{messages: threadFixture()}, &fakeThreadCompleter{summary: "s"}, &fakeUpserter{err: errors.New("index down")}, nil)
	_, err = ts.Summarize(context.Background(), "C1", "100.1")
	require.Error(t, err)
}
