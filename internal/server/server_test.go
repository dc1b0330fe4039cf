package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/meeting"
	"github.com/fyrsmithlabs/meetingd/internal/metrics"
	"github.com/fyrsmithlabs/meetingd/internal/pipeline"
	"github.com/fyrsmithlabs/meetingd/internal/server"
)

type fakeProcessor struct {
	result *pipeline.Result
	err    error
	got    meeting.Intake
}

func (f *fakeProcessor) Process(_ context.Context, in meeting.Intake) (*pipeline.Result, error) {
	f.got = in
	return f.result, f.err
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f *fakeAnswerer) Answer(context.Context, string) (string, error) {
	return f.answer, f.err
}

func newTestServer(t *testing.T, processor *fakeProcessor, answerer *fakeAnswerer) http.Handler {
	t.Helper()
	registry := prometheus.NewRegistry()
	metrics.New(registry)
	s, err := server.NewServer(server.Config{Port: 0}, processor, answerer, registry, nil)
	require.NoError(t, err)
	return s.Handler()
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeProcessor{}, &fakeAnswerer{})

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
	}
}

func TestMeetingWebhook_Processed(t *testing.T) {
	processor := &fakeProcessor{result: &pipeline.Result{Status: pipeline.StatusProcessed}}
	h := newTestServer(t, processor, &fakeAnswerer{})

	body := `{"id": "m-1", "title": "Planning", "notes": "We planned."}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/meetings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp["status"])
	assert.Equal(t, "m-1", resp["meeting_id"])
	assert.Equal(t, "Planning", processor.got.Title)
}

func TestMeetingWebhook_DuplicateStillOK(t *testing.T) {
	processor := &fakeProcessor{result: &pipeline.Result{Status: pipeline.StatusDuplicate}}
	h := newTestServer(t, processor, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/meetings", strings.NewReader(`{"id": "m-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_processed")
}

func TestMeetingWebhook_MissingID(t *testing.T) {
	h := newTestServer(t, &fakeProcessor{}, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/meetings", strings.NewReader(`{"title": "no id"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeetingWebhook_ProcessorError(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("store down")}
	h := newTestServer(t, processor, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/meetings", strings.NewReader(`{"id": "m-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAsk(t *testing.T) {
	h := newTestServer(t, &fakeProcessor{}, &fakeAnswerer{answer: "We ship Friday."})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "when do we ship?"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer": "We ship Friday."}`, rec.Body.String())
}

func TestAsk_MissingQuestion(t *testing.T) {
	h := newTestServer(t, &fakeProcessor{}, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeProcessor{}, &fakeAnswerer{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "meetingd_meetings_processed_total")
}
