// Package notesource fetches meeting notes and transcripts from the remote
// note-taking service over MCP. The wire format belongs to the service; this
// client only names tools and concatenates their text output.
package notesource

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	toolGetMeeting    = "get_meetings"
	toolGetTranscript = "get_meeting_transcript"

	connectTimeout = 30 * time.Second
	maxFetchRetry  = 3
)

// Config holds note-source connection settings.
type Config struct {
	// URL is the MCP endpoint (streamable HTTP).
	URL string `json:"url"`

	// Token is the bearer token, if the service requires one.
	Token string `json:"token"`
}

// Client is a connected MCP note-source client.
type Client struct {
	session *mcp.ClientSession
	logger  *zap.Logger
}

// bearerTransport injects the Authorization header on every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}

// Connect dials the note source. The process works without it (intake may
// carry notes inline), so callers treat a connect failure as a warning.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("note source URL required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{Timeout: connectTimeout}
	if cfg.Token != "" {
		httpClient.Transport = &bearerTransport{token: cfg.Token, base: http.DefaultTransport}
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "meetingd", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   cfg.URL,
		HTTPClient: httpClient,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting note source: %w", err)
	}

	logger.Info("note source connected", zap.String("url", cfg.URL))
	return &Client{session: session, logger: logger}, nil
}

// Meeting fetches the notes for a meeting id.
func (c *Client) Meeting(ctx context.Context, id string) (string, error) {
	return c.callText(ctx, toolGetMeeting, map[string]any{"id": id})
}

// Transcript fetches the transcript for a meeting id.
func (c *Client) Transcript(ctx context.Context, id string) (string, error) {
	return c.callText(ctx, toolGetTranscript, map[string]any{"id": id})
}

// Close terminates the MCP session.
func (c *Client) Close() error {
	return c.session.Close()
}

// callText calls an MCP tool with retry and joins its text contents.
func (c *Client) callText(ctx context.Context, tool string, args map[string]any) (string, error) {
	var result *mcp.CallToolResult

	operation := func() error {
		var err error
		result, err = c.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetry), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("calling %s: %w", tool, err)
	}
	if result.IsError {
		return "", fmt.Errorf("calling %s: tool reported error", tool)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}

	c.logger.Debug("fetched from note source",
		zap.String("tool", tool),
		zap.Int("parts", len(parts)),
	)
	return strings.Join(parts, "\n"), nil
}
