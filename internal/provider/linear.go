package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LinearConfig holds Linear provider configuration.
type LinearConfig struct {
	// APIKey is the Linear personal API key.
	APIKey string `json:"api_key"`

	// TeamID is the Linear team issues are created in.
	TeamID string `json:"team_id"`

	// BaseURL overrides the GraphQL endpoint, mainly for tests.
	BaseURL string `json:"base_url"`
}

const defaultLinearBaseURL = "https://api.linear.app/graphql"

// LinearProvider creates issues via Linear's GraphQL API. Linear ships no Go
// SDK, so requests are plain HTTP POSTs of GraphQL documents. Team members
// are cached as identities at Init.
type LinearProvider struct {
	config     LinearConfig
	httpClient *http.Client
	identities []Identity
	logger     *zap.Logger
}

// NewLinearProvider creates an uninitialized Linear provider.
func NewLinearProvider(config LinearConfig, logger *zap.Logger) *LinearProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultLinearBaseURL
	}
	return &LinearProvider{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Name implements ActionProvider.
func (p *LinearProvider) Name() string { return "linear" }

// Type implements ActionProvider.
func (p *LinearProvider) Type() Type { return TypeTracker }

// graphqlRequest is the wire shape of a GraphQL call.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Init validates config and caches the team member list.
func (p *LinearProvider) Init(ctx context.Context) error {
	if p.config.APIKey == "" || p.config.TeamID == "" {
		return fmt.Errorf("%w: linear api key and team id required", ErrInitFailed)
	}

	var resp struct {
		Data struct {
			Users struct {
				Nodes []struct {
					ID    string `json:"id"`
					Name  string `json:"name"`
					Email string `json:"email"`
				} `json:"nodes"`
			} `json:"users"`
		} `json:"data"`
	}
	err := p.do(ctx, graphqlRequest{Query: `{ users { nodes { id name email } } }`}, &resp)
	if err != nil {
		return fmt.Errorf("%w: caching linear users: %v", ErrInitFailed, err)
	}

	for _, u := range resp.Data.Users.Nodes {
		p.identities = append(p.identities, Identity{
			ID:          u.ID,
			DisplayName: u.Name,
			Handle:      u.Email,
		})
	}

	p.logger.Info("linear provider ready",
		zap.String("team_id", p.config.TeamID),
		zap.Int("identities", len(p.identities)),
	)
	return nil
}

// Identities implements ActionProvider.
func (p *LinearProvider) Identities() []Identity { return p.identities }

const issueCreateMutation = `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { identifier url }
  }
}`

// CreateItem creates a Linear issue. Linear has no pull requests, so the pr
// item type is rejected.
func (p *LinearProvider) CreateItem(ctx context.Context, params CreateItemParams) (*CreatedItem, error) {
	if params.Type == ItemTypePR {
		return nil, fmt.Errorf("%w: linear does not support pull requests", ErrCreateFailed)
	}

	input := map[string]any{
		"teamId":      p.config.TeamID,
		"title":       params.Title,
		"description": params.Description,
	}
	if params.AssigneeID != "" {
		input["assigneeId"] = params.AssigneeID
	}

	var resp struct {
		Data struct {
			IssueCreate struct {
				Success bool `json:"success"`
				Issue   struct {
					Identifier string `json:"identifier"`
					URL        string `json:"url"`
				} `json:"issue"`
			} `json:"issueCreate"`
		} `json:"data"`
	}
	err := p.do(ctx, graphqlRequest{
		Query:     issueCreateMutation,
		Variables: map[string]any{"input": input},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: creating linear issue: %v", ErrCreateFailed, err)
	}
	if !resp.Data.IssueCreate.Success {
		return nil, fmt.Errorf("%w: linear reported failure for %q", ErrCreateFailed, params.Title)
	}

	return &CreatedItem{
		ID:       resp.Data.IssueCreate.Issue.Identifier,
		URL:      resp.Data.IssueCreate.Issue.URL,
		Title:    params.Title,
		Provider: p.Name(),
	}, nil
}

// do posts a GraphQL document and decodes the response, surfacing GraphQL
// errors as Go errors.
func (p *LinearProvider) do(ctx context.Context, req graphqlRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", p.config.APIKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return err
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("linear API status %d: %s", httpResp.StatusCode, truncate(string(data), 200))
	}

	var envelope struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Errors) > 0 {
		return fmt.Errorf("linear GraphQL error: %s", envelope.Errors[0].Message)
	}

	return json.Unmarshal(data, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
