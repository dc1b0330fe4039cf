package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// GitHubConfig holds GitHub provider configuration.
type GitHubConfig struct {
	// Token is a personal access token or app token.
	Token string `json:"token"`

	// Repo is the target repository as "owner/repo".
	Repo string `json:"repo"`
}

// GitHubProvider creates issues and pull requests via the GitHub API.
// Repository collaborators form the identity cache.
type GitHubProvider struct {
	config     GitHubConfig
	client     *github.Client
	owner      string
	repo       string
	identities []Identity
	logger     *zap.Logger
}

// NewGitHubProvider creates an uninitialized GitHub provider.
func NewGitHubProvider(config GitHubConfig, logger *zap.Logger) *GitHubProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitHubProvider{config: config, logger: logger}
}

// Name implements ActionProvider.
func (p *GitHubProvider) Name() string { return "github" }

// Type implements ActionProvider.
func (p *GitHubProvider) Type() Type { return TypeCodePlatform }

// Init validates config, builds the authenticated client and caches the
// repository collaborators as identities.
func (p *GitHubProvider) Init(ctx context.Context) error {
	if p.config.Token == "" || p.config.Repo == "" {
		return fmt.Errorf("%w: github token and repo required", ErrInitFailed)
	}

	owner, repo, ok := strings.Cut(p.config.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("%w: github repo must be \"owner/repo\", got %q", ErrInitFailed, p.config.Repo)
	}
	p.owner, p.repo = owner, repo

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.config.Token})
	p.client = github.NewClient(oauth2.NewClient(ctx, ts))

	// Identity cache is best effort: an empty cache only degrades assignee
	// resolution, it does not make the provider unusable.
	users, _, err := p.client.Repositories.ListCollaborators(ctx, p.owner, p.repo, nil)
	if err != nil {
		p.logger.Warn("could not cache github collaborators", zap.Error(err))
	}
	for _, u := range users {
		display := u.GetName()
		if display == "" {
			display = u.GetLogin()
		}
		p.identities = append(p.identities, Identity{
			ID:          u.GetLogin(),
			DisplayName: display,
			Handle:      u.GetLogin(),
		})
	}

	p.logger.Info("github provider ready",
		zap.String("repo", p.config.Repo),
		zap.Int("identities", len(p.identities)),
	)
	return nil
}

// Identities implements ActionProvider.
func (p *GitHubProvider) Identities() []Identity { return p.identities }

// CreateItem creates an issue or a pull request in the configured repo.
func (p *GitHubProvider) CreateItem(ctx context.Context, params CreateItemParams) (*CreatedItem, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%w: github provider not initialized", ErrCreateFailed)
	}

	if params.Type == ItemTypePR {
		return p.createPR(ctx, params)
	}
	return p.createIssue(ctx, params)
}

func (p *GitHubProvider) createIssue(ctx context.Context, params CreateItemParams) (*CreatedItem, error) {
	req := &github.IssueRequest{
		Title: github.String(params.Title),
		Body:  github.String(params.Description),
	}
	if params.AssigneeID != "" {
		req.Assignees = &[]string{params.AssigneeID}
	}

	issue, _, err := p.client.Issues.Create(ctx, p.owner, p.repo, req)
	if err != nil {
		return nil, fmt.Errorf("%w: creating github issue: %v", ErrCreateFailed, err)
	}

	return &CreatedItem{
		ID:       fmt.Sprintf("#%d", issue.GetNumber()),
		URL:      issue.GetHTMLURL(),
		Title:    params.Title,
		Provider: p.Name(),
	}, nil
}

func (p *GitHubProvider) createPR(ctx context.Context, params CreateItemParams) (*CreatedItem, error) {
	head := params.Metadata["branch"]
	if head == "" {
		head = "main"
	}
	base := params.Metadata["base"]
	if base == "" {
		base = "main"
	}

	pr, _, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, &github.NewPullRequest{
		Title: github.String(params.Title),
		Body:  github.String(params.Description),
		Head:  github.String(head),
		Base:  github.String(base),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating github pull request: %v", ErrCreateFailed, err)
	}

	return &CreatedItem{
		ID:       fmt.Sprintf("#%d", pr.GetNumber()),
		URL:      pr.GetHTMLURL(),
		Title:    params.Title,
		Provider: p.Name(),
	}, nil
}
