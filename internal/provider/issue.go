package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/notify"
	"github.com/fyrsmithlabs/meetingd/internal/summarizer"
)

// IssueExtractor derives an issue draft from free text. Satisfied by
// summarizer.Service.
type IssueExtractor interface {
	ExtractIssue(ctx context.Context, text string) (summarizer.IssueDraft, error)
}

// IssueCreator runs the issue-from-text flow: extract fields, resolve the
// assignee within the target provider's namespace, announce, create, report.
type IssueCreator struct {
	extractor IssueExtractor
	registry  *Registry
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewIssueCreator wires the composed flow.
func NewIssueCreator(extractor IssueExtractor, registry *Registry, notifier notify.Notifier, logger *zap.Logger) *IssueCreator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueCreator{
		extractor: extractor,
		registry:  registry,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateFromText derives an issue from free text and creates it with the
// named provider, posting progress into the given channel/thread.
//
// An unresolved assignee is not an error: the raw free-text name is kept as
// a display label and the item is created unassigned.
func (c *IssueCreator) CreateFromText(ctx context.Context, providerName, text, channel, thread string) (*CreatedItem, error) {
	p, err := c.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	draft, err := c.extractor.ExtractIssue(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extracting issue fields: %w", err)
	}

	assigneeID := ""
	assigneeLabel := "unassigned"
	if draft.AssigneeName != "" {
		assigneeLabel = draft.AssigneeName
		if identity := ResolveIdentity(draft.AssigneeName, p.Identities()); identity != nil {
			assigneeID = identity.ID
			assigneeLabel = identity.DisplayName
		}
	}

	c.post(ctx, channel, thread, fmt.Sprintf("Creating issue: *%s* - assigning to %s", draft.Title, assigneeLabel))

	item, err := p.CreateItem(ctx, CreateItemParams{
		Type:        ItemTypeIssue,
		Title:       draft.Title,
		Description: draft.Description,
		AssigneeID:  assigneeID,
	})
	if err != nil {
		c.post(ctx, channel, thread, fmt.Sprintf("Failed to create issue: *%s* - %v", draft.Title, err))
		return nil, err
	}

	c.post(ctx, channel, thread, fmt.Sprintf("Created <%s|%s> - assigned to %s", item.URL, item.Title, assigneeLabel))

	c.logger.Info("created item from text",
		zap.String("provider", providerName),
		zap.String("item_id", item.ID),
		zap.String("assignee", assigneeLabel),
	)
	return item, nil
}

// post sends a best-effort progress notification. Notification failure never
// fails the flow.
func (c *IssueCreator) post(ctx context.Context, channel, thread, text string) {
	if _, err := c.notifier.Post(ctx, channel, thread, text); err != nil {
		c.logger.Warn("notification failed", zap.Error(err))
	}
}
