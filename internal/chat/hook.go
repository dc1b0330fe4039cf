package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/meeting"
	"github.com/fyrsmithlabs/meetingd/internal/notify"
	"github.com/fyrsmithlabs/meetingd/internal/pipeline"
)

// SummaryHookConfig configures the post-process summary hook.
type SummaryHookConfig struct {
	// Channel is the summary channel notifications are posted to.
	Channel string

	// Provider is the action provider issues are created with. Empty
	// disables issue creation.
	Provider string
}

// NewSummaryHook builds the post-process hook that announces a processed
// meeting in the summary channel and auto-creates issues for action items
// that carry assignees.
//
// Hook failures are the orchestrator's to swallow; within the hook,
// per-item creation failures are reported into the thread and never abort
// the remaining items. This is deliberately weak consistency: the knowledge
// base is already written when the hook runs, and a failed notification or
// issue is not rolled back.
func NewSummaryHook(cfg SummaryHookConfig, notifier notify.Notifier, issues IssueCreator, logger *zap.Logger) pipeline.Hook {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx context.Context, record *meeting.Record, summary meeting.Summary) error {
		if cfg.Channel == "" {
			logger.Warn("no summary channel configured, skipping notification")
			return nil
		}

		thread, err := notifier.Post(ctx, cfg.Channel, "", formatSummary(record, summary))
		if err != nil {
			return fmt.Errorf("posting meeting summary: %w", err)
		}

		if cfg.Provider == "" || issues == nil {
			return nil
		}

		for _, item := range summary.ActionItems {
			if item.Assignee == "" {
				continue
			}
			text := fmt.Sprintf("%s, assign to %s", item.Task, item.Assignee)
			if err := issues.CreateFromText(ctx, cfg.Provider, text, cfg.Channel, thread); err != nil {
				// Reported inside the flow; keep going with siblings.
				logger.Error("issue creation failed for action item",
					zap.String("meeting_id", record.ID),
					zap.String("task", item.Task),
					zap.Error(err),
				)
			}
		}
		return nil
	}
}

// formatSummary renders the channel announcement for a processed meeting.
func formatSummary(record *meeting.Record, summary meeting.Summary) string {
	decisions := "  _None_"
	if len(summary.KeyDecisions) > 0 {
		lines := make([]string, len(summary.KeyDecisions))
		for i, d := range summary.KeyDecisions {
			lines[i] = "  • " + d
		}
		decisions = strings.Join(lines, "\n")
	}

	actions := "  _None identified_"
	if len(summary.ActionItems) > 0 {
		lines := make([]string, len(summary.ActionItems))
		for i, a := range summary.ActionItems {
			if a.Assignee != "" {
				lines[i] = fmt.Sprintf("  • %s → *%s*", a.Task, a.Assignee)
			} else {
				lines[i] = "  • " + a.Task
			}
		}
		actions = strings.Join(lines, "\n")
	}

	return strings.Join([]string{
		fmt.Sprintf("*Meeting Summary: %s*", record.Title),
		fmt.Sprintf("_%s_", record.Date),
		"",
		summary.Text,
		"",
		"*Key Decisions:*",
		decisions,
		"",
		fmt.Sprintf("*Action Items (%d):*", len(summary.ActionItems)),
		actions,
	}, "\n")
}
