// Package meeting defines the core data model for processed meetings.
package meeting

import "time"

// ActionItem is a single commitment extracted from a meeting.
//
// Assignee is unresolved free text as spoken in the meeting. Resolution to a
// concrete identity happens later, per action provider, and is never written
// back onto the item.
type ActionItem struct {
	// Task is what needs to be done. Required, non-empty.
	Task string `json:"task"`

	// Assignee is the free-text name of the person responsible, if any.
	Assignee string `json:"assignee,omitempty"`
}

// Summary is the structured extraction produced once per meeting.
// It is treated as immutable after creation.
type Summary struct {
	Text             string       `json:"summary"`
	KeyDecisions     []string     `json:"key_decisions"`
	ActionItems      []ActionItem `json:"action_items"`
	DiscussionPoints []string     `json:"discussion_points"`
}

// Empty reports whether the summary carries no extracted content.
func (s Summary) Empty() bool {
	return s.Text == "" && len(s.KeyDecisions) == 0 && len(s.ActionItems) == 0 && len(s.DiscussionPoints) == 0
}

// Record is the durable artifact of one processed meeting.
//
// ID is opaque, source-assigned and immutable once assigned. A record is
// written at most once per id; the dedup ledger gates reprocessing, and a
// forced reprocess performs a full overwrite.
type Record struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Date            string    `json:"date"`
	Participants    []string  `json:"participants"`
	RawNotes        string    `json:"raw_notes"`
	Transcript      string    `json:"transcript"`
	ExternalSummary string    `json:"external_summary"`
	Summary         Summary   `json:"extracted_summary"`
	CreatedAt       time.Time `json:"created_at"`
}

// Intake is a structured ingestion request. ID is mandatory; everything else
// may be absent and defaults are applied by the pipeline.
type Intake struct {
	ID              string   `json:"id"`
	Title           string   `json:"title,omitempty"`
	Date            string   `json:"date,omitempty"`
	RawNotes        string   `json:"notes,omitempty"`
	Transcript      string   `json:"transcript,omitempty"`
	ExternalSummary string   `json:"external_summary,omitempty"`
	Participants    []string `json:"participants,omitempty"`
}
