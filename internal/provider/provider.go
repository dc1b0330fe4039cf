// Package provider dispatches extracted commitments to task-tracker
// integrations. Each provider exposes the same create-item contract over a
// different backing system; new integrations implement the capability rather
// than branching on type.
package provider

import (
	"context"
	"errors"
)

// Sentinel errors for provider operations.
var (
	// ErrNotRegistered is returned when looking up an unknown provider name.
	ErrNotRegistered = errors.New("provider not registered")

	// ErrInitFailed is returned when required credentials or config are
	// absent or the initial remote handshake fails.
	ErrInitFailed = errors.New("provider initialization failed")

	// ErrCreateFailed is returned when the remote create call fails.
	ErrCreateFailed = errors.New("item creation failed")
)

// ItemType distinguishes the kinds of trackable work items.
type ItemType string

const (
	// ItemTypeIssue is a tracker issue or ticket.
	ItemTypeIssue ItemType = "issue"

	// ItemTypePR is a pull request.
	ItemTypePR ItemType = "pr"
)

// Type groups providers by the class of system they integrate with.
type Type string

const (
	// TypeTracker is a ticket/issue tracker (e.g. Linear).
	TypeTracker Type = "tracker"

	// TypeCodePlatform is a code-hosting platform (e.g. GitHub).
	TypeCodePlatform Type = "code-platform"
)

// CreateItemParams describes the item to create.
type CreateItemParams struct {
	Type        ItemType
	Title       string
	Description string

	// AssigneeID is a provider-namespace identity id, or empty.
	AssigneeID string

	// Metadata carries provider-specific extras (e.g. branch/base for PRs).
	Metadata map[string]string
}

// CreatedItem describes the item the provider created.
type CreatedItem struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Provider string `json:"provider"`
}

// Identity is a known collaborator within one provider's namespace. The
// cache is loaded at Init and read-only for the lifetime of the process.
type Identity struct {
	ID          string
	DisplayName string
	Handle      string
}

// ActionProvider is the capability contract each integration implements.
type ActionProvider interface {
	// Name is the registry lookup key.
	Name() string

	// Type reports the provider class.
	Type() Type

	// Init validates credentials/config and loads the identity cache.
	// Returns an error wrapping ErrInitFailed when the provider cannot be
	// used; the caller leaves it out of the registry instead of crashing.
	Init(ctx context.Context) error

	// CreateItem creates a work item, failing with an error wrapping
	// ErrCreateFailed when the remote call fails.
	CreateItem(ctx context.Context, params CreateItemParams) (*CreatedItem, error)

	// Identities returns the cached collaborator identities, in cache order.
	Identities() []Identity
}
