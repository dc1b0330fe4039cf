package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/provider"
)

// fakeProvider is a configurable in-memory ActionProvider.
type fakeProvider struct {
	name       string
	typ        provider.Type
	identities []provider.Identity
	created    []provider.CreateItemParams
	createErr  error
}

func (f *fakeProvider) Name() string                  { return f.name }
func (f *fakeProvider) Type() provider.Type           { return f.typ }
func (f *fakeProvider) Init(context.Context) error    { return nil }
func (f *fakeProvider) Identities() []provider.Identity { return f.identities }

func (f *fakeProvider) CreateItem(_ context.Context, params provider.CreateItemParams) (*provider.CreatedItem, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, params)
	return &provider.CreatedItem{
		ID:       "item-1",
		URL:      "https://example.test/item-1",
		Title:    params.Title,
		Provider: f.name,
	}, nil
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := provider.NewRegistry(nil)
	r.Register(&fakeProvider{name: "github", typ: provider.TypeCodePlatform})

	_, err := r.Get("linear")
	require.ErrorIs(t, err, provider.ErrNotRegistered)
	assert.Contains(t, err.Error(), "github")
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := provider.NewRegistry(nil)
	first := &fakeProvider{name: "linear", typ: provider.TypeTracker}
	second := &fakeProvider{name: "linear", typ: provider.TypeTracker, identities: []provider.Identity{{ID: "u1"}}}

	r.Register(first)
	r.Register(second)

	got, err := r.Get("linear")
	require.NoError(t, err)
	assert.Len(t, got.Identities(), 1)
}

func TestRegistry_ListByType(t *testing.T) {
	r := provider.NewRegistry(nil)
	r.Register(&fakeProvider{name: "linear", typ: provider.TypeTracker})
	r.Register(&fakeProvider{name: "github", typ: provider.TypeCodePlatform})
	r.Register(&fakeProvider{name: "jira", typ: provider.TypeTracker})

	trackers := r.ListByType(provider.TypeTracker)
	require.Len(t, trackers, 2)
	assert.Equal(t, "jira", trackers[0].Name())
	assert.Equal(t, "linear", trackers[1].Name())

	assert.Len(t, r.All(), 3)
	assert.True(t, r.Has("github"))
	assert.False(t, r.Has("asana"))
}
