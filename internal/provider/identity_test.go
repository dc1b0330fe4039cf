package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/provider"
)

func roster() []provider.Identity {
	return []provider.Identity{
		{ID: "u1", DisplayName: "Ana Kim", Handle: "akim@example.com"},
		{ID: "u2", DisplayName: "Ana Lee", Handle: "ana.lee@example.com"},
		{ID: "u3", DisplayName: "Bob Tran", Handle: "btran@example.com"},
	}
}

func TestResolveIdentity_ExactDisplayNameBeatsPrefix(t *testing.T) {
	// "ana lee" is also a prefix match for nobody and a contains match for
	// "Ana Lee"; the exact pass must win before "Ana Kim" gets a chance.
	got := provider.ResolveIdentity("ana lee", roster())
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.ID)
}

func TestResolveIdentity_ExactLocalPart(t *testing.T) {
	got := provider.ResolveIdentity("btran", roster())
	require.NotNil(t, got)
	assert.Equal(t, "u3", got.ID)
}

func TestResolveIdentity_PrefixFallback(t *testing.T) {
	got := provider.ResolveIdentity("bob", roster())
	require.NotNil(t, got)
	assert.Equal(t, "u3", got.ID)
}

func TestResolveIdentity_ContainsFallback(t *testing.T) {
	got := provider.ResolveIdentity("tran", roster())
	require.NotNil(t, got)
	assert.Equal(t, "u3", got.ID)
}

func TestResolveIdentity_TieBreaksByCacheOrder(t *testing.T) {
	got := provider.ResolveIdentity("ana", roster())
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)
}

func TestResolveIdentity_CaseInsensitive(t *testing.T) {
	got := provider.ResolveIdentity("ANA KIM", roster())
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)
}

func TestResolveIdentity_NoMatch(t *testing.T) {
	assert.Nil(t, provider.ResolveIdentity("charlie", roster()))
	assert.Nil(t, provider.ResolveIdentity("", roster()))
	assert.Nil(t, provider.ResolveIdentity("  ", roster()))
	assert.Nil(t, provider.ResolveIdentity("ana", nil))
}
