package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryEntry(scope string) Entry {
	return Entry{
		Scope:       scope,
		DisplayName: scope,
		Adapter:     &fakeAdapter{name: scope},
		Load:        func(context.Context) ([]Record, error) { return nil, nil },
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(registryEntry("users")))
	require.NoError(t, r.Register(registryEntry("projects")))
	require.NoError(t, r.Register(registryEntry("plates")))

	assert.Equal(t, []string{"users", "projects", "plates"}, r.Scopes())

	e, ok := r.Get("projects")
	require.True(t, ok)
	assert.Equal(t, "projects", e.Scope)

	_, ok = r.Get("unknown")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(registryEntry("users")))

	err := r.Register(registryEntry("users"))
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistryRejectsIncompleteEntries(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(Entry{}))
	assert.Error(t, r.Register(Entry{Scope: "users"}))
}
