package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestManager gives a manager with a ~1KB budget by lowering max directly,
// since Config is expressed in megabytes.
func newTestManager(maxBytes int64) *Manager {
	m := New(Config{MaxMB: 1}, zap.NewNop())
	m.max = maxBytes
	return m
}

func TestRegisterAndGet(t *testing.T) {
	m := newTestManager(10_000)

	ok := m.Register("users_source", []string{"a", "b"}, "users")
	require.True(t, ok)

	data, found := m.Get("users_source")
	require.True(t, found)
	assert.Equal(t, []string{"a", "b"}, data)

	_, found = m.Get("missing")
	assert.False(t, found)
}

func TestRegisterReplacesExisting(t *testing.T) {
	m := newTestManager(10_000)

	require.True(t, m.Register("users_source", "old", "users"))
	require.True(t, m.Register("users_source", "new", "users"))

	data, found := m.Get("users_source")
	require.True(t, found)
	assert.Equal(t, "new", data)
	assert.Equal(t, 1, m.Stats().Datasets)
}

func TestOversizedDatasetRejected(t *testing.T) {
	m := newTestManager(100)

	ok := m.Register("huge", strings.Repeat("x", 500), "users")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), m.Stats().Rejected)
}

func TestEvictsOtherScopesLRUFirst(t *testing.T) {
	m := newTestManager(2000)
	payload := strings.Repeat("x", 500) // ~516 bytes

	require.True(t, m.Register("users_source", payload, "users"))
	require.True(t, m.Register("projects_source", payload, "projects"))
	require.True(t, m.Register("plates_source", payload, "plates"))

	// Touch users so projects becomes the oldest.
	_, found := m.Get("users_source")
	require.True(t, found)

	require.True(t, m.Register("subposts_source", payload, "subposts"))

	_, found = m.Get("projects_source")
	assert.False(t, found, "least recently used dataset from another scope is evicted")
	_, found = m.Get("users_source")
	assert.True(t, found)
	assert.Equal(t, uint64(1), m.Stats().Evictions)
}

func TestSameScopeDatasetsNotEvicted(t *testing.T) {
	m := newTestManager(1100)
	payload := strings.Repeat("x", 500)

	require.True(t, m.Register("users_source", payload, "users"))
	require.True(t, m.Register("users_target", payload, "users"))

	// A third dataset in the same scope cannot evict its own scope.
	ok := m.Register("users_extra", payload, "users")
	assert.False(t, ok)

	_, found := m.Get("users_source")
	assert.True(t, found)
	_, found = m.Get("users_target")
	assert.True(t, found)
}

func TestCleanupScope(t *testing.T) {
	m := newTestManager(10_000)

	require.True(t, m.Register("users_source", "abc", "users"))
	require.True(t, m.Register("users_target", "def", "users"))
	require.True(t, m.Register("projects_source", "ghi", "projects"))

	freed := m.CleanupScope("users")
	assert.Positive(t, freed)

	_, found := m.Get("users_source")
	assert.False(t, found)
	_, found = m.Get("projects_source")
	assert.True(t, found)
}

func TestCleanupAll(t *testing.T) {
	m := newTestManager(10_000)

	require.True(t, m.Register("a", "abc", "users"))
	require.True(t, m.Register("b", "def", "projects"))

	freed := m.CleanupAll()
	assert.Positive(t, freed)

	s := m.Stats()
	assert.Equal(t, 0, s.Datasets)
	assert.Equal(t, int64(0), s.Bytes)
}
