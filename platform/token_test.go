package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokenServer(t *testing.T, validity string) (*atomic.Int64, *tokenSource) {
	t.Helper()
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, map[string]any{"response": map[string]any{
			"token":    "token-v1",
			"validity": validity,
		}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"}
	return &calls, newTokenSource(cfg, server.Client(), zap.NewNop())
}

func TestTokenCached(t *testing.T) {
	calls, ts := newTokenServer(t, "2099-01-01T00:00:00Z")

	first, err := ts.Token(context.Background())
	require.NoError(t, err)
	second, err := ts.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-v1", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
}

func TestTokenRefreshedWithinSafetyMargin(t *testing.T) {
	calls, ts := newTokenServer(t, "2099-01-01T00:00:00Z")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	// Move the clock to 30s before expiry, inside the safety margin.
	ts.expiresAt = now.Add(30 * time.Second)

	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "token within safety margin is refreshed")
}

func TestTokenDefaultTTLOnBadValidity(t *testing.T) {
	_, ts := newTokenServer(t, "not-a-timestamp")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	_, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(defaultTokenTTL), ts.expiresAt)
}

func TestTokenInvalidate(t *testing.T) {
	calls, ts := newTokenServer(t, "2099-01-01T00:00:00Z")

	_, err := ts.Token(context.Background())
	require.NoError(t, err)

	ts.Invalidate()

	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}
