package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"expense-sync/core/cache"
	"expense-sync/core/ratelimit"
	"expense-sync/core/reconcile"
	"expense-sync/core/retry"
)

type fakePlatform struct {
	mux        *http.ServeMux
	authCalls  atomic.Int64
	listCalls  atomic.Int64
	writeCalls atomic.Int64
}

func newFakePlatform(t *testing.T, users [][]map[string]any) (*fakePlatform, *httptest.Server) {
	t.Helper()
	f := &fakePlatform{mux: http.NewServeMux()}

	f.mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls.Add(1)
		writeJSON(w, map[string]any{"response": map[string]any{
			"token":    "test-token",
			"validity": "2099-01-01T00:00:00Z",
		}})
	})
	f.mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := f.listCalls.Add(1)
		page := []map[string]any{}
		if int(n) <= len(users) {
			page = users[n-1]
		}
		writeJSON(w, map[string]any{"response": map[string]any{"data": page}})
	})
	f.mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		f.writeCalls.Add(1)
		writeJSON(w, map[string]any{"response": map[string]any{}})
	})

	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)
	return f, server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(baseURL string, pageSize int) *Client {
	cfg := Config{
		BaseURL:      baseURL,
		ClientID:     "id",
		ClientSecret: "secret",
		PageSize:     pageSize,
	}
	limiter := ratelimit.New(ratelimit.Config{
		DayRead: 1000, DayWrite: 1000, NightRead: 1000, NightWrite: 1000,
		DayStartHour: 6, DayEndHour: 20,
	}, zap.NewNop())
	retryCfg := retry.Config{MaxAttempts: 3, Multiplier: 2}
	responseCache := cache.New(cache.Config{TTLSeconds: 3600, MaxBytes: 1 << 20}, zap.NewNop())
	return NewClient(cfg, responseCache, limiter, retryCfg, zap.NewNop())
}

func page(ids ...string) []map[string]any {
	records := make([]map[string]any, len(ids))
	for i, id := range ids {
		records[i] = map[string]any{"mail": id}
	}
	return records
}

func TestListPaginatesUntilShortPage(t *testing.T) {
	f, server := newFakePlatform(t, [][]map[string]any{
		page("a@x.com", "b@x.com"),
		page("c@x.com"),
	})
	c := newTestClient(server.URL, 2)

	records, err := c.List(context.Background(), "users", "/users")
	require.NoError(t, err)

	assert.Len(t, records, 3)
	assert.Equal(t, int64(2), f.listCalls.Load(), "short page ends pagination")
	assert.Equal(t, int64(1), f.authCalls.Load(), "token fetched once")
}

func TestListCachesFullResult(t *testing.T) {
	f, server := newFakePlatform(t, [][]map[string]any{page("a@x.com")})
	c := newTestClient(server.URL, 200)

	first, err := c.List(context.Background(), "users", "/users")
	require.NoError(t, err)
	second, err := c.List(context.Background(), "users", "/users")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), f.listCalls.Load(), "second list served from cache")
}

func TestListResultsIsolatedFromCache(t *testing.T) {
	f, server := newFakePlatform(t, [][]map[string]any{page("a@x.com")})
	c := newTestClient(server.URL, 200)

	first, err := c.List(context.Background(), "users", "/users")
	require.NoError(t, err)
	first[0]["mail"] = "mutated@x.com"
	first[0]["company_id"] = "uuid-acme"

	second, err := c.List(context.Background(), "users", "/users")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.listCalls.Load(), "second list served from cache")
	assert.Equal(t, "a@x.com", second[0]["mail"], "caller mutations never reach the cached payload")
	assert.NotContains(t, second[0], "company_id")
}

func TestWriteInvalidatesCache(t *testing.T) {
	f, server := newFakePlatform(t, [][]map[string]any{page("a@x.com"), page("a@x.com")})
	c := newTestClient(server.URL, 200)

	_, err := c.List(context.Background(), "users", "/users")
	require.NoError(t, err)

	result := c.Create(context.Background(), "users", "/users", "b@x.com", map[string]any{"mail": "b@x.com"})
	require.True(t, result.Success)

	_, err = c.List(context.Background(), "users", "/users")
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.listCalls.Load(), "list after write refetches")
}

func TestMutateRetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"response": map[string]any{"token": "test-token", "validity": "2099-01-01T00:00:00Z"}})
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{"response": map[string]any{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(server.URL, 200)
	c.retryCfg = retry.Config{MaxAttempts: 3, Multiplier: 2}

	result := c.Create(context.Background(), "users", "/users", "a@x.com", map[string]any{"mail": "a@x.com"})

	assert.True(t, result.Success)
	assert.Equal(t, int64(3), attempts.Load())
}

func TestMutatePermanentFailureNotRetried(t *testing.T) {
	var attempts atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"response": map[string]any{"token": "test-token", "validity": "2099-01-01T00:00:00Z"}})
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"mail is invalid"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(server.URL, 200)
	result := c.Create(context.Background(), "users", "/users", "bad", map[string]any{"mail": "bad"})

	assert.False(t, result.Success)
	assert.Equal(t, reconcile.ErrorPermanent, result.ErrorKind)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, int64(1), attempts.Load(), "4xx is not retried")
}

func TestMutateExhaustedRetriesReportedTransient(t *testing.T) {
	var attempts atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"response": map[string]any{"token": "test-token", "validity": "2099-01-01T00:00:00Z"}})
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(server.URL, 200)
	result := c.Create(context.Background(), "users", "/users", "a@x.com", map[string]any{"mail": "a@x.com"})

	assert.False(t, result.Success)
	assert.Equal(t, reconcile.ErrorTransient, result.ErrorKind)
	assert.Equal(t, int64(3), attempts.Load(), "stops at the attempt ceiling")
}

func TestMutate429HonoursRetryAfter(t *testing.T) {
	var attempts atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"response": map[string]any{"token": "test-token", "validity": "2099-01-01T00:00:00Z"}})
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, map[string]any{"response": map[string]any{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(server.URL, 200)
	result := c.Create(context.Background(), "users", "/users", "a@x.com", map[string]any{"mail": "a@x.com"})

	assert.True(t, result.Success)
	assert.Equal(t, int64(2), attempts.Load())
}

func TestSimulateMode(t *testing.T) {
	c := newTestClient("http://platform.invalid", 200)
	c.cfg.Simulate = true

	records, err := c.List(context.Background(), "users", "/users")
	require.NoError(t, err)
	assert.Empty(t, records, "simulate treats the target as empty")

	result := c.Create(context.Background(), "users", "/users", "a@x.com", map[string]any{"mail": "a@x.com"})
	assert.True(t, result.Success)
	assert.True(t, result.Simulated)
}

func TestDeleteUsesDeleteMethod(t *testing.T) {
	var method string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"response": map[string]any{"token": "test-token", "validity": "2099-01-01T00:00:00Z"}})
	})
	mux.HandleFunc("/users/a@x.com", func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		writeJSON(w, map[string]any{"response": map[string]any{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(server.URL, 200)
	result := c.Delete(context.Background(), "users", "/users/a@x.com", "a@x.com")

	assert.True(t, result.Success)
	assert.Equal(t, http.MethodDelete, method)
}
