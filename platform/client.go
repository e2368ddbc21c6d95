package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"expense-sync/core/cache"
	"expense-sync/core/ratelimit"
	"expense-sync/core/reconcile"
	"expense-sync/core/retry"
)

// Client is the rate-limited, cached, retrying access layer for the expense
// platform API. All calls are strictly sequential; the client never issues
// two requests concurrently.
type Client struct {
	cfg      Config
	http     *http.Client
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	retryCfg retry.Config
	tokens   *tokenSource
	log      *zap.Logger
	now      func() time.Time
}

// NewClient wires the client with its cache, quota governor and retry policy.
func NewClient(cfg Config, responseCache *cache.Cache, limiter *ratelimit.Limiter, retryCfg retry.Config, log *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	httpClient := &http.Client{Timeout: time.Duration(timeout) * time.Second}
	return &Client{
		cfg:      cfg,
		http:     httpClient,
		cache:    responseCache,
		limiter:  limiter,
		retryCfg: retryCfg,
		tokens:   newTokenSource(cfg, httpClient, log),
		log:      log,
		now:      time.Now,
	}
}

// Sandbox reports whether the target tenant is a sandbox.
func (c *Client) Sandbox() bool {
	return c.cfg.Sandbox
}

// List fetches the complete collection at path, paging with start/limit until
// a short page signals the end. The accumulated result is cached under
// entityType, so repeated lists within the TTL cost no network calls. Callers
// get fresh record maps; the cached payload itself is never handed out, so
// callers may normalize or annotate the records freely.
// In simulate mode the target is treated as empty.
func (c *Client) List(ctx context.Context, entityType, path string) ([]map[string]any, error) {
	if c.cfg.Simulate {
		return nil, nil
	}

	key := cache.Key(entityType, "list", path)
	if cached, ok := c.cache.Get(key); ok {
		return copyRecords(cached.([]map[string]any)), nil
	}

	var all []map[string]any
	for start := 0; ; start += c.cfg.PageSize {
		page, err := c.listPage(ctx, path, start, c.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.cfg.PageSize {
			break
		}
	}

	c.cache.Set(key, all)
	c.log.Debug("Collection listed",
		zap.String("path", path), zap.Int("records", len(all)))
	return copyRecords(all), nil
}

// copyRecords shallow-copies each record map.
func copyRecords(records []map[string]any) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		dup := make(map[string]any, len(rec))
		for k, v := range rec {
			dup[k] = v
		}
		out[i] = dup
	}
	return out
}

// Create sends a new record to the platform.
func (c *Client) Create(ctx context.Context, entityType, path, identity string, payload map[string]any) reconcile.OperationResult {
	return c.mutate(ctx, reconcile.OperationCreate, http.MethodPost, entityType, path, identity, payload)
}

// Update replaces an existing record. The platform upserts on the same
// endpoint as creation.
func (c *Client) Update(ctx context.Context, entityType, path, identity string, payload map[string]any) reconcile.OperationResult {
	return c.mutate(ctx, reconcile.OperationUpdate, http.MethodPost, entityType, path, identity, payload)
}

// Delete removes the record at path.
func (c *Client) Delete(ctx context.Context, entityType, path, identity string) reconcile.OperationResult {
	return c.mutate(ctx, reconcile.OperationDelete, http.MethodDelete, entityType, path, identity, nil)
}

func (c *Client) listPage(ctx context.Context, path string, start, limit int) ([]map[string]any, error) {
	return retry.Do(ctx, c.retryCfg, c.log, "GET "+path, func() ([]map[string]any, error) {
		if err := c.limiter.Acquire(ctx, ratelimit.Read); err != nil {
			return nil, retry.Permanent(err)
		}

		u, err := url.Parse(c.cfg.BaseURL + path)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("invalid path %s: %w", path, err))
		}
		q := u.Query()
		q.Set("start", strconv.Itoa(start))
		q.Set("limit", strconv.Itoa(limit))
		u.RawQuery = q.Encode()

		data, _, err := c.do(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}

		var envelope listEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to decode list response: %w", err))
		}
		return envelope.Response.Data, nil
	})
}

func (c *Client) mutate(ctx context.Context, kind reconcile.OperationKind, method, entityType, path, identity string, payload map[string]any) reconcile.OperationResult {
	result := reconcile.OperationResult{Identity: identity, Kind: kind}

	if c.cfg.Simulate {
		result.Success = true
		result.Simulated = true
		return result
	}

	started := c.now()
	status, err := retry.Do(ctx, c.retryCfg, c.log, method+" "+path, func() (int, error) {
		if err := c.limiter.Acquire(ctx, ratelimit.Write); err != nil {
			return 0, retry.Permanent(err)
		}

		var body io.Reader
		if payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return 0, retry.Permanent(fmt.Errorf("failed to encode payload: %w", err))
			}
			body = bytes.NewReader(encoded)
		}

		_, status, err := c.do(ctx, method, c.cfg.BaseURL+path, body)
		return status, err
	})
	result.Duration = c.now().Sub(started)
	result.StatusCode = status

	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			result.StatusCode = apiErr.StatusCode
			result.ErrorKind = reconcile.ErrorPermanent
		} else {
			result.ErrorKind = reconcile.ErrorTransient
		}
		result.Error = err.Error()
		c.log.Warn("Operation failed",
			zap.String("kind", string(kind)),
			zap.String("identity", identity),
			zap.String("error_kind", string(result.ErrorKind)),
			zap.Error(err))
		return result
	}

	result.Success = true
	// Writes make every cached read for this entity type stale.
	c.cache.InvalidateScope(entityType)
	return result
}

// do performs one HTTP call and classifies the response for the retry layer:
// 5xx and transport errors are returned as plain (retryable) errors, 429
// carries the server's Retry-After delay, and any other non-2xx status is
// permanent.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader) ([]byte, int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to obtain token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, 0, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, resp.StatusCode, nil
	case resp.StatusCode == http.StatusUnauthorized:
		// Token may have been revoked; refresh before the retry.
		c.tokens.Invalidate()
		return nil, resp.StatusCode, fmt.Errorf("unauthorized, token refreshed: %s", string(data))
	case resp.StatusCode == http.StatusTooManyRequests:
		if after, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && after > 0 {
			return nil, resp.StatusCode, retry.After(after)
		}
		return nil, resp.StatusCode, fmt.Errorf("quota exhausted on platform side")
	case resp.StatusCode >= 500:
		return nil, resp.StatusCode, fmt.Errorf("server error %d: %s", resp.StatusCode, string(data))
	default:
		return nil, resp.StatusCode, retry.Permanent(&APIError{StatusCode: resp.StatusCode, Body: string(data)})
	}
}
