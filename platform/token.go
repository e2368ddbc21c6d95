package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// tokenSafetyMargin refreshes the token this long before it actually expires,
// so a token never goes stale mid-pagination.
const tokenSafetyMargin = 60 * time.Second

// defaultTokenTTL applies when the platform omits or mangles the validity
// timestamp.
const defaultTokenTTL = 3600 * time.Second

// tokenSource fetches and caches the bearer token for API calls.
type tokenSource struct {
	mu   sync.Mutex
	cfg  Config
	http *http.Client
	log  *zap.Logger
	now  func() time.Time

	token     string
	expiresAt time.Time
}

func newTokenSource(cfg Config, httpClient *http.Client, log *zap.Logger) *tokenSource {
	return &tokenSource{
		cfg:  cfg,
		http: httpClient,
		log:  log,
		now:  time.Now,
	}
}

// Token returns a valid bearer token, fetching a fresh one when the cached
// token is absent or within the safety margin of its expiry.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Before(t.expiresAt.Add(-tokenSafetyMargin)) {
		return t.token, nil
	}
	return t.fetch(ctx)
}

// Invalidate drops the cached token, forcing a refresh on the next call.
func (t *tokenSource) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
}

func (t *tokenSource) fetch(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     t.cfg.ClientID,
		"client_secret": t.cfg.ClientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/auth", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var envelope authEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if envelope.Response.Token == "" {
		return "", fmt.Errorf("auth response carried no token")
	}

	t.token = envelope.Response.Token
	t.expiresAt = t.parseValidity(envelope.Response.Validity)
	t.log.Debug("Bearer token refreshed", zap.Time("expires_at", t.expiresAt))
	return t.token, nil
}

func (t *tokenSource) parseValidity(validity string) time.Time {
	if validity != "" {
		if ts, err := time.Parse(time.RFC3339, validity); err == nil {
			return ts
		}
		t.log.Warn("Unparseable token validity, using default TTL",
			zap.String("validity", validity))
	}
	return t.now().Add(defaultTokenTTL)
}
