package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fastConfig keeps delays at zero so tests never sleep for real.
func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialSeconds: 0, MaxSeconds: 0, Multiplier: 2, Jitter: 0}
}

func TestSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(3), zap.NewNop(), "list", func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestStopsAtAttemptCeiling(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(3), zap.NewNop(), "list", func() (string, error) {
		calls++
		return "", errors.New("timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "no attempt past the ceiling")
}

func TestPermanentErrorNotRetried(t *testing.T) {
	calls := 0
	wantErr := errors.New("bad request")
	_, err := Do(context.Background(), fastConfig(3), zap.NewNop(), "create", func() (string, error) {
		calls++
		return "", Permanent(wantErr)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestRetryAfterHonoured(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastConfig(3), zap.NewNop(), "update", func() (int, error) {
		calls++
		if calls == 1 {
			return 0, After(0)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 2, calls)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, fastConfig(5), zap.NewNop(), "list", func() (string, error) {
		calls++
		return "", errors.New("timeout")
	})

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}
