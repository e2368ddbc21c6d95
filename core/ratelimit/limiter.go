package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Class is the quota class of an API call.
type Class int

const (
	Read Class = iota
	Write
)

func (c Class) String() string {
	if c == Write {
		return "write"
	}
	return "read"
}

// Stats is a snapshot of the limiter state.
type Stats struct {
	Phase      string `json:"phase"`
	ReadUsed   int    `json:"read_used"`
	ReadLimit  int    `json:"read_limit"`
	WriteUsed  int    `json:"write_used"`
	WriteLimit int    `json:"write_limit"`
	Waits      uint64 `json:"waits"`
}

type windowKey struct {
	class Class
	night bool
}

// Limiter enforces the per-minute call budgets over a sliding one-minute
// window: a call is admitted only when fewer than the configured budget of
// calls were admitted during the preceding minute, so no one-minute span ever
// carries more than the budget. Day and night windows are kept separate so
// that crossing the phase boundary never carries used quota from one phase
// into the other.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	windows map[windowKey][]time.Time
	waits   uint64

	log   *zap.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter from the given configuration.
func New(cfg Config, log *zap.Logger) *Limiter {
	return &Limiter{
		cfg:     cfg,
		windows: make(map[windowKey][]time.Time),
		log:     log,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Acquire blocks until one call of the given class may proceed, then consumes
// one unit of the window's budget. It returns early only when ctx is
// cancelled.
func (l *Limiter) Acquire(ctx context.Context, class Class) error {
	for {
		wait, ok := l.tryAcquire(class)
		if ok {
			return nil
		}

		l.mu.Lock()
		l.waits++
		l.mu.Unlock()

		l.log.Info("Quota exhausted, waiting for window to free",
			zap.String("class", class.String()),
			zap.Duration("wait", wait))
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAcquire admits one call if the trailing minute holds budget. Otherwise
// it returns how long to wait until the oldest admission ages out.
func (l *Limiter) tryAcquire(class Class) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	night := l.isNight(now)
	key := windowKey{class: class, night: night}
	window := l.prune(key, now)

	if len(window) < l.limit(class, night) {
		l.windows[key] = append(window, now)
		return 0, true
	}
	return window[0].Add(time.Minute).Sub(now), false
}

// prune drops admissions older than one minute and returns the remainder,
// oldest first.
func (l *Limiter) prune(key windowKey, now time.Time) []time.Time {
	window := l.windows[key]
	cutoff := now.Add(-time.Minute)
	for len(window) > 0 && !window[0].After(cutoff) {
		window = window[1:]
	}
	l.windows[key] = window
	return window
}

// Stats returns a snapshot for the current phase and trailing minute.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	night := l.isNight(now)

	phase := "day"
	if night {
		phase = "night"
	}
	return Stats{
		Phase:      phase,
		ReadUsed:   len(l.prune(windowKey{class: Read, night: night}, now)),
		ReadLimit:  l.limit(Read, night),
		WriteUsed:  len(l.prune(windowKey{class: Write, night: night}, now)),
		WriteLimit: l.limit(Write, night),
		Waits:      l.waits,
	}
}

func (l *Limiter) isNight(t time.Time) bool {
	h := t.Hour()
	return h < l.cfg.DayStartHour || h >= l.cfg.DayEndHour
}

func (l *Limiter) limit(class Class, night bool) int {
	switch {
	case class == Read && night:
		return l.cfg.NightRead
	case class == Read:
		return l.cfg.DayRead
	case night:
		return l.cfg.NightWrite
	default:
		return l.cfg.DayWrite
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
