// Package ratelimit tracks an upstream request budget shared by concurrent callers.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/naka-gawa/github-busfactor/internal/domain"
)

// Slack is added to every wait for a window reset. Upstream reset times have
// second granularity.
const Slack = time.Second

// lowBudgetWarning is the remaining count below which a warning is logged once.
const lowBudgetWarning = 100

// Limiter gates outbound requests against a budget that is reconciled from
// the rate metadata of each response.
type Limiter struct {
	pool   string
	clock  Clock
	pacer  *rate.Limiter
	logger *zap.Logger

	mu     sync.Mutex
	budget domain.RateBudget
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		l.clock = clock
	}
}

// WithLogger sets the logger used for waits and budget updates.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// WithPacer spaces requests at most perSecond apart, on top of the budget.
// A non-positive value disables pacing.
func WithPacer(perSecond float64) Option {
	return func(l *Limiter) {
		if perSecond > 0 {
			l.pacer = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// New creates a Limiter for the named pool seeded with an initial budget.
// A budget that is exhausted with no known reset is rejected.
func New(pool string, initial domain.RateBudget, opts ...Option) (*Limiter, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("%s pool: %w", pool, err)
	}
	if initial.Remaining > initial.Limit {
		initial.Remaining = initial.Limit
	}

	l := &Limiter{
		pool:   pool,
		clock:  realClock{},
		logger: zap.NewNop(),
		budget: initial,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(zap.String("pool", pool))
	return l, nil
}

// Acquire blocks until the budget allows one more request and consumes it.
// The lock is never held while waiting; after every wait the budget is
// checked again because other waiters may have taken the fresh window.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.pacer != nil {
		if err := l.pacer.Wait(ctx); err != nil {
			return err
		}
	}

	for {
		wait := l.take()
		if wait <= 0 {
			return nil
		}

		l.logger.Debug("rate limit reached, waiting for reset", zap.Duration("wait", wait))
		timer := l.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes one request if possible and otherwise returns how long to wait.
func (l *Limiter) take() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.budget.Remaining > 0 {
		l.budget.Remaining--
		return 0
	}

	now := l.clock.Now()
	if l.budget.ResetAt.Before(now) {
		// The window rolled over without a response telling us so.
		l.budget.Remaining = max(l.budget.Limit-1, 0)
		return 0
	}
	return l.budget.ResetAt.Sub(now) + Slack
}

// Reconcile merges a budget reported by upstream. Responses may complete out
// of order, so remaining only ever decreases and the reset only moves forward.
// The limit is taken as reported.
func (l *Limiter) Reconcile(reported domain.RateBudget) {
	l.mu.Lock()
	before := l.budget.Remaining
	l.budget.Limit = reported.Limit
	l.budget.Remaining = min(l.budget.Remaining, reported.Remaining, l.budget.Limit)
	if reported.ResetAt.After(l.budget.ResetAt) {
		l.budget.ResetAt = reported.ResetAt
	}
	current := l.budget
	l.mu.Unlock()

	l.logger.Debug("rate limit updated",
		zap.Int("limit", current.Limit),
		zap.Int("remaining", current.Remaining),
		zap.Time("reset_at", current.ResetAt),
	)
	if before >= lowBudgetWarning && current.Remaining < lowBudgetWarning {
		l.logger.Warn("rate limit low",
			zap.Int("remaining", current.Remaining),
			zap.Duration("reset_in", current.ResetAt.Sub(l.clock.Now()).Round(time.Second)),
		)
	}
}

// Budget returns the current budget.
func (l *Limiter) Budget() domain.RateBudget {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.budget
}

// Pool returns the name of the upstream pool this limiter tracks.
func (l *Limiter) Pool() string {
	return l.pool
}
