package domain

import (
	"errors"
	"time"
)

// RateBudget is a snapshot of an upstream request budget.
type RateBudget struct {
	Limit     int       `json:"limit" yaml:"limit"`
	Remaining int       `json:"remaining" yaml:"remaining"`
	ResetAt   time.Time `json:"reset_at" yaml:"reset_at"`
}

// Exhausted reports whether the budget has no requests left and no known
// point in time at which it is replenished.
func (b RateBudget) Exhausted() bool {
	return b.Remaining <= 0 && b.ResetAt.IsZero()
}

// Validate rejects budgets a limiter cannot make progress with.
func (b RateBudget) Validate() error {
	if b.Limit < 0 || b.Remaining < 0 {
		return ConfigError("validate rate budget", errors.New("negative rate limit counters"))
	}
	if b.Exhausted() {
		return ConfigError("validate rate budget", errors.New("rate limit exhausted and reset time is unknown"))
	}
	return nil
}
