package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/naka-gawa/github-busfactor/internal/domain"
)

const (
	// HeaderRateLimit is the rate limit header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"
)

// ParseRateHeaders reads the rate budget reported in response headers.
// It returns nil without error when none of the headers is present.
func ParseRateHeaders(h http.Header) (*domain.RateBudget, error) {
	limitValue := h.Get(HeaderRateLimit)
	remainingValue := h.Get(HeaderRateRemaining)
	resetValue := h.Get(HeaderRateReset)
	if limitValue == "" && remainingValue == "" && resetValue == "" {
		return nil, nil
	}

	limit, err := strconv.Atoi(limitValue)
	if err != nil {
		return nil, fmt.Errorf("header %s: %w", HeaderRateLimit, err)
	}
	remaining, err := strconv.Atoi(remainingValue)
	if err != nil {
		return nil, fmt.Errorf("header %s: %w", HeaderRateRemaining, err)
	}
	reset, err := strconv.ParseInt(resetValue, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("header %s: %w", HeaderRateReset, err)
	}

	return &domain.RateBudget{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Unix(reset, 0),
	}, nil
}
