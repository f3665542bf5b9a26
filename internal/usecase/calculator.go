// Package usecase contains the business logic of the application.
package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/naka-gawa/github-busfactor/internal/domain"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
	"github.com/naka-gawa/github-busfactor/internal/ratelimit"
)

// Request describes one bus factor calculation.
type Request struct {
	Query              domain.SearchQuery
	ProjectCount       int
	MaxRepoRequests    int
	MaxContribRequests int
}

// Calculator is the use case for finding repositories dominated by a single
// contributor. It chains the listing and evaluation stages.
type Calculator struct {
	fetcher   gateway.Fetcher
	search    *ratelimit.Limiter
	core      *ratelimit.Limiter
	threshold float64
	logger    *zap.Logger
}

// NewCalculator creates a new Calculator. Listing draws from the search
// limiter and contributor lookups from the core limiter.
func NewCalculator(fetcher gateway.Fetcher, search, core *ratelimit.Limiter, threshold float64, logger *zap.Logger) *Calculator {
	return &Calculator{
		fetcher:   fetcher,
		search:    search,
		core:      core,
		threshold: threshold,
		logger:    logger,
	}
}

// NewCalculatorFromBudgets seeds one limiter per upstream pool and creates a
// Calculator on top of them. An exhausted pool without a reset time is fatal.
func NewCalculatorFromBudgets(fetcher gateway.Fetcher, budgets *gateway.RateBudgets, threshold float64, logger *zap.Logger, opts ...ratelimit.Option) (*Calculator, error) {
	opts = append([]ratelimit.Option{ratelimit.WithLogger(logger)}, opts...)

	search, err := ratelimit.New("search", budgets.Search, opts...)
	if err != nil {
		return nil, err
	}
	core, err := ratelimit.New("core", budgets.Core, opts...)
	if err != nil {
		return nil, err
	}
	return NewCalculator(fetcher, search, core, threshold, logger), nil
}

// Calculate starts the pipeline and returns its results as they are found.
// The channel is closed once every planned page and repository has been
// handled, or early when ctx is cancelled. Per-item failures never end it.
func (c *Calculator) Calculate(ctx context.Context, req Request) <-chan domain.BusFactor {
	c.logger.Info("starting bus factor calculation",
		zap.String("language", req.Query.Language),
		zap.Stringer("sort", req.Query.Sort),
		zap.Int("project_count", req.ProjectCount),
		zap.Float64("threshold", c.threshold),
	)

	limits := c.fetcher.Limits()
	repos := NewListingStage(c.fetcher, c.search, limits, c.logger).
		Run(ctx, req.Query, req.ProjectCount, req.MaxRepoRequests)
	results := NewEvaluationStage(c.fetcher, c.core, limits, c.threshold, c.logger).
		Run(ctx, repos, req.MaxContribRequests)

	out := make(chan domain.BusFactor)
	go func() {
		defer close(out)
		found := 0
		for result := range results {
			select {
			case out <- result:
				found++
			case <-ctx.Done():
				c.logger.Warn("bus factor calculation cancelled", zap.Int("found", found), zap.Error(ctx.Err()))
				return
			}
		}
		c.logger.Info("bus factor calculation complete", zap.Int("found", found))
		c.logBudgets()
	}()
	return out
}

// logBudgets reports what is left of each upstream pool after a run.
func (c *Calculator) logBudgets() {
	for _, limiter := range []*ratelimit.Limiter{c.search, c.core} {
		budget := limiter.Budget()
		c.logger.Debug("remaining rate budget",
			zap.String("pool", limiter.Pool()),
			zap.Int("remaining", budget.Remaining),
			zap.Time("reset_at", budget.ResetAt),
		)
	}
}
