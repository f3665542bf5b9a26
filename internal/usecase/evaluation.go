package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-busfactor/internal/domain"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
	"github.com/naka-gawa/github-busfactor/internal/ratelimit"
)

// EvaluationStage reduces each repository's top contributors to a bus factor.
type EvaluationStage struct {
	fetcher   gateway.Fetcher
	limiter   *ratelimit.Limiter
	limits    gateway.PageLimits
	threshold float64
	logger    *zap.Logger
}

// NewEvaluationStage creates an EvaluationStage drawing from the given limiter.
func NewEvaluationStage(fetcher gateway.Fetcher, limiter *ratelimit.Limiter, limits gateway.PageLimits, threshold float64, logger *zap.Logger) *EvaluationStage {
	return &EvaluationStage{
		fetcher:   fetcher,
		limiter:   limiter,
		limits:    limits,
		threshold: threshold,
		logger:    logger,
	}
}

// Run evaluates every repository received from repos with at most parallel
// evaluations in flight and emits those reaching the threshold, in completion
// order. The returned channel is closed after repos is drained and all
// evaluations have finished.
func (s *EvaluationStage) Run(ctx context.Context, repos <-chan domain.Repository, parallel int) <-chan domain.BusFactor {
	out := make(chan domain.BusFactor)

	go func() {
		defer close(out)

		var eg errgroup.Group
		eg.SetLimit(max(parallel, 1))
		for repo := range repos {
			eg.Go(func() error {
				if result, ok := s.Evaluate(ctx, repo); ok {
					select {
					case out <- result:
					case <-ctx.Done():
					}
				}
				return nil
			})
		}
		_ = eg.Wait()
	}()

	return out
}

// Evaluate computes the bus factor of a single repository. Failures are
// logged and produce no result.
func (s *EvaluationStage) Evaluate(ctx context.Context, repo domain.Repository) (domain.BusFactor, bool) {
	logger := s.logger.With(zap.String("repository", repo.FullName()))

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Error("Failed to get top contributors", zap.Error(err))
		return domain.BusFactor{}, false
	}

	perPage := min(s.limits.ContributorsPerPage, s.limits.MaxContributorsPage)
	contributors, budget, err := s.fetcher.ListContributors(ctx, repo, s.limits.FirstPage, perPage)
	if budget != nil {
		s.limiter.Reconcile(*budget)
	}
	if err != nil {
		logger.Error("Failed to get top contributors", zap.Error(err))
		return domain.BusFactor{}, false
	}

	return domain.Reduce(contributors, repo.Name, s.threshold)
}
