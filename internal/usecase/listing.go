package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-busfactor/internal/domain"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
	"github.com/naka-gawa/github-busfactor/internal/ratelimit"
)

// ListingStage pages through the top repositories with bounded parallelism.
type ListingStage struct {
	fetcher gateway.Fetcher
	limiter *ratelimit.Limiter
	limits  gateway.PageLimits
	logger  *zap.Logger
}

// NewListingStage creates a ListingStage drawing from the given limiter.
func NewListingStage(fetcher gateway.Fetcher, limiter *ratelimit.Limiter, limits gateway.PageLimits, logger *zap.Logger) *ListingStage {
	return &ListingStage{
		fetcher: fetcher,
		limiter: limiter,
		limits:  limits,
		logger:  logger,
	}
}

// Run lists total repositories matching query. At most parallel pages are
// fetched at once. Items of one page keep their server order; pages are
// emitted as they complete. A failed page is logged and contributes nothing.
// The returned channel is closed once every page has been handled.
func (s *ListingStage) Run(ctx context.Context, query domain.SearchQuery, total, parallel int) <-chan domain.Repository {
	out := make(chan domain.Repository)
	pages := PlanPages(s.limits.FirstPage, s.limits.MaxReposPage, total)

	go func() {
		defer close(out)

		var eg errgroup.Group
		eg.SetLimit(max(parallel, 1))
		for _, page := range pages {
			if ctx.Err() != nil {
				break
			}
			eg.Go(func() error {
				s.fetchPage(ctx, query, page, out)
				return nil
			})
		}
		_ = eg.Wait()
	}()

	return out
}

func (s *ListingStage) fetchPage(ctx context.Context, query domain.SearchQuery, page Page, out chan<- domain.Repository) {
	logger := s.logger.With(zap.Int("page", page.Number))

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Error("Failed to get top repositories", zap.Error(err))
		return
	}

	// Page numbers are offsets in units of the requested page size, so a
	// short page after the first one has to be fetched at full size and cut.
	perPage := page.Size
	if page.Size < s.limits.MaxReposPage && page.Number != s.limits.FirstPage {
		perPage = s.limits.MaxReposPage
	}

	repos, budget, err := s.fetcher.ListTopRepositories(ctx, query, page.Number, perPage)
	if budget != nil {
		s.limiter.Reconcile(*budget)
	}
	if err != nil {
		logger.Error("Failed to get top repositories", zap.Error(err))
		return
	}
	if len(repos) > page.Size {
		repos = repos[:page.Size]
	}

	logger.Debug("fetched repositories page", zap.Int("count", len(repos)))
	for _, repo := range repos {
		select {
		case out <- repo:
		case <-ctx.Done():
			return
		}
	}
}
