package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-busfactor/internal/domain"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
	"github.com/naka-gawa/github-busfactor/internal/ratelimit"
)

// inflight tracks how many calls run at once and the highest count seen.
type inflight struct {
	current atomic.Int64
	peak    atomic.Int64
}

func (f *inflight) enter() {
	n := f.current.Add(1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (f *inflight) leave() {
	f.current.Add(-1)
}

// fakeFetcher serves a numbered catalogue of repositories with GitHub's
// page offset semantics and records how it was called.
type fakeFetcher struct {
	limits       gateway.PageLimits
	delay        time.Duration
	catalogue    int
	failPages    map[int]bool
	contributors func(repo domain.Repository) ([]domain.Contributor, error)
	budget       *domain.RateBudget

	listing    inflight
	evaluating inflight

	mu       sync.Mutex
	requests []Page
}

func (f *fakeFetcher) Limits() gateway.PageLimits {
	return f.limits
}

func (f *fakeFetcher) ListTopRepositories(ctx context.Context, query domain.SearchQuery, page, perPage int) ([]domain.Repository, *domain.RateBudget, error) {
	f.listing.enter()
	defer f.listing.leave()
	time.Sleep(f.delay)

	f.mu.Lock()
	f.requests = append(f.requests, Page{Number: page, Size: perPage})
	f.mu.Unlock()

	if f.failPages[page] {
		return nil, f.budget, domain.TransportError("search", fmt.Errorf("page %d unavailable", page))
	}

	var repos []domain.Repository
	start := (page - f.limits.FirstPage) * perPage
	for i := start; i < start+perPage && i < f.catalogue; i++ {
		repos = append(repos, testRepo(i))
	}
	return repos, f.budget, nil
}

func (f *fakeFetcher) ListContributors(ctx context.Context, repo domain.Repository, page, perPage int) ([]domain.Contributor, *domain.RateBudget, error) {
	f.evaluating.enter()
	defer f.evaluating.leave()
	time.Sleep(f.delay)

	contributors, err := f.contributors(repo)
	return contributors, f.budget, err
}

func (f *fakeFetcher) Requests() []Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Page(nil), f.requests...)
}

func testRepo(i int) domain.Repository {
	return domain.Repository{Owner: fmt.Sprintf("owner_%d", i), Name: fmt.Sprintf("repo_%d", i)}
}

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Limits() gateway.PageLimits {
	return m.Called().Get(0).(gateway.PageLimits)
}

func (m *mockFetcher) ListTopRepositories(ctx context.Context, query domain.SearchQuery, page, perPage int) ([]domain.Repository, *domain.RateBudget, error) {
	args := m.Called(ctx, query, page, perPage)
	repos, _ := args.Get(0).([]domain.Repository)
	budget, _ := args.Get(1).(*domain.RateBudget)
	return repos, budget, args.Error(2)
}

func (m *mockFetcher) ListContributors(ctx context.Context, repo domain.Repository, page, perPage int) ([]domain.Contributor, *domain.RateBudget, error) {
	args := m.Called(ctx, repo, page, perPage)
	contributors, _ := args.Get(0).([]domain.Contributor)
	budget, _ := args.Get(1).(*domain.RateBudget)
	return contributors, budget, args.Error(2)
}

func newTestLimiter(t *testing.T, pool string) *ratelimit.Limiter {
	t.Helper()
	limiter, err := ratelimit.New(pool, domain.RateBudget{
		Limit:     1_000_000,
		Remaining: 1_000_000,
		ResetAt:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return limiter
}

func collect(results <-chan domain.BusFactor) []domain.BusFactor {
	var collected []domain.BusFactor
	for result := range results {
		collected = append(collected, result)
	}
	return collected
}

func drainRepos(repos <-chan domain.Repository) []domain.Repository {
	var collected []domain.Repository
	for repo := range repos {
		collected = append(collected, repo)
	}
	return collected
}
