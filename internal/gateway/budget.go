package gateway

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-busfactor/internal/domain"
)

// RateBudgets holds the REST budgets of the pools the pipeline draws from.
type RateBudgets struct {
	Core   domain.RateBudget
	Search domain.RateBudget
}

// graphqlRateLimitQuery reads the GraphQL pool, which is separate from REST.
type graphqlRateLimitQuery struct {
	RateLimit struct {
		Limit     githubv4.Int
		Remaining githubv4.Int
		ResetAt   githubv4.DateTime
	}
}

// FetchBudgets reads the current REST budgets to seed the rate limiters.
// Hosts with rate limiting disabled answer 404 and get an unlimited budget.
func (g *GitHubGateway) FetchBudgets(ctx context.Context) (*RateBudgets, error) {
	limits, resp, err := g.restClient.RateLimit.Get(ctx)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			g.logger.Info("rate limiting is disabled upstream")
			return &RateBudgets{Core: unlimitedBudget(), Search: unlimitedBudget()}, nil
		}
		return nil, domain.TransportError("fetch rate limits", err)
	}
	if resp != nil && resp.Response != nil {
		if _, err := ParseRateHeaders(resp.Header); err != nil {
			return nil, domain.ConfigError("read rate limit headers", err)
		}
	}

	budgets := &RateBudgets{
		Core:   toBudget(limits.GetCore()),
		Search: toBudget(limits.GetSearch()),
	}
	g.logger.Debug("fetched rate limits",
		zap.Int("core_remaining", budgets.Core.Remaining),
		zap.Int("search_remaining", budgets.Search.Remaining),
	)
	return budgets, nil
}

// FetchGraphQLBudget reads the GraphQL budget.
func (g *GitHubGateway) FetchGraphQLBudget(ctx context.Context) (domain.RateBudget, error) {
	var q graphqlRateLimitQuery
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return domain.RateBudget{}, domain.TransportError("query graphql rate limit", err)
	}
	return domain.RateBudget{
		Limit:     int(q.RateLimit.Limit),
		Remaining: int(q.RateLimit.Remaining),
		ResetAt:   q.RateLimit.ResetAt.Time,
	}, nil
}

func toBudget(rate *github.Rate) domain.RateBudget {
	if rate == nil {
		return unlimitedBudget()
	}
	return domain.RateBudget{
		Limit:     rate.Limit,
		Remaining: rate.Remaining,
		ResetAt:   rate.Reset.Time,
	}
}

func unlimitedBudget() domain.RateBudget {
	return domain.RateBudget{
		Limit:     math.MaxInt32,
		Remaining: math.MaxInt32,
		ResetAt:   time.Now().Add(time.Hour),
	}
}
