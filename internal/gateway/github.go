// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v84/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/github-busfactor/internal/domain"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// MaxSearchResults is the number of results GitHub search serves for one
// query; later pages fail with 422.
const MaxSearchResults = 1000

// PageLimits are the paging constraints of the upstream API.
type PageLimits struct {
	MaxReposPage        int
	MaxContributorsPage int
	FirstPage           int
	ContributorsPerPage int
}

// DefaultPageLimits returns the limits GitHub imposes on search and contributor listings.
func DefaultPageLimits() PageLimits {
	return PageLimits{
		MaxReposPage:        100,
		MaxContributorsPage: 100,
		FirstPage:           1,
		ContributorsPerPage: 25,
	}
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
// Every call also returns the rate budget reported with the response, or nil
// when the response carried none.
type Fetcher interface {
	Limits() PageLimits
	ListTopRepositories(ctx context.Context, query domain.SearchQuery, page, perPage int) ([]domain.Repository, *domain.RateBudget, error)
	ListContributors(ctx context.Context, repo domain.Repository, page, perPage int) ([]domain.Contributor, *domain.RateBudget, error)
}

// Options configures the HTTP stack of a GitHubGateway.
type Options struct {
	Token  string
	APIURL string
	Cache  bool
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	limits        PageLimits
	logger        *zap.Logger
}

var _ Fetcher = (*GitHubGateway)(nil)

// NewGitHubGateway creates a gateway with the following transport stack:
//  1. oauth2 (only when a token is configured)
//  2. go-github-ratelimit secondary limiter (sleeps on abuse limits)
//  3. httpcache (ETag-based conditional requests, only when enabled)
//
// Primary limits are left to the caller's rate limiter, which needs to see
// the headers of an exhausted response.
func NewGitHubGateway(opts Options, logger *zap.Logger) (*GitHubGateway, error) {
	var base http.RoundTripper = http.DefaultTransport
	if opts.Cache {
		cache := httpcache.NewMemoryCacheTransport()
		cache.Transport = base
		base = cache
	}

	httpClient := &http.Client{Transport: github_ratelimit.NewSecondaryLimiter(base)}
	if opts.Token != "" {
		httpClient.Transport = &oauth2.Transport{
			Base:   httpClient.Transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	return NewGitHubGatewayWithHTTPClient(httpClient, opts.APIURL, logger)
}

// NewGitHubGatewayWithHTTPClient creates a gateway on top of an existing
// http.Client, pointing both REST and GraphQL clients at apiURL.
func NewGitHubGatewayWithHTTPClient(httpClient *http.Client, apiURL string, logger *zap.Logger) (*GitHubGateway, error) {
	restURL, graphqlURL, err := endpoints(apiURL)
	if err != nil {
		return nil, err
	}

	restClient := github.NewClient(httpClient)
	restClient.BaseURL = restURL

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(graphqlURL, httpClient),
		limits:        DefaultPageLimits(),
		logger:        logger,
	}, nil
}

// endpoints derives the REST base URL (with trailing slash) and the GraphQL
// endpoint from the configured API URL. Enterprise hosts serve REST under
// /api/v3 and GraphQL under /api/graphql.
func endpoints(apiURL string) (*url.URL, string, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, "", domain.ConfigError("parse api url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", domain.ConfigError("parse api url", fmt.Errorf("%q is not an absolute http(s) URL", apiURL))
	}

	path := strings.TrimSuffix(u.Path, "/")
	graphql := *u
	if strings.HasSuffix(path, "/api/v3") {
		graphql.Path = strings.TrimSuffix(path, "/v3") + "/graphql"
	} else {
		graphql.Path = path + "/graphql"
	}

	u.Path = path + "/"
	return u, graphql.String(), nil
}

// Limits returns the paging constraints of GitHub.
func (g *GitHubGateway) Limits() PageLimits {
	return g.limits
}

// ListTopRepositories fetches one page of repositories written in the query's
// language, ordered by the query's sort in descending order.
func (g *GitHubGateway) ListTopRepositories(ctx context.Context, query domain.SearchQuery, page, perPage int) ([]domain.Repository, *domain.RateBudget, error) {
	q := fmt.Sprintf("language:%s", query.Language)
	opts := &github.SearchOptions{
		Sort:  query.Sort.String(),
		Order: "desc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	result, resp, err := g.restClient.Search.Repositories(ctx, q, opts)
	budget := g.rateBudget(resp)
	if err != nil {
		return nil, budget, domain.TransportError(fmt.Sprintf("search repositories (page %d)", page), err)
	}

	repos := make([]domain.Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, domain.Repository{
			Owner: r.GetOwner().GetLogin(),
			Name:  r.GetName(),
		})
	}

	g.logger.Debug("github api call",
		zap.String("endpoint", "search/repositories"),
		zap.Int("page", page),
		zap.Int("count", len(repos)),
	)
	return repos, budget, nil
}

// ListContributors fetches one page of a repository's contributors, most
// active first. Anonymous contributors are excluded.
func (g *GitHubGateway) ListContributors(ctx context.Context, repo domain.Repository, page, perPage int) ([]domain.Contributor, *domain.RateBudget, error) {
	opts := &github.ListContributorsOptions{
		Anon: "false",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	result, resp, err := g.restClient.Repositories.ListContributors(ctx, repo.Owner, repo.Name, opts)
	budget := g.rateBudget(resp)
	if err != nil {
		return nil, budget, domain.TransportError(fmt.Sprintf("list contributors for %s", repo.FullName()), err)
	}

	contributors := make([]domain.Contributor, 0, len(result))
	for _, c := range result {
		contributors = append(contributors, domain.Contributor{
			Name:          c.GetLogin(),
			Contributions: c.GetContributions(),
		})
	}

	g.logger.Debug("github api call",
		zap.String("endpoint", "contributors"),
		zap.String("repository", repo.FullName()),
		zap.Int("count", len(contributors)),
	)
	return contributors, budget, nil
}

// rateBudget reads the rate headers of a response. Unreadable headers are
// logged and skipped; they never fail the call that carried them.
func (g *GitHubGateway) rateBudget(resp *github.Response) *domain.RateBudget {
	if resp == nil || resp.Response == nil {
		return nil
	}
	budget, err := ParseRateHeaders(resp.Header)
	if err != nil {
		g.logger.Warn("ignoring unreadable rate limit headers", zap.Error(err))
		return nil
	}
	return budget
}
