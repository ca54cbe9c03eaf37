package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lysyi3m/live-feed/app/feed"
)

var githubHeaders = map[string]string{"Accept": "application/vnd.github.v3+json"}

func (c *Client) searchRepos(ctx context.Context, q, sort string, perPage int) ([]githubRepo, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("sort", sort)
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(perPage))

	var resp githubSearchResponse
	if err := c.getJSON(ctx, c.endpoints.GitHub+"/search/repositories?"+params.Encode(), githubHeaders, &resp); err != nil {
		return nil, fmt.Errorf("github search '%s': %w", q, err)
	}
	return resp.Items, nil
}

func (c *Client) repoQuery(q, sort string, perPage int, style itemStyle) query {
	return func(ctx context.Context) ([]feed.Item, error) {
		repos, err := c.searchRepos(ctx, q, sort, perPage)
		if err != nil {
			return nil, err
		}

		items := make([]feed.Item, 0, len(repos))
		for _, repo := range repos {
			items = append(items, repoItem(repo, style))
		}
		return items, nil
	}
}

// GitHubSource searches recently updated repositories for a random subset of
// the configured queries.
type GitHubSource struct {
	cfg    *Config
	client *Client
}

func NewGitHubSource(cfg *Config, client *Client) *GitHubSource {
	return &GitHubSource{cfg: cfg, client: client}
}

func (s *GitHubSource) Name() string {
	return s.cfg.Name
}

func (s *GitHubSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	style := itemStyle{
		Source:         s.cfg.Label,
		Category:       feed.CategoryGitHub,
		Icon:           "🔧",
		DescFallback:   "No description",
		DescriptionLen: descriptionLen,
	}

	var queries []query
	for _, q := range s.client.pick(s.cfg.Queries, s.cfg.Picks) {
		queries = append(queries, s.client.repoQuery(q, "updated", s.cfg.PerPage, style))
	}

	return fanOut(ctx, s.cfg.Name, queries)
}

// TrendingSource approximates trending repositories by the most starred ones
// created within the configured window.
type TrendingSource struct {
	cfg    *Config
	client *Client
}

func NewTrendingSource(cfg *Config, client *Client) *TrendingSource {
	return &TrendingSource{cfg: cfg, client: client}
}

func (s *TrendingSource) Name() string {
	return s.cfg.Name
}

func (s *TrendingSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	since := s.client.now().UTC().AddDate(0, 0, -s.cfg.WindowDays).Format("2006-01-02")
	style := itemStyle{
		Source:         s.cfg.Label,
		Category:       feed.CategoryGitHub,
		Icon:           "🔥",
		DescFallback:   "New trending project",
		DescriptionLen: descriptionLen,
		UseCreatedAt:   true,
	}

	var queries []query
	for _, q := range s.client.pick(s.cfg.Queries, s.cfg.Picks) {
		queries = append(queries, s.client.repoQuery(q+" created:>"+since, "stars", s.cfg.PerPage, style))
	}

	return fanOut(ctx, s.cfg.Name, queries)
}
