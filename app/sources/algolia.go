package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lysyi3m/live-feed/app/feed"
)

const aiTechDedupPrefixLen = 40

func (c *Client) searchStories(ctx context.Context, q string, hitsPerPage int) ([]algoliaHit, error) {
	params := url.Values{}
	params.Set("query", q)
	params.Set("tags", "story")
	params.Set("hitsPerPage", strconv.Itoa(hitsPerPage))

	var resp algoliaResponse
	if err := c.getJSON(ctx, c.endpoints.Algolia+"/search_by_date?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("algolia search '%s': %w", q, err)
	}
	return resp.Hits, nil
}

func (c *Client) hitQuery(q string, hitsPerPage int, style itemStyle) query {
	return func(ctx context.Context) ([]feed.Item, error) {
		hits, err := c.searchStories(ctx, q, hitsPerPage)
		if err != nil {
			return nil, err
		}

		items := make([]feed.Item, 0, len(hits))
		for _, hit := range hits {
			items = append(items, hitItem(hit, style))
		}
		return items, nil
	}
}

// HNSearchSource searches recent stories for one random research query.
type HNSearchSource struct {
	cfg    *Config
	client *Client
}

func NewHNSearchSource(cfg *Config, client *Client) *HNSearchSource {
	return &HNSearchSource{cfg: cfg, client: client}
}

func (s *HNSearchSource) Name() string {
	return s.cfg.Name
}

func (s *HNSearchSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	style := itemStyle{
		Source:   s.cfg.Label,
		Category: feed.CategoryResearch,
		Icon:     "🔬",
	}

	var queries []query
	for _, q := range s.client.pick(s.cfg.Queries, s.cfg.Picks) {
		queries = append(queries, s.client.hitQuery(q, s.cfg.PerPage, style))
	}

	return fanOut(ctx, s.cfg.Name, queries)
}

// CompetitorSource tracks BI and data-agent competitors on Hacker News and
// GitHub.
type CompetitorSource struct {
	cfg    *Config
	client *Client
}

func NewCompetitorSource(cfg *Config, client *Client) *CompetitorSource {
	return &CompetitorSource{cfg: cfg, client: client}
}

func (s *CompetitorSource) Name() string {
	return s.cfg.Name
}

func (s *CompetitorSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	hnStyle := itemStyle{
		Source:   s.cfg.Label,
		Category: feed.CategoryCompetitor,
		Icon:     "📊",
	}
	ghStyle := itemStyle{
		Source:         s.cfg.GitHubLabel,
		Category:       feed.CategoryCompetitor,
		Icon:           "🔧",
		DescriptionLen: descriptionLen,
	}

	var queries []query
	for _, q := range s.client.pick(s.cfg.Queries, s.cfg.Picks) {
		queries = append(queries, s.client.hitQuery(q, s.cfg.PerPage, hnStyle))
	}
	for _, q := range s.client.pick(s.cfg.GitHubQueries, s.cfg.GitHubPicks) {
		queries = append(queries, s.client.repoQuery(q, "updated", s.cfg.GitHubPerPage, ghStyle))
	}

	return fanOut(ctx, s.cfg.Name, queries)
}

// AITechSource follows model and agent-tooling news. Items with the same
// lowercase 40-rune title prefix are reported once.
type AITechSource struct {
	cfg    *Config
	client *Client
}

func NewAITechSource(cfg *Config, client *Client) *AITechSource {
	return &AITechSource{cfg: cfg, client: client}
}

func (s *AITechSource) Name() string {
	return s.cfg.Name
}

func (s *AITechSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	hnStyle := itemStyle{
		Source:   s.cfg.Label,
		Category: feed.CategoryAITech,
		Icon:     "🤖",
		Compact:  true,
	}
	ghStyle := itemStyle{
		Source:         s.cfg.GitHubLabel,
		Category:       feed.CategoryAITech,
		Icon:           "🔧",
		DescriptionLen: shortDescriptionLen,
	}

	var queries []query
	for _, q := range s.client.pick(s.cfg.Queries, s.cfg.Picks) {
		queries = append(queries, s.client.hitQuery(q, s.cfg.PerPage, hnStyle))
	}
	for _, q := range s.client.pick(s.cfg.GitHubQueries, s.cfg.GitHubPicks) {
		queries = append(queries, s.client.repoQuery(q, "updated", s.cfg.GitHubPerPage, ghStyle))
	}

	items, err := fanOut(ctx, s.cfg.Name, queries)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	unique := make([]feed.Item, 0, len(items))
	for _, item := range items {
		key := feed.PrefixKey(item.Title, aiTechDedupPrefixLen)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}
	return unique, nil
}
