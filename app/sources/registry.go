package sources

import (
	"fmt"

	"github.com/lysyi3m/live-feed/app/feed"
)

// New builds the source of a configuration.
func New(cfg *Config, client *Client) (feed.Source, error) {
	switch cfg.Kind {
	case KindGitHub:
		return NewGitHubSource(cfg, client), nil
	case KindGitHubTrending:
		return NewTrendingSource(cfg, client), nil
	case KindHackerNews:
		return NewHackerNewsSource(cfg, client), nil
	case KindHNSearch:
		return NewHNSearchSource(cfg, client), nil
	case KindCompetitor:
		return NewCompetitorSource(cfg, client), nil
	case KindAITech:
		return NewAITechSource(cfg, client), nil
	case KindDomesticRSS:
		return NewDomesticRSSSource(cfg, client), nil
	case KindDevTo, KindProducts:
		return NewDevToSource(cfg, client), nil
	default:
		return nil, fmt.Errorf("unknown source kind '%s'", cfg.Kind)
	}
}

// Build returns the enabled sources in aggregation order.
func Build(cc *ConfigCache, client *Client) ([]feed.Source, error) {
	configs := cc.GetEnabledConfigs()

	out := make([]feed.Source, 0, len(configs))
	for _, cfg := range configs {
		src, err := New(cfg, client)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}
