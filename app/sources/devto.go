package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lysyi3m/live-feed/app/feed"
)

// DevToSource reads top DEV.to articles for one random tag. It serves both the
// "devto" and the "products" kinds.
type DevToSource struct {
	cfg    *Config
	client *Client
	style  itemStyle
}

func NewDevToSource(cfg *Config, client *Client) *DevToSource {
	style := itemStyle{
		Source:         cfg.Label,
		Category:       feed.CategoryNews,
		Icon:           "📝",
		DescriptionLen: descriptionLen,
	}
	if cfg.Kind == KindProducts {
		style.Category = feed.CategoryProduct
		style.Icon = "🚀"
		style.NoComments = true
	}

	return &DevToSource{cfg: cfg, client: client, style: style}
}

func (s *DevToSource) Name() string {
	return s.cfg.Name
}

func (s *DevToSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	tags := s.client.pick(s.cfg.Tags, 1)
	if len(tags) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("tag", tags[0])
	params.Set("top", strconv.Itoa(s.cfg.Top))
	params.Set("per_page", strconv.Itoa(s.cfg.PerPage))

	var articles []devtoArticle
	if err := s.client.getJSON(ctx, s.client.endpoints.DevTo+"/articles?"+params.Encode(), nil, &articles); err != nil {
		return nil, fmt.Errorf("dev.to articles '%s': %w", tags[0], err)
	}

	items := make([]feed.Item, 0, len(articles))
	for _, article := range articles {
		items = append(items, articleItem(article, s.style))
	}
	return items, nil
}
