package sources

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/lysyi3m/live-feed/app/feed"
)

const emptySummary = "No summary"

// mirrorResponse is the RSS-to-JSON shape returned by the mirror service.
type mirrorResponse struct {
	RSS struct {
		Channel struct {
			Item []mirrorItem `json:"item"`
		} `json:"channel"`
	} `json:"rss"`
}

type mirrorItem struct {
	Title       any `json:"title"`
	Description any `json:"description"`
	Link        any `json:"link"`
	PubDate     any `json:"pubDate"`
	Published   any `json:"published"`
}

// DomesticRSSSource reads the first configured regional feed that yields any
// items, either through the RSS-to-JSON mirror or directly.
type DomesticRSSSource struct {
	cfg    *Config
	client *Client
}

func NewDomesticRSSSource(cfg *Config, client *Client) *DomesticRSSSource {
	return &DomesticRSSSource{cfg: cfg, client: client}
}

func (s *DomesticRSSSource) Name() string {
	return s.cfg.Name
}

func (s *DomesticRSSSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	var errs []error
	for _, f := range s.cfg.Feeds {
		items, err := s.fetchFeed(ctx, f)
		if err != nil {
			slog.Debug("Regional feed failed", "source", s.cfg.Name, "feed", f.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	if len(errs) == len(s.cfg.Feeds) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

func (s *DomesticRSSSource) fetchFeed(ctx context.Context, f RSSFeed) ([]feed.Item, error) {
	if s.client.endpoints.RSSMirror == "" {
		return s.fetchDirect(ctx, f)
	}
	return s.fetchMirror(ctx, f)
}

func (s *DomesticRSSSource) fetchMirror(ctx context.Context, f RSSFeed) ([]feed.Item, error) {
	mirrorURL := s.client.endpoints.RSSMirror + "?url=" + url.QueryEscape(f.URL)

	var resp mirrorResponse
	if err := s.client.getJSON(ctx, mirrorURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("mirror '%s': %w", f.Name, err)
	}

	entries := resp.RSS.Channel.Item
	if s.cfg.MaxItems > 0 && len(entries) > s.cfg.MaxItems {
		entries = entries[:s.cfg.MaxItems]
	}

	now := s.client.now()
	items := make([]feed.Item, 0, len(entries))
	for _, entry := range entries {
		desc := feed.Truncate(feed.StripHTML(textOf(entry.Description)), shortDescriptionLen)

		item := feed.Item{
			Title:       textOf(entry.Title),
			Description: cmp.Or(desc, emptySummary),
			Link:        textOf(entry.Link),
			PublishedAt: now,
			Source:      f.Name,
			Category:    feed.CategoryDomestic,
			Icon:        "🇨🇳",
		}
		if date := cmp.Or(textOf(entry.PubDate), textOf(entry.Published)); date != "" {
			item.PublishedAt = feed.ParseDate(date)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *DomesticRSSSource) fetchDirect(ctx context.Context, f RSSFeed) ([]feed.Item, error) {
	data, err := s.client.get(ctx, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed '%s': %w", f.Name, err)
	}

	return s.client.parser.Run(data, feed.ItemTemplate{
		Source:          f.Name,
		Category:        feed.CategoryDomestic,
		Icon:            "🇨🇳",
		MaxItems:        s.cfg.MaxItems,
		DescriptionLen:  shortDescriptionLen,
		EmptyDescFiller: emptySummary,
	})
}

// textOf extracts the text of an XML-to-JSON value, which is either a plain
// string or an object carrying the text under "#text" or "#cdata".
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"#text", "#cdata", "_", "$t"} {
			if s, ok := t[key].(string); ok {
				return s
			}
		}
	case float64:
		return fmt.Sprint(t)
	}
	return ""
}
