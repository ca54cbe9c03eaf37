package sources

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/live-feed/app/feed"
)

const (
	hnAILimit          = 8
	hnGeneralLimit     = 4
	hnFetchConcurrency = 8
)

var aiKeywords = regexp.MustCompile(`(?i)\b(ai|agent|llm|gpt|claude|gemini|data|rag|langchain|vector|embedding|chatbot|machine.?learning|deep.?learning|neural|transformer|openai|anthropic|knowledge.?graph|text2sql|chatbi|copilot|bi\b|tableau|power\s*bi|thoughtspot|nl2sql|semantic\s*layer|analytics|dashboard)\b`)

// HackerNewsSource reads the top stories and prefers the AI/data related ones.
type HackerNewsSource struct {
	cfg    *Config
	client *Client
}

func NewHackerNewsSource(cfg *Config, client *Client) *HackerNewsSource {
	return &HackerNewsSource{cfg: cfg, client: client}
}

func (s *HackerNewsSource) Name() string {
	return s.cfg.Name
}

func (s *HackerNewsSource) Fetch(ctx context.Context) ([]feed.Item, error) {
	ctx, cancel := withTimeout(ctx, s.cfg)
	defer cancel()

	var ids []int
	if err := s.client.getJSON(ctx, s.client.endpoints.HackerNews+"/topstories.json", nil, &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch top stories: %w", err)
	}
	if s.cfg.PerPage > 0 && len(ids) > s.cfg.PerPage {
		ids = ids[:s.cfg.PerPage]
	}

	stories := s.fetchStories(ctx, ids)

	style := itemStyle{
		Source:   s.cfg.Label,
		Category: feed.CategoryNews,
		Icon:     "🟠",
	}

	var items []feed.Item
	for _, story := range selectStories(stories, s.cfg.MaxItems) {
		items = append(items, storyItem(*story, style))
	}
	return items, nil
}

// fetchStories loads the stories concurrently; a story that fails to load is
// left nil.
func (s *HackerNewsSource) fetchStories(ctx context.Context, ids []int) []*hnStory {
	stories := make([]*hnStory, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hnFetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			var story hnStory
			itemURL := fmt.Sprintf("%s/item/%d.json", s.client.endpoints.HackerNews, id)
			if err := s.client.getJSON(gctx, itemURL, nil, &story); err != nil {
				slog.Debug("Failed to fetch story", "source", s.cfg.Name, "id", id, "error", err)
				return nil
			}
			stories[i] = &story
			return nil
		})
	}
	_ = g.Wait()

	return stories
}

// selectStories keeps up to 8 AI related stories followed by up to 4 others,
// at most limit in total. Order within each group is preserved.
func selectStories(stories []*hnStory, limit int) []*hnStory {
	var ai, general []*hnStory
	for _, story := range stories {
		if story == nil || story.Title == "" {
			continue
		}
		if isAIStory(story) {
			ai = append(ai, story)
		} else {
			general = append(general, story)
		}
	}

	if len(ai) > hnAILimit {
		ai = ai[:hnAILimit]
	}
	if len(general) > hnGeneralLimit {
		general = general[:hnGeneralLimit]
	}

	combined := append(ai, general...)
	if limit > 0 && len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}

func isAIStory(story *hnStory) bool {
	return aiKeywords.MatchString(strings.ToLower(story.Title + " " + story.Text))
}
