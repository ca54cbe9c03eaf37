package sources

import (
	"time"
)

type Kind string

const (
	KindGitHub         Kind = "github"
	KindGitHubTrending Kind = "github-trending"
	KindHackerNews     Kind = "hackernews"
	KindHNSearch       Kind = "hn-search"
	KindCompetitor     Kind = "competitor"
	KindAITech         Kind = "ai-tech"
	KindDomesticRSS    Kind = "domestic-rss"
	KindDevTo          Kind = "devto"
	KindProducts       Kind = "products"
)

// Kinds lists every source kind in aggregation order.
var Kinds = []Kind{
	KindGitHub,
	KindGitHubTrending,
	KindHackerNews,
	KindHNSearch,
	KindCompetitor,
	KindAITech,
	KindDomesticRSS,
	KindDevTo,
	KindProducts,
}

const defaultTimeout = 15

type RSSFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Config describes one source. Fields a kind does not use are ignored.
type Config struct {
	Kind    Kind   `yaml:"-"`
	Name    string `yaml:"name"`
	Label   string `yaml:"label"`
	Enabled bool   `yaml:"enabled"`
	Timeout int    `yaml:"timeout"` // seconds

	Queries []string `yaml:"queries"`
	Picks   int      `yaml:"picks"`
	PerPage int      `yaml:"per_page"`

	GitHubLabel   string   `yaml:"github_label"`
	GitHubQueries []string `yaml:"github_queries"`
	GitHubPicks   int      `yaml:"github_picks"`
	GitHubPerPage int      `yaml:"github_per_page"`

	Tags       []string  `yaml:"tags"`
	Top        int       `yaml:"top"`
	Feeds      []RSSFeed `yaml:"feeds"`
	MaxItems   int       `yaml:"max_items"`
	WindowDays int       `yaml:"window_days"`
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

var (
	githubQueries = []string{
		"data agent language:python",
		"chatbi OR text2sql OR chat2sql",
		"RAG agent enterprise",
		"AI agent framework language:python",
		"langchain OR langgraph agent",
		"knowledge graph LLM",
	}
	githubBIQueries = []string{
		"NL2SQL OR text2sql OR natural language query",
		"semantic layer OR metrics layer analytics",
		"business intelligence AI OR BI agent",
		"ThoughtSpot OR Tableau OR Power BI API",
		"chatbi OR chat to sql OR ask data",
	}
	hnSearchQueries = []string{
		"AI agent", "LLM RAG", "data agent", "text2sql", "natural language BI", "chatbi",
	}
	hnBIQueries = []string{
		"data agent", "chatbi", "natural language BI", "NL2SQL", "ThoughtSpot",
		"Tableau AI", "Power BI", "semantic layer", "AI analytics",
		"conversational analytics", "ask data",
	}
	aiTechQueries = []string{
		"claude skills", "MCP model context protocol", "openclaw", "Claude API",
		"GPT-5", "Claude 4", "LLM update", "Cursor MCP", "Anthropic",
		"agent framework", "AI agent tools", "OpenAI o1", "Gemini Live",
	}
	aiTechGitHubQueries = []string{
		"openclaw", "MCP server", "claude api", "anthropic", "cursor skills",
	}
	devtoTags = []string{
		"ai", "machinelearning", "llm", "dataagent", "python", "data", "analytics",
	}
	domesticFeeds = []RSSFeed{
		{Name: "36Kr", URL: "https://36kr.com/feed"},
		{Name: "OSChina", URL: "https://www.oschina.net/news/rss"},
		{Name: "Jiqizhixin", URL: "https://www.jiqizhixin.com/rss"},
	}
)

// DefaultConfig returns the built-in configuration of a kind, or nil for an
// unknown kind.
func DefaultConfig(kind Kind) *Config {
	base := Config{Kind: kind, Enabled: true, Timeout: defaultTimeout}

	switch kind {
	case KindGitHub:
		base.Name = "GitHub"
		base.Label = "GitHub"
		base.Queries = clone(githubQueries)
		base.Picks = 2
		base.PerPage = 6
	case KindGitHubTrending:
		base.Name = "GitHub Trending"
		base.Label = "GitHub Trending"
		base.Queries = []string{"AI agent"}
		base.Picks = 1
		base.PerPage = 6
		base.WindowDays = 7
	case KindHackerNews:
		base.Name = "Hacker News"
		base.Label = "Hacker News"
		base.PerPage = 30
		base.MaxItems = 10
	case KindHNSearch:
		base.Name = "HN Search (AI)"
		base.Label = "HN Search"
		base.Queries = clone(hnSearchQueries)
		base.Picks = 1
		base.PerPage = 8
	case KindCompetitor:
		base.Name = "DataAgent/Competitors"
		base.Label = "HN (BI/Competitors)"
		base.Queries = clone(hnBIQueries)
		base.Picks = 2
		base.PerPage = 6
		base.GitHubLabel = "GitHub (BI/Competitors)"
		base.GitHubQueries = clone(githubBIQueries)
		base.GitHubPicks = 1
		base.GitHubPerPage = 5
	case KindAITech:
		base.Name = "AI Tech"
		base.Label = "HN (AI Tech)"
		base.Queries = clone(aiTechQueries)
		base.Picks = 3
		base.PerPage = 6
		base.GitHubLabel = "GitHub (AI)"
		base.GitHubQueries = clone(aiTechGitHubQueries)
		base.GitHubPicks = 2
		base.GitHubPerPage = 5
	case KindDomesticRSS:
		base.Name = "Domestic RSS"
		base.Feeds = append([]RSSFeed(nil), domesticFeeds...)
		base.MaxItems = 12
	case KindDevTo:
		base.Name = "DEV.to"
		base.Label = "DEV.to"
		base.Tags = clone(devtoTags)
		base.Top = 7
		base.PerPage = 8
	case KindProducts:
		base.Name = "Products"
		base.Label = "Product"
		base.Tags = []string{"product"}
		base.Top = 7
		base.PerPage = 6
	default:
		return nil
	}

	return &base
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
