package sources

import (
	"cmp"
	"fmt"
	"time"

	"github.com/lysyi3m/live-feed/app/feed"
)

const (
	descriptionLen      = 140
	shortDescriptionLen = 120
	hnItemURL           = "https://news.ycombinator.com/item?id="
)

type githubRepo struct {
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	HTMLURL         string `json:"html_url"`
	UpdatedAt       string `json:"updated_at"`
	CreatedAt       string `json:"created_at"`
	StargazersCount int    `json:"stargazers_count"`
	Language        string `json:"language"`
}

type githubSearchResponse struct {
	Items []githubRepo `json:"items"`
}

type hnStory struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryTitle  string `json:"story_title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      *int   `json:"points"`
	NumComments *int   `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}

type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

type devtoArticle struct {
	Title                  string `json:"title"`
	Description            string `json:"description"`
	URL                    string `json:"url"`
	PublishedAt            string `json:"published_at"`
	CreatedAt              string `json:"created_at"`
	PositiveReactionsCount int    `json:"positive_reactions_count"`
	CommentsCount          int    `json:"comments_count"`
}

// itemStyle is the presentation shared by every item of one source or
// sub-query.
type itemStyle struct {
	Source         string
	Category       feed.Category
	Icon           string
	DescFallback   string
	DescriptionLen int
	UseCreatedAt   bool // GitHub: date from created_at instead of updated_at
	Compact        bool // Algolia: "pts" description variant
	NoComments     bool // product cards show reactions only
}

func repoItem(repo githubRepo, style itemStyle) feed.Item {
	date := repo.UpdatedAt
	if style.UseCreatedAt {
		date = repo.CreatedAt
	}

	return feed.Item{
		Title:       repo.FullName,
		Description: feed.Truncate(cmp.Or(repo.Description, style.DescFallback), style.DescriptionLen),
		Link:        repo.HTMLURL,
		PublishedAt: feed.ParseDate(date),
		Source:      style.Source,
		Category:    style.Category,
		Icon:        style.Icon,
		Stars:       feed.IntPtr(repo.StargazersCount),
		Language:    repo.Language,
	}
}

func storyItem(story hnStory, style itemStyle) feed.Item {
	desc := fmt.Sprintf("%d points · %d comments", story.Score, story.Descendants)
	if story.Text != "" {
		desc = feed.Truncate(feed.StripHTML(story.Text), descriptionLen)
	}

	link := story.URL
	if link == "" {
		link = fmt.Sprintf("%s%d", hnItemURL, story.ID)
	}

	return feed.Item{
		Title:       story.Title,
		Description: desc,
		Link:        link,
		PublishedAt: time.Unix(story.Time, 0).UTC(),
		Source:      style.Source,
		Category:    style.Category,
		Icon:        style.Icon,
		Score:       feed.IntPtr(story.Score),
		Comments:    feed.IntPtr(story.Descendants),
	}
}

func hitItem(hit algoliaHit, style itemStyle) feed.Item {
	points := intOrZero(hit.Points)
	comments := intOrZero(hit.NumComments)
	author := cmp.Or(hit.Author, "unknown")

	desc := fmt.Sprintf("%d points · %d comments · by %s", points, comments, author)
	if style.Compact {
		desc = fmt.Sprintf("%d pts · %d comments · %s", points, comments, author)
	}

	return feed.Item{
		Title:       cmp.Or(hit.Title, hit.StoryTitle, "Untitled"),
		Description: desc,
		Link:        cmp.Or(hit.URL, hnItemURL+hit.ObjectID),
		PublishedAt: feed.ParseDate(hit.CreatedAt),
		Source:      style.Source,
		Category:    style.Category,
		Icon:        style.Icon,
		Score:       hit.Points,
		Comments:    hit.NumComments,
	}
}

func articleItem(article devtoArticle, style itemStyle) feed.Item {
	item := feed.Item{
		Title:       article.Title,
		Description: feed.Truncate(article.Description, style.DescriptionLen),
		Link:        article.URL,
		PublishedAt: feed.ParseDate(cmp.Or(article.PublishedAt, article.CreatedAt)),
		Source:      style.Source,
		Category:    style.Category,
		Icon:        style.Icon,
		Reactions:   feed.IntPtr(article.PositiveReactionsCount),
	}
	if !style.NoComments {
		item.Comments = feed.IntPtr(article.CommentsCount)
	}
	return item
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
