package feed

import (
	"time"
)

type Category string

const (
	CategoryGitHub     Category = "github"
	CategoryNews       Category = "news"
	CategoryResearch   Category = "research"
	CategoryCompetitor Category = "competitor"
	CategoryAITech     Category = "ai-tech"
	CategoryDomestic   Category = "domestic"
	CategoryProduct    Category = "product"
)

// TabAll selects every item regardless of category.
const TabAll = "all"

var Categories = []Category{
	CategoryGitHub,
	CategoryNews,
	CategoryResearch,
	CategoryCompetitor,
	CategoryAITech,
	CategoryDomestic,
	CategoryProduct,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Item struct {
	Title       string    `json:"title"`
	Description string    `json:"desc"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"date"` // zero when the upstream date could not be parsed
	Source      string    `json:"source"`
	Category    Category  `json:"type"`
	Icon        string    `json:"icon"`

	Stars     *int   `json:"stars,omitempty"`
	Score     *int   `json:"score,omitempty"`
	Reactions *int   `json:"reactions,omitempty"`
	Comments  *int   `json:"comments,omitempty"`
	Language  string `json:"language,omitempty"`

	TitleTranslated       string `json:"title_translated,omitempty"`
	DescriptionTranslated string `json:"desc_translated,omitempty"`
}

// DisplayTitle prefers the translated title when one exists.
func (i Item) DisplayTitle() string {
	if i.TitleTranslated != "" {
		return i.TitleTranslated
	}
	return i.Title
}

func (i Item) DisplayDescription() string {
	if i.DescriptionTranslated != "" {
		return i.DescriptionTranslated
	}
	return i.Description
}

type SourceStatus string

const (
	SourceStatusOK    SourceStatus = "ok"
	SourceStatusError SourceStatus = "error"
)

type SourceStat struct {
	Count  int          `json:"count"`
	Status SourceStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Envelope is the persisted result of one aggregation pass.
type Envelope struct {
	Items     []Item                `json:"items"`
	Stats     map[string]SourceStat `json:"stats"`
	Timestamp time.Time             `json:"timestamp"`
}

func (e *Envelope) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

func (e *Envelope) IsStale(now time.Time, ttl time.Duration) bool {
	return e.Age(now) > ttl
}

// View is a filtered slice of the current items ready for rendering.
type View struct {
	Tab          string    `json:"tab"`
	Items        []Item    `json:"items"`
	EmptyMessage string    `json:"empty_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
	Loading      bool      `json:"loading"`
}

// IntPtr is a small helper for the optional metric fields.
func IntPtr(v int) *int {
	return &v
}
