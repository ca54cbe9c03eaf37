package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// ItemTemplate carries the fields a parsed RSS/Atom item inherits from the
// source that fetched it.
type ItemTemplate struct {
	Source          string
	Category        Category
	Icon            string
	MaxItems        int
	DescriptionLen  int
	EmptyDescFiller string
}

type Parser struct {
	gofeedParser *gofeed.Parser
	now          func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		now:          time.Now,
	}
}

// Run parses an RSS or Atom document into items.
func (p *Parser) Run(data []byte, tmpl ItemTemplate) ([]Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := parsed.Items
	if tmpl.MaxItems > 0 && len(entries) > tmpl.MaxItems {
		entries = entries[:tmpl.MaxItems]
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		items = append(items, p.normalizeItem(entry, tmpl))
	}

	return items, nil
}

func (p *Parser) normalizeItem(entry *gofeed.Item, tmpl ItemTemplate) Item {
	desc := Truncate(StripHTML(cmp.Or(entry.Description, entry.Content)), tmpl.DescriptionLen)

	item := Item{
		Title:       entry.Title,
		Description: cmp.Or(desc, tmpl.EmptyDescFiller),
		Link:        entry.Link,
		Source:      tmpl.Source,
		Category:    tmpl.Category,
		Icon:        tmpl.Icon,
	}

	switch {
	case entry.PublishedParsed != nil:
		item.PublishedAt = *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		item.PublishedAt = *entry.UpdatedParsed
	default:
		item.PublishedAt = p.now()
	}

	return item
}
