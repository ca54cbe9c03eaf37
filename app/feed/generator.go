package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gorilla/feeds"
)

// Generator renders a view as a syndication document.
type Generator struct {
	baseURL string
	version string
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}
}

func (g *Generator) Run(view View) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.title(view.Tab), 4)
	g.writeElement(&buf, "link", g.baseURL+"/live?tab="+view.Tab, 4)
	g.writeElement(&buf, "description", g.description(view), 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.selfLink(view.Tab))))

	lastBuildDate := cmp.Or(view.UpdatedAt, time.Now().In(time.Local))
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Live-Feed/%s", g.version), 4)

	for _, item := range view.Items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

// Atom renders the view as an Atom 1.0 document.
func (g *Generator) Atom(view View) (string, error) {
	return g.toFeed(view).ToAtom()
}

// JSON renders the view as a JSON Feed 1.1 document.
func (g *Generator) JSON(view View) (string, error) {
	return g.toFeed(view).ToJSON()
}

func (g *Generator) toFeed(view View) *feeds.Feed {
	out := &feeds.Feed{
		Title:       g.title(view.Tab),
		Link:        &feeds.Link{Href: g.baseURL + "/live?tab=" + view.Tab},
		Description: g.description(view),
		Id:          g.selfLink(view.Tab),
		Updated:     cmp.Or(view.UpdatedAt, time.Now()),
	}

	for _, item := range view.Items {
		out.Items = append(out.Items, &feeds.Item{
			Title:       item.DisplayTitle(),
			Link:        &feeds.Link{Href: item.Link},
			Description: item.DisplayDescription(),
			Id:          item.Link,
			Source:      &feeds.Link{Href: item.Link, Rel: item.Source},
			Created:     item.PublishedAt,
		})
	}

	return out
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	if item.Link != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.Link)))
		xml.EscapeText(buf, []byte(item.Link))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", item.DisplayTitle(), 6)
	g.writeElement(buf, "link", item.Link, 6)
	g.writeElement(buf, "description", cmp.Or(item.DisplayDescription(), "No description available"), 6)

	if !item.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", string(item.Category), 6)
	g.writeElement(buf, "category", item.Source, 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) title(tab string) string {
	if tab == "" || tab == TabAll {
		return "Live Feed"
	}
	return "Live Feed: " + tab
}

func (g *Generator) description(view View) string {
	if len(view.Items) == 0 && view.EmptyMessage != "" {
		return view.EmptyMessage
	}
	return "Aggregated updates from GitHub, Hacker News, DEV.to and regional feeds"
}

func (g *Generator) selfLink(tab string) string {
	return fmt.Sprintf("%s/feeds/%s", g.baseURL, cmp.Or(tab, TabAll))
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
