package feed

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

const cardsTemplate = `{{if not .Items}}<div class="live-empty">
  <div class="live-empty-icon">📡</div>
  {{.EmptyMessage}}
</div>
{{else}}{{range .Items}}<div class="live-feed-card">
  <div class="live-feed-icon">{{.Icon}}</div>
  <div class="live-feed-content">
    <div class="live-feed-title"><a href="{{.Link}}" target="_blank" rel="noopener">{{.DisplayTitle}}</a></div>
    <div class="live-feed-desc">{{.DisplayDescription}}</div>
    <div class="live-feed-meta">
      <span class="live-source-tag {{.Category}}">{{.Source}}</span>
      {{- if .Language}}
      <span class="live-source-tag github">{{.Language}}</span>
      {{- end}}
      {{- range stats .Item}}
      <span class="live-feed-stat">{{.}}</span>
      {{- end}}
      <span class="live-feed-date">{{relativeTime .PublishedAt}}</span>
    </div>
  </div>
</div>
{{end}}{{end}}`

const loadingMarkup = `<div class="live-loading">
  <div class="live-loading-spinner"></div>
  <span>Fetching the latest updates from GitHub / Hacker News / DEV.to / regional feeds...</span>
</div>
`

type card struct {
	Item
}

// Renderer produces the HTML markup of a view.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

func NewRenderer() *Renderer {
	r := &Renderer{now: time.Now}
	r.tmpl = template.Must(template.New("cards").Funcs(template.FuncMap{
		"relativeTime": r.relativeTime,
		"stats":        itemStats,
	}).Parse(cardsTemplate))
	return r
}

func (r *Renderer) Run(w io.Writer, view View) error {
	if view.Loading && len(view.Items) == 0 {
		_, err := io.WriteString(w, loadingMarkup)
		return err
	}

	data := struct {
		Items        []card
		EmptyMessage string
	}{
		EmptyMessage: view.EmptyMessage,
	}
	for _, item := range view.Items {
		data.Items = append(data.Items, card{Item: item})
	}

	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render view: %w", err)
	}
	return nil
}

func (r *Renderer) relativeTime(t time.Time) string {
	now := r.now()
	if t.IsZero() || t.After(now) {
		return "just now"
	}
	diff := now.Sub(t)
	if diff < time.Minute {
		return "1 minute ago"
	}
	if diff < 7*24*time.Hour {
		return humanize.RelTime(t, now, "ago", "from now")
	}
	return t.Format("Jan 2")
}

// itemStats lists the metric badges of an item: stars win over score, which
// wins over reactions; comments are always shown when known.
func itemStats(item Item) []string {
	var out []string
	switch {
	case item.Stars != nil:
		out = append(out, "⭐ "+FormatCount(*item.Stars))
	case item.Score != nil:
		out = append(out, fmt.Sprintf("▲ %d", *item.Score))
	case item.Reactions != nil:
		out = append(out, fmt.Sprintf("❤️ %d", *item.Reactions))
	}
	if item.Comments != nil {
		out = append(out, fmt.Sprintf("💬 %d", *item.Comments))
	}
	return out
}

// FormatCount abbreviates counts of a thousand or more, e.g. 1234 -> "1.2k".
func FormatCount(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return humanize.Comma(int64(n))
}
