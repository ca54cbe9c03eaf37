package feed

import (
	"strings"
	"testing"
	"time"
)

func newTestRenderer(now time.Time) *Renderer {
	r := NewRenderer()
	r.now = func() time.Time { return now }
	return r
}

func TestRendererCards(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	r := newTestRenderer(now)

	view := View{
		Tab: TabAll,
		Items: []Item{
			{
				Title:       "<script>alert(1)</script>",
				Description: "desc",
				Link:        "https://github.com/a/b",
				Source:      "GitHub",
				Category:    CategoryGitHub,
				Icon:        "🔧",
				Stars:       IntPtr(1234),
				Language:    "Go",
				PublishedAt: now.Add(-3 * time.Hour),
			},
		},
	}

	var sb strings.Builder
	if err := r.Run(&sb, view); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	out := sb.String()

	expected := []string{
		`class="live-feed-card"`,
		`href="https://github.com/a/b"`,
		`&lt;script&gt;alert(1)&lt;/script&gt;`,
		`<span class="live-source-tag github">GitHub</span>`,
		`<span class="live-source-tag github">Go</span>`,
		`⭐ 1.2k`,
		`3 hours ago`,
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("Expected markup to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("Expected titles to be escaped")
	}
}

func TestRendererEmptyAndLoading(t *testing.T) {
	r := newTestRenderer(time.Now())

	var sb strings.Builder
	if err := r.Run(&sb, View{Tab: "domestic", EmptyMessage: EmptyMessage("domestic")}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "live-empty") {
		t.Error("Expected empty-state markup")
	}

	sb.Reset()
	if err := r.Run(&sb, View{Tab: TabAll, Loading: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "live-loading") {
		t.Error("Expected loading markup")
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	r := newTestRenderer(now)

	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "just now"},
		{now.Add(time.Hour), "just now"},
		{now.Add(-10 * time.Second), "1 minute ago"},
		{now.Add(-30 * time.Minute), "30 minutes ago"},
		{now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), "Apr 1"},
	}

	for _, tt := range tests {
		if got := r.relativeTime(tt.at); got != tt.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestItemStats(t *testing.T) {
	item := Item{Score: IntPtr(120), Reactions: IntPtr(7), Comments: IntPtr(33)}
	stats := itemStats(item)
	if len(stats) != 2 || stats[0] != "▲ 120" || stats[1] != "💬 33" {
		t.Errorf("Expected score and comments, got %v", stats)
	}

	if stats := itemStats(Item{}); len(stats) != 0 {
		t.Errorf("Expected no stats, got %v", stats)
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{
		0:     "0",
		999:   "999",
		1000:  "1.0k",
		15300: "15.3k",
	}
	for n, want := range tests {
		if got := FormatCount(n); got != want {
			t.Errorf("FormatCount(%d) = %q, want %q", n, got, want)
		}
	}
}
