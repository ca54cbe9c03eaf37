package feed

import (
	"context"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lysyi3m/live-feed/app/metrics"
)

const (
	DefaultMaxItems = 50
	DedupPrefixLen  = 30
)

// Source is one upstream feed API. Fetch returns an error only when it could
// not produce anything.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// Result carries the outcome of a single source for one aggregation pass.
type Result struct {
	Source string
	Items  []Item
	Err    error
}

func (r Result) Stat() SourceStat {
	if r.Err != nil {
		return SourceStat{Count: 0, Status: SourceStatusError, Error: r.Err.Error()}
	}
	return SourceStat{Count: len(r.Items), Status: SourceStatusOK}
}

type Aggregator struct {
	sources  []Source
	maxItems int
}

func NewAggregator(sources []Source, maxItems int) *Aggregator {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Aggregator{
		sources:  sources,
		maxItems: maxItems,
	}
}

func (a *Aggregator) Sources() []Source {
	return a.sources
}

// Run fetches every source concurrently and merges the results. A failing
// source contributes zero items and an error stat; Run itself never fails.
func (a *Aggregator) Run(ctx context.Context) ([]Item, map[string]SourceStat) {
	started := time.Now()
	results := make([]Result, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = fetchSource(gctx, src)
			return nil
		})
	}
	_ = g.Wait()

	stats := make(map[string]SourceStat, len(results))
	var merged []Item
	for _, res := range results {
		stat := res.Stat()
		stats[res.Source] = stat
		metrics.RecordSourceFetch(res.Source, string(stat.Status), stat.Count)
		if res.Err != nil {
			continue
		}
		merged = append(merged, res.Items...)
	}

	items := Merge(merged, a.maxItems)

	metrics.ObserveAggregation(time.Since(started).Seconds())
	slog.Info("Aggregation completed",
		"sources", len(a.sources),
		"fetched", len(merged),
		"kept", len(items),
		"duration", time.Since(started))

	return items, stats
}

func fetchSource(ctx context.Context, src Source) (res Result) {
	res.Source = src.Name()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Source panicked", "source", res.Source, "panic", r)
			res.Items = nil
			res.Err = &PanicError{Value: r}
		}
	}()

	items, err := src.Fetch(ctx)
	if err != nil {
		slog.Warn("Source fetch failed", "source", res.Source, "error", err)
		res.Err = err
		return res
	}

	res.Items = items
	return res
}

type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "source panicked"
}

// Merge sorts items newest first, drops duplicates by DedupKey keeping the
// first occurrence, and truncates to limit.
func Merge(items []Item, limit int) []Item {
	sorted := slices.Clone(items)
	SortByDate(sorted)

	unique := Dedup(sorted)
	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// SortByDate orders items newest first. Zero (unparsable) dates sort last and
// ties keep their input order.
func SortByDate(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
}

func Dedup(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	unique := make([]Item, 0, len(items))
	for _, item := range items {
		key := DedupKey(item.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

func DedupKey(title string) string {
	return PrefixKey(title, DedupPrefixLen)
}

// PrefixKey lowercases the first n runes of s.
func PrefixKey(s string, n int) string {
	return cases.Lower(language.Und).String(TruncateRunes(s, n))
}

func TruncateRunes(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
