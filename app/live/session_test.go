package live

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/live-feed/app/feed"
	"github.com/lysyi3m/live-feed/app/store"
)

type fakeAggregator struct {
	calls   atomic.Int32
	items   []feed.Item
	release chan struct{}
	started chan struct{}
	waitCtx bool // block until the pass context is done
}

// Run mimics the real aggregator: once its context is done every source
// fails and the pass yields nothing.
func (a *fakeAggregator) Run(ctx context.Context) ([]feed.Item, map[string]feed.SourceStat) {
	a.calls.Add(1)
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.release != nil {
		<-a.release
	}
	if a.waitCtx {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		return nil, map[string]feed.SourceStat{"fake": {Status: feed.SourceStatusError, Error: err.Error()}}
	}
	return a.items, map[string]feed.SourceStat{"fake": {Count: len(a.items), Status: feed.SourceStatusOK}}
}

type fakeTranslator struct {
	mu        sync.Mutex
	calls     []string
	available bool
	limitAt   int // becomes unavailable after this many calls; 0 disables
}

func (t *fakeTranslator) Translate(ctx context.Context, text string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, text)
	if t.limitAt > 0 && len(t.calls) >= t.limitAt {
		t.available = false
		return text
	}
	return "译:" + text
}

func (t *fakeTranslator) IsTarget(text string) bool {
	return strings.ContainsRune(text, '中')
}

func (t *fakeTranslator) Available(ctx context.Context) bool {
	_, cooling := t.CooldownUntil(ctx)
	return !cooling
}

func (t *fakeTranslator) CooldownUntil(ctx context.Context) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.available {
		return time.Time{}, false
	}
	return cooldownEnd, true
}

var cooldownEnd = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// failingStore accepts reads but rejects every write.
type failingStore struct {
	store.Store
}

func (f failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("quota exceeded")
}

func (f failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("quota exceeded")
}

// gatedStore holds the next write until released.
type gatedStore struct {
	store.Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if g.armed.CompareAndSwap(true, false) {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.Store.Set(ctx, key, value, ttl)
}

func titles(items []feed.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func testItems() []feed.Item {
	now := time.Now()
	return []feed.Item{
		{Title: "First", Description: "one", Category: feed.CategoryGitHub, PublishedAt: now},
		{Title: "中文标题", Description: "two", Category: feed.CategoryNews, PublishedAt: now.Add(-time.Minute)},
		{Title: "Third", Description: "three", Category: feed.CategoryNews, PublishedAt: now.Add(-2 * time.Minute)},
		{Title: "Fourth", Description: "four", Category: feed.CategoryProduct, PublishedAt: now.Add(-3 * time.Minute)},
	}
}

func seedEnvelope(t *testing.T, kv store.Store, items []feed.Item, at time.Time) {
	t.Helper()

	data, err := json.Marshal(feed.Envelope{Items: items, Timestamp: at})
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(context.Background(), feed.CacheKey, data, 0); err != nil {
		t.Fatal(err)
	}
}

func newTestSession(agg Aggregator, tr Translator) (*Session, *feed.Cache) {
	cache := feed.NewCache(store.NewMemoryStore(), time.Hour)
	return NewSession(agg, cache, tr), cache
}

func TestInitWithoutCacheAggregates(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	session, cache := newTestSession(agg, &fakeTranslator{available: true})
	defer session.Close()

	session.Init(context.Background())

	if agg.calls.Load() != 1 {
		t.Errorf("Expected 1 aggregation, got %d", agg.calls.Load())
	}
	if got := len(session.View(feed.TabAll).Items); got != 4 {
		t.Errorf("Expected 4 items, got %d", got)
	}
	if cache.Load(context.Background()) == nil {
		t.Error("Expected envelope to be persisted")
	}
}

func TestInitWithFreshCache(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	session, cache := newTestSession(agg, &fakeTranslator{available: true})
	defer session.Close()

	if _, err := cache.Save(context.Background(), testItems()[:2], nil); err != nil {
		t.Fatal(err)
	}

	session.Init(context.Background())
	session.Wait()

	if agg.calls.Load() != 0 {
		t.Errorf("Expected no aggregation for fresh cache, got %d", agg.calls.Load())
	}
	if got := len(session.View(feed.TabAll).Items); got != 2 {
		t.Errorf("Expected cached items, got %d", got)
	}
}

func TestInitWithStaleCacheRefreshesOnceInBackground(t *testing.T) {
	agg := &fakeAggregator{items: testItems(), release: make(chan struct{}), started: make(chan struct{}, 1)}
	kv := store.NewMemoryStore()
	session := NewSession(agg, feed.NewCache(kv, time.Hour), &fakeTranslator{available: true})
	defer session.Close()

	seedEnvelope(t, kv, testItems()[:1], time.Now().Add(-2*time.Hour))

	session.Init(context.Background())

	// Served immediately from cache while the refresh is blocked.
	if got := len(session.View(feed.TabAll).Items); got != 1 {
		t.Errorf("Expected stale cached items while refreshing, got %d", got)
	}
	<-agg.started
	if !session.Refreshing() {
		t.Error("Expected a background refresh to be running")
	}

	// A second stale trigger while running must not start another pass.
	session.refreshInBackground()

	close(agg.release)
	session.Wait()

	if agg.calls.Load() != 1 {
		t.Errorf("Expected exactly 1 background refresh, got %d", agg.calls.Load())
	}
	if got := len(session.View(feed.TabAll).Items); got != 4 {
		t.Errorf("Expected refreshed items, got %d", got)
	}
}

func TestRefreshInProgress(t *testing.T) {
	agg := &fakeAggregator{items: testItems(), release: make(chan struct{}), started: make(chan struct{}, 1)}
	session, _ := newTestSession(agg, &fakeTranslator{available: true})
	defer session.Close()

	done := make(chan error, 1)
	go func() {
		_, err := session.Refresh(context.Background())
		done <- err
	}()
	<-agg.started

	if _, err := session.Refresh(context.Background()); !errors.Is(err, ErrRefreshInProgress) {
		t.Errorf("Expected ErrRefreshInProgress, got %v", err)
	}
	if view := session.View(feed.TabAll); !view.Loading {
		t.Error("Expected loading view while first aggregation runs")
	}

	close(agg.release)
	if err := <-done; err != nil {
		t.Errorf("Expected first refresh to succeed, got %v", err)
	}
	if agg.calls.Load() != 1 {
		t.Errorf("Expected 1 aggregation, got %d", agg.calls.Load())
	}
}

func TestRefreshClearsCache(t *testing.T) {
	agg := &fakeAggregator{items: testItems()[:3]}
	session, cache := newTestSession(agg, &fakeTranslator{available: true})
	defer session.Close()

	ctx := context.Background()
	if _, err := cache.Save(ctx, testItems(), nil); err != nil {
		t.Fatal(err)
	}
	session.Init(ctx)

	stats, err := session.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats["fake"].Count != 3 {
		t.Errorf("Expected stats from the new pass, got %+v", stats)
	}

	env := cache.Load(ctx)
	if env == nil || len(env.Items) != 3 {
		t.Errorf("Expected the cache to hold the new pass")
	}
}

func TestRefreshIfStale(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	session, cache := newTestSession(agg, &fakeTranslator{available: true})
	defer session.Close()
	ctx := context.Background()

	if _, err := cache.Save(ctx, testItems()[:2], nil); err != nil {
		t.Fatal(err)
	}

	refreshed, err := session.RefreshIfStale(ctx)
	if err != nil || refreshed {
		t.Errorf("Expected fresh cache to be kept, got refreshed=%v err=%v", refreshed, err)
	}
	if got := len(session.View(feed.TabAll).Items); got != 2 {
		t.Errorf("Expected fresh envelope to be adopted, got %d items", got)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	refreshed, err = session.RefreshIfStale(ctx)
	if err != nil || !refreshed {
		t.Errorf("Expected missing cache to trigger refresh, got refreshed=%v err=%v", refreshed, err)
	}
	if agg.calls.Load() != 1 {
		t.Errorf("Expected 1 aggregation, got %d", agg.calls.Load())
	}
}

func TestTranslateFirstItems(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	tr := &fakeTranslator{available: true}
	session, cache := newTestSession(agg, tr)
	defer session.Close()
	ctx := context.Background()
	session.Init(ctx)

	if err := session.Translate(ctx); err != nil {
		t.Fatal(err)
	}

	items := session.View(feed.TabAll).Items
	if items[0].TitleTranslated != "译:First" || items[0].DescriptionTranslated != "one" {
		t.Errorf("Unexpected first item: %+v", items[0])
	}
	if items[1].TitleTranslated != "中文标题" {
		t.Errorf("Expected target-script title to be copied, got %q", items[1].TitleTranslated)
	}
	if items[2].TitleTranslated != "译:Third" {
		t.Errorf("Unexpected third item: %+v", items[2])
	}
	if items[3].TitleTranslated != "" || items[3].DescriptionTranslated != "" {
		t.Errorf("Expected fourth item untouched, got %+v", items[3])
	}
	if len(tr.calls) != 2 {
		t.Errorf("Expected 2 translation calls, got %d", len(tr.calls))
	}

	env := cache.Load(ctx)
	if env == nil || env.Items[0].TitleTranslated != "译:First" {
		t.Error("Expected translated envelope to be persisted")
	}
}

func TestTranslateStopsOnCooldown(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	tr := &fakeTranslator{available: true, limitAt: 1}
	session, _ := newTestSession(agg, tr)
	defer session.Close()
	ctx := context.Background()
	session.Init(ctx)

	if err := session.Translate(ctx); err != nil {
		t.Fatal(err)
	}

	items := session.View(feed.TabAll).Items
	if items[0].TitleTranslated != "First" {
		t.Errorf("Expected original title after rate limit, got %q", items[0].TitleTranslated)
	}
	if items[1].TitleTranslated != "" {
		t.Errorf("Expected no further translation after cool-down began, got %q", items[1].TitleTranslated)
	}

	if err := session.Translate(ctx); !errors.Is(err, ErrTranslationUnavailable) {
		t.Errorf("Expected ErrTranslationUnavailable, got %v", err)
	}
}

func TestViewFiltersAndEmptyMessage(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	session, _ := newTestSession(agg, &fakeTranslator{available: true})
	defer session.Close()
	session.Init(context.Background())

	news := session.View(string(feed.CategoryNews))
	if len(news.Items) != 2 || news.EmptyMessage != "" {
		t.Errorf("Unexpected news view: %+v", news)
	}

	domestic := session.View(string(feed.CategoryDomestic))
	if len(domestic.Items) != 0 || domestic.EmptyMessage != feed.EmptyMessage("domestic") {
		t.Errorf("Unexpected domestic view: %+v", domestic)
	}
	if domestic.Loading {
		t.Error("Expected no loading state when idle")
	}
}

func TestStatus(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	session, _ := newTestSession(agg, &fakeTranslator{available: false})
	defer session.Close()
	session.Init(context.Background())

	status := session.Status(context.Background())
	if status.Items != 4 || status.TranslationAvailable || status.UpdatedAt.IsZero() {
		t.Errorf("Unexpected status: %+v", status)
	}
	if !status.CooldownUntil.Equal(cooldownEnd) {
		t.Errorf("Expected cool-down end %v, got %v", cooldownEnd, status.CooldownUntil)
	}
}

func TestCloseDuringBackgroundRefreshKeepsCache(t *testing.T) {
	agg := &fakeAggregator{items: testItems(), started: make(chan struct{}, 1), waitCtx: true}
	kv := store.NewMemoryStore()
	cache := feed.NewCache(kv, time.Hour)
	session := NewSession(agg, cache, &fakeTranslator{available: true})

	stamp := time.Now().Add(-2 * time.Hour)
	seedEnvelope(t, kv, testItems(), stamp)

	session.Init(context.Background())
	<-agg.started
	session.Close()

	env := cache.Load(context.Background())
	if env == nil || len(env.Items) != 4 {
		t.Fatalf("Expected the stored envelope to survive shutdown, got %+v", env)
	}
	if !env.Timestamp.Equal(stamp) || !cache.IsStale(env) {
		t.Errorf("Expected the stored envelope to stay stale, got timestamp %v", env.Timestamp)
	}
	if got := len(session.View(feed.TabAll).Items); got != 4 {
		t.Errorf("Expected cached items to stay in memory, got %d", got)
	}
}

func TestRefreshOutlivesRequestContext(t *testing.T) {
	agg := &fakeAggregator{items: testItems()[:2]}
	session, cache := newTestSession(agg, &fakeTranslator{available: true})
	defer session.Close()

	if _, err := cache.Save(context.Background(), testItems(), nil); err != nil {
		t.Fatal(err)
	}
	session.Init(context.Background())

	agg.release = make(chan struct{})
	agg.started = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := session.Refresh(ctx)
		done <- err
	}()
	<-agg.started
	cancel()
	close(agg.release)

	if err := <-done; err != nil {
		t.Fatalf("Expected refresh to complete, got %v", err)
	}
	if got := len(session.View(feed.TabAll).Items); got != 2 {
		t.Errorf("Expected the completed pass to be adopted, got %d items", got)
	}
	env := cache.Load(context.Background())
	if env == nil || len(env.Items) != 2 {
		t.Errorf("Expected the completed pass to be stored, got %+v", env)
	}
}

func TestRefreshDuringTranslationSaveWins(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	kv := &gatedStore{Store: store.NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	cache := feed.NewCache(kv, time.Hour)
	session := NewSession(agg, cache, &fakeTranslator{available: true})
	defer session.Close()
	ctx := context.Background()

	session.Init(ctx)

	kv.armed.Store(true)
	translated := make(chan error, 1)
	go func() { translated <- session.Translate(ctx) }()
	<-kv.entered

	fresh := []feed.Item{{Title: "Fresh", Category: feed.CategoryNews, PublishedAt: time.Now()}}
	agg.items = fresh
	agg.started = make(chan struct{}, 1)
	refreshed := make(chan error, 1)
	go func() {
		_, err := session.Refresh(ctx)
		refreshed <- err
	}()
	<-agg.started
	// Let the refresh reach its commit while the translated list is being written.
	time.Sleep(20 * time.Millisecond)

	close(kv.release)
	if err := <-translated; err != nil {
		t.Fatal(err)
	}
	if err := <-refreshed; err != nil {
		t.Fatal(err)
	}

	if got := titles(session.View(feed.TabAll).Items); len(got) != 1 || got[0] != "Fresh" {
		t.Errorf("Expected the refreshed list in memory, got %v", got)
	}
	env := cache.Load(ctx)
	if env == nil || len(env.Items) != 1 || env.Items[0].Title != "Fresh" {
		t.Errorf("Expected the refreshed list in the store, got %+v", env)
	}
	if !env.Timestamp.Equal(session.UpdatedAt()) {
		t.Errorf("Expected store and memory to agree, got %v and %v", env.Timestamp, session.UpdatedAt())
	}
}

func TestPersistenceFailureKeepsMemoryAuthoritative(t *testing.T) {
	agg := &fakeAggregator{items: testItems()}
	session := NewSession(agg, feed.NewCache(failingStore{Store: store.NewMemoryStore()}, time.Hour), &fakeTranslator{available: true})
	defer session.Close()
	ctx := context.Background()

	session.Init(ctx)
	if got := len(session.View(feed.TabAll).Items); got != 4 {
		t.Fatalf("Expected aggregated items despite write failure, got %d", got)
	}

	agg.items = testItems()[:3]
	if _, err := session.Refresh(ctx); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if got := len(session.View(feed.TabAll).Items); got != 3 {
		t.Errorf("Expected refreshed items despite write failure, got %d", got)
	}

	if err := session.Translate(ctx); err != nil {
		t.Fatal(err)
	}
	if got := session.View(feed.TabAll).Items[0].TitleTranslated; got != "译:First" {
		t.Errorf("Expected translation to be served from memory, got %q", got)
	}
}
