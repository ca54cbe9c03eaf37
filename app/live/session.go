package live

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/live-feed/app/feed"
)

// TranslateCount is how many leading items a translation pass covers.
const TranslateCount = 3

var (
	ErrRefreshInProgress      = errors.New("refresh already in progress")
	ErrTranslationInProgress  = errors.New("translation already in progress")
	ErrTranslationUnavailable = errors.New("translation service is cooling down")
)

type Aggregator interface {
	Run(ctx context.Context) ([]feed.Item, map[string]feed.SourceStat)
}

type Translator interface {
	Translate(ctx context.Context, text string) string
	IsTarget(text string) bool
	Available(ctx context.Context) bool
	CooldownUntil(ctx context.Context) (time.Time, bool)
}

// Status summarizes the session for health reporting.
type Status struct {
	Items                int
	UpdatedAt            time.Time
	CacheAge             time.Duration
	Refreshing           bool
	Translating          bool
	TranslationAvailable bool
	CooldownUntil        time.Time // zero unless cooling down
}

// Session owns the current item list. It serves the cached envelope, keeps it
// fresh according to the cache TTL and applies translation passes.
type Session struct {
	aggregator Aggregator
	cache      *feed.Cache
	translator Translator
	filterer   *feed.Filterer

	mu        sync.RWMutex
	items     []feed.Item
	stats     map[string]feed.SourceStat
	updatedAt time.Time

	refreshing  atomic.Bool
	translating atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewSession(aggregator Aggregator, cache *feed.Cache, translator Translator) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		aggregator: aggregator,
		cache:      cache,
		translator: translator,
		filterer:   feed.NewFilterer(),
		stats:      map[string]feed.SourceStat{},
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

// Init loads the cached envelope. A fresh envelope is served as is, a stale
// one is served while a single background refresh runs, and a missing one is
// replaced by a synchronous aggregation.
func (s *Session) Init(ctx context.Context) {
	envelope := s.cache.Load(ctx)
	if envelope == nil {
		slog.Info("No cached feed, aggregating")
		if _, err := s.refresh(ctx, false); err != nil {
			slog.Warn("Initial aggregation skipped", "error", err)
		}
		return
	}

	s.adopt(envelope)
	slog.Info("Serving cached feed", "items", len(envelope.Items), "age", envelope.Age(s.now()))

	if s.cache.IsStale(envelope) {
		s.refreshInBackground()
	}
}

// Refresh discards the cached envelope and aggregates again.
func (s *Session) Refresh(ctx context.Context) (map[string]feed.SourceStat, error) {
	return s.refresh(ctx, true)
}

// RefreshIfStale aggregates only when the stored envelope is missing or older
// than the TTL. A fresh envelope written by another process is adopted.
func (s *Session) RefreshIfStale(ctx context.Context) (bool, error) {
	if envelope := s.cache.Load(ctx); envelope != nil && !s.cache.IsStale(envelope) {
		s.mu.Lock()
		if envelope.Timestamp.After(s.updatedAt) {
			s.adoptLocked(envelope)
		}
		s.mu.Unlock()
		return false, nil
	}

	if _, err := s.refresh(ctx, false); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) refreshInBackground() {
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.refreshing.Store(false)

		slog.Info("Cached feed is stale, refreshing in background")
		s.aggregate(s.ctx)
	}()
}

func (s *Session) refresh(ctx context.Context, clear bool) (map[string]feed.SourceStat, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return nil, ErrRefreshInProgress
	}
	defer s.refreshing.Store(false)

	// A pass outlives the caller's request and stops only with the session.
	passCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	if clear {
		if err := s.cache.Clear(passCtx); err != nil {
			slog.Warn("Failed to clear feed cache", "error", err)
		}
	}

	return s.aggregate(passCtx), nil
}

// aggregate runs one pass and commits it. A pass cut short by shutdown is
// dropped so the stored envelope is never replaced by a partial result.
func (s *Session) aggregate(ctx context.Context) map[string]feed.SourceStat {
	items, stats := s.aggregator.Run(ctx)

	if err := ctx.Err(); err != nil {
		slog.Warn("Aggregation interrupted, keeping previous feed", "error", err)
		return stats
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(context.WithoutCancel(ctx), items, stats)
	return stats
}

// commit persists and adopts a new item list. The caller holds s.mu so the
// stored envelope and the in-memory list change together. A failed write is
// logged and the list is adopted anyway.
func (s *Session) commit(ctx context.Context, items []feed.Item, stats map[string]feed.SourceStat) {
	envelope, err := s.cache.Save(ctx, items, stats)
	if err != nil {
		slog.Warn("Failed to persist feed cache", "error", err)
	}
	s.adoptLocked(envelope)
}

func (s *Session) adopt(envelope *feed.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adoptLocked(envelope)
}

func (s *Session) adoptLocked(envelope *feed.Envelope) {
	s.items = envelope.Items
	s.stats = envelope.Stats
	if s.stats == nil {
		s.stats = map[string]feed.SourceStat{}
	}
	s.updatedAt = envelope.Timestamp
}

// Translate translates the titles of the leading items. Descriptions are
// copied unchanged into the translated slot. The result is dropped when a
// refresh replaced the list in the meantime.
func (s *Session) Translate(ctx context.Context) error {
	if !s.translator.Available(ctx) {
		return ErrTranslationUnavailable
	}
	if !s.translating.CompareAndSwap(false, true) {
		return ErrTranslationInProgress
	}
	defer s.translating.Store(false)

	s.mu.RLock()
	items := slices.Clone(s.items)
	stats := s.stats
	base := s.updatedAt
	s.mu.RUnlock()

	if len(items) == 0 {
		return nil
	}

	translated := 0
	for i := range items[:min(TranslateCount, len(items))] {
		if !s.translator.Available(ctx) {
			slog.Info("Translation stopped, service is cooling down", "translated", translated)
			break
		}

		item := &items[i]
		if s.translator.IsTarget(item.Title) {
			item.TitleTranslated = item.Title
		} else {
			item.TitleTranslated = s.translator.Translate(ctx, item.Title)
		}
		item.DescriptionTranslated = item.Description
		translated++
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.updatedAt.Equal(base) {
		slog.Info("Feed refreshed during translation, discarding result")
		return nil
	}
	s.commit(context.WithoutCancel(ctx), items, stats)

	slog.Info("Translation completed", "items", translated)
	return nil
}

// View returns the items shown under tab.
func (s *Session) View(tab string) feed.View {
	s.mu.RLock()
	items := s.filterer.Run(s.items, tab)
	updatedAt := s.updatedAt
	s.mu.RUnlock()

	view := feed.View{
		Tab:       tab,
		Items:     items,
		UpdatedAt: updatedAt,
		Loading:   s.refreshing.Load() && len(items) == 0,
	}
	if len(items) == 0 {
		view.EmptyMessage = feed.EmptyMessage(tab)
	}
	return view
}

func (s *Session) Stats() map[string]feed.SourceStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]feed.SourceStat, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *Session) Status(ctx context.Context) Status {
	s.mu.RLock()
	status := Status{
		Items:     len(s.items),
		UpdatedAt: s.updatedAt,
	}
	s.mu.RUnlock()

	if !status.UpdatedAt.IsZero() {
		status.CacheAge = s.now().Sub(status.UpdatedAt)
	}
	status.Refreshing = s.refreshing.Load()
	status.Translating = s.translating.Load()
	until, cooling := s.translator.CooldownUntil(ctx)
	status.TranslationAvailable = !cooling
	if cooling {
		status.CooldownUntil = until
	}
	return status
}

func (s *Session) Refreshing() bool {
	return s.refreshing.Load()
}

func (s *Session) Translating() bool {
	return s.translating.Load()
}

// Close cancels background work and waits for it to finish.
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until background work has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}
