package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lysyi3m/live-feed/app/feed"
	"github.com/lysyi3m/live-feed/app/store"
)

const (
	MemoKey      = "translation_cache"
	MemoSize     = 500
	MemoKeyRunes = 200
)

type memoEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Memo remembers translations keyed by the first 200 runes of the input.
// Reads never change the eviction order, so the oldest insertion goes first.
type Memo struct {
	cache *lru.Cache[string, string]
}

func NewMemo(size int) (*Memo, error) {
	if size <= 0 {
		size = MemoSize
	}

	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memo: %w", err)
	}
	return &Memo{cache: cache}, nil
}

func memoKey(text string) string {
	return feed.TruncateRunes(text, MemoKeyRunes)
}

func (m *Memo) Get(text string) (string, bool) {
	return m.cache.Peek(memoKey(text))
}

func (m *Memo) Add(text, translated string) {
	key := memoKey(text)
	if m.cache.Contains(key) {
		return
	}
	m.cache.Add(key, translated)
}

func (m *Memo) Len() int {
	return m.cache.Len()
}

// Load replaces the memo content with the persisted entries.
func (m *Memo) Load(ctx context.Context, s store.Store) error {
	data, err := s.Get(ctx, MemoKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read translation memo: %w", err)
	}

	var entries []memoEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode translation memo: %w", err)
	}

	m.cache.Purge()
	for _, e := range entries {
		m.cache.Add(e.Key, e.Value)
	}
	return nil
}

// Save persists the entries oldest first.
func (m *Memo) Save(ctx context.Context, s store.Store) error {
	keys := m.cache.Keys()
	entries := make([]memoEntry, 0, len(keys))
	for _, k := range keys {
		if v, ok := m.cache.Peek(k); ok {
			entries = append(entries, memoEntry{Key: k, Value: v})
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode translation memo: %w", err)
	}
	if err := s.Set(ctx, MemoKey, data, 0); err != nil {
		return fmt.Errorf("failed to write translation memo: %w", err)
	}
	return nil
}
