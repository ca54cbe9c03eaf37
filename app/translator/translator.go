package translator

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/lysyi3m/live-feed/app/metrics"
	"github.com/lysyi3m/live-feed/app/store"
)

const (
	RateLimitedKey   = "translation_rate_limited"
	RateLimitedAtKey = "translation_rate_limited_at"

	DefaultEndpoint = "https://api.mymemory.translated.net/get"
	DefaultInterval = 3 * time.Second
	DefaultCooldown = 24 * time.Hour
	MaxTextRunes    = 500
)

var errRateLimited = errors.New("translation service rate limited")

type Options struct {
	Endpoint string
	Source   string
	Target   string
	Interval time.Duration
	Cooldown time.Duration
}

// Translator translates short texts through a MyMemory compatible endpoint.
// Requests are serialized and spaced by the limiter; an HTTP 429 suspends
// the service for the cool-down period.
type Translator struct {
	httpClient *http.Client
	userAgent  string
	endpoint   string
	langpair   string
	tables     []*unicode.RangeTable
	cooldown   time.Duration

	store   store.Store
	memo    *Memo
	limiter *rate.Limiter
	mu      sync.Mutex
	now     func() time.Time
}

func New(httpClient *http.Client, userAgent string, s store.Store, opts Options) (*Translator, error) {
	source, err := language.Parse(cmp.Or(opts.Source, "en"))
	if err != nil {
		return nil, fmt.Errorf("invalid source language '%s': %w", opts.Source, err)
	}
	target, err := language.Parse(cmp.Or(opts.Target, "zh"))
	if err != nil {
		return nil, fmt.Errorf("invalid target language '%s': %w", opts.Target, err)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	memo, err := NewMemo(MemoSize)
	if err != nil {
		return nil, err
	}

	return &Translator{
		httpClient: httpClient,
		userAgent:  userAgent,
		endpoint:   cmp.Or(opts.Endpoint, DefaultEndpoint),
		langpair:   source.String() + "|" + target.String(),
		tables:     ScriptTables(target),
		cooldown:   cooldown,
		store:      s,
		memo:       memo,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		now:        time.Now,
	}, nil
}

// LoadMemo restores the persisted translation memo. A broken memo is logged
// and ignored.
func (t *Translator) LoadMemo(ctx context.Context) {
	if err := t.memo.Load(ctx, t.store); err != nil {
		slog.Warn("Failed to load translation memo", "error", err)
		return
	}
	slog.Debug("Translation memo loaded", "entries", t.memo.Len())
}

// IsTarget reports whether text is already in the target script.
func (t *Translator) IsTarget(text string) bool {
	return IsTargetScript(text, t.tables)
}

// Translate returns the translation of text, or text itself when it is
// skipped or anything goes wrong.
func (t *Translator) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) > MaxTextRunes || t.IsTarget(text) {
		metrics.RecordTranslation("skipped")
		return text
	}

	if translated, ok := t.memo.Get(text); ok {
		metrics.RecordTranslation("memo")
		return translated
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, cooling := t.CooldownUntil(ctx); cooling {
		metrics.RecordTranslation("cooldown")
		return text
	}

	if err := t.limiter.Wait(ctx); err != nil {
		slog.Debug("Translation wait aborted", "error", err)
		metrics.RecordTranslation("error")
		return text
	}

	translated, err := t.request(ctx, text)
	if err != nil {
		if errors.Is(err, errRateLimited) {
			slog.Warn("Translation service rate limited, cooling down", "cooldown", t.cooldown)
			t.enterCooldown(ctx)
			metrics.RecordTranslation("rate_limited")
			return text
		}
		slog.Debug("Translation failed", "error", err)
		metrics.RecordTranslation("error")
		return text
	}

	result := text
	if translated != "" && translated != text {
		result = translated
	}

	t.memo.Add(text, result)
	if err := t.memo.Save(ctx, t.store); err != nil {
		slog.Warn("Failed to persist translation memo", "error", err)
	}

	metrics.RecordTranslation("translated")
	return result
}

// Available reports whether the service is not cooling down.
func (t *Translator) Available(ctx context.Context) bool {
	_, cooling := t.CooldownUntil(ctx)
	return !cooling
}

// CooldownUntil returns the end of the current cool-down. An expired
// cool-down is cleared.
func (t *Translator) CooldownUntil(ctx context.Context) (time.Time, bool) {
	data, err := t.store.Get(ctx, RateLimitedAtKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Debug("Failed to read translation cool-down", "error", err)
		}
		return time.Time{}, false
	}

	at, err := time.Parse(time.RFC3339Nano, string(data))
	if err == nil {
		until := at.Add(t.cooldown)
		if t.now().Before(until) {
			return until, true
		}
	}

	t.clearCooldown(ctx)
	return time.Time{}, false
}

func (t *Translator) enterCooldown(ctx context.Context) {
	at := []byte(t.now().UTC().Format(time.RFC3339Nano))
	if err := t.store.Set(ctx, RateLimitedKey, []byte("1"), t.cooldown); err != nil {
		slog.Warn("Failed to persist translation cool-down", "error", err)
	}
	if err := t.store.Set(ctx, RateLimitedAtKey, at, t.cooldown); err != nil {
		slog.Warn("Failed to persist translation cool-down", "error", err)
	}
}

func (t *Translator) clearCooldown(ctx context.Context) {
	for _, key := range []string{RateLimitedKey, RateLimitedAtKey} {
		if err := t.store.Delete(ctx, key); err != nil {
			slog.Debug("Failed to clear translation cool-down", "key", key, "error", err)
		}
	}
}

type response struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// MyMemory reports quota errors with HTTP 200 and a numeric or string
	// status here.
	ResponseStatus json.RawMessage `json:"responseStatus"`
}

func (r response) status() int {
	code, err := strconv.Atoi(strings.Trim(string(r.ResponseStatus), `"`))
	if err != nil {
		return http.StatusOK
	}
	return code
}

func (t *Translator) request(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", t.langpair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call translation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	switch status := decoded.status(); {
	case status == http.StatusTooManyRequests:
		return "", errRateLimited
	case status != http.StatusOK:
		return "", fmt.Errorf("translation service status %d", status)
	}

	return decoded.ResponseData.TranslatedText, nil
}
