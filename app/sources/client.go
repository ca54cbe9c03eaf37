package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/live-feed/app/feed"
)

// Endpoints are the base URLs of the upstream APIs.
type Endpoints struct {
	GitHub     string
	HackerNews string
	Algolia    string
	DevTo      string
	RSSMirror  string // empty fetches RSS feeds directly
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		GitHub:     "https://api.github.com",
		HackerNews: "https://hacker-news.firebaseio.com/v0",
		Algolia:    "https://hn.algolia.com/api/v1",
		DevTo:      "https://dev.to/api",
		RSSMirror:  "https://x2j.dev/rss",
	}
}

// StatusError reports a non-200 upstream response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, e.Status)
}

// Client is shared by every source. It owns the HTTP client, the endpoints
// and the random source used to rotate queries.
type Client struct {
	httpClient *http.Client
	userAgent  string
	endpoints  Endpoints
	parser     *feed.Parser

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

func NewClient(httpClient *http.Client, userAgent string, endpoints Endpoints) *Client {
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		endpoints:  trimEndpoints(endpoints),
		parser:     feed.NewParser(),
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:        time.Now,
	}
}

// pick returns n distinct entries of list in random order.
func (c *Client) pick(list []string, n int) []string {
	shuffled := clone(list)

	c.rngMu.Lock()
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	c.rngMu.Unlock()

	if n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}

func (c *Client) getJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	data, err := c.get(ctx, url, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func trimEndpoints(e Endpoints) Endpoints {
	e.GitHub = strings.TrimRight(e.GitHub, "/")
	e.HackerNews = strings.TrimRight(e.HackerNews, "/")
	e.Algolia = strings.TrimRight(e.Algolia, "/")
	e.DevTo = strings.TrimRight(e.DevTo, "/")
	return e
}

func withTimeout(ctx context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.TimeoutDuration())
}
