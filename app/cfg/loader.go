package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Store configuration
	StoreDriver string `long:"store" env:"STORE_DRIVER" default:"memory" choice:"memory" choice:"sqlite" choice:"redis" description:"Key-value store for the feed cache and translation memo"`
	SQLitePath  string `long:"sqlite-path" env:"SQLITE_PATH" default:"./live-feed.db" description:"SQLite database file (store=sqlite)"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address (store=redis)"`

	// Application configuration
	SourcesDir        string        `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing per-source YAML overrides"`
	Port              string        `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string        `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	WorkerCount       int           `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval int           `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	APIAccessKey      string        `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`
	CacheTTL          time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"4h" description:"Age after which the cached feed is refreshed"`
	MaxItems          int           `long:"max-items" env:"MAX_ITEMS" default:"50" description:"Maximum number of aggregated items"`
	HTTPTimeout       time.Duration `long:"http-timeout" env:"HTTP_TIMEOUT" default:"30s" description:"Upper bound for any upstream HTTP request"`

	// Upstream endpoints
	GitHubURL     string `long:"github-url" env:"GITHUB_URL" default:"https://api.github.com" description:"GitHub API base URL"`
	HackerNewsURL string `long:"hackernews-url" env:"HACKERNEWS_URL" default:"https://hacker-news.firebaseio.com/v0" description:"Hacker News API base URL"`
	AlgoliaURL    string `long:"algolia-url" env:"ALGOLIA_URL" default:"https://hn.algolia.com/api/v1" description:"HN Algolia search base URL"`
	DevToURL      string `long:"devto-url" env:"DEVTO_URL" default:"https://dev.to/api" description:"DEV.to API base URL"`
	RSSMirrorURL  string `long:"rss-mirror-url" env:"RSS_MIRROR_URL" default:"https://x2j.dev/rss" description:"RSS to JSON mirror URL (empty fetches feeds directly)"`

	// Translation
	TranslateURL      string        `long:"translate-url" env:"TRANSLATE_URL" default:"https://api.mymemory.translated.net/get" description:"MyMemory compatible translation endpoint"`
	TranslateFrom     string        `long:"translate-from" env:"TRANSLATE_FROM" default:"en" description:"Source language tag"`
	TranslateTo       string        `long:"translate-to" env:"TRANSLATE_TO" default:"zh" description:"Target language tag"`
	TranslateInterval time.Duration `long:"translate-interval" env:"TRANSLATE_INTERVAL" default:"3s" description:"Minimum spacing between translation requests"`
	TranslateCooldown time.Duration `long:"translate-cooldown" env:"TRANSLATE_COOLDOWN" default:"24h" description:"Suspension after the translation service rate limits"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Live-Feed/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load reads .env (when present), the environment and the command line.
// It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive")
	}

	return &Cfg{
		StoreDriver:       raw.StoreDriver,
		SQLitePath:        raw.SQLitePath,
		RedisAddr:         raw.RedisAddr,
		SourcesDir:        raw.SourcesDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		CacheTTL:          raw.CacheTTL,
		MaxItems:          raw.MaxItems,
		HTTPTimeout:       raw.HTTPTimeout,
		GitHubURL:         raw.GitHubURL,
		HackerNewsURL:     raw.HackerNewsURL,
		AlgoliaURL:        raw.AlgoliaURL,
		DevToURL:          raw.DevToURL,
		RSSMirrorURL:      raw.RSSMirrorURL,
		TranslateURL:      raw.TranslateURL,
		TranslateFrom:     raw.TranslateFrom,
		TranslateTo:       raw.TranslateTo,
		TranslateInterval: raw.TranslateInterval,
		TranslateCooldown: raw.TranslateCooldown,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
