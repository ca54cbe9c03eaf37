package cfg

import "time"

type Cfg struct {
	// Store configuration
	StoreDriver string
	SQLitePath  string
	RedisAddr   string

	// Application configuration
	SourcesDir        string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	CacheTTL          time.Duration
	MaxItems          int
	HTTPTimeout       time.Duration

	// Upstream endpoints
	GitHubURL     string
	HackerNewsURL string
	AlgoliaURL    string
	DevToURL      string
	RSSMirrorURL  string

	// Translation
	TranslateURL      string
	TranslateFrom     string
	TranslateTo       string
	TranslateInterval time.Duration
	TranslateCooldown time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
