package sources

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ConfigCache holds the configuration of every source kind. Built-in defaults
// are overridden by an optional <kind>.yml file in the sources directory.
type ConfigCache struct {
	sourcesDir string
	cache      map[Kind]*Config
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[Kind]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if cc.sourcesDir != "" {
		if err := cc.checkUnknownFiles(); err != nil {
			return err
		}
	}

	for _, kind := range Kinds {
		config, err := cc.LoadConfig(kind)
		if err != nil {
			return err
		}

		slog.Debug("Source configuration loaded", "source", config.Name, "kind", kind, "enabled", config.Enabled)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(kind Kind) (*Config, error) {
	config := DefaultConfig(kind)
	if config == nil {
		return nil, fmt.Errorf("unknown source kind '%s'", kind)
	}

	configFile := cc.getConfigFilePath(kind)
	if configFile != "" {
		if err := cc.parseConfig(configFile, config); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", configFile, err)
		}
	}

	config.Kind = kind

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config for source '%s': %w", kind, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[kind] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(kind Kind) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[kind]
	if !ok {
		return nil, fmt.Errorf("source config '%s' not found", kind)
	}
	return config, nil
}

// GetEnabledConfigs returns the enabled configurations in aggregation order.
func (cc *ConfigCache) GetEnabledConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabled := make([]*Config, 0, len(cc.cache))
	for _, kind := range Kinds {
		if config, ok := cc.cache[kind]; ok && config.Enabled {
			enabled = append(enabled, config)
		}
	}
	return enabled
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string, config *Config) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config.Name == "" {
		return fmt.Errorf("name is required")
	}

	nonNegativeFields := map[string]int{
		"timeout":         config.Timeout,
		"picks":           config.Picks,
		"per page":        config.PerPage,
		"github picks":    config.GitHubPicks,
		"github per page": config.GitHubPerPage,
		"top":             config.Top,
		"max items":       config.MaxItems,
		"window days":     config.WindowDays,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if !config.Enabled {
		return nil
	}

	switch config.Kind {
	case KindGitHub, KindGitHubTrending, KindHNSearch:
		if len(config.Queries) == 0 {
			return fmt.Errorf("at least one query is required")
		}
	case KindCompetitor, KindAITech:
		if len(config.Queries) == 0 && len(config.GitHubQueries) == 0 {
			return fmt.Errorf("at least one query is required")
		}
	case KindDevTo, KindProducts:
		if len(config.Tags) == 0 {
			return fmt.Errorf("at least one tag is required")
		}
	case KindDomesticRSS:
		if len(config.Feeds) == 0 {
			return fmt.Errorf("at least one feed is required")
		}
		for i, f := range config.Feeds {
			if f.Name == "" || f.URL == "" {
				return fmt.Errorf("feed at index %d must have a name and a URL", i)
			}
		}
	}

	return nil
}

func (cc *ConfigCache) checkUnknownFiles() error {
	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		kind := Kind(strings.TrimSuffix(filepath.Base(file), ".yml"))
		if !slices.Contains(Kinds, kind) {
			return fmt.Errorf("unknown source kind '%s' in %s", kind, file)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(kind Kind) string {
	if cc.sourcesDir == "" {
		return ""
	}
	return filepath.Join(cc.sourcesDir, string(kind)+".yml")
}
