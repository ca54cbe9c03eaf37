package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/live-feed/app/api"
	"github.com/lysyi3m/live-feed/app/cfg"
	"github.com/lysyi3m/live-feed/app/feed"
	"github.com/lysyi3m/live-feed/app/live"
	"github.com/lysyi3m/live-feed/app/sources"
	"github.com/lysyi3m/live-feed/app/store"
	"github.com/lysyi3m/live-feed/app/tasks"
	"github.com/lysyi3m/live-feed/app/translator"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appConfig.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Live Feed server", "version", appConfig.Version)

	kv, err := store.Open(store.Options{
		Driver:     appConfig.StoreDriver,
		SQLitePath: appConfig.SQLitePath,
		RedisAddr:  appConfig.RedisAddr,
	})
	if err != nil {
		slog.Error("Failed to open store", "driver", appConfig.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	slog.Info("Store opened", "driver", appConfig.StoreDriver)

	configCache := sources.NewConfigCache(appConfig.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appConfig.SourcesDir, "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: appConfig.HTTPTimeout}

	client := sources.NewClient(httpClient, appConfig.UserAgent, sources.Endpoints{
		GitHub:     appConfig.GitHubURL,
		HackerNews: appConfig.HackerNewsURL,
		Algolia:    appConfig.AlgoliaURL,
		DevTo:      appConfig.DevToURL,
		RSSMirror:  appConfig.RSSMirrorURL,
	})
	feedSources, err := sources.Build(configCache, client)
	if err != nil {
		slog.Error("Failed to build sources", "error", err)
		os.Exit(1)
	}
	slog.Info("Sources loaded", "enabled", len(feedSources), "configured", configCache.GetConfigCount())

	tr, err := translator.New(httpClient, appConfig.UserAgent, kv, translator.Options{
		Endpoint: appConfig.TranslateURL,
		Source:   appConfig.TranslateFrom,
		Target:   appConfig.TranslateTo,
		Interval: appConfig.TranslateInterval,
		Cooldown: appConfig.TranslateCooldown,
	})
	if err != nil {
		slog.Error("Failed to create translator", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	tr.LoadMemo(ctx)

	aggregator := feed.NewAggregator(feedSources, appConfig.MaxItems)
	cache := feed.NewCache(kv, appConfig.CacheTTL)

	session := live.NewSession(aggregator, cache, tr)
	defer session.Close()
	session.Init(ctx)

	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount, "interval", appConfig.SchedulerInterval)
	scheduler := tasks.NewScheduler(session, time.Duration(appConfig.SchedulerInterval)*time.Second, appConfig.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(session, scheduler, appConfig.BaseUrl, appConfig.Version)
	server := api.NewServer(handler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // manual refresh aggregates synchronously
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
