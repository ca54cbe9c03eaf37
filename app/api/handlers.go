package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/live-feed/app/feed"
	"github.com/lysyi3m/live-feed/app/live"
	"github.com/lysyi3m/live-feed/app/tasks"
)

func NewHandler(session SessionInterface, scheduler tasks.TaskSchedulerInterface, baseURL, version string) *Handler {
	return &Handler{
		session:   session,
		scheduler: scheduler,
		generator: feed.NewGenerator(baseURL, version),
		renderer:  feed.NewRenderer(),
		version:   version,
	}
}

// tab reads the requested tab, defaulting to all. It writes a 400 and
// returns false for unknown tabs.
func (h *Handler) tab(c *gin.Context, value string) (string, bool) {
	if value == "" {
		return feed.TabAll, true
	}
	if !feed.ValidTab(value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tab", "tab": value})
		return "", false
	}
	return value, true
}

func (h *Handler) GetHealth(c *gin.Context) {
	status := h.session.Status(c.Request.Context())

	health := gin.H{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"version":               h.version,
		"items":                 status.Items,
		"refreshing":            status.Refreshing,
		"translating":           status.Translating,
		"translation_available": status.TranslationAvailable,
	}
	if !status.CooldownUntil.IsZero() {
		health["translation_cooldown_until"] = status.CooldownUntil.Format(time.RFC3339)
	}
	if !status.UpdatedAt.IsZero() {
		health["updated_at"] = status.UpdatedAt.Format(time.RFC3339)
		health["cache_age"] = status.CacheAge.Round(time.Second).String()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetLive(c *gin.Context) {
	tab, ok := h.tab(c, c.Query("tab"))
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Run(&buf, h.session.View(tab)); err != nil {
		slog.Error("Render error", "tab", tab, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) APIGetItems(c *gin.Context) {
	tab, ok := h.tab(c, c.Query("tab"))
	if !ok {
		return
	}

	view := h.session.View(tab)
	if view.Items == nil {
		view.Items = []feed.Item{}
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) APIGetStats(c *gin.Context) {
	stats := h.session.Stats()

	c.JSON(http.StatusOK, gin.H{
		"sources": stats,
		"total":   len(stats),
	})
}

func (h *Handler) APIRefresh(c *gin.Context) {
	stats, err := h.session.Refresh(c.Request.Context())
	if errors.Is(err, live.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Refresh already in progress"})
		return
	}
	if err != nil {
		slog.Error("Manual refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Refresh failed",
			"details": err.Error(),
		})
		return
	}

	count := 0
	for _, stat := range stats {
		count += stat.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"fetched": count,
		"sources": stats,
	})
}

func (h *Handler) APITranslate(c *gin.Context) {
	status := h.session.Status(c.Request.Context())
	if !status.TranslationAvailable {
		body := gin.H{"error": "Translation service is cooling down"}
		if !status.CooldownUntil.IsZero() {
			body["until"] = status.CooldownUntil.Format(time.RFC3339)
			body["message"] = "Translation unavailable until " + status.CooldownUntil.In(time.Local).Format("Jan 2 15:04")
		}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	if status.Translating {
		c.JSON(http.StatusConflict, gin.H{"error": "Translation already in progress"})
		return
	}

	task := tasks.NewTranslateFeedTask(h.session)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing translate task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue translate task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	h.writeFeed(c, "application/rss+xml; charset=utf-8", h.generator.Run)
}

func (h *Handler) GetAtomFeed(c *gin.Context) {
	h.writeFeed(c, "application/atom+xml; charset=utf-8", h.generator.Atom)
}

func (h *Handler) GetJSONFeed(c *gin.Context) {
	h.writeFeed(c, "application/feed+json; charset=utf-8", h.generator.JSON)
}

func (h *Handler) writeFeed(c *gin.Context, contentType string, render func(feed.View) (string, error)) {
	tab, ok := h.tab(c, c.Param("tab"))
	if !ok {
		return
	}

	view := h.session.View(tab)
	doc, err := render(view)
	if err != nil {
		slog.Error("Feed generation error", "tab", tab, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(view.Items)))
	c.Header("X-Feed-Tab", tab)
	if !view.UpdatedAt.IsZero() {
		c.Header("X-Last-Updated", view.UpdatedAt.Format(time.RFC3339))
	}

	c.Data(http.StatusOK, contentType, []byte(doc))
}
