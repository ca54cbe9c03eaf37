package api

import (
	"context"

	"github.com/lysyi3m/live-feed/app/feed"
	"github.com/lysyi3m/live-feed/app/live"
	"github.com/lysyi3m/live-feed/app/tasks"
)

// SessionInterface is the live session as seen by the HTTP handlers.
type SessionInterface interface {
	tasks.FeedService
	View(tab string) feed.View
	Stats() map[string]feed.SourceStat
	Status(ctx context.Context) live.Status
	Refresh(ctx context.Context) (map[string]feed.SourceStat, error)
}

var _ SessionInterface = (*live.Session)(nil)

type GeneratorInterface interface {
	Run(view feed.View) (string, error)
	Atom(view feed.View) (string, error)
	JSON(view feed.View) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	session   SessionInterface
	scheduler tasks.TaskSchedulerInterface
	generator GeneratorInterface
	renderer  *feed.Renderer
	version   string
}
