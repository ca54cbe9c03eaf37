package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/live-feed/app/live"
)

type RefreshFeedTask struct {
	Task
	service FeedService
}

func NewRefreshFeedTask(service FeedService) *RefreshFeedTask {
	return &RefreshFeedTask{
		Task:    NewTask(TaskTypeRefreshFeed),
		service: service,
	}
}

func (t *RefreshFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	refreshed, err := t.service.RefreshIfStale(ctx)
	if errors.Is(err, live.ErrRefreshInProgress) {
		slog.Debug("Refresh already running, skipping", "id", t.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refresh feed: %w", err)
	}

	if refreshed {
		slog.Info("Task completed", "type", string(t.Type), "duration", t.GetDuration())
	} else {
		slog.Debug("Feed cache is fresh, nothing to do", "id", t.ID)
	}
	return nil
}
