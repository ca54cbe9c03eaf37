package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/live-feed/app/live"
)

type TranslateFeedTask struct {
	Task
	service FeedService
}

func NewTranslateFeedTask(service FeedService) *TranslateFeedTask {
	return &TranslateFeedTask{
		Task:    NewTask(TaskTypeTranslateFeed),
		service: service,
	}
}

func (t *TranslateFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.service.Translate(ctx)
	switch {
	case errors.Is(err, live.ErrTranslationInProgress):
		slog.Debug("Translation already running, skipping", "id", t.ID)
		return nil
	case errors.Is(err, live.ErrTranslationUnavailable):
		slog.Info("Translation service is cooling down, skipping", "id", t.ID)
		return nil
	case err != nil:
		return fmt.Errorf("failed to translate feed: %w", err)
	}

	slog.Info("Task completed", "type", string(t.Type), "duration", t.GetDuration())
	return nil
}
