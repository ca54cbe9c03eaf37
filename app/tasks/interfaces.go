package tasks

import (
	"context"

	"github.com/lysyi3m/live-feed/app/live"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to run feed work in the
// background.
// Example usage:
//
//	scheduler := NewScheduler(session, 5*time.Minute, 2)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewTranslateFeedTask(session))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// FeedService is the part of the live session the tasks drive.
type FeedService interface {
	RefreshIfStale(ctx context.Context) (bool, error)
	Translate(ctx context.Context) error
}

var _ FeedService = (*live.Session)(nil)
