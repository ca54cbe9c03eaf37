package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/live-feed/app/live"
)

type fakeService struct {
	refreshCalls   atomic.Int32
	translateCalls atomic.Int32
	refreshErr     error
	translateErr   error
	refreshed      bool
}

func (f *fakeService) RefreshIfStale(ctx context.Context) (bool, error) {
	f.refreshCalls.Add(1)
	return f.refreshed, f.refreshErr
}

func (f *fakeService) Translate(ctx context.Context) error {
	f.translateCalls.Add(1)
	return f.translateErr
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}

func TestSchedulerEnqueuesRefreshOnTick(t *testing.T) {
	svc := &fakeService{refreshed: true}
	s := NewScheduler(svc, 10*time.Millisecond, 2)
	s.Start()
	defer s.Stop()

	waitFor(t, func() bool { return svc.refreshCalls.Load() >= 2 })

	if svc.translateCalls.Load() != 0 {
		t.Errorf("Expected no translation from the ticker, got %d", svc.translateCalls.Load())
	}
}

func TestSchedulerRunsEnqueuedTask(t *testing.T) {
	svc := &fakeService{}
	s := NewScheduler(svc, time.Hour, 1)
	s.Start()
	defer s.Stop()

	if err := s.EnqueueTask(NewTranslateFeedTask(svc)); err != nil {
		t.Fatalf("Expected task to be enqueued, got %v", err)
	}

	waitFor(t, func() bool { return svc.translateCalls.Load() == 1 })
}

func TestSchedulerQueueFull(t *testing.T) {
	svc := &fakeService{}
	s := NewScheduler(svc, time.Hour, 1)
	defer s.Stop()

	// Not started, so nothing drains the queue.
	for i := 0; i < queueSize; i++ {
		if err := s.EnqueueTask(NewRefreshFeedTask(svc)); err != nil {
			t.Fatalf("Expected enqueue %d to succeed, got %v", i, err)
		}
	}

	if err := s.EnqueueTask(NewRefreshFeedTask(svc)); err == nil {
		t.Error("Expected error for full queue")
	}
}

func TestSchedulerEnqueueAfterStop(t *testing.T) {
	s := NewScheduler(&fakeService{}, time.Hour, 1)
	s.Start()
	s.Stop()

	if err := s.EnqueueTask(NewRefreshFeedTask(&fakeService{})); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestTaskIDsAreUnique(t *testing.T) {
	a := NewRefreshFeedTask(&fakeService{})
	b := NewRefreshFeedTask(&fakeService{})

	if a.GetID() == "" || a.GetID() == b.GetID() {
		t.Errorf("Expected distinct task IDs, got %q and %q", a.GetID(), b.GetID())
	}
	if a.GetType() != TaskTypeRefreshFeed {
		t.Errorf("Expected type %s, got %s", TaskTypeRefreshFeed, a.GetType())
	}
	if a.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
}

func TestRefreshFeedTask(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"in progress", live.ErrRefreshInProgress, false},
		{"failure", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{refreshErr: tt.err}
			task := NewRefreshFeedTask(svc)
			task.Start()

			err := task.Execute(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if svc.refreshCalls.Load() != 1 {
				t.Errorf("Expected 1 refresh call, got %d", svc.refreshCalls.Load())
			}
		})
	}
}

func TestTranslateFeedTask(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"in progress", live.ErrTranslationInProgress, false},
		{"cooling down", live.ErrTranslationUnavailable, false},
		{"failure", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{translateErr: tt.err}
			task := NewTranslateFeedTask(svc)
			task.Start()

			err := task.Execute(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTaskCanceledContext(t *testing.T) {
	svc := &fakeService{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewRefreshFeedTask(svc).Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if svc.refreshCalls.Load() != 0 {
		t.Error("Expected no refresh on a canceled context")
	}
}
