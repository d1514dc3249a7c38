package service

import (
	"context"
	"log/slog"
	"time"

	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// NotificationService watches a running task and fires a callback once its
// elapsed time reaches the stored duration estimate. It only observes the
// event log; delivery (printing, etc.) is the caller's concern.
type NotificationService struct {
	tasks    *repository.TaskRepository
	events   *repository.EventRepository
	interval time.Duration
	logger   *slog.Logger
}

func NewNotificationService(
	tasks *repository.TaskRepository,
	events *repository.EventRepository,
	interval time.Duration,
	logger *slog.Logger,
) *NotificationService {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		tasks:    tasks,
		events:   events,
		interval: interval,
		logger:   logger,
	}
}

// Watch polls until the task stops running, the estimate is reached, or the
// context is cancelled. Tasks without an estimate (duration 0) are not
// watched. Intended to run in its own goroutine.
func (s *NotificationService) Watch(
	ctx context.Context,
	userID string,
	taskID int64,
	notify func(task *model.Task, elapsed float64),
) {
	task, err := s.tasks.GetByUser(ctx, userID, taskID)
	if err != nil || task.Duration <= 0 {
		return
	}
	estimate := task.Duration

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		events, err := s.events.EventsFor(ctx, taskID)
		if err != nil {
			s.logger.Warn("notification watch read failed",
				slog.Int64("task_id", taskID),
				slog.String("error", err.Error()),
			)
			return
		}

		if StatusAfter(events) != model.StatusRunning {
			return
		}

		elapsed := ElapsedAt(events, time.Now().UTC())
		if elapsed >= estimate {
			s.logger.Info("task reached estimated duration",
				slog.Int64("task_id", taskID),
				slog.Float64("estimate_seconds", estimate),
				slog.Float64("elapsed_seconds", elapsed),
			)
			if notify != nil {
				notify(task, elapsed)
			}
			return
		}
	}
}
