package service

import (
	"context"
	"time"

	apperrors "timetracker/internal/errors"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// transitions maps event type -> current status -> resulting status.
// A (event, status) pair absent from this table is an illegal transition.
// stopped is restartable: start moves a stopped task back to running.
var transitions = map[string]map[string]string{
	model.EventStart: {
		model.StatusNotStarted: model.StatusRunning,
		model.StatusStopped:    model.StatusRunning,
	},
	model.EventPause: {
		model.StatusRunning: model.StatusPaused,
	},
	model.EventResume: {
		model.StatusPaused: model.StatusRunning,
	},
	model.EventStop: {
		model.StatusRunning: model.StatusStopped,
		model.StatusPaused:  model.StatusStopped,
	},
}

// TimerService validates timer events against the task's event log and
// persists the outcome. An event is appended only after its transition has
// been validated, so the log never contains a rejected action.
type TimerService struct {
	tasks  *repository.TaskRepository
	events *repository.EventRepository
}

func NewTimerService(tasks *repository.TaskRepository, events *repository.EventRepository) *TimerService {
	return &TimerService{tasks: tasks, events: events}
}

func (s *TimerService) Start(ctx context.Context, userID string, taskID int64) (*model.Task, *apperrors.AppError) {
	return s.ApplyEvent(ctx, userID, taskID, model.EventStart, time.Now().UTC())
}

func (s *TimerService) Pause(ctx context.Context, userID string, taskID int64) (*model.Task, *apperrors.AppError) {
	return s.ApplyEvent(ctx, userID, taskID, model.EventPause, time.Now().UTC())
}

func (s *TimerService) Resume(ctx context.Context, userID string, taskID int64) (*model.Task, *apperrors.AppError) {
	return s.ApplyEvent(ctx, userID, taskID, model.EventResume, time.Now().UTC())
}

func (s *TimerService) Stop(ctx context.Context, userID string, taskID int64) (*model.Task, *apperrors.AppError) {
	return s.ApplyEvent(ctx, userID, taskID, model.EventStop, time.Now().UTC())
}

// ApplyEvent runs one timer event against the user's task. The current
// status is derived from the event log, the transition is checked against
// the table, and on success the event append plus the task's status (and,
// on stop, its accumulated duration) are committed in a single transaction.
func (s *TimerService) ApplyEvent(
	ctx context.Context,
	userID string,
	taskID int64,
	eventType string,
	at time.Time,
) (*model.Task, *apperrors.AppError) {
	if !model.ValidEventType(eventType) {
		return nil, apperrors.Validation("invalid_event", "event must be one of start, pause, resume, stop")
	}

	task, err := s.tasks.GetByUser(ctx, userID, taskID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load task")
	}

	events, err := s.events.EventsFor(ctx, taskID)
	if err != nil {
		return nil, apperrors.Internal("failed to load timing events")
	}

	current := StatusAfter(events)
	next, ok := transitions[eventType][current]
	if !ok {
		return nil, apperrors.InvalidTransition(eventType, current)
	}

	tx, err := s.tasks.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	appended, err := s.events.AppendTx(ctx, tx, taskID, eventType, at)
	if err != nil {
		return nil, apperrors.Internal("failed to append timing event")
	}

	if eventType == model.EventStop {
		session := sessionSeconds(append(events, *appended))
		task.Duration += session
		if err := s.tasks.UpdateDurationTx(ctx, tx, taskID, task.Duration); err != nil {
			return nil, apperrors.Internal("failed to update duration")
		}
	}

	if err := s.tasks.UpdateStatusTx(ctx, tx, taskID, next); err != nil {
		return nil, apperrors.Internal("failed to update status")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	task.TaskStatus = next
	return task, nil
}

// StatusAfter reduces an ordered event sequence to the status it ends in.
// A legal log replays to the same status the task row tracks.
func StatusAfter(events []model.TimingEvent) string {
	status := model.StatusNotStarted
	for _, event := range events {
		if next, ok := transitions[event.EventType][status]; ok {
			status = next
		}
	}
	return status
}

// Interval is one contiguous running span: start/resume paired with the
// following pause/stop.
type Interval struct {
	Start time.Time
	End   time.Time
}

// IntervalsIn extracts the closed running intervals from an ordered event
// sequence. A trailing open interval (running task) is not included; use
// ElapsedAt for live elapsed time.
func IntervalsIn(events []model.TimingEvent) []Interval {
	intervals := make([]Interval, 0)
	var open *time.Time
	for _, event := range events {
		switch event.EventType {
		case model.EventStart, model.EventResume:
			t := event.Timestamp
			open = &t
		case model.EventPause, model.EventStop:
			if open != nil {
				intervals = append(intervals, Interval{Start: *open, End: event.Timestamp})
				open = nil
			}
		}
	}
	return intervals
}

// DerivedDuration recomputes accumulated seconds from the whole event log.
// This can disagree with the task's stored duration after a manual edit;
// reports show both values rather than reconciling them.
func DerivedDuration(events []model.TimingEvent) float64 {
	var total float64
	for _, interval := range IntervalsIn(events) {
		total += interval.End.Sub(interval.Start).Seconds()
	}
	return total
}

// ElapsedAt is DerivedDuration plus the still-open interval of a running
// task, measured against now.
func ElapsedAt(events []model.TimingEvent, now time.Time) float64 {
	total := DerivedDuration(events)
	if len(events) == 0 {
		return total
	}
	last := events[len(events)-1]
	if last.EventType == model.EventStart || last.EventType == model.EventResume {
		if now.After(last.Timestamp) {
			total += now.Sub(last.Timestamp).Seconds()
		}
	}
	return total
}

// sessionSeconds sums the running intervals of the current session, i.e.
// the events since the most recent start. Stop adds this to the stored
// duration so manual adjustments and earlier sessions stay in the baseline.
func sessionSeconds(events []model.TimingEvent) float64 {
	from := 0
	for i, event := range events {
		if event.EventType == model.EventStart {
			from = i
		}
	}
	return DerivedDuration(events[from:])
}
