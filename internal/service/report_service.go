package service

import (
	"context"
	"time"

	apperrors "timetracker/internal/errors"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// TaskSummary shows both duration figures for one task: the stored field
// (which includes manual adjustments) and the value recomputed from the
// event log. The two can legitimately differ.
type TaskSummary struct {
	TaskID         int64   `json:"taskId"`
	TaskName       string  `json:"taskName"`
	CategoryName   string  `json:"categoryName"`
	Status         string  `json:"status"`
	StoredSeconds  float64 `json:"storedSeconds"`
	DerivedSeconds float64 `json:"derivedSeconds"`
}

type Report struct {
	Tasks          []TaskSummary      `json:"tasks"`
	CategoryTotals map[string]float64 `json:"categoryTotals"`
	TotalSeconds   float64            `json:"totalSeconds"`
}

// ReportService aggregates the event log per task and category. Read-only:
// it consumes the task list and the event log and never writes.
type ReportService struct {
	tasks  *repository.TaskRepository
	events *repository.EventRepository
}

func NewReportService(tasks *repository.TaskRepository, events *repository.EventRepository) *ReportService {
	return &ReportService{tasks: tasks, events: events}
}

// Overall reports every task the user owns, timed or not.
func (s *ReportService) Overall(ctx context.Context, userID string) (*Report, *apperrors.AppError) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}

	events, err := s.events.EventsForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list timing events")
	}

	return buildReport(tasks, events, true), nil
}

// Between reports only tasks with timing activity inside [from, to).
// Sessions straddling a bound are attributed by event visibility: an
// interval counts only when both its opening and closing event fall
// inside the window.
func (s *ReportService) Between(ctx context.Context, userID string, from, to time.Time) (*Report, *apperrors.AppError) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}

	events, err := s.events.EventsForUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.Internal("failed to list timing events")
	}

	return buildReport(tasks, events, false), nil
}

// LastDays is Between over the trailing n days, ending now. Used for the
// daily, weekly, monthly, and custom report menus.
func (s *ReportService) LastDays(ctx context.Context, userID string, days int) (*Report, *apperrors.AppError) {
	if days <= 0 {
		return nil, apperrors.Validation("invalid_range", "report range must be at least one day")
	}
	now := time.Now().UTC()
	return s.Between(ctx, userID, now.AddDate(0, 0, -days), now)
}

func buildReport(tasks []model.Task, events []model.TimingEvent, includeUntimed bool) *Report {
	byTask := make(map[int64][]model.TimingEvent)
	for _, event := range events {
		byTask[event.TaskID] = append(byTask[event.TaskID], event)
	}

	report := &Report{
		Tasks:          make([]TaskSummary, 0, len(tasks)),
		CategoryTotals: make(map[string]float64),
	}

	for _, task := range tasks {
		taskEvents, timed := byTask[task.ID]
		if !timed && !includeUntimed {
			continue
		}

		derived := DerivedDuration(taskEvents)
		report.Tasks = append(report.Tasks, TaskSummary{
			TaskID:         task.ID,
			TaskName:       task.TaskName,
			CategoryName:   task.CategoryName,
			Status:         task.TaskStatus,
			StoredSeconds:  task.Duration,
			DerivedSeconds: derived,
		})

		if derived > 0 {
			report.CategoryTotals[task.CategoryName] += derived
		}
		report.TotalSeconds += derived
	}

	return report
}
