package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "timetracker/internal/errors"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// ExportService writes tracked intervals to CSV files under Dir. One row
// per closed running interval, joined with the owning task.
type ExportService struct {
	tasks  *repository.TaskRepository
	events *repository.EventRepository
	dir    string
}

func NewExportService(tasks *repository.TaskRepository, events *repository.EventRepository, dir string) *ExportService {
	return &ExportService{tasks: tasks, events: events, dir: dir}
}

// ExportCSV exports the user's intervals for the trailing number of days;
// days <= 0 exports everything. Returns the written file path. As with
// ranged reports, an interval is exported only when both of its events
// fall inside the window.
func (s *ExportService) ExportCSV(ctx context.Context, userID string, days int) (string, *apperrors.AppError) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return "", apperrors.Internal("failed to list tasks")
	}

	var events []model.TimingEvent
	if days > 0 {
		now := time.Now().UTC()
		events, err = s.events.EventsForUserBetween(ctx, userID, now.AddDate(0, 0, -days), now)
	} else {
		events, err = s.events.EventsForUser(ctx, userID)
	}
	if err != nil {
		return "", apperrors.Internal("failed to list timing events")
	}

	taskByID := make(map[int64]model.Task, len(tasks))
	for _, task := range tasks {
		taskByID[task.ID] = task
	}

	byTask := make(map[int64][]model.TimingEvent)
	order := make([]int64, 0)
	for _, event := range events {
		if _, seen := byTask[event.TaskID]; !seen {
			order = append(order, event.TaskID)
		}
		byTask[event.TaskID] = append(byTask[event.TaskID], event)
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", apperrors.Internal("failed to create export directory")
		}
	}

	name := fmt.Sprintf("time_tracker_export_%s.csv", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", apperrors.Internal("failed to create export file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"Task ID", "Task Name", "Category", "Start", "End", "Seconds", "Status"}
	if err := writer.Write(header); err != nil {
		return "", apperrors.Internal("failed to write export header")
	}

	for _, taskID := range order {
		task, known := taskByID[taskID]
		if !known {
			continue
		}
		for _, interval := range IntervalsIn(byTask[taskID]) {
			seconds := interval.End.Sub(interval.Start).Seconds()
			record := []string{
				strconv.FormatInt(task.ID, 10),
				task.TaskName,
				task.CategoryName,
				interval.Start.Format(time.RFC3339),
				interval.End.Format(time.RFC3339),
				strconv.FormatFloat(seconds, 'f', 2, 64),
				task.TaskStatus,
			}
			if err := writer.Write(record); err != nil {
				return "", apperrors.Internal("failed to write export row")
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", apperrors.Internal("failed to flush export file")
	}

	return path, nil
}
