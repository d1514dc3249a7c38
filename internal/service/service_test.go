package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"timetracker/internal/db"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

type testEnv struct {
	database   *sql.DB
	tasks      *repository.TaskRepository
	events     *repository.EventRepository
	categories *repository.CategoryRepository
	users      *repository.UserRepository

	taskSvc  *TaskService
	timerSvc *TimerService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	env := &testEnv{
		database:   database,
		tasks:      repository.NewTaskRepository(database),
		events:     repository.NewEventRepository(database),
		categories: repository.NewCategoryRepository(database),
		users:      repository.NewUserRepository(database),
	}
	env.taskSvc = NewTaskService(env.tasks, env.categories)
	env.timerSvc = NewTimerService(env.tasks, env.events)
	return env
}

func (e *testEnv) createTask(t *testing.T, userID, name string) *model.Task {
	t.Helper()
	task, apiErr := e.taskSvc.Create(context.Background(), userID, "work", name, 0)
	if apiErr != nil {
		t.Fatalf("create task: %v", apiErr)
	}
	return task
}

// applyAll replays a legal event sequence with timestamps spaced a minute
// apart starting at base.
func (e *testEnv) applyAll(t *testing.T, userID string, taskID int64, base time.Time, eventTypes ...string) {
	t.Helper()
	for i, eventType := range eventTypes {
		at := base.Add(time.Duration(i) * time.Minute)
		if _, apiErr := e.timerSvc.ApplyEvent(context.Background(), userID, taskID, eventType, at); apiErr != nil {
			t.Fatalf("apply %s: %v", eventType, apiErr)
		}
	}
}

func (e *testEnv) eventCount(t *testing.T, taskID int64) int {
	t.Helper()
	events, err := e.events.EventsFor(context.Background(), taskID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return len(events)
}
