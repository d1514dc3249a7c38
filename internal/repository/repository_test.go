package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"timetracker/internal/db"
	"timetracker/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
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
	return database
}

func seedTask(t *testing.T, database *sql.DB, userID, category, name string) *model.Task {
	t.Helper()

	categories := NewCategoryRepository(database)
	if _, err := categories.GetOrCreate(context.Background(), category); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	tasks := NewTaskRepository(database)
	task := &model.Task{
		UserID:       userID,
		CategoryName: category,
		TaskName:     name,
		Duration:     0,
		TaskStatus:   model.StatusNotStarted,
	}
	if err := tasks.Save(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func TestTaskSaveAssignsIDAndListsInInsertionOrder(t *testing.T) {
	database := setupTestDB(t)
	tasks := NewTaskRepository(database)
	ctx := context.Background()

	first := seedTask(t, database, "user-1", "work", "write report")
	second := seedTask(t, database, "user-1", "work", "review code")
	if first.ID == 0 || second.ID == 0 {
		t.Fatal("expected generated ids")
	}
	if second.ID <= first.ID {
		t.Fatalf("expected ascending ids, got %d then %d", first.ID, second.ID)
	}

	listed, err := tasks.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(listed))
	}
	if listed[0].ID != first.ID || listed[1].ID != second.ID {
		t.Fatalf("expected insertion order, got %d then %d", listed[0].ID, listed[1].ID)
	}
	if listed[0].TaskStatus != model.StatusNotStarted {
		t.Fatalf("expected not_started, got %s", listed[0].TaskStatus)
	}
	if listed[0].Duration != 0 {
		t.Fatalf("expected duration 0, got %f", listed[0].Duration)
	}
}

func TestListByUserEmptyForUnknownUser(t *testing.T) {
	database := setupTestDB(t)
	tasks := NewTaskRepository(database)

	listed, err := tasks.ListByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no tasks, got %d", len(listed))
	}
}

func TestUpdateMissingTaskReturnsNotFoundWithoutMutation(t *testing.T) {
	database := setupTestDB(t)
	tasks := NewTaskRepository(database)
	ctx := context.Background()

	task := seedTask(t, database, "user-1", "work", "write report")

	err := tasks.Update(ctx, "user-1", task.ID+99, "work", "changed", 10)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Wrong owner behaves like a missing task.
	err = tasks.Update(ctx, "user-2", task.ID, "work", "hijacked", 10)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign task, got %v", err)
	}

	reloaded, err := tasks.GetByUser(ctx, "user-1", task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.TaskName != "write report" || reloaded.Duration != 0 {
		t.Fatalf("task mutated by failed update: %+v", reloaded)
	}
}

func TestUpdateOverwritesMutableFieldsOnly(t *testing.T) {
	database := setupTestDB(t)
	tasks := NewTaskRepository(database)
	categories := NewCategoryRepository(database)
	ctx := context.Background()

	task := seedTask(t, database, "user-1", "work", "write report")
	if err := tasks.UpdateStatus(ctx, task.ID, model.StatusRunning); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if _, err := categories.GetOrCreate(ctx, "home"); err != nil {
		t.Fatalf("create category: %v", err)
	}

	if err := tasks.Update(ctx, "user-1", task.ID, "home", "fold laundry", 42.5); err != nil {
		t.Fatalf("update task: %v", err)
	}

	reloaded, err := tasks.GetByUser(ctx, "user-1", task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.CategoryName != "home" || reloaded.TaskName != "fold laundry" || reloaded.Duration != 42.5 {
		t.Fatalf("mutable fields not updated: %+v", reloaded)
	}
	if reloaded.TaskStatus != model.StatusRunning {
		t.Fatalf("status must not change on update, got %s", reloaded.TaskStatus)
	}
	if reloaded.UserID != "user-1" || reloaded.ID != task.ID {
		t.Fatalf("immutable fields changed: %+v", reloaded)
	}
}

func TestUpdateStatusOnMissingIDIsSilentNoOp(t *testing.T) {
	database := setupTestDB(t)
	tasks := NewTaskRepository(database)

	if err := tasks.UpdateStatus(context.Background(), 12345, model.StatusRunning); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestDeleteCascadesTimingEvents(t *testing.T) {
	database := setupTestDB(t)
	tasks := NewTaskRepository(database)
	events := NewEventRepository(database)
	ctx := context.Background()

	task := seedTask(t, database, "user-1", "work", "write report")
	other := seedTask(t, database, "user-1", "work", "review code")

	now := time.Now().UTC()
	for _, eventType := range []string{model.EventStart, model.EventStop} {
		if _, err := events.Append(ctx, task.ID, eventType, now); err != nil {
			t.Fatalf("append event: %v", err)
		}
		now = now.Add(time.Minute)
	}
	if _, err := events.Append(ctx, other.ID, model.EventStart, now); err != nil {
		t.Fatalf("append event: %v", err)
	}

	if err := tasks.Delete(ctx, "user-1", task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	remaining, err := events.EventsFor(ctx, task.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected cascade delete of events, got %d left", len(remaining))
	}

	listed, err := tasks.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != other.ID {
		t.Fatalf("expected only the other task to remain, got %+v", listed)
	}

	otherEvents, err := events.EventsFor(ctx, other.ID)
	if err != nil {
		t.Fatalf("list other events: %v", err)
	}
	if len(otherEvents) != 1 {
		t.Fatalf("cascade touched another task's events, got %d", len(otherEvents))
	}
}

func TestDeleteMissingTaskReturnsNotFound(t *testing.T) {
	database := setupTestDB(t)
	tasks := NewTaskRepository(database)

	if err := tasks.Delete(context.Background(), "user-1", 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventsForOrdersByTimestampThenInsertion(t *testing.T) {
	database := setupTestDB(t)
	events := NewEventRepository(database)
	ctx := context.Background()

	task := seedTask(t, database, "user-1", "work", "write report")

	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := ts.Add(time.Hour)

	// Deliberately appended out of timestamp order; the later timestamp
	// goes in first.
	if _, err := events.Append(ctx, task.ID, model.EventPause, later); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := events.Append(ctx, task.ID, model.EventStart, ts); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Same timestamp twice: insertion order must break the tie.
	if _, err := events.Append(ctx, task.ID, model.EventResume, later); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := events.EventsFor(ctx, task.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].EventType != model.EventStart {
		t.Fatalf("expected start first, got %s", got[0].EventType)
	}
	if got[1].EventType != model.EventPause || got[2].EventType != model.EventResume {
		t.Fatalf("expected tie broken by insertion order, got %s then %s", got[1].EventType, got[2].EventType)
	}
	if !got[0].Timestamp.Equal(ts) {
		t.Fatalf("timestamp round-trip failed: %v", got[0].Timestamp)
	}
}

func TestEventsForUserBetweenFiltersByRangeAndOwner(t *testing.T) {
	database := setupTestDB(t)
	events := NewEventRepository(database)
	ctx := context.Background()

	mine := seedTask(t, database, "user-1", "work", "write report")
	theirs := seedTask(t, database, "user-2", "work", "other work")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if _, err := events.Append(ctx, mine.ID, model.EventStart, base); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := events.Append(ctx, mine.ID, model.EventStop, base.AddDate(0, 0, 2)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := events.Append(ctx, theirs.ID, model.EventStart, base); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := events.EventsForUserBetween(ctx, "user-1", base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ranged query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event in range, got %d", len(got))
	}
	if got[0].TaskID != mine.ID || got[0].EventType != model.EventStart {
		t.Fatalf("unexpected event: %+v", got[0])
	}
}

func TestEventsForOrdersMixedPrecisionFractions(t *testing.T) {
	database := setupTestDB(t)
	events := NewEventRepository(database)
	ctx := context.Background()

	task := seedTask(t, database, "user-1", "work", "write report")

	// Fractions of different widths: with trimmed trailing zeros the text
	// ".12" would sort after ".123456789" even though it is earlier.
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	start := base.Add(120 * time.Millisecond)
	pause := base.Add(123456789 * time.Nanosecond)
	whole := base.Add(time.Second)

	if _, err := events.Append(ctx, task.ID, model.EventResume, whole); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := events.Append(ctx, task.ID, model.EventPause, pause); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := events.Append(ctx, task.ID, model.EventStart, start); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := events.EventsFor(ctx, task.ID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].EventType != model.EventStart || got[1].EventType != model.EventPause || got[2].EventType != model.EventResume {
		t.Fatalf("expected chronological order start/pause/resume, got %s/%s/%s",
			got[0].EventType, got[1].EventType, got[2].EventType)
	}
	if !got[0].Timestamp.Equal(start) || !got[1].Timestamp.Equal(pause) {
		t.Fatalf("timestamp round-trip failed: %v / %v", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestEventsForUserBetweenKeepsSubSecondEventsNearBounds(t *testing.T) {
	database := setupTestDB(t)
	events := NewEventRepository(database)
	ctx := context.Background()

	task := seedTask(t, database, "user-1", "work", "write report")

	from := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	inside := from.Add(500 * time.Millisecond)
	atUpperBound := to.Add(-300 * time.Millisecond)
	if _, err := events.Append(ctx, task.ID, model.EventStart, inside); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := events.Append(ctx, task.ID, model.EventStop, atUpperBound); err != nil {
		t.Fatalf("append: %v", err)
	}
	// Exactly the exclusive upper bound stays out.
	if _, err := events.Append(ctx, task.ID, model.EventStart, to); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := events.EventsForUserBetween(ctx, "user-1", from, to)
	if err != nil {
		t.Fatalf("ranged query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both sub-second events in range, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(inside) || !got[1].Timestamp.Equal(atUpperBound) {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestCategoryGetOrCreateIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	categories := NewCategoryRepository(database)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := categories.GetOrCreate(ctx, "work"); err != nil {
			t.Fatalf("get or create: %v", err)
		}
	}

	listed, err := categories.List(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "work" {
		t.Fatalf("expected single work category, got %+v", listed)
	}
}

func TestUserCreateAndGet(t *testing.T) {
	database := setupTestDB(t)
	users := NewUserRepository(database)
	ctx := context.Background()

	now := time.Now().UTC()
	user := &model.User{
		ID:           "user-1",
		Email:        "a@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	byEmail, err := users.GetByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	if _, err := users.GetByID(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
