package repository

import (
	"context"
	"database/sql"
	"fmt"

	"timetracker/internal/model"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// Save inserts the task and assigns its generated id. Status and duration
// come from the struct; callers create tasks as not_started with duration 0
// unless a manual estimate was supplied.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO tasks (user_id, category_name, task_name, duration, task_status)
		 VALUES (?, ?, ?, ?, ?)`,
		task.UserID,
		task.CategoryName,
		task.TaskName,
		task.Duration,
		task.TaskStatus,
	)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("save task id: %w", err)
	}
	task.ID = id
	return nil
}

// ListByUser returns the user's tasks in insertion order.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, category_name, task_name, duration, task_status
		 FROM tasks
		 WHERE user_id = ?
		 ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) GetByUser(ctx context.Context, userID string, taskID int64) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, category_name, task_name, duration, task_status
		 FROM tasks
		 WHERE id = ? AND user_id = ?`,
		taskID,
		userID,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) GetByUserTx(ctx context.Context, tx *sql.Tx, userID string, taskID int64) (*model.Task, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT id, user_id, category_name, task_name, duration, task_status
		 FROM tasks
		 WHERE id = ? AND user_id = ?`,
		taskID,
		userID,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update overwrites the mutable fields (category, name, duration) of the
// user's task. The existence check and the update run in one transaction;
// a missing task returns ErrNotFound and leaves the row untouched.
func (r *TaskRepository) Update(
	ctx context.Context,
	userID string,
	taskID int64,
	categoryName, taskName string,
	duration float64,
) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := taskExistsTx(ctx, tx, userID, taskID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE tasks
		 SET category_name = ?, task_name = ?, duration = ?
		 WHERE id = ? AND user_id = ?`,
		categoryName,
		taskName,
		duration,
		taskID,
		userID,
	); err != nil {
		return fmt.Errorf("update task %d: %w", taskID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update task %d: %w", taskID, err)
	}
	return nil
}

// UpdateStatus overwrites task_status only. No ownership check is performed
// here and a missing id is a silent no-op; the timer service always loads
// the task first, so the permissive behavior is confined to that caller.
func (r *TaskRepository) UpdateStatus(ctx context.Context, taskID int64, status string) error {
	if _, err := r.db.ExecContext(
		ctx,
		`UPDATE tasks SET task_status = ? WHERE id = ?`,
		status,
		taskID,
	); err != nil {
		return fmt.Errorf("update task %d status: %w", taskID, err)
	}
	return nil
}

func (r *TaskRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, taskID int64, status string) error {
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE tasks SET task_status = ? WHERE id = ?`,
		status,
		taskID,
	); err != nil {
		return fmt.Errorf("update task %d status: %w", taskID, err)
	}
	return nil
}

func (r *TaskRepository) UpdateDurationTx(ctx context.Context, tx *sql.Tx, taskID int64, duration float64) error {
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE tasks SET duration = ? WHERE id = ?`,
		duration,
		taskID,
	); err != nil {
		return fmt.Errorf("update task %d duration: %w", taskID, err)
	}
	return nil
}

// Delete removes the user's task together with its timing events. Both
// deletes run in one transaction so a task can never outlive its log or
// the other way around.
func (r *TaskRepository) Delete(ctx context.Context, userID string, taskID int64) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := taskExistsTx(ctx, tx, userID, taskID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM timing_events WHERE task_id = ?`,
		taskID,
	); err != nil {
		return fmt.Errorf("delete task %d events: %w", taskID, err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		taskID,
		userID,
	); err != nil {
		return fmt.Errorf("delete task %d: %w", taskID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete task %d: %w", taskID, err)
	}
	return nil
}

func taskExistsTx(ctx context.Context, tx *sql.Tx, userID string, taskID int64) (bool, error) {
	var count int
	if err := tx.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM tasks WHERE id = ? AND user_id = ?`,
		taskID,
		userID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check task %d: %w", taskID, err)
	}
	return count > 0, nil
}

func scanTask(s scanner) (*model.Task, error) {
	task := model.Task{}
	err := s.Scan(
		&task.ID,
		&task.UserID,
		&task.CategoryName,
		&task.TaskName,
		&task.Duration,
		&task.TaskStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}
