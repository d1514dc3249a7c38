package service

import (
	"context"
	"strings"

	apperrors "timetracker/internal/errors"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// TaskService owns task CRUD. Every operation is scoped to the calling
// user; a task id belonging to someone else behaves exactly like a missing
// one.
type TaskService struct {
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository
}

func NewTaskService(tasks *repository.TaskRepository, categories *repository.CategoryRepository) *TaskService {
	return &TaskService{tasks: tasks, categories: categories}
}

// Create persists a new task as not_started. Duration acts as the user's
// estimate in seconds and defaults to 0. The category is created on first
// use so the task's reference always resolves.
func (s *TaskService) Create(
	ctx context.Context,
	userID, categoryName, taskName string,
	duration float64,
) (*model.Task, *apperrors.AppError) {
	categoryName = strings.TrimSpace(categoryName)
	taskName = strings.TrimSpace(taskName)
	if apiErr := validateTaskFields(categoryName, taskName, duration); apiErr != nil {
		return nil, apiErr
	}

	if _, err := s.categories.GetOrCreate(ctx, categoryName); err != nil {
		return nil, apperrors.Internal("failed to ensure category")
	}

	task := &model.Task{
		UserID:       userID,
		CategoryName: categoryName,
		TaskName:     taskName,
		Duration:     duration,
		TaskStatus:   model.StatusNotStarted,
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, apperrors.Internal("failed to save task")
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.AppError) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID string, taskID int64) (*model.Task, *apperrors.AppError) {
	task, err := s.tasks.GetByUser(ctx, userID, taskID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load task")
	}
	return task, nil
}

// Update overwrites the task's category, name, and duration. Status is not
// touched here; only the timer moves it.
func (s *TaskService) Update(
	ctx context.Context,
	userID string,
	taskID int64,
	categoryName, taskName string,
	duration float64,
) *apperrors.AppError {
	categoryName = strings.TrimSpace(categoryName)
	taskName = strings.TrimSpace(taskName)
	if apiErr := validateTaskFields(categoryName, taskName, duration); apiErr != nil {
		return apiErr
	}

	if _, err := s.categories.GetOrCreate(ctx, categoryName); err != nil {
		return apperrors.Internal("failed to ensure category")
	}

	err := s.tasks.Update(ctx, userID, taskID, categoryName, taskName, duration)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to update task")
	}
	return nil
}

// Delete removes the task and its timing events together.
func (s *TaskService) Delete(ctx context.Context, userID string, taskID int64) *apperrors.AppError {
	err := s.tasks.Delete(ctx, userID, taskID)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete task")
	}
	return nil
}

func (s *TaskService) Categories(ctx context.Context) ([]model.Category, *apperrors.AppError) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list categories")
	}
	return categories, nil
}

func validateTaskFields(categoryName, taskName string, duration float64) *apperrors.AppError {
	if categoryName == "" {
		return apperrors.Validation("invalid_category", "category name must not be empty")
	}
	if taskName == "" {
		return apperrors.Validation("invalid_task_name", "task name must not be empty")
	}
	if duration < 0 {
		return apperrors.Validation("invalid_duration", "duration must not be negative")
	}
	return nil
}
