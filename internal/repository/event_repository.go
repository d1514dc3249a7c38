package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetracker/internal/model"
)

// EventRepository is the append-only timing event log. Rows are immutable
// once written; the only delete path is the task cascade in TaskRepository.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(
	ctx context.Context,
	taskID int64,
	eventType string,
	timestamp time.Time,
) (*model.TimingEvent, error) {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timing_events (task_id, event_type, timestamp)
		 VALUES (?, ?, ?)`,
		taskID,
		eventType,
		formatTime(timestamp),
	)
	if err != nil {
		return nil, fmt.Errorf("append %s event for task %d: %w", eventType, taskID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("append event id: %w", err)
	}

	return &model.TimingEvent{
		ID:        id,
		TaskID:    taskID,
		EventType: eventType,
		Timestamp: timestamp.UTC(),
	}, nil
}

func (r *EventRepository) AppendTx(
	ctx context.Context,
	tx *sql.Tx,
	taskID int64,
	eventType string,
	timestamp time.Time,
) (*model.TimingEvent, error) {
	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO timing_events (task_id, event_type, timestamp)
		 VALUES (?, ?, ?)`,
		taskID,
		eventType,
		formatTime(timestamp),
	)
	if err != nil {
		return nil, fmt.Errorf("append %s event for task %d: %w", eventType, taskID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("append event id: %w", err)
	}

	return &model.TimingEvent{
		ID:        id,
		TaskID:    taskID,
		EventType: eventType,
		Timestamp: timestamp.UTC(),
	}, nil
}

// EventsFor returns the task's events ordered by timestamp, ties broken by
// insertion order.
func (r *EventRepository) EventsFor(ctx context.Context, taskID int64) ([]model.TimingEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, task_id, event_type, timestamp
		 FROM timing_events
		 WHERE task_id = ?
		 ORDER BY timestamp ASC, id ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events for task %d: %w", taskID, err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// EventsForUser returns every event belonging to one of the user's tasks,
// in global timestamp order. Reporting reads only.
func (r *EventRepository) EventsForUser(ctx context.Context, userID string) ([]model.TimingEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT e.id, e.task_id, e.event_type, e.timestamp
		 FROM timing_events e
		 JOIN tasks t ON t.id = e.task_id
		 WHERE t.user_id = ?
		 ORDER BY e.timestamp ASC, e.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events for user %s: %w", userID, err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// EventsForUserBetween returns the user's events with from <= timestamp < to.
func (r *EventRepository) EventsForUserBetween(
	ctx context.Context,
	userID string,
	from, to time.Time,
) ([]model.TimingEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT e.id, e.task_id, e.event_type, e.timestamp
		 FROM timing_events e
		 JOIN tasks t ON t.id = e.task_id
		 WHERE t.user_id = ? AND e.timestamp >= ? AND e.timestamp < ?
		 ORDER BY e.timestamp ASC, e.id ASC`,
		userID,
		formatTime(from),
		formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list events for user %s in range: %w", userID, err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]model.TimingEvent, error) {
	events := make([]model.TimingEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func scanEvent(s scanner) (*model.TimingEvent, error) {
	event := model.TimingEvent{}
	var timestamp string
	err := s.Scan(
		&event.ID,
		&event.TaskID,
		&event.EventType,
		&timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}

	parsed, err := parseTime(timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse event timestamp: %w", err)
	}
	event.Timestamp = parsed
	return &event, nil
}
