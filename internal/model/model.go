package model

import "time"

const (
	StatusNotStarted = "not_started"
	StatusRunning    = "running"
	StatusPaused     = "paused"
	StatusStopped    = "stopped"
)

const (
	EventStart  = "start"
	EventPause  = "pause"
	EventResume = "resume"
	EventStop   = "stop"
)

// Task is a trackable unit of work owned by one user. Duration is the
// accumulated time in seconds; it can be adjusted manually and is advanced
// by the timer on every stop.
type Task struct {
	ID           int64   `json:"id"`
	UserID       string  `json:"userId"`
	CategoryName string  `json:"categoryName"`
	TaskName     string  `json:"taskName"`
	Duration     float64 `json:"duration"`
	TaskStatus   string  `json:"taskStatus"`
}

// TimingEvent is one immutable start/pause/resume/stop record. Events are
// never updated; they are only removed when their task is deleted.
type TimingEvent struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

type Category struct {
	Name string `json:"name"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func ValidStatus(status string) bool {
	switch status {
	case StatusNotStarted, StatusRunning, StatusPaused, StatusStopped:
		return true
	}
	return false
}

func ValidEventType(eventType string) bool {
	switch eventType {
	case EventStart, EventPause, EventResume, EventStop:
		return true
	}
	return false
}
