package output

import "time"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventBatchStarted  EventName = "batch_started"
	EventOutputCleared EventName = "output_cleared"
	EventCleanupFailed EventName = "cleanup_failed"
	EventQueryStarted  EventName = "query_started"
	EventQueryResolved EventName = "query_resolved"
	EventQueryFinished EventName = "query_finished"
	EventQueryFailed   EventName = "query_failed"
	EventBatchFinished EventName = "batch_finished"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	RunID     string         `json:"run_id,omitempty"`
	Query     string         `json:"query,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}
