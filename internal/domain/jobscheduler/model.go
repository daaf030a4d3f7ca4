package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

// Job names shared by the scheduler loop, the internal endpoints and the queue.
const (
	JobSyncGames = "sync_games"
	JobLockGames = "lock_games"
	JobScore     = "score_weeks"
)

// DispatchEvent records one scheduler run or queued dispatch.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	SeasonID     int64
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
