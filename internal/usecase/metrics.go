package usecase

import "time"

// MetricsRecorder receives engine counters. observability.Metrics implements it.
type MetricsRecorder interface {
	PickSubmitted(mode, outcome string)
	ScoresPersisted(count int)
	GamesIngested(upserted, skipped int)
	GamesLocked(count int)
	JobFinished(job, status string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) PickSubmitted(string, string)              {}
func (noopMetrics) ScoresPersisted(int)                       {}
func (noopMetrics) GamesIngested(int, int)                    {}
func (noopMetrics) GamesLocked(int)                           {}
func (noopMetrics) JobFinished(string, string, time.Duration) {}

func NewNoopMetrics() MetricsRecorder {
	return noopMetrics{}
}
