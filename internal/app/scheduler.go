package app

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/jobscheduler"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

type scheduledJob struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context, input usecase.JobInput) (usecase.JobResult, error)
}

// jobLoop runs the orchestrator jobs on fixed tickers inside the process.
// It is the fallback when no external queue drives the internal job routes.
type jobLoop struct {
	jobs   []scheduledJob
	logger *logging.Logger
}

func newJobLoop(orchestrator *usecase.JobOrchestratorService, logger *logging.Logger) *jobLoop {
	cfg := orchestrator.Config()
	return &jobLoop{
		jobs: []scheduledJob{
			{name: jobscheduler.JobSyncGames, interval: cfg.SyncInterval, run: orchestrator.RunGameSync},
			{name: jobscheduler.JobLockGames, interval: cfg.LockInterval, run: orchestrator.RunLockGames},
			{name: jobscheduler.JobScore, interval: cfg.ScoreInterval, run: orchestrator.RunScoring},
		},
		logger: logger.Named("scheduler"),
	}
}

// Run blocks until ctx is cancelled.
func (l *jobLoop) Run(ctx context.Context) {
	var wg conc.WaitGroup
	for _, job := range l.jobs {
		wg.Go(func() { l.loop(ctx, job) })
	}
	wg.Wait()
}

func (l *jobLoop) loop(ctx context.Context, job scheduledJob) {
	l.logger.Info("scheduled job started", "job", job.name, "interval", job.interval.String())
	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := job.run(ctx, usecase.JobInput{}); err != nil && ctx.Err() == nil {
				l.logger.WarnContext(ctx, "scheduled job failed", "job", job.name, "error", err)
			}
		}
	}
}
