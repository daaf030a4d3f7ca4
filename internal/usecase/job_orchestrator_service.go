package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/jobscheduler"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

const (
	jobPathSyncGames = "/v1/internal/jobs/sync-games"
	jobPathLockGames = "/v1/internal/jobs/lock-games"
	jobPathScore     = "/v1/internal/jobs/score"
)

type JobOrchestratorConfig struct {
	SyncInterval  time.Duration
	LockInterval  time.Duration
	ScoreInterval time.Duration
	// PreKickoffLead pulls the next sync forward ahead of an upcoming kickoff.
	PreKickoffLead time.Duration
	// SelfSchedule enqueues the follow-up run on the job queue after each run.
	SelfSchedule bool
}

type JobInput struct {
	Force      bool
	DispatchID string
}

type JobResult struct {
	Job        string        `json:"job"`
	Status     string        `json:"status"`
	DispatchID string        `json:"dispatch_id,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Detail     any           `json:"detail,omitempty"`
	NextRunIn  time.Duration `json:"next_run_in_ns,omitempty"`
}

// JobOrchestratorService runs the periodic engine jobs and records each run.
type JobOrchestratorService struct {
	feedSvc      *GameFeedService
	pickSvc      *PickService
	scoringSvc   *ScoringService
	seasons      *SeasonService
	gameRepo     game.Repository
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	cfg          JobOrchestratorConfig
	metrics      MetricsRecorder
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewJobOrchestratorService(
	feedSvc *GameFeedService,
	pickSvc *PickService,
	scoringSvc *ScoringService,
	seasons *SeasonService,
	gameRepo game.Repository,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg JobOrchestratorConfig,
	metrics MetricsRecorder,
	logger *logging.Logger,
) *JobOrchestratorService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 10 * time.Minute
	}
	if cfg.LockInterval <= 0 {
		cfg.LockInterval = time.Minute
	}
	if cfg.ScoreInterval <= 0 {
		cfg.ScoreInterval = 5 * time.Minute
	}
	if cfg.PreKickoffLead <= 0 {
		cfg.PreKickoffLead = 15 * time.Minute
	}

	return &JobOrchestratorService{
		feedSvc:      feedSvc,
		pickSvc:      pickSvc,
		scoringSvc:   scoringSvc,
		seasons:      seasons,
		gameRepo:     gameRepo,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *JobOrchestratorService) Config() JobOrchestratorConfig {
	return s.cfg
}

// RunGameSync pulls provider games for the active weeks.
func (s *JobOrchestratorService) RunGameSync(ctx context.Context, input JobInput) (JobResult, error) {
	return s.run(ctx, jobscheduler.JobSyncGames, jobPathSyncGames, input, func(ctx context.Context) (any, error) {
		if s.feedSvc == nil {
			return nil, fmt.Errorf("%w: game feed is not configured", ErrDependencyUnavailable)
		}
		return s.feedSvc.SyncSeason(ctx, SyncGamesInput{Force: input.Force})
	})
}

// RunLockGames moves every started game out of the scheduled state.
func (s *JobOrchestratorService) RunLockGames(ctx context.Context, input JobInput) (JobResult, error) {
	return s.run(ctx, jobscheduler.JobLockGames, jobPathLockGames, input, func(ctx context.Context) (any, error) {
		locked, err := s.pickSvc.LockStartedGames(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]int{"locked": locked}, nil
	})
}

// RunScoring persists scores for every finished week of the current season.
func (s *JobOrchestratorService) RunScoring(ctx context.Context, input JobInput) (JobResult, error) {
	return s.run(ctx, jobscheduler.JobScore, jobPathScore, input, func(ctx context.Context) (any, error) {
		return s.scoringSvc.PersistFinalWeeks(ctx)
	})
}

func (s *JobOrchestratorService) run(
	ctx context.Context,
	job, path string,
	input JobInput,
	fn func(ctx context.Context) (any, error),
) (JobResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobOrchestratorService."+job)
	defer span.End()

	started := s.now()
	dispatchID := strings.TrimSpace(input.DispatchID)
	if dispatchID == "" {
		dispatchID = dedupKey(job, "run", started, time.Second)
	}
	result := JobResult{Job: job, DispatchID: dispatchID}

	seasonID := int64(0)
	if current, err := s.seasons.Current(ctx); err == nil {
		seasonID = current.ID
	}

	detail, err := fn(ctx)
	result.Elapsed = s.now().Sub(started)
	result.Detail = detail
	event := jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    job,
		JobPath:    path,
		SeasonID:   seasonID,
		Payload:    map[string]any{"force": input.Force},
		OccurredAt: started.UTC(),
	}
	if err != nil {
		recordSpanError(span, err)
		result.Status = string(jobscheduler.StatusFailed)
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		s.metrics.JobFinished(job, result.Status, result.Elapsed)
		s.logger.ErrorContext(ctx, "job run failed", "job", job, "dispatch_id", dispatchID, "error", err)
		return result, fmt.Errorf("run job %s: %w", job, err)
	}

	result.Status = string(jobscheduler.StatusCompleted)
	event.Status = jobscheduler.StatusCompleted
	s.recordDispatchEvent(ctx, event)
	s.metrics.JobFinished(job, result.Status, result.Elapsed)

	if s.cfg.SelfSchedule {
		delay, err := s.scheduleNext(ctx, job, path, seasonID)
		if err != nil {
			s.logger.WarnContext(ctx, "schedule next job run failed", "job", job, "error", err)
		} else {
			result.NextRunIn = delay
		}
	}

	s.logger.DebugContext(ctx, "job run completed",
		"job", job,
		"dispatch_id", dispatchID,
		"elapsed_ms", result.Elapsed.Milliseconds(),
	)
	return result, nil
}

func (s *JobOrchestratorService) scheduleNext(ctx context.Context, job, path string, seasonID int64) (time.Duration, error) {
	now := s.now().UTC()
	var delay, bucket time.Duration
	switch job {
	case jobscheduler.JobSyncGames:
		games, err := s.gameRepo.ListBySeason(ctx, seasonID)
		if err != nil {
			return 0, fmt.Errorf("list games for schedule: %w", err)
		}
		hasLive, nearest := analyzeGames(games, now)
		delay, bucket = s.nextScheduleDelay(now, hasLive, nearest), s.cfg.SyncInterval
	case jobscheduler.JobLockGames:
		delay, bucket = s.cfg.LockInterval, s.cfg.LockInterval
	default:
		delay, bucket = s.cfg.ScoreInterval, s.cfg.ScoreInterval
	}

	segment := strconv.FormatInt(seasonID, 10)
	dedupID := dedupKey(job, segment, now.Add(delay), bucket)
	payload := map[string]any{
		"season_id":   seasonID,
		"dispatch_id": dedupID,
	}
	event := jobscheduler.DispatchEvent{
		DispatchID: dedupID,
		JobName:    job,
		JobPath:    path,
		SeasonID:   seasonID,
		Payload:    payload,
		OccurredAt: now,
	}
	if err := s.queue.Enqueue(ctx, path, payload, delay, dedupID); err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		return 0, fmt.Errorf("enqueue %s season=%d: %w", job, seasonID, err)
	}
	event.Status = jobscheduler.StatusSent
	s.recordDispatchEvent(ctx, event)
	return delay, nil
}

// RecentRuns lists the latest recorded events for one job.
func (s *JobOrchestratorService) RecentRuns(ctx context.Context, job string, limit int) ([]jobscheduler.DispatchEvent, error) {
	if s.dispatchRepo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, err := s.dispatchRepo.ListRecent(ctx, strings.TrimSpace(job), limit)
	if err != nil {
		return nil, fmt.Errorf("list job runs: %w", err)
	}
	return items, nil
}

func dedupKey(prefix, scope string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	scope = sanitizeDedupSegment(scope)
	return prefix + "-" + scope + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func (s *JobOrchestratorService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func analyzeGames(items []game.Game, now time.Time) (bool, *time.Time) {
	var nearestUpcoming *time.Time
	hasLive := false
	for _, item := range items {
		if item.Status == game.StatusLive {
			hasLive = true
		}
		if item.KickoffAt.IsZero() || item.KickoffAt.Before(now) || item.IsFinal() {
			continue
		}
		if nearestUpcoming == nil || item.KickoffAt.Before(*nearestUpcoming) {
			next := item.KickoffAt
			nearestUpcoming = &next
		}
	}
	return hasLive, nearestUpcoming
}

func (s *JobOrchestratorService) nextScheduleDelay(now time.Time, hasLive bool, nearestUpcoming *time.Time) time.Duration {
	minDelay := time.Minute
	if hasLive {
		return maxDuration(s.cfg.SyncInterval, minDelay)
	}

	if nearestUpcoming != nil {
		delay := nearestUpcoming.Add(-s.cfg.PreKickoffLead).Sub(now)
		if delay <= 0 {
			return maxDuration(s.cfg.SyncInterval, minDelay)
		}
		return maxDuration(min(delay, 6*time.Hour), minDelay)
	}

	// Off-season: poll rarely.
	return maxDuration(s.cfg.SyncInterval, 6*time.Hour)
}

func maxDuration(left, right time.Duration) time.Duration {
	if left > right {
		return left
	}
	return right
}
