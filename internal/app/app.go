package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/nfl-pick-two/external/espn"
	"github.com/riskibarqy/nfl-pick-two/external/jobqueue"
	"github.com/riskibarqy/nfl-pick-two/internal/config"
	"github.com/riskibarqy/nfl-pick-two/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/nfl-pick-two/internal/interfaces/httpapi"
	"github.com/riskibarqy/nfl-pick-two/internal/observability"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/resilience"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

// App owns the HTTP server and the background job loop.
type App struct {
	Server  *http.Server
	jobs    *jobLoop
	closeDB func() error
	logger  *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, closeDB, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var (
		metrics  usecase.MetricsRecorder
		observer httpapi.RequestObserver
		routeCfg = httpapi.RouterConfig{
			CORSAllowedOrigins:      cfg.CORSAllowedOrigins,
			InternalJobToken:        cfg.InternalJobToken,
			PickSubmitRatePerMinute: cfg.PickSubmitRatePerMinute,
			PickSubmitBurst:         cfg.PickSubmitBurst,
		}
	)
	if cfg.MetricsEnabled {
		m := observability.NewMetrics()
		metrics, observer, routeCfg.MetricsHandler = m, m, m.Handler()
	}

	seasons := usecase.NewSeasonService(repos.seasons, cfg.SeasonOverrideID, logger)
	values := usecase.NewTeamValueService(repos.teams, repos.leagues)
	picks := usecase.NewPickService(repos.leagues, repos.games, repos.picks, seasons, values, nil, metrics, logger)
	scoring := usecase.NewScoringService(repos.leagues, repos.games, repos.picks, repos.scores, seasons, values,
		usecase.ScoringConfig{Workers: cfg.ScoringWorkers}, metrics, logger)
	feed := usecase.NewGameFeedService(newGameFeed(cfg, logger), repos.games, repos.teams, seasons,
		usecase.GameFeedConfig{WindowStartHour: cfg.FeedWindowStartHour, WindowEndHour: cfg.FeedWindowEndHour}, metrics, logger)
	orchestrator := usecase.NewJobOrchestratorService(feed, picks, scoring, seasons, repos.games, newJobQueue(cfg, logger),
		repos.dispatches, usecase.JobOrchestratorConfig{
			SyncInterval:   cfg.JobSyncInterval,
			LockInterval:   cfg.JobLockInterval,
			ScoreInterval:  cfg.JobScoreInterval,
			PreKickoffLead: cfg.JobPreKickoffLead,
			SelfSchedule:   cfg.QStashEnabled,
		}, metrics, logger)

	handler := httpapi.NewHandler(httpapi.Services{
		Seasons:   seasons,
		Teams:     usecase.NewTeamService(repos.teams),
		Leagues:   usecase.NewLeagueService(repos.leagues, repos.teams, seasons, values, nil, nil, logger),
		Picks:     picks,
		Scoring:   scoring,
		Standings: usecase.NewStandingsService(repos.leagues, repos.games, repos.picks, repos.scores, values),
		GameFeed:  feed,
		Jobs:      orchestrator,
	}, logger)

	verifier := jwtauth.NewVerifier(jwtauth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		CacheTTL: cfg.AuthCacheTTL,
	}, logger)

	app := &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      httpapi.NewRouter(handler, verifier, logger, observer, routeCfg),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		closeDB: closeDB,
		logger:  logger,
	}
	if cfg.SchedulerEnabled {
		app.jobs = newJobLoop(orchestrator, logger)
	}
	return app, nil
}

// RunJobs blocks running the in-process job loop until ctx is done. It
// returns immediately when the scheduler is disabled.
func (a *App) RunJobs(ctx context.Context) {
	if a.jobs == nil {
		return
	}
	a.jobs.Run(ctx)
}

func (a *App) Close() error {
	if a.closeDB == nil {
		return nil
	}
	if err := a.closeDB(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}

func newGameFeed(cfg config.Config, logger *logging.Logger) usecase.GameFeed {
	if !cfg.FeedEnabled {
		logger.Info("game feed disabled", "reason", "FEED_ENABLED=false")
		return nil
	}
	return espn.NewClient(espn.ClientConfig{
		BaseURL:       cfg.FeedBaseURL,
		Timeout:       cfg.FeedTimeout,
		MaxRetries:    cfg.FeedMaxRetries,
		RatePerSecond: cfg.FeedRatePerSecond,
		Burst:         cfg.FeedBurst,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Name:             "espn",
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
		Logger: logger.Named("espn"),
	})
}

func newJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		return usecase.NewNoopJobQueue()
	}
	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Name:             "qstash",
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger.Named("qstash"))
}
