package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/nfl-pick-two/internal/config"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/jobscheduler"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/score"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	cacherepo "github.com/riskibarqy/nfl-pick-two/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/nfl-pick-two/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pick-two/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/nfl-pick-two/internal/platform/cache"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

type repositories struct {
	seasons    season.Repository
	teams      team.Repository
	leagues    league.Repository
	games      game.Repository
	picks      pick.Repository
	scores     score.Repository
	dispatches jobscheduler.Repository
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, func() error, error) {
	var (
		repos   repositories
		closeFn = func() error { return nil }
	)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		closeFn = db.Close
		repos = repositories{
			seasons:    postgres.NewSeasonRepository(db),
			teams:      postgres.NewTeamRepository(db),
			leagues:    postgres.NewLeagueRepository(db),
			games:      postgres.NewGameRepository(db),
			picks:      postgres.NewPickRepository(db),
			scores:     postgres.NewScoreRepository(db),
			dispatches: postgres.NewJobDispatchRepository(db),
		}
		if cfg.SeedSeasonYear > 0 {
			if err := ensureSeason(ctx, repos.seasons, cfg.SeedSeasonYear); err != nil {
				_ = db.Close()
				return repositories{}, nil, err
			}
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "db_name", dbNameFromURL(cfg.DBURL))
	default:
		store := memory.NewStore()
		year := cfg.SeedSeasonYear
		if year <= 0 {
			year = seasonYearAt(time.Now())
		}
		if err := memory.Seed(ctx, store, year); err != nil {
			return repositories{}, nil, fmt.Errorf("seed memory store: %w", err)
		}
		repos = repositories{
			seasons:    memory.NewSeasonRepository(store),
			teams:      memory.NewTeamRepository(store),
			leagues:    memory.NewLeagueRepository(store),
			games:      memory.NewGameRepository(store),
			picks:      memory.NewPickRepository(store),
			scores:     memory.NewScoreRepository(store),
			dispatches: memory.NewJobDispatchRepository(store),
		}
		logger.Info("storage ready", "driver", config.StorageMemory, "season_year", year)
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
		repos.leagues = cacherepo.NewLeagueRepository(repos.leagues, store)
	}

	return repos, closeFn, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres",
		postgresDSN(cfg.DBURL, cfg.ServiceName, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ensureSeason creates the configured season as active when no season
// with that id exists yet.
func ensureSeason(ctx context.Context, repo season.Repository, year int) error {
	_, exists, err := repo.GetByID(ctx, int64(year))
	if err != nil {
		return fmt.Errorf("get season %d: %w", year, err)
	}
	if exists {
		return nil
	}
	if err := repo.Upsert(ctx, season.Season{ID: int64(year), Year: year, IsActive: true}); err != nil {
		return fmt.Errorf("create season %d: %w", year, err)
	}
	return nil
}

// seasonYearAt maps a date to the NFL season it belongs to. January and
// February games still count toward the previous year's season.
func seasonYearAt(t time.Time) int {
	if t.Month() < time.March {
		return t.Year() - 1
	}
	return t.Year()
}
