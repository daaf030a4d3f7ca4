package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	qb "github.com/riskibarqy/nfl-pick-two/internal/platform/querybuilder"
)

// upsertGameBatchSize keeps a single insert well below the pq parameter limit.
const upsertGameBatchSize = 200

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build select game by id query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by id: %w", err)
	}
	return gameFromRow(row), true, nil
}

func (r *GameRepository) ListByIDs(ctx context.Context, gameIDs []string) ([]game.Game, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, "by ids", qb.InStrings("public_id", gameIDs))
}

func (r *GameRepository) ListBySeasonWeek(ctx context.Context, seasonID int64, week int) ([]game.Game, error) {
	return r.list(ctx, "by season week", qb.Eq("season_id", seasonID), qb.Eq("week", week))
}

func (r *GameRepository) ListBySeason(ctx context.Context, seasonID int64) ([]game.Game, error) {
	return r.list(ctx, "by season", qb.Eq("season_id", seasonID))
}

func (r *GameRepository) list(ctx context.Context, label string, conditions ...qb.Condition) ([]game.Game, error) {
	conditions = append(conditions, qb.IsNull("deleted_at"))
	query, args, err := qb.Select("*").From("games").
		Where(conditions...).
		OrderBy("week", "kickoff_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games %s query: %w", label, err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games %s: %w", label, err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

func (r *GameRepository) Upsert(ctx context.Context, games []game.Game) error {
	for start := 0; start < len(games); start += upsertGameBatchSize {
		end := min(start+upsertGameBatchSize, len(games))
		models := make([]any, 0, end-start)
		for _, g := range games[start:end] {
			models = append(models, gameInsertModel{
				PublicID:   g.ID,
				SeasonID:   g.SeasonID,
				Week:       g.Week,
				HomeTeamID: g.HomeTeamID,
				AwayTeamID: g.AwayTeamID,
				KickoffAt:  g.KickoffAt.UTC(),
				Status:     string(g.Status),
				WinnerTeam: g.WinnerTeamID,
				HomeScore:  intPtrToNullInt64(g.HomeScore),
				AwayScore:  intPtrToNullInt64(g.AwayScore),
			})
		}

		query, args, err := qb.InsertModels("games", models, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    season_id = EXCLUDED.season_id,
    week = EXCLUDED.week,
    home_team_public_id = EXCLUDED.home_team_public_id,
    away_team_public_id = EXCLUDED.away_team_public_id,
    kickoff_at = EXCLUDED.kickoff_at,
    status = EXCLUDED.status,
    winner_team_public_id = EXCLUDED.winner_team_public_id,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert games query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert games batch=%d..%d: %w", start, end, err)
		}
	}
	return nil
}

func (r *GameRepository) MarkStarted(ctx context.Context, now time.Time) (int, error) {
	query, args, err := qb.Update("games").
		Set("status", string(game.StatusLive)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("status", string(game.StatusScheduled)),
			qb.Lte("kickoff_at", now.UTC()),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build mark games started query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark games started: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected mark games started: %w", err)
	}
	return int(affected), nil
}

func gameFromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:           row.PublicID,
		SeasonID:     row.SeasonID,
		Week:         row.Week,
		HomeTeamID:   row.HomeTeamID,
		AwayTeamID:   row.AwayTeamID,
		KickoffAt:    row.KickoffAt.UTC(),
		Status:       game.Status(row.Status),
		WinnerTeamID: row.WinnerTeam,
		HomeScore:    nullInt64ToIntPtr(row.HomeScore),
		AwayScore:    nullInt64ToIntPtr(row.AwayScore),
	}
}
