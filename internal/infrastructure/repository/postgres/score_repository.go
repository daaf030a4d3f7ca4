package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/score"
	qb "github.com/riskibarqy/nfl-pick-two/internal/platform/querybuilder"
)

type ScoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) Get(ctx context.Context, key score.Key) (score.Score, bool, error) {
	query, args, err := qb.Select(qb.Columns(scoreTableModel{})...).From("scores").
		Where(
			qb.Eq("league_public_id", key.LeagueID),
			qb.Eq("user_id", key.UserID),
			qb.Eq("season_id", key.SeasonID),
			qb.Eq("week", key.Week),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return score.Score{}, false, fmt.Errorf("build select score query: %w", err)
	}

	var row scoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return score.Score{}, false, nil
		}
		return score.Score{}, false, fmt.Errorf("get score: %w", err)
	}
	return scoreFromRow(row), true, nil
}

func (r *ScoreRepository) ListByLeagueSeason(ctx context.Context, leagueID string, seasonID int64) ([]score.Score, error) {
	query, args, err := qb.Select(qb.Columns(scoreTableModel{})...).From("scores").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("season_id", seasonID),
		).
		OrderBy("user_id", "week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scores by league season query: %w", err)
	}

	var rows []scoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scores by league season: %w", err)
	}

	out := make([]score.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoreFromRow(row))
	}
	return out, nil
}

func (r *ScoreRepository) Upsert(ctx context.Context, scores []score.Score) error {
	if len(scores) == 0 {
		return nil
	}
	models := make([]any, 0, len(scores))
	for _, item := range scores {
		models = append(models, scoreTableModel{
			LeagueID:     item.LeagueID,
			UserID:       item.UserID,
			SeasonID:     item.SeasonID,
			Week:         item.Week,
			Points:       item.Points,
			CalculatedAt: item.CalculatedAt.UTC(),
		})
	}

	query, args, err := qb.InsertModels("scores", models, `ON CONFLICT (league_public_id, user_id, season_id, week)
DO UPDATE SET
    points = EXCLUDED.points,
    calculated_at = EXCLUDED.calculated_at`)
	if err != nil {
		return fmt.Errorf("build upsert scores query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert scores count=%d: %w", len(scores), err)
	}
	return nil
}

func scoreFromRow(row scoreTableModel) score.Score {
	return score.Score{
		LeagueID:     row.LeagueID,
		UserID:       row.UserID,
		SeasonID:     row.SeasonID,
		Week:         row.Week,
		Points:       row.Points,
		CalculatedAt: row.CalculatedAt.UTC(),
	}
}
