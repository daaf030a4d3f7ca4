package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	qb "github.com/riskibarqy/nfl-pick-two/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) ListByWeek(ctx context.Context, key pick.WeekKey) ([]pick.Pick, error) {
	return listPicks(ctx, r.db, "by week",
		qb.Eq("league_public_id", key.LeagueID),
		qb.Eq("user_id", key.UserID),
		qb.Eq("season_id", key.SeasonID),
		qb.Eq("week", key.Week),
	)
}

func (r *PickRepository) ListByUserSeason(ctx context.Context, leagueID, userID string, seasonID int64) ([]pick.Pick, error) {
	return listPicks(ctx, r.db, "by user season",
		qb.Eq("league_public_id", leagueID),
		qb.Eq("user_id", userID),
		qb.Eq("season_id", seasonID),
	)
}

func (r *PickRepository) ListByLeagueSeason(ctx context.Context, leagueID string, seasonID int64) ([]pick.Pick, error) {
	return listPicks(ctx, r.db, "by league season",
		qb.Eq("league_public_id", leagueID),
		qb.Eq("season_id", seasonID),
	)
}

func (r *PickRepository) GetByesUsed(ctx context.Context, leagueID, userID string) (int, error) {
	byes, found, err := getByesUsed(ctx, r.db, leagueID, userID, false)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return byes, nil
}

// WithWeekTx locks the member state row for the whole callback so concurrent
// submissions from the same member serialize. The unique indexes on picks
// back up the checks done by the callback.
func (r *PickRepository) WithWeekTx(ctx context.Context, key pick.WeekKey, fn func(tx pick.WeekTx) error) error {
	if err := key.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx week picks %s: %w", key, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	byes, found, err := getByesUsed(ctx, tx, key.LeagueID, key.UserID, true)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("user %s is not a member of league %s", key.UserID, key.LeagueID)
	}

	if err := fn(&weekTx{tx: tx, key: key, byesUsed: byes}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit week picks tx %s: %w", key, err)
	}
	return nil
}

type weekTx struct {
	tx       *sqlx.Tx
	key      pick.WeekKey
	byesUsed int
}

func (w *weekTx) ListWeek(ctx context.Context) ([]pick.Pick, error) {
	return listPicks(ctx, w.tx, "week in tx",
		qb.Eq("league_public_id", w.key.LeagueID),
		qb.Eq("user_id", w.key.UserID),
		qb.Eq("season_id", w.key.SeasonID),
		qb.Eq("week", w.key.Week),
	)
}

func (w *weekTx) ListSeason(ctx context.Context) ([]pick.Pick, error) {
	return listPicks(ctx, w.tx, "season in tx",
		qb.Eq("league_public_id", w.key.LeagueID),
		qb.Eq("user_id", w.key.UserID),
		qb.Eq("season_id", w.key.SeasonID),
	)
}

func (w *weekTx) ByesUsed(context.Context) (int, error) {
	return w.byesUsed, nil
}

func (w *weekTx) Delete(ctx context.Context, pickIDs []string) error {
	if len(pickIDs) == 0 {
		return nil
	}
	query, args, err := qb.DeleteFrom("picks").
		Where(
			qb.Eq("league_public_id", w.key.LeagueID),
			qb.Eq("user_id", w.key.UserID),
			qb.InStrings("public_id", pickIDs),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete picks query: %w", err)
	}
	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete picks %s: %w", w.key, err)
	}
	return nil
}

func (w *weekTx) Insert(ctx context.Context, picks []pick.Pick) error {
	if len(picks) == 0 {
		return nil
	}
	models := make([]any, 0, len(picks))
	for _, p := range picks {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.Key() != w.key {
			return fmt.Errorf("pick %s does not belong to %s", p.ID, w.key)
		}
		models = append(models, pickToRow(p))
	}

	query, args, err := qb.InsertModels("picks", models, "")
	if err != nil {
		return fmt.Errorf("build insert picks query: %w", err)
	}
	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert picks %s: %w", w.key, err)
	}
	return nil
}

func (w *weekTx) AdjustByes(ctx context.Context, delta int) (int, error) {
	query, args, err := qb.Update("league_member_states").
		SetExpr("byes_used", "LEAST(GREATEST(byes_used + ?, 0), ?)", delta, pick.MaxByes).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("league_public_id", w.key.LeagueID),
			qb.Eq("user_id", w.key.UserID),
		).
		Suffix("RETURNING byes_used").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build adjust byes query: %w", err)
	}

	var byes int
	if err := w.tx.GetContext(ctx, &byes, query, args...); err != nil {
		return 0, fmt.Errorf("adjust byes %s: %w", w.key, err)
	}
	w.byesUsed = byes
	return byes, nil
}

func getByesUsed(ctx context.Context, q sqlx.QueryerContext, leagueID, userID string, forUpdate bool) (int, bool, error) {
	b := qb.Select("byes_used").From("league_member_states").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("user_id", userID),
		)
	if forUpdate {
		b = b.ForUpdate()
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build select byes used query: %w", err)
	}

	var byes int
	if err := sqlx.GetContext(ctx, q, &byes, query, args...); err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get byes used: %w", err)
	}
	return byes, true, nil
}

func listPicks(ctx context.Context, q sqlx.QueryerContext, label string, conditions ...qb.Condition) ([]pick.Pick, error) {
	query, args, err := qb.Select(qb.Columns(pickTableModel{})...).From("picks").
		Where(conditions...).
		OrderBy("user_id", "week", "slot NULLS FIRST", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select picks %s query: %w", label, err)
	}

	var rows []pickTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select picks %s: %w", label, err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickFromRow(row))
	}
	return out, nil
}

func pickToRow(p pick.Pick) pickTableModel {
	row := pickTableModel{
		PublicID:  p.ID,
		LeagueID:  p.LeagueID,
		UserID:    p.UserID,
		SeasonID:  p.SeasonID,
		Week:      p.Week,
		IsBye:     p.IsBye(),
		CreatedAt: p.CreatedAt.UTC(),
	}
	if tp, ok := p.Team(); ok {
		row.TeamID = optionalString(tp.TeamID)
		row.GameID = optionalString(tp.GameID)
		row.Slot = sql.NullInt64{Int64: int64(tp.Slot), Valid: true}
	}
	return row
}

func pickFromRow(row pickTableModel) pick.Pick {
	p := pick.Pick{
		ID:        row.PublicID,
		LeagueID:  row.LeagueID,
		UserID:    row.UserID,
		SeasonID:  row.SeasonID,
		Week:      row.Week,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.IsBye {
		p.Selection = pick.Bye{}
		return p
	}
	p.Selection = pick.TeamPick{
		TeamID: stringFromPtr(row.TeamID),
		GameID: stringFromPtr(row.GameID),
		Slot:   int(row.Slot.Int64),
	}
	return p
}
