package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	qb "github.com/riskibarqy/nfl-pick-two/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) Create(ctx context.Context, l league.League, owner league.Member, values []league.TeamValue) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create league: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertModel("leagues", leagueInsertModel{
		PublicID:          l.ID,
		Name:              l.Name,
		Description:       l.Description,
		Visibility:        string(l.Visibility),
		OwnerUserID:       l.OwnerID,
		SeasonID:          l.SeasonID,
		JoinCode:          optionalString(l.JoinCode),
		UniquePointValues: l.UniquePointValues,
		CreatedAt:         l.CreatedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build create league query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create league %s: %w", l.ID, err)
	}

	if err := insertMember(ctx, tx, owner); err != nil {
		return err
	}
	if err := replaceTeamValues(ctx, tx, l.ID, values); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create league tx: %w", err)
	}
	return nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.getBy(ctx, "public_id", leagueID)
}

func (r *LeagueRepository) GetByJoinCode(ctx context.Context, code string) (league.League, bool, error) {
	code = league.NormalizeJoinCode(code)
	if code == "" {
		return league.League{}, false, nil
	}
	return r.getBy(ctx, "join_code", code)
}

func (r *LeagueRepository) getBy(ctx context.Context, column, value string) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(
			qb.Eq(column, value),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league by %s query: %w", column, err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league by %s: %w", column, err)
	}
	return leagueFromRow(row), true, nil
}

func (r *LeagueRepository) ListBySeason(ctx context.Context, seasonID int64) ([]league.League, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(
			qb.Eq("season_id", seasonID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues by season query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues by season: %w", err)
	}
	return leaguesFromRows(rows), nil
}

func (r *LeagueRepository) ListByMember(ctx context.Context, userID string) ([]league.League, error) {
	query, args, err := qb.Select("l.*").
		From("leagues l JOIN league_members m ON m.league_public_id = l.public_id AND m.deleted_at IS NULL").
		Where(
			qb.Eq("m.user_id", userID),
			qb.IsNull("l.deleted_at"),
		).
		OrderBy("l.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues by member query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues by member: %w", err)
	}
	return leaguesFromRows(rows), nil
}

func (r *LeagueRepository) UpdateJoinCode(ctx context.Context, leagueID, code string) error {
	query, args, err := qb.Update("leagues").
		Set("join_code", optionalString(code)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update join code query: %w", err)
	}
	return execOne(ctx, r.db, "update league join code", query, args)
}

func (r *LeagueRepository) TransferOwnership(ctx context.Context, leagueID, fromUserID, toUserID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx transfer ownership: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ownerQuery, ownerArgs, err := qb.Update("leagues").
		Set("owner_user_id", toUserID).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build transfer ownership query: %w", err)
	}
	if err := execOne(ctx, tx, "transfer league ownership", ownerQuery, ownerArgs); err != nil {
		return err
	}

	for _, change := range []struct {
		userID string
		role   league.Role
	}{
		{userID: fromUserID, role: league.RoleMember},
		{userID: toUserID, role: league.RoleAdmin},
	} {
		roleQuery, roleArgs, err := qb.Update("league_members").
			Set("role", string(change.role)).
			Where(
				qb.Eq("league_public_id", leagueID),
				qb.Eq("user_id", change.userID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update member role query: %w", err)
		}
		if err := execOne(ctx, tx, "update member role", roleQuery, roleArgs); err != nil {
			return fmt.Errorf("user %s in league %s: %w", change.userID, leagueID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer ownership tx: %w", err)
	}
	return nil
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.Member, error) {
	query, args, err := qb.Select(qb.Columns(leagueMemberTableModel{})...).From("league_members").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("joined_at", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select league members query: %w", err)
	}

	var rows []leagueMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select league members: %w", err)
	}

	out := make([]league.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, memberFromRow(row))
	}
	return out, nil
}

func (r *LeagueRepository) GetMember(ctx context.Context, leagueID, userID string) (league.Member, bool, error) {
	query, args, err := qb.Select(qb.Columns(leagueMemberTableModel{})...).From("league_members").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return league.Member{}, false, fmt.Errorf("build select league member query: %w", err)
	}

	var row leagueMemberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.Member{}, false, nil
		}
		return league.Member{}, false, fmt.Errorf("get league member: %w", err)
	}
	return memberFromRow(row), true, nil
}

func (r *LeagueRepository) AddMember(ctx context.Context, m league.Member) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx add league member: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertMember(ctx, tx, m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add league member tx: %w", err)
	}
	return nil
}

// RemoveMember soft deletes the membership and hard deletes the member's
// bye counter, picks and scores.
func (r *LeagueRepository) RemoveMember(ctx context.Context, leagueID, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx remove league member: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	memberQuery, memberArgs, err := qb.Update("league_members").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("user_id", userID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build soft delete league member query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, memberQuery, memberArgs...); err != nil {
		return fmt.Errorf("soft delete league member: %w", err)
	}

	for _, table := range []string{"league_member_states", "picks", "scores"} {
		query, args, err := qb.DeleteFrom(table).
			Where(
				qb.Eq("league_public_id", leagueID),
				qb.Eq("user_id", userID),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build delete %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete %s for removed member: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove league member tx: %w", err)
	}
	return nil
}

func (r *LeagueRepository) ListMemberStates(ctx context.Context, leagueID string) ([]league.MemberState, error) {
	query, args, err := qb.Select(qb.Columns(leagueMemberStateTableModel{})...).From("league_member_states").
		Where(qb.Eq("league_public_id", leagueID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select member states query: %w", err)
	}

	var rows []leagueMemberStateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select member states: %w", err)
	}

	out := make([]league.MemberState, 0, len(rows))
	for _, row := range rows {
		out = append(out, league.MemberState{LeagueID: row.LeagueID, UserID: row.UserID, ByesUsed: row.ByesUsed})
	}
	return out, nil
}

func (r *LeagueRepository) ListTeamValues(ctx context.Context, leagueID string) ([]league.TeamValue, error) {
	query, args, err := qb.Select(qb.Columns(leagueTeamValueTableModel{})...).From("league_team_values").
		Where(qb.Eq("league_public_id", leagueID)).
		OrderBy("team_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team values query: %w", err)
	}

	var rows []leagueTeamValueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team values: %w", err)
	}

	out := make([]league.TeamValue, 0, len(rows))
	for _, row := range rows {
		out = append(out, league.TeamValue{LeagueID: row.LeagueID, TeamID: row.TeamID, PointsValue: row.PointsValue})
	}
	return out, nil
}

func (r *LeagueRepository) ReplaceTeamValues(ctx context.Context, leagueID string, values []league.TeamValue) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace team values: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := replaceTeamValues(ctx, tx, leagueID, values); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace team values tx: %w", err)
	}
	return nil
}

func insertMember(ctx context.Context, tx *sqlx.Tx, m league.Member) error {
	query, args, err := qb.InsertModel("league_members", leagueMemberTableModel{
		LeagueID: m.LeagueID,
		UserID:   m.UserID,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert league member query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return league.ErrAlreadyMember
		}
		return fmt.Errorf("insert league member: %w", err)
	}

	stateQuery, stateArgs, err := qb.InsertModel("league_member_states", leagueMemberStateTableModel{
		LeagueID: m.LeagueID,
		UserID:   m.UserID,
	}, `ON CONFLICT (league_public_id, user_id) DO UPDATE SET byes_used = 0, updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build insert member state query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, stateQuery, stateArgs...); err != nil {
		return fmt.Errorf("insert member state: %w", err)
	}
	return nil
}

func replaceTeamValues(ctx context.Context, tx *sqlx.Tx, leagueID string, values []league.TeamValue) error {
	deleteQuery, deleteArgs, err := qb.DeleteFrom("league_team_values").
		Where(qb.Eq("league_public_id", leagueID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete team values query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete team values: %w", err)
	}
	if len(values) == 0 {
		return nil
	}

	models := make([]any, 0, len(values))
	for _, v := range values {
		models = append(models, leagueTeamValueTableModel{
			LeagueID:    leagueID,
			TeamID:      v.TeamID,
			PointsValue: v.PointsValue,
		})
	}
	insertQuery, insertArgs, err := qb.InsertModels("league_team_values", models, "")
	if err != nil {
		return fmt.Errorf("build insert team values query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("insert team values: %w", err)
	}
	return nil
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:                row.PublicID,
		Name:              row.Name,
		Description:       row.Description,
		Visibility:        league.Visibility(row.Visibility),
		OwnerID:           row.OwnerUserID,
		SeasonID:          row.SeasonID,
		JoinCode:          stringFromPtr(row.JoinCode),
		UniquePointValues: row.UniquePointValues,
		CreatedAt:         row.CreatedAt.UTC(),
	}
}

func leaguesFromRows(rows []leagueTableModel) []league.League {
	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}
	return out
}

func memberFromRow(row leagueMemberTableModel) league.Member {
	return league.Member{
		LeagueID: row.LeagueID,
		UserID:   row.UserID,
		Role:     league.Role(row.Role),
		JoinedAt: row.JoinedAt.UTC(),
	}
}
