package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/id"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

type CreateLeagueInput struct {
	Name              string
	Description       string
	Visibility        league.Visibility
	UniquePointValues bool
	TeamValues        map[string]int
}

type JoinLeagueInput struct {
	LeagueID string
	JoinCode string
}

type MemberView struct {
	UserID   string      `json:"user_id"`
	Role     league.Role `json:"role"`
	IsOwner  bool        `json:"is_owner"`
	ByesUsed int         `json:"byes_used"`
	JoinedAt time.Time   `json:"joined_at"`
}

// LeagueService manages leagues, memberships and per-league team values.
type LeagueService struct {
	leagueRepo league.Repository
	teamRepo   team.Repository
	seasons    *SeasonService
	values     *TeamValueService
	ids        id.Generator
	codes      id.CodeGenerator
	logger     *logging.Logger
	now        func() time.Time
}

func NewLeagueService(
	leagueRepo league.Repository,
	teamRepo team.Repository,
	seasons *SeasonService,
	values *TeamValueService,
	ids id.Generator,
	codes id.CodeGenerator,
	logger *logging.Logger,
) *LeagueService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if codes == nil {
		codes = id.NewRandomCodeGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeagueService{
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
		seasons:    seasons,
		values:     values,
		ids:        ids,
		codes:      codes,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateLeague creates a league in the current season with the caller as owner and admin.
func (s *LeagueService) CreateLeague(ctx context.Context, userID string, in CreateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CreateLeague")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return league.League{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	current, err := s.seasons.Current(ctx)
	if err != nil {
		return league.League{}, err
	}
	leagueID, err := s.ids.NewID()
	if err != nil {
		return league.League{}, fmt.Errorf("generate league id: %w", err)
	}

	if in.Visibility == "" {
		in.Visibility = league.VisibilityPrivate
	}
	now := s.now().UTC()
	item := league.League{
		ID:                leagueID,
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		Visibility:        in.Visibility,
		OwnerID:           userID,
		SeasonID:          current.ID,
		UniquePointValues: in.UniquePointValues,
		CreatedAt:         now,
	}
	if item.Visibility == league.VisibilityPrivate {
		if item.JoinCode, err = s.codes.NewJoinCode(); err != nil {
			return league.League{}, fmt.Errorf("generate join code: %w", err)
		}
	}
	if err := item.Validate(); err != nil {
		return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	values := make([]league.TeamValue, 0, len(in.TeamValues))
	for teamID, points := range in.TeamValues {
		values = append(values, league.TeamValue{LeagueID: item.ID, TeamID: strings.TrimSpace(teamID), PointsValue: points})
	}
	if err := s.checkTeamValues(ctx, item, nil, values); err != nil {
		return league.League{}, err
	}

	owner := league.Member{LeagueID: item.ID, UserID: userID, Role: league.RoleAdmin, JoinedAt: now}
	if err := s.leagueRepo.Create(ctx, item, owner, values); err != nil {
		return league.League{}, fmt.Errorf("create league: %w", err)
	}

	s.logger.InfoContext(ctx, "league created", "league_id", item.ID, "owner_id", userID, "visibility", item.Visibility)
	return item, nil
}

// GetLeague hides private leagues from non-members. The join code is only
// visible to admins.
func (s *LeagueService) GetLeague(ctx context.Context, userID, leagueID string) (league.League, error) {
	item, err := loadLeague(ctx, s.leagueRepo, leagueID)
	if err != nil {
		return league.League{}, err
	}
	member, isMember, err := s.leagueRepo.GetMember(ctx, item.ID, userID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league member: %w", err)
	}
	if !isMember && item.Visibility == league.VisibilityPrivate {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, item.ID)
	}
	if !isMember || !item.IsAdmin(member) {
		item.JoinCode = ""
	}
	return item, nil
}

func (s *LeagueService) ListMyLeagues(ctx context.Context, userID string) ([]league.League, error) {
	items, err := s.leagueRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list member leagues: %w", err)
	}
	for i := range items {
		if items[i].JoinCode == "" {
			continue
		}
		member, _, err := s.leagueRepo.GetMember(ctx, items[i].ID, userID)
		if err != nil {
			return nil, fmt.Errorf("get league member: %w", err)
		}
		if !items[i].IsAdmin(member) {
			items[i].JoinCode = ""
		}
	}
	return items, nil
}

// JoinLeague joins a private league by code or a public league by id.
func (s *LeagueService) JoinLeague(ctx context.Context, userID string, in JoinLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.JoinLeague")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return league.League{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	var item league.League
	switch code := league.NormalizeJoinCode(in.JoinCode); {
	case code != "":
		found, exists, err := s.leagueRepo.GetByJoinCode(ctx, code)
		if err != nil {
			return league.League{}, fmt.Errorf("get league by join code: %w", err)
		}
		if !exists {
			return league.League{}, fmt.Errorf("%w: join code", ErrNotFound)
		}
		item = found
	case strings.TrimSpace(in.LeagueID) != "":
		found, err := loadLeague(ctx, s.leagueRepo, in.LeagueID)
		if err != nil {
			return league.League{}, err
		}
		if found.Visibility != league.VisibilityPublic {
			return league.League{}, fmt.Errorf("%w: private league requires a join code", ErrForbidden)
		}
		item = found
	default:
		return league.League{}, fmt.Errorf("%w: league id or join code is required", ErrInvalidInput)
	}

	err := s.leagueRepo.AddMember(ctx, league.Member{LeagueID: item.ID, UserID: userID, Role: league.RoleMember, JoinedAt: s.now().UTC()})
	if errors.Is(err, league.ErrAlreadyMember) {
		return league.League{}, fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if err != nil {
		return league.League{}, fmt.Errorf("add league member: %w", err)
	}

	s.logger.InfoContext(ctx, "league joined", "league_id", item.ID, "user_id", userID)
	item.JoinCode = ""
	return item, nil
}

func (s *LeagueService) RegenerateJoinCode(ctx context.Context, userID, leagueID string) (string, error) {
	item, _, err := requireAdmin(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return "", err
	}
	if item.Visibility != league.VisibilityPrivate {
		return "", fmt.Errorf("%w: public leagues have no join code", ErrInvalidInput)
	}
	code, err := s.codes.NewJoinCode()
	if err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	if err := s.leagueRepo.UpdateJoinCode(ctx, item.ID, code); err != nil {
		return "", fmt.Errorf("update join code: %w", err)
	}
	return code, nil
}

func (s *LeagueService) ListMembers(ctx context.Context, userID, leagueID string) ([]MemberView, error) {
	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.leagueRepo.ListMembers(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	states, err := s.leagueRepo.ListMemberStates(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list member states: %w", err)
	}
	byes := make(map[string]int, len(states))
	for _, st := range states {
		byes[st.UserID] = st.ByesUsed
	}

	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		out = append(out, MemberView{
			UserID:   m.UserID,
			Role:     m.Role,
			IsOwner:  m.UserID == item.OwnerID,
			ByesUsed: byes[m.UserID],
			JoinedAt: m.JoinedAt,
		})
	}
	return out, nil
}

// SetTeamValues replaces the league's overrides. With UniquePointValues the
// merged set (overrides over defaults) must not repeat a value.
func (s *LeagueService) SetTeamValues(ctx context.Context, userID, leagueID string, values map[string]int) ([]EffectiveTeamValue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.SetTeamValues")
	defer span.End()

	item, _, err := requireAdmin(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return nil, err
	}
	rows := make([]league.TeamValue, 0, len(values))
	for teamID, points := range values {
		rows = append(rows, league.TeamValue{LeagueID: item.ID, TeamID: strings.TrimSpace(teamID), PointsValue: points})
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	if err := s.checkTeamValues(ctx, item, teams, rows); err != nil {
		return nil, err
	}
	if err := s.leagueRepo.ReplaceTeamValues(ctx, item.ID, rows); err != nil {
		return nil, fmt.Errorf("replace team values: %w", err)
	}

	s.logger.InfoContext(ctx, "league team values updated", "league_id", item.ID, "overrides", len(rows))
	return mergeTeamValues(teams, rows), nil
}

func (s *LeagueService) checkTeamValues(ctx context.Context, item league.League, teams []team.Team, rows []league.TeamValue) error {
	if err := league.ValidateTeamValues(rows, false); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(rows) == 0 && !item.UniquePointValues {
		return nil
	}
	if teams == nil {
		var err error
		if teams, err = s.teamRepo.List(ctx); err != nil {
			return fmt.Errorf("list teams: %w", err)
		}
	}
	known := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		known[t.ID] = struct{}{}
	}
	for _, r := range rows {
		if _, ok := known[r.TeamID]; !ok {
			return fmt.Errorf("%w: team=%s", ErrNotFound, r.TeamID)
		}
	}
	if !item.UniquePointValues {
		return nil
	}

	merged := mergeTeamValues(teams, rows)
	effective := make([]league.TeamValue, 0, len(merged))
	for _, m := range merged {
		effective = append(effective, league.TeamValue{TeamID: m.Team.ID, PointsValue: m.Effective})
	}
	if err := league.ValidateTeamValues(effective, true); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// TransferOwnership hands the league to another member; only the owner may do it.
func (s *LeagueService) TransferOwnership(ctx context.Context, userID, leagueID, newOwnerID string) error {
	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return err
	}
	if item.OwnerID != userID {
		return fmt.Errorf("%w: only the owner can transfer ownership", ErrForbidden)
	}
	newOwnerID = strings.TrimSpace(newOwnerID)
	if newOwnerID == "" || newOwnerID == userID {
		return fmt.Errorf("%w: new owner must be another member", ErrInvalidInput)
	}
	if _, exists, err := s.leagueRepo.GetMember(ctx, item.ID, newOwnerID); err != nil {
		return fmt.Errorf("get league member: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: member=%s", ErrNotFound, newOwnerID)
	}
	if err := s.leagueRepo.TransferOwnership(ctx, item.ID, userID, newOwnerID); err != nil {
		return fmt.Errorf("transfer ownership: %w", err)
	}
	s.logger.InfoContext(ctx, "league ownership transferred", "league_id", item.ID, "from", userID, "to", newOwnerID)
	return nil
}

// RemoveMember lets admins remove others and members leave. The owner stays.
func (s *LeagueService) RemoveMember(ctx context.Context, userID, leagueID, targetID string) error {
	item, member, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return err
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		targetID = userID
	}
	if targetID != userID && !item.IsAdmin(member) {
		return fmt.Errorf("%w: league admin required", ErrForbidden)
	}
	if targetID == item.OwnerID {
		return fmt.Errorf("%w: the owner cannot be removed", ErrInvalidInput)
	}
	if _, exists, err := s.leagueRepo.GetMember(ctx, item.ID, targetID); err != nil {
		return fmt.Errorf("get league member: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: member=%s", ErrNotFound, targetID)
	}
	if err := s.leagueRepo.RemoveMember(ctx, item.ID, targetID); err != nil {
		return fmt.Errorf("remove league member: %w", err)
	}
	s.logger.InfoContext(ctx, "league member removed", "league_id", item.ID, "user_id", targetID, "by", userID)
	return nil
}

func (s *LeagueService) ListEffectiveTeamValues(ctx context.Context, userID, leagueID string) ([]EffectiveTeamValue, error) {
	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return nil, err
	}
	return s.values.ListEffective(ctx, item.ID)
}
