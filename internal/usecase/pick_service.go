package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/id"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

type WeekInput struct {
	LeagueID string
	UserID   string
	Week     int
}

type WeekStateResult struct {
	State    pick.WeekState
	Games    []game.Game
	ByesUsed int
}

type SubmitWeekInput struct {
	LeagueID   string
	UserID     string
	Week       int
	Submission pick.Submission
}

type SubmitWeekResult struct {
	State    pick.WeekState
	ByesUsed int
	Skipped  []pick.SkippedTeam
}

type RemainingTeam struct {
	TeamID      string `json:"team_id"`
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	PointsValue int    `json:"points_value"`
}

// PickService is the pick ledger. Lock state is always derived from kickoff
// times at call time.
type PickService struct {
	leagueRepo league.Repository
	gameRepo   game.Repository
	pickRepo   pick.Repository
	seasons    *SeasonService
	values     *TeamValueService
	ids        id.Generator
	metrics    MetricsRecorder
	logger     *logging.Logger
	now        func() time.Time
}

func NewPickService(
	leagueRepo league.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	seasons *SeasonService,
	values *TeamValueService,
	ids id.Generator,
	metrics MetricsRecorder,
	logger *logging.Logger,
) *PickService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PickService{
		leagueRepo: leagueRepo,
		gameRepo:   gameRepo,
		pickRepo:   pickRepo,
		seasons:    seasons,
		values:     values,
		ids:        ids,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *PickService) GetWeekState(ctx context.Context, in WeekInput) (WeekStateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.GetWeekState",
		attribute.String("league_id", in.LeagueID), attribute.Int("week", in.Week))
	defer span.End()

	if err := validateWeek(in.Week); err != nil {
		return WeekStateResult{}, err
	}
	item, _, err := requireMember(ctx, s.leagueRepo, in.LeagueID, in.UserID)
	if err != nil {
		return WeekStateResult{}, err
	}

	key := pick.WeekKey{LeagueID: item.ID, UserID: in.UserID, SeasonID: item.SeasonID, Week: in.Week}
	picks, err := s.pickRepo.ListByWeek(ctx, key)
	if err != nil {
		return WeekStateResult{}, fmt.Errorf("list week picks: %w", err)
	}
	weekGames, err := s.gameRepo.ListBySeasonWeek(ctx, item.SeasonID, in.Week)
	if err != nil {
		return WeekStateResult{}, fmt.Errorf("list week games: %w", err)
	}
	games, err := s.gameIndex(ctx, weekGames, picks)
	if err != nil {
		return WeekStateResult{}, err
	}
	byes, err := s.pickRepo.GetByesUsed(ctx, item.ID, in.UserID)
	if err != nil {
		return WeekStateResult{}, fmt.Errorf("get byes used: %w", err)
	}

	return WeekStateResult{
		State:    pick.BuildWeekState(key, picks, games, s.now()),
		Games:    weekGames,
		ByesUsed: byes,
	}, nil
}

// SubmitWeek replaces the member's unlocked picks for a week. Every read that
// feeds validation happens inside the week transaction, so a stale client view
// cannot bypass the lock, bye or reuse rules.
func (s *PickService) SubmitWeek(ctx context.Context, in SubmitWeekInput) (SubmitWeekResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.SubmitWeek",
		attribute.String("league_id", in.LeagueID), attribute.Int("week", in.Week), attribute.String("mode", string(in.Submission.Mode)))
	defer span.End()

	result, err := s.submitWeek(ctx, in)
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, pick.ErrByeCapExceeded):
		outcome = "bye_cap_exceeded"
	case errors.Is(err, pick.ErrTeamAlreadyUsedThisSeason):
		outcome = "team_already_used"
	case errors.Is(err, pick.ErrNoEditableCapacity):
		outcome = "no_capacity"
	case errors.Is(err, pick.ErrInvalidTeamForGame):
		outcome = "invalid_team"
	default:
		outcome = "error"
	}
	s.metrics.PickSubmitted(string(in.Submission.Mode), outcome)
	recordSpanError(span, err)
	return result, err
}

func (s *PickService) submitWeek(ctx context.Context, in SubmitWeekInput) (SubmitWeekResult, error) {
	if err := validateWeek(in.Week); err != nil {
		return SubmitWeekResult{}, err
	}
	in.Submission.TeamIDs = trimAll(in.Submission.TeamIDs)
	if err := in.Submission.Validate(); err != nil {
		return SubmitWeekResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	item, _, err := requireMember(ctx, s.leagueRepo, in.LeagueID, in.UserID)
	if err != nil {
		return SubmitWeekResult{}, err
	}
	current, err := s.seasons.Current(ctx)
	if err != nil {
		return SubmitWeekResult{}, err
	}
	if item.SeasonID != current.ID {
		return SubmitWeekResult{}, fmt.Errorf("%w: league season %d is not the current season %d", ErrInvalidInput, item.SeasonID, current.ID)
	}

	key := pick.WeekKey{LeagueID: item.ID, UserID: in.UserID, SeasonID: current.ID, Week: in.Week}
	weekGames, err := s.gameRepo.ListBySeasonWeek(ctx, key.SeasonID, key.Week)
	if err != nil {
		return SubmitWeekResult{}, fmt.Errorf("list week games: %w", err)
	}

	var result SubmitWeekResult
	err = s.pickRepo.WithWeekTx(ctx, key, func(tx pick.WeekTx) error {
		existing, err := tx.ListWeek(ctx)
		if err != nil {
			return fmt.Errorf("list week picks: %w", err)
		}
		seasonPicks, err := tx.ListSeason(ctx)
		if err != nil {
			return fmt.Errorf("list season picks: %w", err)
		}
		byes, err := tx.ByesUsed(ctx)
		if err != nil {
			return fmt.Errorf("get byes used: %w", err)
		}
		games, err := s.gameIndex(ctx, weekGames, existing)
		if err != nil {
			return err
		}

		now := s.now()
		plan, err := pick.PlanWeek(pick.PlanInput{
			State:      pick.BuildWeekState(key, existing, games, now),
			WeekGames:  weekGames,
			UsedTeams:  pick.UsedTeams(seasonPicks, key.Week),
			ByesUsed:   byes,
			Submission: in.Submission,
			Now:        now,
		})
		if err != nil {
			return err
		}

		for i := range plan.Insert {
			pickID, err := s.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate pick id: %w", err)
			}
			plan.Insert[i].ID = pickID
		}

		if len(plan.Delete) > 0 {
			deleteIDs := make([]string, 0, len(plan.Delete))
			for _, p := range plan.Delete {
				deleteIDs = append(deleteIDs, p.ID)
			}
			if err := tx.Delete(ctx, deleteIDs); err != nil {
				return fmt.Errorf("delete unlocked picks: %w", err)
			}
		}
		if len(plan.Insert) > 0 {
			if err := tx.Insert(ctx, plan.Insert); err != nil {
				return fmt.Errorf("insert picks: %w", err)
			}
		}
		if plan.ByeDelta != 0 {
			byes, err = tx.AdjustByes(ctx, plan.ByeDelta)
			if err != nil {
				return fmt.Errorf("adjust byes used: %w", err)
			}
		}

		remaining := applyPlan(existing, plan)
		result = SubmitWeekResult{
			State:    pick.BuildWeekState(key, remaining, games, now),
			ByesUsed: byes,
			Skipped:  plan.Skipped,
		}
		return nil
	})
	if err != nil {
		return SubmitWeekResult{}, err
	}

	s.logger.InfoContext(ctx, "week picks submitted",
		"league_id", key.LeagueID,
		"user_id", key.UserID,
		"week", key.Week,
		"mode", in.Submission.Mode,
		"picks", len(result.State.Picks),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func (s *PickService) GetByesUsed(ctx context.Context, leagueID, userID string) (int, error) {
	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return 0, err
	}
	byes, err := s.pickRepo.GetByesUsed(ctx, item.ID, userID)
	if err != nil {
		return 0, fmt.Errorf("get byes used: %w", err)
	}
	return byes, nil
}

// LockStartedGames advances kicked-off games to live. Pick locking itself is
// derived from kickoff time, so this only feeds downstream readers.
func (s *PickService) LockStartedGames(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.LockStartedGames")
	defer span.End()

	changed, err := s.gameRepo.MarkStarted(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark started games: %w", err)
	}
	s.metrics.GamesLocked(changed)
	return changed, nil
}

// ListTeamsRemaining lists teams the member has not picked this season,
// highest value first.
func (s *PickService) ListTeamsRemaining(ctx context.Context, leagueID, userID string) ([]RemainingTeam, error) {
	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return nil, err
	}
	picks, err := s.pickRepo.ListByUserSeason(ctx, item.ID, userID, item.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("list season picks: %w", err)
	}
	used := pick.UsedTeams(picks, 0)

	values, err := s.values.ListEffective(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	out := make([]RemainingTeam, 0, len(values))
	for _, v := range values {
		if _, ok := used[v.Team.ID]; ok {
			continue
		}
		out = append(out, RemainingTeam{
			TeamID:      v.Team.ID,
			Code:        v.Team.Code,
			DisplayName: v.Team.DisplayName,
			PointsValue: v.Effective,
		})
	}
	return out, nil
}

// gameIndex indexes the week's games plus any game referenced by a pick that
// has since moved weeks. Picks on games that no longer exist stay unresolved.
func (s *PickService) gameIndex(ctx context.Context, weekGames []game.Game, picks []pick.Pick) (map[string]game.Game, error) {
	games := indexGames(weekGames)
	var missing []string
	for _, p := range picks {
		if tp, ok := p.Team(); ok {
			if _, found := games[tp.GameID]; !found {
				missing = append(missing, tp.GameID)
			}
		}
	}
	if len(missing) == 0 {
		return games, nil
	}
	extra, err := s.gameRepo.ListByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("list pick games: %w", err)
	}
	for _, g := range extra {
		games[g.ID] = g
	}
	return games, nil
}

func applyPlan(existing []pick.Pick, plan pick.Plan) []pick.Pick {
	deleted := make(map[string]struct{}, len(plan.Delete))
	for _, p := range plan.Delete {
		deleted[p.ID] = struct{}{}
	}
	out := make([]pick.Pick, 0, len(existing)+len(plan.Insert))
	for _, p := range existing {
		if _, gone := deleted[p.ID]; !gone {
			out = append(out, p)
		}
	}
	out = append(out, plan.Insert...)
	sortWeekPicks(out)
	return out
}

// sortWeekPicks orders byes first, then team picks by slot.
func sortWeekPicks(picks []pick.Pick) {
	sort.SliceStable(picks, func(i, j int) bool {
		ti, iTeam := picks[i].Team()
		tj, jTeam := picks[j].Team()
		if iTeam != jTeam {
			return !iTeam
		}
		return ti.Slot < tj.Slot
	})
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
