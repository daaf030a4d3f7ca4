package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/score"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

type ScoreSource string

const (
	ScoreSourcePersisted ScoreSource = "persisted"
	ScoreSourceLive      ScoreSource = "live"
)

type ScoreResult struct {
	LeagueID string      `json:"league_id"`
	UserID   string      `json:"user_id"`
	Week     int         `json:"week"`
	Points   int         `json:"points"`
	Source   ScoreSource `json:"source"`
}

type PickBreakdown struct {
	TeamID       string      `json:"team_id,omitempty"`
	GameID       string      `json:"game_id,omitempty"`
	Slot         int         `json:"slot,omitempty"`
	Result       pick.Result `json:"result"`
	PointsValue  int         `json:"points_value"`
	PointsEarned int         `json:"points_earned"`
}

type WeekBreakdown struct {
	Week   int             `json:"week"`
	IsBye  bool            `json:"is_bye"`
	Points int             `json:"points"`
	Picks  []PickBreakdown `json:"picks"`
}

type PersistWeeksResult struct {
	Leagues   int `json:"leagues"`
	Tasks     int `json:"tasks"`
	Persisted int `json:"persisted"`
	Failed    int `json:"failed"`
}

type ScoringConfig struct {
	// Workers bounds concurrent (league, week) recomputations in PersistFinalWeeks.
	Workers int
}

// ScoringService computes weekly points from picks, games and team values.
// Persisted scores are a cache that takes precedence when present.
type ScoringService struct {
	leagueRepo league.Repository
	gameRepo   game.Repository
	pickRepo   pick.Repository
	scoreRepo  score.Repository
	seasons    *SeasonService
	values     *TeamValueService
	cfg        ScoringConfig
	metrics    MetricsRecorder
	logger     *logging.Logger
	now        func() time.Time
}

func NewScoringService(
	leagueRepo league.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	scoreRepo score.Repository,
	seasons *SeasonService,
	values *TeamValueService,
	cfg ScoringConfig,
	metrics MetricsRecorder,
	logger *logging.Logger,
) *ScoringService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		leagueRepo: leagueRepo,
		gameRepo:   gameRepo,
		pickRepo:   pickRepo,
		scoreRepo:  scoreRepo,
		seasons:    seasons,
		values:     values,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// ComputeLive sums the values of winning picks on final games. Pending or
// unknown games contribute nothing.
func (s *ScoringService) ComputeLive(ctx context.Context, leagueID, userID string, week int) (int, error) {
	breakdown, err := s.WeekBreakdown(ctx, leagueID, userID, week)
	if err != nil {
		return 0, err
	}
	return breakdown.Points, nil
}

// PersistWeek stores the live result, overwriting any earlier row.
func (s *ScoringService) PersistWeek(ctx context.Context, leagueID, userID string, week int) (score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.PersistWeek",
		attribute.String("league_id", leagueID), attribute.Int("week", week))
	defer span.End()

	item, err := loadLeague(ctx, s.leagueRepo, leagueID)
	if err != nil {
		return score.Score{}, err
	}
	points, err := s.ComputeLive(ctx, item.ID, userID, week)
	if err != nil {
		return score.Score{}, err
	}
	row := score.Score{
		LeagueID:     item.ID,
		UserID:       userID,
		SeasonID:     item.SeasonID,
		Week:         week,
		Points:       points,
		CalculatedAt: s.now().UTC(),
	}
	if err := s.scoreRepo.Upsert(ctx, []score.Score{row}); err != nil {
		return score.Score{}, fmt.Errorf("upsert score: %w", err)
	}
	s.metrics.ScoresPersisted(1)
	return row, nil
}

// GetScore prefers the persisted row and falls back to the live computation.
func (s *ScoringService) GetScore(ctx context.Context, leagueID, userID string, week int) (ScoreResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.GetScore")
	defer span.End()

	if err := validateWeek(week); err != nil {
		return ScoreResult{}, err
	}
	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return ScoreResult{}, err
	}

	row, exists, err := s.scoreRepo.Get(ctx, score.Key{LeagueID: item.ID, UserID: userID, SeasonID: item.SeasonID, Week: week})
	if err != nil {
		return ScoreResult{}, fmt.Errorf("get score: %w", err)
	}
	if exists {
		return ScoreResult{LeagueID: item.ID, UserID: userID, Week: week, Points: row.Points, Source: ScoreSourcePersisted}, nil
	}

	points, err := s.ComputeLive(ctx, item.ID, userID, week)
	if err != nil {
		return ScoreResult{}, err
	}
	return ScoreResult{LeagueID: item.ID, UserID: userID, Week: week, Points: points, Source: ScoreSourceLive}, nil
}

// WeekBreakdown grades every pick of a member's week. Non-members get ErrForbidden.
func (s *ScoringService) WeekBreakdown(ctx context.Context, leagueID, userID string, week int) (WeekBreakdown, error) {
	if err := validateWeek(week); err != nil {
		return WeekBreakdown{}, err
	}
	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return WeekBreakdown{}, err
	}

	picks, err := s.pickRepo.ListByWeek(ctx, pick.WeekKey{LeagueID: item.ID, UserID: userID, SeasonID: item.SeasonID, Week: week})
	if err != nil {
		return WeekBreakdown{}, fmt.Errorf("list week picks: %w", err)
	}
	games, err := s.gamesForPicks(ctx, picks)
	if err != nil {
		return WeekBreakdown{}, err
	}
	values, err := s.values.ResolveAll(ctx, item.ID)
	if err != nil {
		return WeekBreakdown{}, err
	}
	return gradeWeek(week, picks, games, values), nil
}

// PersistLeagueWeek recomputes and stores one week for every member of a league.
func (s *ScoringService) PersistLeagueWeek(ctx context.Context, leagueID string, week int) (int, error) {
	if err := validateWeek(week); err != nil {
		return 0, err
	}
	item, err := loadLeague(ctx, s.leagueRepo, leagueID)
	if err != nil {
		return 0, err
	}
	seasonGames, err := s.gameRepo.ListBySeason(ctx, item.SeasonID)
	if err != nil {
		return 0, fmt.Errorf("list season games: %w", err)
	}
	return s.persistLeagueWeek(ctx, item, week, indexGames(seasonGames))
}

func (s *ScoringService) persistLeagueWeek(ctx context.Context, item league.League, week int, games map[string]game.Game) (int, error) {
	members, err := s.leagueRepo.ListMembers(ctx, item.ID)
	if err != nil {
		return 0, fmt.Errorf("list league members: %w", err)
	}
	picks, err := s.pickRepo.ListByLeagueSeason(ctx, item.ID, item.SeasonID)
	if err != nil {
		return 0, fmt.Errorf("list league picks: %w", err)
	}
	values, err := s.values.ResolveAll(ctx, item.ID)
	if err != nil {
		return 0, err
	}

	byUser := make(map[string][]pick.Pick, len(members))
	for _, p := range picks {
		if p.Week == week {
			byUser[p.UserID] = append(byUser[p.UserID], p)
		}
	}

	now := s.now().UTC()
	rows := make([]score.Score, 0, len(members))
	for _, m := range members {
		graded := gradeWeek(week, byUser[m.UserID], games, values)
		rows = append(rows, score.Score{
			LeagueID:     item.ID,
			UserID:       m.UserID,
			SeasonID:     item.SeasonID,
			Week:         week,
			Points:       graded.Points,
			CalculatedAt: now,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.scoreRepo.Upsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert scores league=%s week=%d: %w", item.ID, week, err)
	}
	s.metrics.ScoresPersisted(len(rows))
	return len(rows), nil
}

type persistTask struct {
	league league.League
	week   int
}

// PersistFinalWeeks recomputes every (league, week) of the current season that
// has at least one final game. Safe to rerun; rows are overwritten.
func (s *ScoringService) PersistFinalWeeks(ctx context.Context) (PersistWeeksResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.PersistFinalWeeks")
	defer span.End()

	current, err := s.seasons.Current(ctx)
	if err != nil {
		return PersistWeeksResult{}, err
	}
	leagues, err := s.leagueRepo.ListBySeason(ctx, current.ID)
	if err != nil {
		return PersistWeeksResult{}, fmt.Errorf("list season leagues: %w", err)
	}
	seasonGames, err := s.gameRepo.ListBySeason(ctx, current.ID)
	if err != nil {
		return PersistWeeksResult{}, fmt.Errorf("list season games: %w", err)
	}
	weeks := finalWeeks(seasonGames)
	games := indexGames(seasonGames)

	tasks := make([]persistTask, 0, len(leagues)*len(weeks))
	for _, item := range leagues {
		for _, week := range weeks {
			tasks = append(tasks, persistTask{league: item, week: week})
		}
	}
	result := PersistWeeksResult{Leagues: len(leagues), Tasks: len(tasks)}
	if len(tasks) == 0 {
		return result, nil
	}

	workerCount := min(s.cfg.Workers, len(tasks))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return PersistWeeksResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		persisted atomic.Int64
		failed    atomic.Int64
		workers   sync.WaitGroup
	)
	for _, task := range tasks {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			n, err := s.persistLeagueWeek(ctx, task.league, task.week, games)
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "persist league week failed",
					"league_id", task.league.ID,
					"week", task.week,
					"error", err,
				)
				return
			}
			persisted.Add(int64(n))
		}); err != nil {
			workers.Done()
			workers.Wait()
			return PersistWeeksResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	result.Persisted = int(persisted.Load())
	result.Failed = int(failed.Load())
	if result.Failed > 0 {
		return result, fmt.Errorf("%w: %d of %d league weeks failed to persist", ErrDependencyUnavailable, result.Failed, result.Tasks)
	}
	return result, nil
}

func (s *ScoringService) gamesForPicks(ctx context.Context, picks []pick.Pick) (map[string]game.Game, error) {
	gameIDs := make([]string, 0, len(picks))
	for _, p := range picks {
		if tp, ok := p.Team(); ok {
			gameIDs = append(gameIDs, tp.GameID)
		}
	}
	if len(gameIDs) == 0 {
		return map[string]game.Game{}, nil
	}
	items, err := s.gameRepo.ListByIDs(ctx, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("list pick games: %w", err)
	}
	return indexGames(items), nil
}

// gradeWeek is the scoring rule shared by the live path, the batch and standings.
func gradeWeek(week int, picks []pick.Pick, games map[string]game.Game, values map[string]int) WeekBreakdown {
	out := WeekBreakdown{Week: week, Picks: make([]PickBreakdown, 0, len(picks))}
	sorted := append([]pick.Pick(nil), picks...)
	sortWeekPicks(sorted)
	for _, p := range sorted {
		tp, isTeam := p.Team()
		if !isTeam {
			out.IsBye = true
			out.Picks = append(out.Picks, PickBreakdown{Result: pick.ResultBye})
			continue
		}
		g, found := games[tp.GameID]
		row := PickBreakdown{
			TeamID:      tp.TeamID,
			GameID:      tp.GameID,
			Slot:        tp.Slot,
			Result:      pick.Outcome(p, g, found),
			PointsValue: values[tp.TeamID],
		}
		if row.Result == pick.ResultWin {
			row.PointsEarned = row.PointsValue
			out.Points += row.PointsValue
		}
		out.Picks = append(out.Picks, row)
	}
	return out
}

func finalWeeks(games []game.Game) []int {
	seen := make(map[int]struct{})
	for _, g := range games {
		if g.IsFinal() {
			seen[g.Week] = struct{}{}
		}
	}
	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}
