package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/score"
)

type WeekPoints struct {
	Week       int `json:"week"`
	Points     int `json:"points"`
	Cumulative int `json:"cumulative"`
}

type Standing struct {
	UserID      string       `json:"user_id"`
	Role        league.Role  `json:"role"`
	TotalPoints int          `json:"total_points"`
	Wins        int          `json:"wins"`
	Losses      int          `json:"losses"`
	ByesUsed    int          `json:"byes_used"`
	Rank        int          `json:"rank"`
	Weekly      []WeekPoints `json:"weekly"`
}

type HistoryWeek struct {
	WeekBreakdown
	Source ScoreSource `json:"source"`
}

type PickHistory struct {
	UserID      string        `json:"user_id"`
	TotalPoints int           `json:"total_points"`
	Wins        int           `json:"wins"`
	Losses      int           `json:"losses"`
	Pending     int           `json:"pending"`
	WinRate     float64       `json:"win_rate"`
	ByesUsed    int           `json:"byes_used"`
	BestWeek    *WeekPoints   `json:"best_week,omitempty"`
	WorstWeek   *WeekPoints   `json:"worst_week,omitempty"`
	UsedTeams   []string      `json:"used_teams"`
	Weeks       []HistoryWeek `json:"weeks"`
}

// StandingsService derives league tables on demand. It stores nothing.
type StandingsService struct {
	leagueRepo league.Repository
	gameRepo   game.Repository
	pickRepo   pick.Repository
	scoreRepo  score.Repository
	values     *TeamValueService
}

func NewStandingsService(
	leagueRepo league.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	scoreRepo score.Repository,
	values *TeamValueService,
) *StandingsService {
	return &StandingsService{
		leagueRepo: leagueRepo,
		gameRepo:   gameRepo,
		pickRepo:   pickRepo,
		scoreRepo:  scoreRepo,
		values:     values,
	}
}

type leagueSnapshot struct {
	league  league.League
	members []league.Member
	states  map[string]int
	picks   map[string][]pick.Pick
	scores  map[score.Key]score.Score
	games   map[string]game.Game
	values  map[string]int
}

func (s *StandingsService) snapshot(ctx context.Context, item league.League) (leagueSnapshot, error) {
	snap := leagueSnapshot{league: item}
	var (
		picks  []pick.Pick
		scores []score.Score
		games  []game.Game
		states []league.MemberState
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		if snap.members, err = s.leagueRepo.ListMembers(ctx, item.ID); err != nil {
			return fmt.Errorf("list league members: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		if states, err = s.leagueRepo.ListMemberStates(ctx, item.ID); err != nil {
			return fmt.Errorf("list member states: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		if picks, err = s.pickRepo.ListByLeagueSeason(ctx, item.ID, item.SeasonID); err != nil {
			return fmt.Errorf("list league picks: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		if scores, err = s.scoreRepo.ListByLeagueSeason(ctx, item.ID, item.SeasonID); err != nil {
			return fmt.Errorf("list league scores: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		if games, err = s.gameRepo.ListBySeason(ctx, item.SeasonID); err != nil {
			return fmt.Errorf("list season games: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		snap.values, err = s.values.ResolveAll(ctx, item.ID)
		return err
	})
	if err := p.Wait(); err != nil {
		return leagueSnapshot{}, err
	}

	snap.states = make(map[string]int, len(states))
	for _, st := range states {
		snap.states[st.UserID] = st.ByesUsed
	}
	snap.picks = make(map[string][]pick.Pick)
	for _, pk := range picks {
		snap.picks[pk.UserID] = append(snap.picks[pk.UserID], pk)
	}
	snap.scores = make(map[score.Key]score.Score, len(scores))
	for _, sc := range scores {
		snap.scores[sc.Key()] = sc
	}
	snap.games = indexGames(games)
	return snap, nil
}

// memberWeeks grades every week the member has picks or a persisted score in.
// Persisted points win over the live grade for the week total.
func (snap leagueSnapshot) memberWeeks(userID string) []HistoryWeek {
	byWeek := make(map[int][]pick.Pick)
	for _, p := range snap.picks[userID] {
		byWeek[p.Week] = append(byWeek[p.Week], p)
	}
	for key := range snap.scores {
		if key.UserID == userID {
			if _, ok := byWeek[key.Week]; !ok {
				byWeek[key.Week] = nil
			}
		}
	}

	weeks := make([]int, 0, len(byWeek))
	for w := range byWeek {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	out := make([]HistoryWeek, 0, len(weeks))
	for _, w := range weeks {
		row := HistoryWeek{WeekBreakdown: gradeWeek(w, byWeek[w], snap.games, snap.values), Source: ScoreSourceLive}
		key := score.Key{LeagueID: snap.league.ID, UserID: userID, SeasonID: snap.league.SeasonID, Week: w}
		if persisted, ok := snap.scores[key]; ok {
			row.Points = persisted.Points
			row.Source = ScoreSourcePersisted
		}
		out = append(out, row)
	}
	return out
}

// ComputeStandings lists every member, including those without picks.
// Rank is dense by total points; equal totals share a rank and are listed by user id.
func (s *StandingsService) ComputeStandings(ctx context.Context, leagueID, userID string) ([]Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.ComputeStandings")
	defer span.End()

	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, userID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, item)
	if err != nil {
		return nil, err
	}

	out := make([]Standing, 0, len(snap.members))
	for _, m := range snap.members {
		row := Standing{UserID: m.UserID, Role: m.Role, ByesUsed: snap.states[m.UserID], Weekly: []WeekPoints{}}
		for _, w := range snap.memberWeeks(m.UserID) {
			row.TotalPoints += w.Points
			row.Weekly = append(row.Weekly, WeekPoints{Week: w.Week, Points: w.Points, Cumulative: row.TotalPoints})
			for _, p := range w.Picks {
				switch p.Result {
				case pick.ResultWin:
					row.Wins++
				case pick.ResultLoss:
					row.Losses++
				}
			}
		}
		out = append(out, row)
	}

	rankStandings(out)
	return out, nil
}

func rankStandings(rows []Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		return rows[i].UserID < rows[j].UserID
	})
	rank := 0
	for i := range rows {
		if i == 0 || rows[i].TotalPoints != rows[i-1].TotalPoints {
			rank++
		}
		rows[i].Rank = rank
	}
}

// PickHistory summarizes a member's season. Any league member may view another
// member's history.
func (s *StandingsService) PickHistory(ctx context.Context, leagueID, viewerID, userID string) (PickHistory, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.PickHistory")
	defer span.End()

	item, _, err := requireMember(ctx, s.leagueRepo, leagueID, viewerID)
	if err != nil {
		return PickHistory{}, err
	}
	if userID == "" {
		userID = viewerID
	}
	if _, exists, err := s.leagueRepo.GetMember(ctx, item.ID, userID); err != nil {
		return PickHistory{}, fmt.Errorf("get league member: %w", err)
	} else if !exists {
		return PickHistory{}, fmt.Errorf("%w: member=%s", ErrNotFound, userID)
	}

	snap, err := s.snapshot(ctx, item)
	if err != nil {
		return PickHistory{}, err
	}

	out := PickHistory{UserID: userID, ByesUsed: snap.states[userID], UsedTeams: []string{}}
	out.Weeks = snap.memberWeeks(userID)
	for _, w := range out.Weeks {
		out.TotalPoints += w.Points
		for _, p := range w.Picks {
			switch p.Result {
			case pick.ResultWin:
				out.Wins++
			case pick.ResultLoss:
				out.Losses++
			case pick.ResultPending:
				out.Pending++
			}
			if p.TeamID != "" {
				out.UsedTeams = append(out.UsedTeams, p.TeamID)
			}
		}
		if w.IsBye {
			continue
		}
		wp := WeekPoints{Week: w.Week, Points: w.Points, Cumulative: out.TotalPoints}
		if out.BestWeek == nil || wp.Points > out.BestWeek.Points {
			best := wp
			out.BestWeek = &best
		}
		if out.WorstWeek == nil || wp.Points < out.WorstWeek.Points {
			worst := wp
			out.WorstWeek = &worst
		}
	}
	if decided := out.Wins + out.Losses; decided > 0 {
		out.WinRate = float64(out.Wins) / float64(decided)
	}
	return out, nil
}
