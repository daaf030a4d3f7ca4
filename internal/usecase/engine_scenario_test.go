package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

const scenarioSeason = 2025

type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) NewID() (string, error) {
	return fmt.Sprintf("id-%03d", g.n.Add(1)), nil
}

type fixedCode string

func (c fixedCode) NewJoinCode() (string, error) {
	return string(c), nil
}

type engineHarness struct {
	t         *testing.T
	now       time.Time
	games     *memory.GameRepository
	seasons   *SeasonService
	values    *TeamValueService
	leagues   *LeagueService
	picks     *PickService
	scoring   *ScoringService
	standings *StandingsService
	leagueID  string
}

func newEngineHarness(t *testing.T) *engineHarness {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, memory.Seed(ctx, store, scenarioSeason))

	logger := logging.NewNop()
	leagueRepo := memory.NewLeagueRepository(store)
	teamRepo := memory.NewTeamRepository(store)
	gameRepo := memory.NewGameRepository(store)
	pickRepo := memory.NewPickRepository(store)
	scoreRepo := memory.NewScoreRepository(store)
	ids := &seqIDs{}

	h := &engineHarness{
		t:     t,
		now:   time.Date(2025, time.October, 5, 15, 0, 0, 0, time.UTC),
		games: gameRepo,
	}
	clock := func() time.Time { return h.now }

	h.seasons = NewSeasonService(memory.NewSeasonRepository(store), 0, logger)
	h.values = NewTeamValueService(teamRepo, leagueRepo)
	h.leagues = NewLeagueService(leagueRepo, teamRepo, h.seasons, h.values, ids, fixedCode("JOIN42"), logger)
	h.leagues.now = clock
	h.picks = NewPickService(leagueRepo, gameRepo, pickRepo, h.seasons, h.values, ids, nil, logger)
	h.picks.now = clock
	h.scoring = NewScoringService(leagueRepo, gameRepo, pickRepo, scoreRepo, h.seasons, h.values, ScoringConfig{Workers: 2}, nil, logger)
	h.scoring.now = clock
	h.standings = NewStandingsService(leagueRepo, gameRepo, pickRepo, scoreRepo, h.values)

	created, err := h.leagues.CreateLeague(ctx, "alice", CreateLeagueInput{Name: "Office Pool", Visibility: league.VisibilityPublic})
	require.NoError(t, err)
	h.leagueID = created.ID
	_, err = h.leagues.JoinLeague(ctx, "bob", JoinLeagueInput{LeagueID: created.ID})
	require.NoError(t, err)
	return h
}

func (h *engineHarness) addGame(id string, week int, home, away string, kickoff time.Time) {
	h.t.Helper()
	require.NoError(h.t, h.games.Upsert(context.Background(), []game.Game{{
		ID:         id,
		SeasonID:   scenarioSeason,
		Week:       week,
		HomeTeamID: home,
		AwayTeamID: away,
		KickoffAt:  kickoff,
		Status:     game.StatusScheduled,
	}}))
}

func (h *engineHarness) finish(id, winner string) {
	h.t.Helper()
	ctx := context.Background()
	g, ok, err := h.games.GetByID(ctx, id)
	require.NoError(h.t, err)
	require.True(h.t, ok)
	g.Status = game.StatusFinal
	g.WinnerTeamID = &winner
	require.NoError(h.t, h.games.Upsert(ctx, []game.Game{g}))
}

func (h *engineHarness) submit(userID string, week int, mode pick.Mode, teams ...string) (SubmitWeekResult, error) {
	return h.picks.SubmitWeek(context.Background(), SubmitWeekInput{
		LeagueID:   h.leagueID,
		UserID:     userID,
		Week:       week,
		Submission: pick.Submission{Mode: mode, TeamIDs: teams},
	})
}

func weekTeams(state pick.WeekState) []string {
	out := make([]string, 0, len(state.Picks))
	for _, p := range state.Picks {
		if p.IsBye() {
			out = append(out, "BYE")
			continue
		}
		out = append(out, p.TeamID())
	}
	return out
}

func TestScenario_LockedPickSurvivesAndScoresWithNewPick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newEngineHarness(t)
	h.addGame("game-a", 5, "NYJ", "MIA", h.now.Add(2*time.Hour))
	h.addGame("game-b", 5, "KC", "BUF", h.now.Add(time.Hour))

	_, err := h.submit("alice", 5, pick.ModeTeams, "KC")
	require.NoError(t, err)

	h.now = h.now.Add(90 * time.Minute)
	res, err := h.submit("alice", 5, pick.ModeTeams, "NYJ")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"KC", "NYJ"}, weekTeams(res.State)); diff != "" {
		t.Fatalf("unexpected week picks (-want +got):\n%s", diff)
	}
	kc, _ := res.State.Picks[0].Team()
	nyj, _ := res.State.Picks[1].Team()
	require.Equal(t, 1, kc.Slot)
	require.Equal(t, 2, nyj.Slot)
	require.Equal(t, "game-a", nyj.GameID)

	h.finish("game-b", "KC")
	h.finish("game-a", "NYJ")

	kcValue, err := h.values.Resolve(ctx, h.leagueID, "KC")
	require.NoError(t, err)
	nyjValue, err := h.values.Resolve(ctx, h.leagueID, "NYJ")
	require.NoError(t, err)

	got, err := h.scoring.GetScore(ctx, h.leagueID, "alice", 5)
	require.NoError(t, err)
	require.Equal(t, kcValue+nyjValue, got.Points)
	require.Equal(t, ScoreSourceLive, got.Source)
}

func TestScenario_LockedPickCannotBeReplaced(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t)
	h.addGame("game-a", 5, "NYJ", "MIA", h.now.Add(2*time.Hour))
	h.addGame("game-b", 5, "KC", "BUF", h.now.Add(time.Hour))

	_, err := h.submit("alice", 5, pick.ModeTeams, "KC", "NYJ")
	require.NoError(t, err)
	h.now = h.now.Add(90 * time.Minute)

	res, err := h.submit("alice", 5, pick.ModeTeams, "BUF", "MIA")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"KC", "MIA"}, weekTeams(res.State)); diff != "" {
		t.Fatalf("unexpected week picks (-want +got):\n%s", diff)
	}
	require.Len(t, res.Skipped, 1)
	require.Equal(t, pick.SkippedTeam{TeamID: "BUF", Reason: pick.SkipGameLocked}, res.Skipped[0])

	_, err = h.submit("alice", 5, pick.ModeBye)
	require.ErrorIs(t, err, pick.ErrNoEditableCapacity)
}

func TestScenario_TeamCannotBeReusedInSeason(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t)
	h.addGame("w5", 5, "KC", "BUF", h.now.Add(time.Hour))
	h.addGame("w6", 6, "KC", "DEN", h.now.Add(7*24*time.Hour))

	_, err := h.submit("alice", 5, pick.ModeTeams, "KC")
	require.NoError(t, err)

	_, err = h.submit("alice", 6, pick.ModeTeams, "KC")
	require.ErrorIs(t, err, pick.ErrTeamAlreadyUsedThisSeason)

	// Other members keep their own ledger.
	_, err = h.submit("bob", 6, pick.ModeTeams, "KC")
	require.NoError(t, err)

	// Week 6 of alice is untouched by the failed attempt.
	state, err := h.picks.GetWeekState(context.Background(), WeekInput{LeagueID: h.leagueID, UserID: "alice", Week: 6})
	require.NoError(t, err)
	require.Empty(t, state.State.Picks)
}

func TestScenario_ByeBudget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newEngineHarness(t)
	for week := 1; week <= pick.MaxByes; week++ {
		res, err := h.submit("alice", week, pick.ModeBye)
		require.NoError(t, err)
		require.Equal(t, week, res.ByesUsed)
	}

	_, err := h.submit("alice", 5, pick.ModeBye)
	require.ErrorIs(t, err, pick.ErrByeCapExceeded)

	byes, err := h.picks.GetByesUsed(ctx, h.leagueID, "alice")
	require.NoError(t, err)
	require.Equal(t, pick.MaxByes, byes)

	// Resubmitting an existing bye changes nothing.
	res, err := h.submit("alice", 2, pick.ModeBye)
	require.NoError(t, err)
	require.Equal(t, pick.MaxByes, res.ByesUsed)

	// Switching a bye week to a team returns the bye.
	h.addGame("w3", 3, "DAL", "NYG", h.now.Add(time.Hour))
	res, err = h.submit("alice", 3, pick.ModeTeams, "DAL")
	require.NoError(t, err)
	require.Equal(t, pick.MaxByes-1, res.ByesUsed)
	if diff := cmp.Diff([]string{"DAL"}, weekTeams(res.State)); diff != "" {
		t.Fatalf("unexpected week picks (-want +got):\n%s", diff)
	}
}

func TestScenario_OverrideValueWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newEngineHarness(t)

	def, err := h.values.Resolve(ctx, h.leagueID, "HOU")
	require.NoError(t, err)
	require.Equal(t, 12, def)

	_, err = h.leagues.SetTeamValues(ctx, "alice", h.leagueID, map[string]int{"HOU": 30})
	require.NoError(t, err)

	h.addGame("w7", 7, "HOU", "TEN", h.now.Add(time.Hour))
	h.addGame("w7b", 7, "LV", "DEN", h.now.Add(time.Hour))
	_, err = h.submit("bob", 7, pick.ModeTeams, "HOU", "LV")
	require.NoError(t, err)
	h.finish("w7", "HOU")
	h.finish("w7b", "DEN")

	got, err := h.scoring.ComputeLive(ctx, h.leagueID, "bob", 7)
	require.NoError(t, err)
	require.Equal(t, 30, got)
}

func TestScenario_PersistIsIdempotentAndWinsOverLive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newEngineHarness(t)
	h.addGame("w4", 4, "PHI", "DET", h.now.Add(time.Hour))
	_, err := h.submit("alice", 4, pick.ModeTeams, "PHI")
	require.NoError(t, err)
	h.finish("w4", "PHI")

	first, err := h.scoring.PersistWeek(ctx, h.leagueID, "alice", 4)
	require.NoError(t, err)
	second, err := h.scoring.PersistWeek(ctx, h.leagueID, "alice", 4)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("persist is not idempotent (-first +second):\n%s", diff)
	}

	// A late correction changes the live value but not the persisted one.
	h.finish("w4", "DET")
	live, err := h.scoring.ComputeLive(ctx, h.leagueID, "alice", 4)
	require.NoError(t, err)
	require.Zero(t, live)

	got, err := h.scoring.GetScore(ctx, h.leagueID, "alice", 4)
	require.NoError(t, err)
	require.Equal(t, first.Points, got.Points)
	require.Equal(t, ScoreSourcePersisted, got.Source)

	_, err = h.scoring.PersistWeek(ctx, h.leagueID, "alice", 4)
	require.NoError(t, err)
	got, err = h.scoring.GetScore(ctx, h.leagueID, "alice", 4)
	require.NoError(t, err)
	require.Zero(t, got.Points)
}

func TestScenario_StandingsListEveryMember(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newEngineHarness(t)
	h.addGame("w1", 1, "SF", "ARI", h.now.Add(time.Hour))
	_, err := h.submit("bob", 1, pick.ModeTeams, "ARI")
	require.NoError(t, err)
	h.finish("w1", "ARI")

	rows, err := h.standings.ComputeStandings(ctx, h.leagueID, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "bob", rows[0].UserID)
	require.Equal(t, 1, rows[0].Rank)
	require.Equal(t, 1, rows[0].Wins)
	require.Equal(t, "alice", rows[1].UserID)
	require.Equal(t, 2, rows[1].Rank)
	require.Zero(t, rows[1].TotalPoints)

	res, err := h.scoring.PersistFinalWeeks(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Tasks)
	require.Equal(t, 2, res.Persisted)
}

func TestScenario_StandingsTiesShareDenseRank(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newEngineHarness(t)
	_, err := h.leagues.JoinLeague(ctx, "carol", JoinLeagueInput{LeagueID: h.leagueID})
	require.NoError(t, err)
	_, err = h.leagues.JoinLeague(ctx, "aaron", JoinLeagueInput{LeagueID: h.leagueID})
	require.NoError(t, err)

	h.addGame("w1", 1, "SF", "ARI", h.now.Add(time.Hour))
	for _, userID := range []string{"carol", "bob", "alice"} {
		_, err := h.submit(userID, 1, pick.ModeTeams, "ARI")
		require.NoError(t, err)
	}
	_, err = h.submit("aaron", 1, pick.ModeTeams, "SF")
	require.NoError(t, err)
	h.finish("w1", "ARI")

	rows, err := h.standings.ComputeStandings(ctx, h.leagueID, "alice")
	require.NoError(t, err)

	type row struct {
		UserID string
		Rank   int
	}
	got := make([]row, 0, len(rows))
	for _, r := range rows {
		got = append(got, row{UserID: r.UserID, Rank: r.Rank})
	}
	want := []row{{"alice", 1}, {"bob", 1}, {"carol", 1}, {"aaron", 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("standings mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, rows[0].TotalPoints, rows[2].TotalPoints)
	require.Positive(t, rows[0].TotalPoints)
	require.Zero(t, rows[3].TotalPoints)
}

func TestScenario_NonMemberIsForbidden(t *testing.T) {
	t.Parallel()

	h := newEngineHarness(t)
	_, err := h.submit("mallory", 1, pick.ModeBye)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestScenario_NoActiveSeason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, memory.Seed(ctx, store, 0))
	leagueRepo := memory.NewLeagueRepository(store)
	teamRepo := memory.NewTeamRepository(store)
	seasons := NewSeasonService(memory.NewSeasonRepository(store), 0, logging.NewNop())
	svc := NewLeagueService(leagueRepo, teamRepo, seasons, NewTeamValueService(teamRepo, leagueRepo), nil, nil, logging.NewNop())

	_, err := svc.CreateLeague(ctx, "alice", CreateLeagueInput{Name: "Nope"})
	if !errors.Is(err, ErrSeasonNotResolved) {
		t.Fatalf("expected ErrSeasonNotResolved, got %v", err)
	}
}
