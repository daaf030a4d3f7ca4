package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

type stubFeed struct {
	weeks map[int][]game.FeedRecord
	calls []int
	err   error
}

func (f *stubFeed) FetchWeek(_ context.Context, _ int, week int) ([]game.FeedRecord, error) {
	f.calls = append(f.calls, week)
	if f.err != nil {
		return nil, f.err
	}
	return f.weeks[week], nil
}

func newFeedFixture(t *testing.T, feed GameFeed) (*GameFeedService, *memory.GameRepository) {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, memory.Seed(ctx, store, 2025))
	games := memory.NewGameRepository(store)
	seasons := NewSeasonService(memory.NewSeasonRepository(store), 0, logging.NewNop())
	svc := NewGameFeedService(feed, games, memory.NewTeamRepository(store), seasons, GameFeedConfig{}, nil, logging.NewNop())
	return svc, games
}

func TestGameFeedService_IngestRaw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, games := newFeedFixture(t, nil)

	raw := []map[string]any{
		{
			"id": "401", "season": 2025, "week": 3,
			"home_code": "kc", "away_code": "BUF",
			"kickoff_ts": "2025-09-21T20:25:00Z", "status": "FT",
			"home_score": 27, "away_score": 20,
		},
		{
			"id": "402", "season": 2025, "week": 3,
			"home_code": "XXX", "away_code": "BUF",
			"kickoff_ts": "2025-09-21T20:25:00Z",
		},
		{
			"id": "403", "season": 2024, "week": 3,
			"home_code": "DAL", "away_code": "NYG",
			"kickoff_ts": "2024-09-21T20:25:00Z",
		},
		{"id": "404", "week": 3},
	}

	res, err := svc.IngestRaw(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, 4, res.Received)
	require.Equal(t, 1, res.Upserted)
	require.Equal(t, 3, res.Skipped)

	got, ok, err := games.GetByID(ctx, "401")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, game.StatusFinal, got.Status)
	require.NotNil(t, got.WinnerTeamID)
	require.Equal(t, "KC", *got.WinnerTeamID)
}

func TestGameFeedService_SyncSeasonWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	feed := &stubFeed{weeks: map[int][]game.FeedRecord{
		1: {{
			GameID: "g1", SeasonYear: 2025, Week: 1, HomeCode: "PHI", AwayCode: "DAL",
			KickoffAt: time.Date(2025, time.September, 5, 0, 20, 0, 0, time.UTC), Status: game.StatusScheduled,
		}},
	}}
	svc, games := newFeedFixture(t, feed)

	svc.now = func() time.Time { return time.Date(2025, time.September, 1, 4, 0, 0, 0, time.UTC) }
	res, err := svc.SyncSeason(ctx, SyncGamesInput{})
	require.NoError(t, err)
	require.True(t, res.OutsideWindow)
	require.Empty(t, feed.calls)

	res, err = svc.SyncSeason(ctx, SyncGamesInput{Force: true})
	require.NoError(t, err)
	require.Len(t, feed.calls, game.MaxWeek)
	require.Equal(t, 1, res.Upserted)

	// With games stored only the active week and the one before it are refreshed.
	feed.calls = nil
	svc.now = func() time.Time { return time.Date(2025, time.September, 1, 14, 0, 0, 0, time.UTC) }
	res, err = svc.SyncSeason(ctx, SyncGamesInput{})
	require.NoError(t, err)
	require.Equal(t, []int{1}, feed.calls)
	require.Equal(t, []int{1}, res.Weeks)

	stored, err := games.ListBySeason(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestGameFeedService_SyncSeasonFeedError(t *testing.T) {
	t.Parallel()

	svc, _ := newFeedFixture(t, &stubFeed{err: errors.New("upstream down")})
	_, err := svc.SyncSeason(context.Background(), SyncGamesInput{Force: true})
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestWeeksToRefresh(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		{Week: 3, Status: game.StatusFinal},
		{Week: 4, Status: game.StatusFinal},
		{Week: 5, Status: game.StatusScheduled},
		{Week: 6, Status: game.StatusScheduled},
	}
	require.Equal(t, []int{4, 5}, weeksToRefresh(games))

	allFinal := []game.Game{{Week: 17, Status: game.StatusFinal}, {Week: 18, Status: game.StatusFinal}}
	require.Equal(t, []int{18}, weeksToRefresh(allFinal))
}
