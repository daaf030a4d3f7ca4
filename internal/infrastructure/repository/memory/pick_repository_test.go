package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
)

func newPickFixture(t *testing.T) (*Store, *PickRepository, pick.WeekKey) {
	t.Helper()

	store := NewStore()
	leagues := NewLeagueRepository(store)
	err := leagues.Create(context.Background(), league.League{
		ID:         "lg-1",
		Name:       "Office",
		Visibility: league.VisibilityPublic,
		OwnerID:    "u-1",
		SeasonID:   2025,
	}, league.Member{LeagueID: "lg-1", UserID: "u-1", Role: league.RoleAdmin}, nil)
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	return store, NewPickRepository(store), pick.WeekKey{LeagueID: "lg-1", UserID: "u-1", SeasonID: 2025, Week: 3}
}

func teamPick(id string, key pick.WeekKey, teamID, gameID string, slot int) pick.Pick {
	return pick.Pick{
		ID:        id,
		LeagueID:  key.LeagueID,
		UserID:    key.UserID,
		SeasonID:  key.SeasonID,
		Week:      key.Week,
		Selection: pick.TeamPick{TeamID: teamID, GameID: gameID, Slot: slot},
		CreatedAt: time.Unix(1_750_000_000, 0).UTC(),
	}
}

func TestWithWeekTx_CommitsStagedWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, repo, key := newPickFixture(t)

	err := repo.WithWeekTx(ctx, key, func(tx pick.WeekTx) error {
		if err := tx.Insert(ctx, []pick.Pick{teamPick("p1", key, "KC", "g1", 1)}); err != nil {
			return err
		}
		staged, err := tx.ListWeek(ctx)
		if err != nil {
			return err
		}
		if len(staged) != 1 {
			t.Errorf("staged insert not visible inside tx: %d", len(staged))
		}
		committed, _ := repo.ListByWeek(ctx, key)
		if len(committed) != 0 {
			t.Errorf("insert visible before commit")
		}
		_, err = tx.AdjustByes(ctx, 1)
		return err
	})
	if err != nil {
		t.Fatalf("week tx: %v", err)
	}

	got, _ := repo.ListByWeek(ctx, key)
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("unexpected committed picks: %+v", got)
	}
	byes, _ := repo.GetByesUsed(ctx, key.LeagueID, key.UserID)
	if byes != 1 {
		t.Fatalf("unexpected byes: %d", byes)
	}
}

func TestWithWeekTx_RollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, repo, key := newPickFixture(t)
	boom := errors.New("boom")

	err := repo.WithWeekTx(ctx, key, func(tx pick.WeekTx) error {
		if err := tx.Insert(ctx, []pick.Pick{teamPick("p1", key, "KC", "g1", 1)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	got, _ := repo.ListByWeek(ctx, key)
	if len(got) != 0 {
		t.Fatalf("rolled back tx left picks behind: %+v", got)
	}
}

func TestWithWeekTx_RejectsTeamReuseAcrossWeeks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, repo, key := newPickFixture(t)
	if err := repo.WithWeekTx(ctx, key, func(tx pick.WeekTx) error {
		return tx.Insert(ctx, []pick.Pick{teamPick("p1", key, "KC", "g1", 1)})
	}); err != nil {
		t.Fatalf("seed pick: %v", err)
	}

	next := key
	next.Week = 4
	err := repo.WithWeekTx(ctx, next, func(tx pick.WeekTx) error {
		return tx.Insert(ctx, []pick.Pick{teamPick("p2", next, "KC", "g9", 1)})
	})
	if err == nil {
		t.Fatalf("expected constraint violation")
	}
}

func TestWithWeekTx_AdjustByesIsClamped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, repo, key := newPickFixture(t)
	err := repo.WithWeekTx(ctx, key, func(tx pick.WeekTx) error {
		if n, _ := tx.AdjustByes(ctx, -1); n != 0 {
			t.Errorf("byes floor: got %d", n)
		}
		if n, _ := tx.AdjustByes(ctx, 10); n != pick.MaxByes {
			t.Errorf("byes cap: got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("week tx: %v", err)
	}
}

func TestRemoveMember_CascadesPicks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, repo, key := newPickFixture(t)
	if err := repo.WithWeekTx(ctx, key, func(tx pick.WeekTx) error {
		return tx.Insert(ctx, []pick.Pick{teamPick("p1", key, "KC", "g1", 1)})
	}); err != nil {
		t.Fatalf("seed pick: %v", err)
	}

	if err := NewLeagueRepository(store).RemoveMember(ctx, key.LeagueID, key.UserID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	got, _ := repo.ListByUserSeason(ctx, key.LeagueID, key.UserID, key.SeasonID)
	if len(got) != 0 {
		t.Fatalf("picks survived member removal: %+v", got)
	}
}
