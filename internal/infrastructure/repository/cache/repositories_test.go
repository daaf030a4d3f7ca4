package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	"github.com/riskibarqy/nfl-pick-two/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/nfl-pick-two/internal/platform/cache"
)

type countingTeamRepo struct {
	team.Repository
	lists int
}

func (r *countingTeamRepo) List(ctx context.Context) ([]team.Team, error) {
	r.lists++
	return r.Repository.List(ctx)
}

func TestTeamRepository_CachesAndInvalidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	if err := memory.Seed(ctx, store, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	next := &countingTeamRepo{Repository: memory.NewTeamRepository(store)}
	repo := NewTeamRepository(next, basecache.NewStore(time.Minute))

	for range 3 {
		items, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("list teams: %v", err)
		}
		if len(items) != 32 {
			t.Fatalf("unexpected team count: %d", len(items))
		}
	}
	if next.lists != 1 {
		t.Fatalf("expected one backend call, got %d", next.lists)
	}

	if err := repo.UpdateDefaultPoints(ctx, "KC", 9); err != nil {
		t.Fatalf("update default points: %v", err)
	}
	item, ok, err := repo.GetByCode(ctx, "kc")
	if err != nil || !ok {
		t.Fatalf("get by code: ok=%v err=%v", ok, err)
	}
	if item.DefaultPointsValue != 9 {
		t.Fatalf("stale team after update: %d", item.DefaultPointsValue)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if next.lists != 2 {
		t.Fatalf("list was not invalidated, backend calls=%d", next.lists)
	}
}

func TestLeagueRepository_TeamValuesInvalidateOnReplace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	backend := memory.NewLeagueRepository(store)
	err := backend.Create(ctx, league.League{ID: "lg", Name: "L", Visibility: league.VisibilityPublic, OwnerID: "u", SeasonID: 1},
		league.Member{LeagueID: "lg", UserID: "u", Role: league.RoleAdmin}, nil)
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	repo := NewLeagueRepository(backend, basecache.NewStore(time.Minute))

	if items, _ := repo.ListTeamValues(ctx, "lg"); len(items) != 0 {
		t.Fatalf("expected no overrides, got %+v", items)
	}
	if err := repo.ReplaceTeamValues(ctx, "lg", []league.TeamValue{{LeagueID: "lg", TeamID: "KC", PointsValue: 30}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	items, err := repo.ListTeamValues(ctx, "lg")
	if err != nil {
		t.Fatalf("list team values: %v", err)
	}
	if len(items) != 1 || items[0].PointsValue != 30 {
		t.Fatalf("stale overrides: %+v", items)
	}
}
