package memory

import (
	"context"
	"testing"
)

func TestSeedTeams(t *testing.T) {
	t.Parallel()

	teams, err := SeedTeams()
	if err != nil {
		t.Fatalf("seed teams: %v", err)
	}
	if len(teams) != 32 {
		t.Fatalf("expected 32 teams, got %d", len(teams))
	}
	seen := make(map[string]struct{}, len(teams))
	for _, item := range teams {
		if _, dup := seen[item.ID]; dup {
			t.Fatalf("duplicate team id %s", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
}

func TestSeed_LoadsSeason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	if err := Seed(ctx, store, 2025); err != nil {
		t.Fatalf("seed: %v", err)
	}
	item, ok, err := NewTeamRepository(store).GetByCode(ctx, "kc")
	if err != nil || !ok {
		t.Fatalf("team KC missing: ok=%v err=%v", ok, err)
	}
	if item.DefaultPointsValue != 1 {
		t.Fatalf("unexpected KC default: %d", item.DefaultPointsValue)
	}
	seasons, _ := NewSeasonRepository(store).List(ctx)
	if len(seasons) != 1 || !seasons[0].IsActive {
		t.Fatalf("unexpected seasons: %+v", seasons)
	}
}
