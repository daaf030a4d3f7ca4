package memory

import (
	"context"
	"sort"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
)

type GameRepository struct {
	store *Store
}

func NewGameRepository(store *Store) *GameRepository {
	return &GameRepository{store: store}
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.games[gameID]
	if !ok {
		return game.Game{}, false, nil
	}
	return cloneGame(item), true, nil
}

func (r *GameRepository) ListByIDs(_ context.Context, gameIDs []string) ([]game.Game, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]game.Game, 0, len(gameIDs))
	seen := make(map[string]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := r.store.games[id]; ok {
			out = append(out, cloneGame(item))
		}
	}
	sortGames(out)
	return out, nil
}

func (r *GameRepository) ListBySeasonWeek(_ context.Context, seasonID int64, week int) ([]game.Game, error) {
	return r.filter(func(g game.Game) bool { return g.SeasonID == seasonID && g.Week == week }), nil
}

func (r *GameRepository) ListBySeason(_ context.Context, seasonID int64) ([]game.Game, error) {
	return r.filter(func(g game.Game) bool { return g.SeasonID == seasonID }), nil
}

func (r *GameRepository) filter(keep func(game.Game) bool) []game.Game {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.store.games {
		if keep(item) {
			out = append(out, cloneGame(item))
		}
	}
	sortGames(out)
	return out
}

func (r *GameRepository) Upsert(_ context.Context, games []game.Game) error {
	for _, g := range games {
		if err := g.Validate(); err != nil {
			return err
		}
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, g := range games {
		r.store.games[g.ID] = cloneGame(g)
	}
	return nil
}

func (r *GameRepository) MarkStarted(_ context.Context, now time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	changed := 0
	for id, g := range r.store.games {
		if g.Status != game.StatusScheduled || g.KickoffAt.After(now) {
			continue
		}
		g.Status = game.StatusLive
		r.store.games[id] = g
		changed++
	}
	return changed, nil
}

func sortGames(items []game.Game) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Week != items[j].Week {
			return items[i].Week < items[j].Week
		}
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].ID < items[j].ID
	})
}
