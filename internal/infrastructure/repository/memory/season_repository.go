package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/season"
)

type SeasonRepository struct {
	store *Store
}

func NewSeasonRepository(store *Store) *SeasonRepository {
	return &SeasonRepository{store: store}
}

func (r *SeasonRepository) List(_ context.Context) ([]season.Season, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]season.Season, 0, len(r.store.seasons))
	for _, item := range r.store.seasons {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *SeasonRepository) GetByID(_ context.Context, seasonID int64) (season.Season, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.seasons[seasonID]
	return item, ok, nil
}

func (r *SeasonRepository) Upsert(_ context.Context, item season.Season) error {
	if err := item.Validate(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.seasons[item.ID] = item
	return nil
}
