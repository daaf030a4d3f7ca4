package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/score"
)

type ScoreRepository struct {
	store *Store
}

func NewScoreRepository(store *Store) *ScoreRepository {
	return &ScoreRepository{store: store}
}

func (r *ScoreRepository) Get(_ context.Context, key score.Key) (score.Score, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.scores[key]
	return item, ok, nil
}

func (r *ScoreRepository) ListByLeagueSeason(_ context.Context, leagueID string, seasonID int64) ([]score.Score, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]score.Score, 0)
	for k, item := range r.store.scores {
		if k.LeagueID == leagueID && k.SeasonID == seasonID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Week < out[j].Week
	})
	return out, nil
}

func (r *ScoreRepository) Upsert(_ context.Context, scores []score.Score) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range scores {
		r.store.scores[item.Key()] = item
	}
	return nil
}
