package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
)

type TeamRepository struct {
	store *Store
}

func NewTeamRepository(store *Store) *TeamRepository {
	return &TeamRepository{store: store}
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]team.Team, 0, len(r.store.teams))
	for _, item := range r.store.teams {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.teams[teamID]
	return item, ok, nil
}

func (r *TeamRepository) GetByCode(_ context.Context, code string) (team.Team, bool, error) {
	code = team.NormalizeCode(code)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.teams {
		if team.NormalizeCode(item.Code) == code {
			return item, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) UpdateDefaultPoints(_ context.Context, teamID string, points int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.teams[teamID]
	if !ok {
		return fmt.Errorf("team %s not found", teamID)
	}
	item.DefaultPointsValue = points
	r.store.teams[teamID] = item
	return nil
}
