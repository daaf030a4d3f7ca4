package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/league"
)

type LeagueRepository struct {
	store *Store
}

func NewLeagueRepository(store *Store) *LeagueRepository {
	return &LeagueRepository{store: store}
}

func (r *LeagueRepository) Create(_ context.Context, l league.League, owner league.Member, values []league.TeamValue) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.leagues[l.ID]; exists {
		return fmt.Errorf("league %s already exists", l.ID)
	}
	if l.JoinCode != "" {
		for _, other := range s.leagues {
			if other.JoinCode == l.JoinCode {
				return fmt.Errorf("join code %s already in use", l.JoinCode)
			}
		}
	}

	s.leagues[l.ID] = l
	s.leagueOrder = append(s.leagueOrder, l.ID)
	s.members[l.ID] = map[string]league.Member{owner.UserID: owner}
	s.byesUsed[l.ID] = map[string]int{owner.UserID: 0}
	overrides := make(map[string]int, len(values))
	for _, v := range values {
		overrides[v.TeamID] = v.PointsValue
	}
	s.teamValues[l.ID] = overrides
	return nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.leagues[leagueID]
	return item, ok, nil
}

func (r *LeagueRepository) GetByJoinCode(_ context.Context, code string) (league.League, bool, error) {
	code = league.NormalizeJoinCode(code)
	if code == "" {
		return league.League{}, false, nil
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.leagues {
		if item.JoinCode == code {
			return item, true, nil
		}
	}
	return league.League{}, false, nil
}

func (r *LeagueRepository) ListBySeason(_ context.Context, seasonID int64) ([]league.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]league.League, 0)
	for _, id := range r.store.leagueOrder {
		if item := r.store.leagues[id]; item.SeasonID == seasonID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *LeagueRepository) ListByMember(_ context.Context, userID string) ([]league.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]league.League, 0)
	for _, id := range r.store.leagueOrder {
		if _, ok := r.store.members[id][userID]; ok {
			out = append(out, r.store.leagues[id])
		}
	}
	return out, nil
}

func (r *LeagueRepository) UpdateJoinCode(_ context.Context, leagueID, code string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.leagues[leagueID]
	if !ok {
		return fmt.Errorf("league %s not found", leagueID)
	}
	for id, other := range r.store.leagues {
		if id != leagueID && code != "" && other.JoinCode == code {
			return fmt.Errorf("join code %s already in use", code)
		}
	}
	item.JoinCode = code
	r.store.leagues[leagueID] = item
	return nil
}

func (r *LeagueRepository) TransferOwnership(_ context.Context, leagueID, fromUserID, toUserID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.leagues[leagueID]
	if !ok {
		return fmt.Errorf("league %s not found", leagueID)
	}
	members := r.store.members[leagueID]
	from, okFrom := members[fromUserID]
	to, okTo := members[toUserID]
	if !okFrom || !okTo {
		return fmt.Errorf("both users must be members of league %s", leagueID)
	}

	item.OwnerID = toUserID
	from.Role = league.RoleMember
	to.Role = league.RoleAdmin
	r.store.leagues[leagueID] = item
	members[fromUserID] = from
	members[toUserID] = to
	return nil
}

func (r *LeagueRepository) ListMembers(_ context.Context, leagueID string) ([]league.Member, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]league.Member, 0, len(r.store.members[leagueID]))
	for _, m := range r.store.members[leagueID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *LeagueRepository) GetMember(_ context.Context, leagueID, userID string) (league.Member, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.members[leagueID][userID]
	return m, ok, nil
}

func (r *LeagueRepository) AddMember(_ context.Context, m league.Member) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.leagues[m.LeagueID]; !ok {
		return fmt.Errorf("league %s not found", m.LeagueID)
	}
	members := r.store.members[m.LeagueID]
	if members == nil {
		members = make(map[string]league.Member)
		r.store.members[m.LeagueID] = members
	}
	if _, exists := members[m.UserID]; exists {
		return league.ErrAlreadyMember
	}
	members[m.UserID] = m
	if r.store.byesUsed[m.LeagueID] == nil {
		r.store.byesUsed[m.LeagueID] = make(map[string]int)
	}
	r.store.byesUsed[m.LeagueID][m.UserID] = 0
	return nil
}

func (r *LeagueRepository) RemoveMember(_ context.Context, leagueID, userID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members[leagueID], userID)
	delete(s.byesUsed[leagueID], userID)
	for id, p := range s.picks {
		if p.LeagueID == leagueID && p.UserID == userID {
			delete(s.picks, id)
		}
	}
	for k := range s.scores {
		if k.LeagueID == leagueID && k.UserID == userID {
			delete(s.scores, k)
		}
	}
	return nil
}

func (r *LeagueRepository) ListMemberStates(_ context.Context, leagueID string) ([]league.MemberState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]league.MemberState, 0, len(r.store.byesUsed[leagueID]))
	for userID, byes := range r.store.byesUsed[leagueID] {
		out = append(out, league.MemberState{LeagueID: leagueID, UserID: userID, ByesUsed: byes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *LeagueRepository) ListTeamValues(_ context.Context, leagueID string) ([]league.TeamValue, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]league.TeamValue, 0, len(r.store.teamValues[leagueID]))
	for teamID, points := range r.store.teamValues[leagueID] {
		out = append(out, league.TeamValue{LeagueID: leagueID, TeamID: teamID, PointsValue: points})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (r *LeagueRepository) ReplaceTeamValues(_ context.Context, leagueID string, values []league.TeamValue) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.leagues[leagueID]; !ok {
		return fmt.Errorf("league %s not found", leagueID)
	}
	overrides := make(map[string]int, len(values))
	for _, v := range values {
		overrides[v.TeamID] = v.PointsValue
	}
	r.store.teamValues[leagueID] = overrides
	return nil
}
