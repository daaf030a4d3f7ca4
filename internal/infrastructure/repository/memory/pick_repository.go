package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
)

type PickRepository struct {
	store *Store
}

func NewPickRepository(store *Store) *PickRepository {
	return &PickRepository{store: store}
}

func (r *PickRepository) ListByWeek(_ context.Context, key pick.WeekKey) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool {
		return p.LeagueID == key.LeagueID && p.UserID == key.UserID && p.SeasonID == key.SeasonID && p.Week == key.Week
	}), nil
}

func (r *PickRepository) ListByUserSeason(_ context.Context, leagueID, userID string, seasonID int64) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool {
		return p.LeagueID == leagueID && p.UserID == userID && p.SeasonID == seasonID
	}), nil
}

func (r *PickRepository) ListByLeagueSeason(_ context.Context, leagueID string, seasonID int64) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool {
		return p.LeagueID == leagueID && p.SeasonID == seasonID
	}), nil
}

func (r *PickRepository) GetByesUsed(_ context.Context, leagueID, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.byesUsed[leagueID][userID], nil
}

func (r *PickRepository) filter(keep func(pick.Pick) bool) []pick.Pick {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]pick.Pick, 0)
	for _, p := range r.store.picks {
		if keep(p) {
			out = append(out, p)
		}
	}
	sortPicks(out)
	return out
}

// WithWeekTx holds the member lock for the whole callback. Reads see the
// committed store plus the staged writes of this transaction.
func (r *PickRepository) WithWeekTx(ctx context.Context, key pick.WeekKey, fn func(tx pick.WeekTx) error) error {
	if err := key.Validate(); err != nil {
		return err
	}
	lock := r.store.memberLock(key.LeagueID, key.UserID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.RLock()
	_, isMember := r.store.members[key.LeagueID][key.UserID]
	byes := r.store.byesUsed[key.LeagueID][key.UserID]
	r.store.mu.RUnlock()
	if !isMember {
		return fmt.Errorf("user %s is not a member of league %s", key.UserID, key.LeagueID)
	}

	tx := &weekTx{
		repo:     r,
		key:      key,
		deleted:  make(map[string]struct{}),
		byesUsed: byes,
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func sortPicks(items []pick.Pick) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Week != items[j].Week {
			return items[i].Week < items[j].Week
		}
		si, sj := slotOf(items[i]), slotOf(items[j])
		if si != sj {
			return si < sj
		}
		return items[i].ID < items[j].ID
	})
}

func slotOf(p pick.Pick) int {
	if tp, ok := p.Team(); ok {
		return tp.Slot
	}
	return 0
}

type weekTx struct {
	repo     *PickRepository
	key      pick.WeekKey
	deleted  map[string]struct{}
	inserted []pick.Pick
	byesUsed int
}

func (tx *weekTx) visible(keep func(pick.Pick) bool) []pick.Pick {
	committed := tx.repo.filter(keep)
	out := make([]pick.Pick, 0, len(committed)+len(tx.inserted))
	for _, p := range committed {
		if _, gone := tx.deleted[p.ID]; !gone {
			out = append(out, p)
		}
	}
	for _, p := range tx.inserted {
		if keep(p) {
			out = append(out, p)
		}
	}
	sortPicks(out)
	return out
}

func (tx *weekTx) ListWeek(_ context.Context) ([]pick.Pick, error) {
	k := tx.key
	return tx.visible(func(p pick.Pick) bool {
		return p.LeagueID == k.LeagueID && p.UserID == k.UserID && p.SeasonID == k.SeasonID && p.Week == k.Week
	}), nil
}

func (tx *weekTx) ListSeason(_ context.Context) ([]pick.Pick, error) {
	k := tx.key
	return tx.visible(func(p pick.Pick) bool {
		return p.LeagueID == k.LeagueID && p.UserID == k.UserID && p.SeasonID == k.SeasonID
	}), nil
}

func (tx *weekTx) ByesUsed(_ context.Context) (int, error) {
	return tx.byesUsed, nil
}

func (tx *weekTx) Delete(_ context.Context, pickIDs []string) error {
	for _, id := range pickIDs {
		tx.deleted[id] = struct{}{}
	}
	kept := tx.inserted[:0]
	for _, p := range tx.inserted {
		if _, gone := tx.deleted[p.ID]; !gone {
			kept = append(kept, p)
		}
	}
	tx.inserted = kept
	return nil
}

func (tx *weekTx) Insert(_ context.Context, picks []pick.Pick) error {
	for _, p := range picks {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.Key() != tx.key {
			return fmt.Errorf("pick %s does not belong to %s", p.ID, tx.key)
		}
	}
	tx.inserted = append(tx.inserted, picks...)
	return nil
}

func (tx *weekTx) AdjustByes(_ context.Context, delta int) (int, error) {
	tx.byesUsed = min(max(tx.byesUsed+delta, 0), pick.MaxByes)
	return tx.byesUsed, nil
}

// commit checks uniqueness against the committed store the way the SQL
// constraints would, then applies every staged write at once.
func (tx *weekTx) commit() error {
	s := tx.repo.store
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]pick.Pick)
	for id, p := range s.picks {
		if p.LeagueID != tx.key.LeagueID || p.UserID != tx.key.UserID || p.SeasonID != tx.key.SeasonID {
			continue
		}
		if _, gone := tx.deleted[id]; !gone {
			next[id] = p
		}
	}
	for _, p := range tx.inserted {
		if _, exists := next[p.ID]; exists {
			return fmt.Errorf("pick %s already exists", p.ID)
		}
		next[p.ID] = p
	}
	if err := checkPickConstraints(next); err != nil {
		return err
	}

	for id := range tx.deleted {
		delete(s.picks, id)
	}
	for _, p := range tx.inserted {
		s.picks[p.ID] = p
	}
	if s.byesUsed[tx.key.LeagueID] == nil {
		s.byesUsed[tx.key.LeagueID] = make(map[string]int)
	}
	s.byesUsed[tx.key.LeagueID][tx.key.UserID] = tx.byesUsed
	return nil
}

// checkPickConstraints mirrors the unique indexes of the picks table for one
// member's season.
func checkPickConstraints(picks map[string]pick.Pick) error {
	teams := make(map[string]int)
	slots := make(map[[2]int]struct{})
	byes := make(map[int]struct{})
	for _, p := range picks {
		if p.IsBye() {
			if _, dup := byes[p.Week]; dup {
				return fmt.Errorf("week %d has more than one bye", p.Week)
			}
			byes[p.Week] = struct{}{}
			continue
		}
		tp, _ := p.Team()
		if week, dup := teams[tp.TeamID]; dup {
			return fmt.Errorf("team %s picked in weeks %d and %d", tp.TeamID, week, p.Week)
		}
		teams[tp.TeamID] = p.Week
		slot := [2]int{p.Week, tp.Slot}
		if _, dup := slots[slot]; dup {
			return fmt.Errorf("week %d slot %d taken twice", p.Week, tp.Slot)
		}
		slots[slot] = struct{}{}
	}
	for week := range byes {
		if _, clash := slots[[2]int{week, 1}]; clash {
			return fmt.Errorf("week %d mixes a bye with team picks", week)
		}
		if _, clash := slots[[2]int{week, 2}]; clash {
			return fmt.Errorf("week %d mixes a bye with team picks", week)
		}
	}
	return nil
}
