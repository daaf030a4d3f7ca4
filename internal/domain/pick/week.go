package pick

import (
	"fmt"
	"slices"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
)

// MaxByes is the per-season bye budget of a league member.
const MaxByes = 4

// WeekState is the lock-aware view of one member's week. The read endpoint and
// PlanWeek both derive it from BuildWeekState so they never disagree.
type WeekState struct {
	Key              WeekKey
	Picks            []Pick
	Locked           []Pick
	HasBye           bool
	EditableCapacity int
}

// BuildWeekState classifies picks against games. A team pick whose game is
// unknown counts as locked.
func BuildWeekState(key WeekKey, picks []Pick, games map[string]game.Game, now time.Time) WeekState {
	state := WeekState{Key: key, Picks: picks}
	for _, p := range picks {
		if p.IsBye() {
			state.HasBye = true
			continue
		}
		if isLocked(p, games, now) {
			state.Locked = append(state.Locked, p)
		}
	}

	state.EditableCapacity = MaxSlots - len(state.Locked)
	if state.HasBye {
		state.EditableCapacity--
	}
	state.EditableCapacity = max(state.EditableCapacity, 0)
	return state
}

func isLocked(p Pick, games map[string]game.Game, now time.Time) bool {
	tp, ok := p.Team()
	if !ok {
		return false
	}
	g, ok := games[tp.GameID]
	if !ok {
		return true
	}
	return g.IsLocked(now)
}

// IsLocked reports whether p is in the locked set.
func (s WeekState) IsLocked(p Pick) bool {
	return slices.ContainsFunc(s.Locked, func(l Pick) bool { return l.ID == p.ID })
}

// Unlocked returns every pick that a submission may replace, bye included.
func (s WeekState) Unlocked() []Pick {
	out := make([]Pick, 0, len(s.Picks))
	for _, p := range s.Picks {
		if !s.IsLocked(p) {
			out = append(out, p)
		}
	}
	return out
}

// PlanInput carries everything PlanWeek needs, all read in the same transaction.
type PlanInput struct {
	State      WeekState
	WeekGames  []game.Game
	UsedTeams  map[string]int // team id -> week, for team picks in other weeks of the season
	ByesUsed   int
	Submission Submission
	Now        time.Time
}

type SkipReason string

const (
	SkipGameLocked    SkipReason = "game_locked"
	SkipAlreadyLocked SkipReason = "already_locked"
	SkipNoCapacity    SkipReason = "no_capacity"
)

type SkippedTeam struct {
	TeamID string
	Reason SkipReason
}

// Plan is the change set for one submission. Apply Delete before Insert.
type Plan struct {
	Delete   []Pick
	Insert   []Pick
	ByeDelta int
	Skipped  []SkippedTeam
}

func (p Plan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Insert) == 0 && p.ByeDelta == 0
}

// PlanWeek validates a submission against the week state and returns the writes
// that move the week to the requested shape. Locked picks are never touched.
// New picks carry no ID.
func PlanWeek(in PlanInput) (Plan, error) {
	if err := in.Submission.Validate(); err != nil {
		return Plan{}, err
	}
	switch in.Submission.Mode {
	case ModeBye:
		return planBye(in)
	default:
		return planTeams(in)
	}
}

func planBye(in PlanInput) (Plan, error) {
	st := in.State
	if st.HasBye {
		// Re-submitting a bye keeps the existing one.
		return Plan{}, nil
	}
	if len(st.Locked) > 0 {
		return Plan{}, fmt.Errorf("%w: a bye cannot join a locked team pick", ErrNoEditableCapacity)
	}
	if st.EditableCapacity <= 0 {
		return Plan{}, ErrNoEditableCapacity
	}
	if in.ByesUsed >= MaxByes {
		return Plan{}, fmt.Errorf("%w: %d of %d used", ErrByeCapExceeded, in.ByesUsed, MaxByes)
	}

	return Plan{
		Delete:   st.Unlocked(),
		Insert:   []Pick{newPick(st.Key, Bye{}, in.Now)},
		ByeDelta: 1,
	}, nil
}

func planTeams(in PlanInput) (Plan, error) {
	st := in.State
	plan := Plan{Delete: st.Unlocked()}
	if st.HasBye {
		plan.ByeDelta = -1
	}

	lockedTeams := make(map[string]struct{}, len(st.Locked))
	takenSlots := make(map[int]struct{}, len(st.Locked))
	for _, p := range st.Locked {
		tp, _ := p.Team()
		lockedTeams[tp.TeamID] = struct{}{}
		takenSlots[tp.Slot] = struct{}{}
	}

	type candidate struct {
		teamID string
		gameID string
	}
	candidates := make([]candidate, 0, len(in.Submission.TeamIDs))
	for _, teamID := range in.Submission.TeamIDs {
		if _, ok := lockedTeams[teamID]; ok {
			plan.Skipped = append(plan.Skipped, SkippedTeam{TeamID: teamID, Reason: SkipAlreadyLocked})
			continue
		}
		if week, used := in.UsedTeams[teamID]; used && week != st.Key.Week {
			return Plan{}, fmt.Errorf("%w: %s in week %d", ErrTeamAlreadyUsedThisSeason, teamID, week)
		}
		g, ok := game.TeamGame(in.WeekGames, teamID)
		if !ok {
			return Plan{}, fmt.Errorf("%w: %s in week %d", ErrInvalidTeamForGame, teamID, st.Key.Week)
		}
		if g.IsLocked(in.Now) {
			plan.Skipped = append(plan.Skipped, SkippedTeam{TeamID: teamID, Reason: SkipGameLocked})
			continue
		}
		candidates = append(candidates, candidate{teamID: teamID, gameID: g.ID})
	}

	if len(candidates) > 0 && st.EditableCapacity == 0 {
		return Plan{}, ErrNoEditableCapacity
	}

	for i, c := range candidates {
		if i >= st.EditableCapacity {
			plan.Skipped = append(plan.Skipped, SkippedTeam{TeamID: c.teamID, Reason: SkipNoCapacity})
			continue
		}
		slot := lowestFreeSlot(takenSlots)
		if slot == 0 {
			plan.Skipped = append(plan.Skipped, SkippedTeam{TeamID: c.teamID, Reason: SkipNoCapacity})
			continue
		}
		takenSlots[slot] = struct{}{}
		plan.Insert = append(plan.Insert, newPick(st.Key, TeamPick{TeamID: c.teamID, GameID: c.gameID, Slot: slot}, in.Now))
	}

	return plan, nil
}

func lowestFreeSlot(taken map[int]struct{}) int {
	for slot := 1; slot <= MaxSlots; slot++ {
		if _, ok := taken[slot]; !ok {
			return slot
		}
	}
	return 0
}

func newPick(key WeekKey, sel Selection, now time.Time) Pick {
	return Pick{
		LeagueID:  key.LeagueID,
		UserID:    key.UserID,
		SeasonID:  key.SeasonID,
		Week:      key.Week,
		Selection: sel,
		CreatedAt: now,
	}
}

// UsedTeams maps team ids from season picks to the week they were used,
// excluding the given week.
func UsedTeams(seasonPicks []Pick, exceptWeek int) map[string]int {
	out := make(map[string]int)
	for _, p := range seasonPicks {
		if p.Week == exceptWeek {
			continue
		}
		if tp, ok := p.Team(); ok {
			out[tp.TeamID] = p.Week
		}
	}
	return out
}
