package pick

import (
	"fmt"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
)

// MaxSlots is the number of team picks allowed per week.
const MaxSlots = 2

// Selection is either Bye or TeamPick.
type Selection interface {
	isSelection()
}

// Bye marks a week with no team picks.
type Bye struct{}

// TeamPick binds a team to its game for the week in slot 1 or 2.
type TeamPick struct {
	TeamID string
	GameID string
	Slot   int
}

func (Bye) isSelection()      {}
func (TeamPick) isSelection() {}

// WeekKey addresses one member's picks for one week.
type WeekKey struct {
	LeagueID string
	UserID   string
	SeasonID int64
	Week     int
}

func (k WeekKey) Validate() error {
	if k.LeagueID == "" {
		return fmt.Errorf("league id is required")
	}
	if k.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if k.SeasonID <= 0 {
		return fmt.Errorf("season id is required")
	}
	if !game.ValidWeek(k.Week) {
		return fmt.Errorf("week %d must be within %d..%d", k.Week, game.MinWeek, game.MaxWeek)
	}
	return nil
}

func (k WeekKey) String() string {
	return fmt.Sprintf("%s/%s/%d/w%d", k.LeagueID, k.UserID, k.SeasonID, k.Week)
}

type Pick struct {
	ID        string
	LeagueID  string
	UserID    string
	SeasonID  int64
	Week      int
	Selection Selection
	CreatedAt time.Time
}

func (p Pick) Key() WeekKey {
	return WeekKey{LeagueID: p.LeagueID, UserID: p.UserID, SeasonID: p.SeasonID, Week: p.Week}
}

func (p Pick) IsBye() bool {
	_, ok := p.Selection.(Bye)
	return ok
}

func (p Pick) Team() (TeamPick, bool) {
	tp, ok := p.Selection.(TeamPick)
	return tp, ok
}

// TeamID is empty for a bye.
func (p Pick) TeamID() string {
	if tp, ok := p.Team(); ok {
		return tp.TeamID
	}
	return ""
}

func (p Pick) Validate() error {
	if err := p.Key().Validate(); err != nil {
		return err
	}
	switch sel := p.Selection.(type) {
	case Bye:
		return nil
	case TeamPick:
		if sel.TeamID == "" || sel.GameID == "" {
			return fmt.Errorf("team pick requires team and game")
		}
		if sel.Slot < 1 || sel.Slot > MaxSlots {
			return fmt.Errorf("slot %d must be within 1..%d", sel.Slot, MaxSlots)
		}
		return nil
	default:
		return fmt.Errorf("pick has no selection")
	}
}

type Mode string

const (
	ModeBye   Mode = "bye"
	ModeTeams Mode = "teams"
)

// Submission is the desired state for a week as sent by the member.
type Submission struct {
	Mode    Mode
	TeamIDs []string
}

func (s Submission) Validate() error {
	switch s.Mode {
	case ModeBye:
		if len(s.TeamIDs) > 0 {
			return fmt.Errorf("bye submission cannot carry teams")
		}
	case ModeTeams:
		if len(s.TeamIDs) > MaxSlots {
			return fmt.Errorf("at most %d teams per week", MaxSlots)
		}
		seen := make(map[string]struct{}, len(s.TeamIDs))
		for _, id := range s.TeamIDs {
			if id == "" {
				return fmt.Errorf("team id is required")
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: %s", ErrDuplicateTeam, id)
			}
			seen[id] = struct{}{}
		}
	default:
		return fmt.Errorf("invalid submission mode %q", s.Mode)
	}
	return nil
}
