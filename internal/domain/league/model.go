package league

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
)

const MaxNameLength = 50

var (
	ErrAlreadyMember       = errors.New("user is already a league member")
	ErrDuplicatePointValue = errors.New("point value used by more than one team")
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// League groups members competing in one season. Private leagues are joined
// by code; UniquePointValues makes every team value distinct within the league.
type League struct {
	ID                string
	Name              string
	Description       string
	Visibility        Visibility
	OwnerID           string
	SeasonID          int64
	JoinCode          string
	UniquePointValues bool
	CreatedAt         time.Time
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return fmt.Errorf("league name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("league name must be at most %d characters", MaxNameLength)
	}
	if l.OwnerID == "" {
		return fmt.Errorf("league owner is required")
	}
	if l.SeasonID <= 0 {
		return fmt.Errorf("league season is required")
	}
	switch l.Visibility {
	case VisibilityPublic:
		if l.JoinCode != "" {
			return fmt.Errorf("public league cannot have a join code")
		}
	case VisibilityPrivate:
		if l.JoinCode == "" {
			return fmt.Errorf("private league requires a join code")
		}
	default:
		return fmt.Errorf("invalid league visibility %q", l.Visibility)
	}
	return nil
}

// NormalizeJoinCode trims and upper-cases user input.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Member struct {
	LeagueID string
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// IsAdmin treats the owner as admin regardless of the stored role.
func (l League) IsAdmin(m Member) bool {
	return m.UserID == l.OwnerID || m.Role == RoleAdmin
}

// MemberState tracks per-member counters; ByesUsed mirrors the member's bye picks.
type MemberState struct {
	LeagueID string
	UserID   string
	ByesUsed int
}

// TeamValue overrides a team's default point value within one league.
type TeamValue struct {
	LeagueID    string
	TeamID      string
	PointsValue int
}

// ValidateTeamValues checks the 1..32 range and, when unique is set, that no
// two teams share a value. Values are checked as given, not merged with defaults.
func ValidateTeamValues(values []TeamValue, unique bool) error {
	seenTeam := make(map[string]struct{}, len(values))
	seenValue := make(map[int]string, len(values))
	for _, v := range values {
		if v.TeamID == "" {
			return fmt.Errorf("team id is required")
		}
		if !team.ValidPointsValue(v.PointsValue) {
			return fmt.Errorf("points value %d for %s must be within %d..%d", v.PointsValue, v.TeamID, team.MinPointsValue, team.MaxPointsValue)
		}
		if _, dup := seenTeam[v.TeamID]; dup {
			return fmt.Errorf("team %s listed twice", v.TeamID)
		}
		seenTeam[v.TeamID] = struct{}{}
		if !unique {
			continue
		}
		if other, dup := seenValue[v.PointsValue]; dup {
			return fmt.Errorf("%w: %d (%s, %s)", ErrDuplicatePointValue, v.PointsValue, other, v.TeamID)
		}
		seenValue[v.PointsValue] = v.TeamID
	}
	return nil
}
