package game

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinal     Status = "final"
)

const (
	MinWeek = 1
	MaxWeek = 18
)

// Game is one regular-season matchup. WinnerTeamID is nil until final, and stays nil for a tie.
type Game struct {
	ID           string
	SeasonID     int64
	Week         int
	HomeTeamID   string
	AwayTeamID   string
	KickoffAt    time.Time
	Status       Status
	WinnerTeamID *string
	HomeScore    *int
	AwayScore    *int
}

func ValidWeek(week int) bool {
	return week >= MinWeek && week <= MaxWeek
}

// IsLocked reports whether picks on this game are frozen. Status does not matter.
func (g Game) IsLocked(now time.Time) bool {
	return g.KickoffAt.Before(now)
}

func (g Game) HasTeam(teamID string) bool {
	return teamID != "" && (g.HomeTeamID == teamID || g.AwayTeamID == teamID)
}

func (g Game) IsFinal() bool {
	return g.Status == StatusFinal
}

// Winner returns the winning team of a final game.
func (g Game) Winner() (string, bool) {
	if !g.IsFinal() || g.WinnerTeamID == nil || *g.WinnerTeamID == "" {
		return "", false
	}
	return *g.WinnerTeamID, true
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if !ValidWeek(g.Week) {
		return fmt.Errorf("game week %d must be within %d..%d", g.Week, MinWeek, MaxWeek)
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" {
		return fmt.Errorf("game teams are required")
	}
	if g.HomeTeamID == g.AwayTeamID {
		return fmt.Errorf("game home and away team must differ")
	}
	if g.KickoffAt.IsZero() {
		return fmt.Errorf("game kickoff is required")
	}
	switch g.Status {
	case StatusScheduled, StatusLive, StatusFinal:
	default:
		return fmt.Errorf("invalid game status %q", g.Status)
	}
	if g.WinnerTeamID != nil {
		if !g.IsFinal() {
			return fmt.Errorf("winner set on non-final game")
		}
		if !g.HasTeam(*g.WinnerTeamID) {
			return fmt.Errorf("winner %q did not play in game %s", *g.WinnerTeamID, g.ID)
		}
	}
	return nil
}

// TeamGame finds the game a team plays in, if any.
func TeamGame(games []Game, teamID string) (Game, bool) {
	for _, g := range games {
		if g.HasTeam(teamID) {
			return g, true
		}
	}
	return Game{}, false
}
