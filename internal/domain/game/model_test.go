package game

import (
	"testing"
	"time"
)

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]Status{
		"":                   StatusScheduled,
		"NS":                 StatusScheduled,
		"tbd":                StatusScheduled,
		"Not Started":        StatusScheduled,
		"STATUS_SCHEDULED":   StatusScheduled,
		"STATUS_POSTPONED":   StatusScheduled,
		"Q3":                 StatusLive,
		"ht":                 StatusLive,
		"STATUS_IN_PROGRESS": StatusLive,
		"STATUS_HALFTIME":    StatusLive,
		"live":               StatusLive,
		"FT":                 StatusFinal,
		"AOT":                StatusFinal,
		"Final":              StatusFinal,
		"STATUS_FINAL":       StatusFinal,
		"STATUS_FINAL_OT":    StatusFinal,
		"something-else":     StatusScheduled,
	}
	for raw, want := range tests {
		if got := NormalizeStatus(raw); got != want {
			t.Errorf("NormalizeStatus(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestGameLockAndWinner(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	g := Game{ID: "g1", Week: 1, HomeTeamID: "KC", AwayTeamID: "BUF", KickoffAt: kickoff, Status: StatusLive}

	if g.IsLocked(kickoff) {
		t.Fatalf("game must not be locked exactly at kickoff")
	}
	if !g.IsLocked(kickoff.Add(time.Second)) {
		t.Fatalf("game must be locked after kickoff")
	}

	if _, ok := g.Winner(); ok {
		t.Fatalf("live game has no winner")
	}
	kc := "KC"
	g.Status = StatusFinal
	g.WinnerTeamID = &kc
	if w, ok := g.Winner(); !ok || w != "KC" {
		t.Fatalf("winner = %q %v", w, ok)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	other := "DAL"
	g.WinnerTeamID = &other
	if err := g.Validate(); err == nil {
		t.Fatalf("winner outside the matchup must be rejected")
	}
}

func TestTeamGame(t *testing.T) {
	t.Parallel()

	games := []Game{
		{ID: "g1", HomeTeamID: "KC", AwayTeamID: "BUF"},
		{ID: "g2", HomeTeamID: "DAL", AwayTeamID: "PHI"},
	}
	if g, ok := TeamGame(games, "PHI"); !ok || g.ID != "g2" {
		t.Fatalf("TeamGame(PHI) = %v %v", g.ID, ok)
	}
	if _, ok := TeamGame(games, "NYJ"); ok {
		t.Fatalf("team without a game must not match")
	}
}
