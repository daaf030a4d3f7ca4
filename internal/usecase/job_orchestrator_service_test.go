package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
)

func TestDedupKey_UsesQStashSafeFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.February, 25, 4, 25, 42, 0, time.UTC)
	got := dedupKey("sync_games", "season:2025/reg 1", at, 5*time.Minute)

	if strings.Contains(got, ":") {
		t.Fatalf("dedup key must not contain colon, got=%q", got)
	}

	want := "sync_games-season-2025-reg-1-20260225T042500Z"
	if got != want {
		t.Fatalf("unexpected dedup key: got=%q want=%q", got, want)
	}
}

func TestSanitizeDedupSegment_EmptyFallback(t *testing.T) {
	t.Parallel()

	if got := sanitizeDedupSegment(" \t "); got != "unknown" {
		t.Fatalf("unexpected sanitize fallback: got=%q want=%q", got, "unknown")
	}
}

func TestAnalyzeGames(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.September, 7, 16, 0, 0, 0, time.UTC)
	games := []game.Game{
		{ID: "g1", KickoffAt: now.Add(-3 * time.Hour), Status: game.StatusFinal},
		{ID: "g2", KickoffAt: now.Add(4 * time.Hour), Status: game.StatusScheduled},
		{ID: "g3", KickoffAt: now.Add(time.Hour), Status: game.StatusScheduled},
	}

	hasLive, nearest := analyzeGames(games, now)
	if hasLive {
		t.Fatalf("expected no live game")
	}
	if nearest == nil || !nearest.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected nearest kickoff: %v", nearest)
	}

	games = append(games, game.Game{ID: "g4", KickoffAt: now.Add(-time.Hour), Status: game.StatusLive})
	if hasLive, _ = analyzeGames(games, now); !hasLive {
		t.Fatalf("expected live game to be detected")
	}
}

func TestNextScheduleDelay(t *testing.T) {
	t.Parallel()

	svc := NewJobOrchestratorService(nil, nil, nil, nil, nil, nil, nil, JobOrchestratorConfig{}, nil, nil)
	now := time.Date(2025, time.September, 7, 12, 0, 0, 0, time.UTC)

	if got := svc.nextScheduleDelay(now, true, nil); got != 10*time.Minute {
		t.Fatalf("live delay: got=%s", got)
	}

	soon := now.Add(time.Hour)
	if got := svc.nextScheduleDelay(now, false, &soon); got != 45*time.Minute {
		t.Fatalf("pre-kickoff delay: got=%s", got)
	}

	imminent := now.Add(5 * time.Minute)
	if got := svc.nextScheduleDelay(now, false, &imminent); got != 10*time.Minute {
		t.Fatalf("imminent kickoff delay: got=%s", got)
	}

	far := now.Add(72 * time.Hour)
	if got := svc.nextScheduleDelay(now, false, &far); got != 6*time.Hour {
		t.Fatalf("far kickoff delay: got=%s", got)
	}

	if got := svc.nextScheduleDelay(now, false, nil); got != 6*time.Hour {
		t.Fatalf("idle delay: got=%s", got)
	}
}
