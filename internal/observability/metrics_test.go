package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.PickSubmitted("teams", "ok")
	m.PickSubmitted("teams", "ok")
	m.PickSubmitted("bye", "rejected")
	m.GamesIngested(14, 2)
	m.GamesLocked(0)
	m.ScoresPersisted(6)
	m.JobFinished("lock_games", "completed", 120*time.Millisecond)
	m.HTTPRequest("PUT", "PUT /v1/leagues/{leagueID}/weeks/{week}/picks", 409)

	if got := counterValue(t, m, "nfl_pick_two_pick_submissions_total", map[string]string{"mode": "teams", "outcome": "ok"}); got != 2 {
		t.Fatalf("expected 2 ok team submissions, got %v", got)
	}
	if got := counterValue(t, m, "nfl_pick_two_games_ingested_total", map[string]string{"result": "skipped"}); got != 2 {
		t.Fatalf("expected 2 skipped games, got %v", got)
	}
	if got := counterValue(t, m, "nfl_pick_two_games_locked_total", nil); got != 0 {
		t.Fatalf("expected no locked games, got %v", got)
	}
	if got := counterValue(t, m, "nfl_pick_two_scores_persisted_total", nil); got != 6 {
		t.Fatalf("expected 6 persisted scores, got %v", got)
	}
	if got := counterValue(t, m, "nfl_pick_two_http_requests_total", map[string]string{"status": "4xx"}); got != 1 {
		t.Fatalf("expected one 4xx request, got %v", got)
	}
}

func TestMetricsHandlerServesText(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.JobFinished("score_weeks", "failed", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `nfl_pick_two_job_runs_total{job="score_weeks",status="failed"} 1`) {
		t.Fatalf("expected job run counter in output, got:\n%s", body)
	}
}
