package espn

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/resilience"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const scoreboardWeek1 = `{
  "events": [
    {
      "id": "401671789",
      "date": "2024-09-06T00:20Z",
      "season": {"year": 2024, "type": 2},
      "week": {"number": 1},
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "winner": true, "score": "27", "team": {"abbreviation": "KC"}},
          {"homeAway": "away", "winner": false, "score": "20", "team": {"abbreviation": "BAL"}}
        ],
        "status": {"type": {"name": "STATUS_FINAL", "completed": true}}
      }]
    },
    {
      "id": "401671800",
      "date": "2024-09-08T17:00Z",
      "season": {"year": 2024, "type": 2},
      "week": {"number": 1},
      "competitions": [{
        "competitors": [
          {"homeAway": "home", "score": "0", "team": {"abbreviation": "WSH"}},
          {"homeAway": "away", "score": "0", "team": {"abbreviation": "TB"}}
        ],
        "status": {"type": {"name": "STATUS_SCHEDULED", "completed": false}}
      }]
    },
    {
      "id": "401547000",
      "date": "2024-08-10T00:00Z",
      "season": {"year": 2024, "type": 1},
      "week": {"number": 1},
      "competitions": []
    }
  ]
}`

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, maxRetries int, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() { _ = ln.Close() })

	client := NewClient(ClientConfig{
		BaseURL:        "http://espn.test/nfl",
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		CircuitBreaker: breaker,
		Dial: func(string) (net.Conn, error) {
			return ln.Dial()
		},
	})
	client.backoff = func(int) time.Duration { return time.Millisecond }
	return client
}

func TestFetchWeekParsesScoreboard(t *testing.T) {
	t.Parallel()

	queries := make(chan string, 1)
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		queries <- string(ctx.QueryArgs().QueryString())
		if string(ctx.Path()) != "/nfl/scoreboard" {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(scoreboardWeek1)
	}, 0, resilience.CircuitBreakerConfig{})

	records, err := client.FetchWeek(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("fetch week: %v", err)
	}
	if query := <-queries; query != "dates=2024&limit=100&seasontype=2&week=1" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(records) != 2 {
		t.Fatalf("expected preseason event to be dropped, got %d records", len(records))
	}

	final := records[0]
	if final.GameID != "401671789" || final.HomeCode != "KC" || final.AwayCode != "BAL" {
		t.Fatalf("unexpected final record: %+v", final)
	}
	if final.Status != game.StatusFinal || final.WinnerCode != "KC" {
		t.Fatalf("expected final won by KC, got %s winner=%q", final.Status, final.WinnerCode)
	}
	if final.HomeScore == nil || *final.HomeScore != 27 || final.AwayScore == nil || *final.AwayScore != 20 {
		t.Fatalf("unexpected scores: %v %v", final.HomeScore, final.AwayScore)
	}
	if want := time.Date(2024, 9, 6, 0, 20, 0, 0, time.UTC); !final.KickoffAt.Equal(want) {
		t.Fatalf("unexpected kickoff: %s", final.KickoffAt)
	}
	if !final.Complete() {
		t.Fatalf("expected complete record")
	}

	scheduled := records[1]
	if scheduled.HomeCode != "WAS" {
		t.Fatalf("expected WSH alias to map to WAS, got %s", scheduled.HomeCode)
	}
	if scheduled.Status != game.StatusScheduled || scheduled.WinnerCode != "" || scheduled.HomeScore != nil {
		t.Fatalf("scheduled game must carry no result: %+v", scheduled)
	}
}

func TestFetchWeekRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) == 1 {
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			return
		}
		ctx.SetBodyString(scoreboardWeek1)
	}, 2, resilience.CircuitBreakerConfig{})

	records, err := client.FetchWeek(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("fetch week: %v", err)
	}
	if len(records) != 2 || calls.Load() != 2 {
		t.Fatalf("expected success on second attempt, records=%d calls=%d", len(records), calls.Load())
	}
}

func TestFetchWeekDoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"error":"bad week"}`)
	}, 3, resilience.CircuitBreakerConfig{})

	_, err := client.FetchWeek(context.Background(), 2024, 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("client errors must not be reported as dependency outages: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestFetchWeekOpensCircuitAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}, 0, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := client.FetchWeek(context.Background(), 2024, 3); !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("attempt %d: expected ErrDependencyUnavailable, got %v", i, err)
		}
	}
	if _, err := client.FetchWeek(context.Background(), 2024, 3); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit to fail fast, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("open circuit must not reach the provider, calls=%d", calls.Load())
	}
}

func TestFetchWeekRejectsInvalidWeek(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{})
	if _, err := client.FetchWeek(context.Background(), 2024, 19); err == nil {
		t.Fatalf("expected week 19 to be rejected")
	}
	if _, err := client.FetchWeek(context.Background(), 0, 1); err == nil {
		t.Fatalf("expected missing season to be rejected")
	}
}

func TestParseKickoffLayouts(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 9, 8, 17, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-09-08T17:00Z", "2024-09-08T17:00:00Z", "2024-09-08T13:00-04:00"} {
		if got := parseKickoff(raw); !got.Equal(want) {
			t.Fatalf("parseKickoff(%q) = %s", raw, got)
		}
	}
	if !parseKickoff("soon").IsZero() {
		t.Fatalf("expected zero time for unparseable kickoff")
	}
}
