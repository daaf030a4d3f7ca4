package espn

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/team"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/resilience"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	regularSeasonType = 2
	maxBodyBytes      = 4 << 20
)

var errESPNTransient = crerr.New("espn transient failure")

// ESPN abbreviations that differ from the seeded team codes.
var codeAliases = map[string]string{
	"WSH": "WAS",
	"LA":  "LAR",
}

type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RatePerSecond  float64
	Burst          int
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
	// Dial overrides the transport dialer; tests use an in-memory listener.
	Dial fasthttp.DialFunc
}

// Client reads the ESPN scoreboard for one regular-season week at a time.
type Client struct {
	http       *fasthttp.Client
	baseURL    string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	flight     singleflight.Group
	logger     *logging.Logger
	backoff    func(attempt int) time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.Name == "" {
		breakerCfg.Name = "espn"
	}
	breaker := resilience.NewFromConfig(breakerCfg)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
	})

	return &Client{
		http: &fasthttp.Client{
			Name:                "nfl-pick-two",
			Dial:                cfg.Dial,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxBodyBytes,
		},
		baseURL:    baseURL,
		timeout:    timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    breaker,
		logger:     logger,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt+1) * 500 * time.Millisecond
		},
	}
}

var _ usecase.GameFeed = (*Client)(nil)

// FetchWeek returns every scoreboard event for the week. Concurrent calls for
// the same week share one upstream request.
func (c *Client) FetchWeek(ctx context.Context, seasonYear, week int) ([]game.FeedRecord, error) {
	if seasonYear <= 0 {
		return nil, crerr.Newf("season year must be positive, got %d", seasonYear)
	}
	if !game.ValidWeek(week) {
		return nil, crerr.Newf("week %d is outside the regular season", week)
	}

	key := fmt.Sprintf("%d:%d", seasonYear, week)
	out, err, _ := c.flight.Do(key, func() (any, error) {
		var raw []byte
		callErr := c.breaker.Execute(ctx, func(ctx context.Context) error {
			body, err := c.get(ctx, c.scoreboardURL(seasonYear, week))
			raw = body
			return err
		}, isTransient)
		if callErr != nil {
			return nil, callErr
		}
		return decodeScoreboard(raw, seasonYear, week)
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return nil, crerr.Wrap(usecase.ErrDependencyUnavailable, "game feed is temporarily unavailable")
		}
		if isTransient(err) {
			return nil, crerr.WithSecondaryError(crerr.Wrap(usecase.ErrDependencyUnavailable, "game feed request failed"), err)
		}
		return nil, err
	}

	records, ok := out.([]game.FeedRecord)
	if !ok {
		return nil, crerr.Newf("unexpected scoreboard result type %T", out)
	}
	return records, nil
}

func (c *Client) scoreboardURL(seasonYear, week int) string {
	values := url.Values{}
	values.Set("dates", strconv.Itoa(seasonYear))
	values.Set("seasontype", strconv.Itoa(regularSeasonType))
	values.Set("week", strconv.Itoa(week))
	values.Set("limit", "100")
	return c.baseURL + "/scoreboard?" + values.Encode()
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, crerr.Wrap(err, "wait for feed rate limiter")
		}

		body, status, err := c.do(ctx, fullURL)
		switch {
		case err != nil:
			lastErr = crerr.Mark(crerr.Wrapf(err, "get %s", fullURL), errESPNTransient)
		case status >= 200 && status < 300:
			return body, nil
		case isRetryableStatus(status):
			lastErr = crerr.Mark(crerr.Newf("espn status=%d body=%s", status, abbreviate(body)), errESPNTransient)
		default:
			return nil, crerr.Newf("espn status=%d body=%s", status, abbreviate(body))
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "espn request failed", "url", fullURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

type scoreboard struct {
	Events []event `json:"events"`
}

type event struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Season struct {
		Year int `json:"year"`
		Type int `json:"type"`
	} `json:"season"`
	Week struct {
		Number int `json:"number"`
	} `json:"week"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Date        string       `json:"date"`
	Competitors []competitor `json:"competitors"`
	Status      struct {
		Type struct {
			Name      string `json:"name"`
			Completed bool   `json:"completed"`
		} `json:"type"`
	} `json:"status"`
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Winner   bool   `json:"winner"`
	Score    string `json:"score"`
	Team     struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
}

func decodeScoreboard(raw []byte, seasonYear, week int) ([]game.FeedRecord, error) {
	var payload scoreboard
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, crerr.Wrap(err, "decode espn scoreboard")
	}

	out := make([]game.FeedRecord, 0, len(payload.Events))
	for _, ev := range payload.Events {
		if ev.Season.Type != 0 && ev.Season.Type != regularSeasonType {
			continue
		}
		out = append(out, toFeedRecord(ev, seasonYear, week))
	}
	return out, nil
}

func toFeedRecord(ev event, seasonYear, week int) game.FeedRecord {
	rec := game.FeedRecord{
		GameID:     strings.TrimSpace(ev.ID),
		SeasonYear: ev.Season.Year,
		Week:       ev.Week.Number,
		KickoffAt:  parseKickoff(ev.Date),
		Status:     game.StatusScheduled,
	}
	if rec.SeasonYear == 0 {
		rec.SeasonYear = seasonYear
	}
	if rec.Week == 0 {
		rec.Week = week
	}
	if len(ev.Competitions) == 0 {
		return rec
	}

	comp := ev.Competitions[0]
	if rec.KickoffAt.IsZero() {
		rec.KickoffAt = parseKickoff(comp.Date)
	}
	rec.Status = game.NormalizeStatus(comp.Status.Type.Name)
	if comp.Status.Type.Completed {
		rec.Status = game.StatusFinal
	}

	var winner string
	for _, side := range comp.Competitors {
		code := normalizeCode(side.Team.Abbreviation)
		score := parseScore(side.Score)
		switch side.HomeAway {
		case "home":
			rec.HomeCode = code
			rec.HomeScore = score
		case "away":
			rec.AwayCode = code
			rec.AwayScore = score
		}
		if side.Winner {
			winner = code
		}
	}

	if rec.Status == game.StatusScheduled {
		rec.HomeScore, rec.AwayScore = nil, nil
	}
	if rec.Status == game.StatusFinal {
		rec.WinnerCode = winner
	}
	return rec
}

func normalizeCode(abbreviation string) string {
	code := team.NormalizeCode(abbreviation)
	if alias, ok := codeAliases[code]; ok {
		return alias
	}
	return code
}

var kickoffLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02T15:04Z"}

func parseKickoff(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range kickoffLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseScore(value string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &n
}

func isTransient(err error) bool {
	return crerr.Is(err, errESPNTransient)
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}

func abbreviate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		return text[:256] + "..."
	}
	return text
}
