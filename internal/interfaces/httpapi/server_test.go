package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/game"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/user"
	"github.com/riskibarqy/nfl-pick-two/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

const (
	testSeason   = 2025
	testJobToken = "job-secret"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	userID, ok := v[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return user.Principal{UserID: userID}, nil
}

type routeCall struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []routeCall
}

func (o *recordingObserver) HTTPRequest(method, route string, status int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, routeCall{method: method, route: route, status: status})
}

func (o *recordingObserver) snapshot() []routeCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]routeCall(nil), o.calls...)
}

type apiFixture struct {
	t        *testing.T
	router   http.Handler
	games    *memory.GameRepository
	observer *recordingObserver
}

func newAPIFixture(t *testing.T, cfg RouterConfig) *apiFixture {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	if err := memory.Seed(ctx, store, testSeason); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	logger := logging.NewNop()
	leagueRepo := memory.NewLeagueRepository(store)
	teamRepo := memory.NewTeamRepository(store)
	gameRepo := memory.NewGameRepository(store)
	pickRepo := memory.NewPickRepository(store)
	scoreRepo := memory.NewScoreRepository(store)

	seasons := usecase.NewSeasonService(memory.NewSeasonRepository(store), 0, logger)
	values := usecase.NewTeamValueService(teamRepo, leagueRepo)
	picks := usecase.NewPickService(leagueRepo, gameRepo, pickRepo, seasons, values, nil, nil, logger)
	scoring := usecase.NewScoringService(leagueRepo, gameRepo, pickRepo, scoreRepo, seasons, values, usecase.ScoringConfig{Workers: 2}, nil, logger)
	feed := usecase.NewGameFeedService(nil, gameRepo, teamRepo, seasons, usecase.GameFeedConfig{}, nil, logger)

	handler := NewHandler(Services{
		Seasons:   seasons,
		Teams:     usecase.NewTeamService(teamRepo),
		Leagues:   usecase.NewLeagueService(leagueRepo, teamRepo, seasons, values, nil, nil, logger),
		Picks:     picks,
		Scoring:   scoring,
		Standings: usecase.NewStandingsService(leagueRepo, gameRepo, pickRepo, scoreRepo, values),
		GameFeed:  feed,
		Jobs: usecase.NewJobOrchestratorService(feed, picks, scoring, seasons, gameRepo, nil,
			memory.NewJobDispatchRepository(store), usecase.JobOrchestratorConfig{}, nil, logger),
	}, logger)

	if cfg.InternalJobToken == "" {
		cfg.InternalJobToken = testJobToken
	}
	observer := &recordingObserver{}
	verifier := staticVerifier{"alice-token": "alice", "bob-token": "bob", "carol-token": "carol"}

	return &apiFixture{
		t:        t,
		router:   NewRouter(handler, verifier, logger, observer, cfg),
		games:    gameRepo,
		observer: observer,
	}
}

func (f *apiFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	f.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) addGame(id string, week int, home, away string, kickoff time.Time) {
	f.t.Helper()
	err := f.games.Upsert(context.Background(), []game.Game{{
		ID:         id,
		SeasonID:   testSeason,
		Week:       week,
		HomeTeamID: home,
		AwayTeamID: away,
		KickoffAt:  kickoff,
		Status:     game.StatusScheduled,
	}})
	if err != nil {
		f.t.Fatalf("upsert game: %v", err)
	}
}

// createLeague makes alice the owner and bob a member, returning the league id.
func (f *apiFixture) createLeague() string {
	f.t.Helper()

	rec := f.do(http.MethodPost, "/v1/leagues", "alice-token", `{"name":"Office Pool","visibility":"public"}`)
	if rec.Code != http.StatusCreated {
		f.t.Fatalf("create league: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data leagueDTO `json:"data"`
	}
	decodeBody(f.t, rec, &created)
	if created.Data.ID == "" {
		f.t.Fatalf("expected league id in response")
	}

	rec = f.do(http.MethodPost, "/v1/leagues/join", "bob-token", fmt.Sprintf(`{"league_id":%q}`, created.Data.ID))
	if rec.Code != http.StatusOK {
		f.t.Fatalf("join league: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	return created.Data.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := sonic.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal response body: %v (body=%s)", err, rec.Body.String())
	}
}

func errorReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error *googleErrorBody `json:"error"`
	}
	decodeBody(t, rec, &body)
	if body.Error == nil || len(body.Error.Errors) == 0 {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
	return body.Error.Errors[0].Reason
}

func TestSubmitWeekPicks_StoresTeamsAndReturnsState(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})
	leagueID := f.createLeague()
	f.addGame("g-kc-buf", 3, "KC", "BUF", time.Now().Add(48*time.Hour))
	f.addGame("g-phi-det", 3, "PHI", "DET", time.Now().Add(72*time.Hour))

	path := "/v1/leagues/" + leagueID + "/weeks/3/picks"
	rec := f.do(http.MethodPut, path, "alice-token", `{"mode":"teams","team_ids":["KC"," PHI "]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var submitted struct {
		Data weekStateDTO `json:"data"`
	}
	decodeBody(t, rec, &submitted)
	if len(submitted.Data.Picks) != 2 {
		t.Fatalf("expected 2 picks, got %d", len(submitted.Data.Picks))
	}
	if submitted.Data.HasBye {
		t.Fatalf("did not expect bye flag")
	}

	rec = f.do(http.MethodGet, path, "alice-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on read, got %d body=%s", rec.Code, rec.Body.String())
	}
	var state struct {
		Data weekStateDTO `json:"data"`
	}
	decodeBody(t, rec, &state)
	if len(state.Data.Games) != 2 {
		t.Fatalf("expected 2 games in week state, got %d", len(state.Data.Games))
	}
	teams := map[string]bool{}
	for _, p := range state.Data.Picks {
		teams[p.TeamID] = true
		if p.Locked {
			t.Fatalf("pick %s should not be locked before kickoff", p.TeamID)
		}
	}
	if !teams["KC"] || !teams["PHI"] {
		t.Fatalf("expected KC and PHI picks, got %v", teams)
	}
}

func TestSubmitWeekPicks_TeamReuseIsConflict(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})
	leagueID := f.createLeague()
	f.addGame("g-w3", 3, "KC", "BUF", time.Now().Add(48*time.Hour))
	f.addGame("g-w4", 4, "KC", "DEN", time.Now().Add(9*24*time.Hour))

	rec := f.do(http.MethodPut, "/v1/leagues/"+leagueID+"/weeks/3/picks", "bob-token", `{"mode":"teams","team_ids":["KC"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodPut, "/v1/leagues/"+leagueID+"/weeks/4/picks", "bob-token", `{"mode":"teams","team_ids":["KC"]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := errorReason(t, rec); got != "teamAlreadyUsed" {
		t.Fatalf("expected teamAlreadyUsed, got %s", got)
	}
}

func TestSubmitWeekPicks_ByeCountsAgainstCap(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})
	leagueID := f.createLeague()

	rec := f.do(http.MethodPut, "/v1/leagues/"+leagueID+"/weeks/5/picks", "alice-token", `{"mode":"bye"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodGet, "/v1/leagues/"+leagueID+"/byes", "alice-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var byes struct {
		Data byesDTO `json:"data"`
	}
	decodeBody(t, rec, &byes)
	if byes.Data.ByesUsed != 1 || byes.Data.ByesRemaining != 3 || byes.Data.MaxByes != 4 {
		t.Fatalf("unexpected byes payload: %+v", byes.Data)
	}
}

func TestSubmitWeekPicks_RejectsBadPayloads(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})
	leagueID := f.createLeague()
	path := "/v1/leagues/" + leagueID + "/weeks/3/picks"

	tests := []struct {
		name   string
		path   string
		token  string
		body   string
		status int
	}{
		{name: "missing token", path: path, body: `{"mode":"bye"}`, status: http.StatusUnauthorized},
		{name: "unknown token", path: path, token: "nobody", body: `{"mode":"bye"}`, status: http.StatusUnauthorized},
		{name: "unknown field", path: path, token: "alice-token", body: `{"mode":"bye","extra":1}`, status: http.StatusBadRequest},
		{name: "bad mode", path: path, token: "alice-token", body: `{"mode":"maybe"}`, status: http.StatusBadRequest},
		{name: "too many teams", path: path, token: "alice-token", body: `{"mode":"teams","team_ids":["KC","BUF","PHI"]}`, status: http.StatusBadRequest},
		{name: "week out of range", path: "/v1/leagues/" + leagueID + "/weeks/19/picks", token: "alice-token", body: `{"mode":"bye"}`, status: http.StatusBadRequest},
		{name: "week not a number", path: "/v1/leagues/" + leagueID + "/weeks/abc/picks", token: "alice-token", body: `{"mode":"bye"}`, status: http.StatusBadRequest},
		{name: "not a member", path: path, token: "carol-token", body: `{"mode":"bye"}`, status: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPut, tc.path, tc.token, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSubmitWeekPicks_RateLimitedPerUser(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{PickSubmitRatePerMinute: 1, PickSubmitBurst: 1})
	leagueID := f.createLeague()
	path := "/v1/leagues/" + leagueID + "/weeks/6/picks"

	rec := f.do(http.MethodPut, path, "alice-token", `{"mode":"bye"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first submit to pass, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodPut, path, "alice-token", `{"mode":"bye"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	rec = f.do(http.MethodPut, path, "bob-token", `{"mode":"bye"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected other user to keep its own bucket, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetWeekScore_NonMemberForbidden(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})
	leagueID := f.createLeague()

	rec := f.do(http.MethodGet, "/v1/leagues/"+leagueID+"/weeks/1/score", "carol-token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodGet, "/v1/leagues/"+leagueID+"/weeks/1/score", "alice-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for member, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGetStandings_ListsMembers(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})
	leagueID := f.createLeague()

	rec := f.do(http.MethodGet, "/v1/leagues/"+leagueID+"/standings", "bob-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data []usecase.Standing `json:"data"`
	}
	decodeBody(t, rec, &body)
	if len(body.Data) != 2 {
		t.Fatalf("expected 2 standings rows, got %d", len(body.Data))
	}
}

func TestInternalJobs_RequireTokenAndRecordRuns(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})

	rec := f.do(http.MethodPost, "/v1/internal/jobs/lock-games", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without job token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/lock-games", strings.NewReader(`{"dispatch_id":"manual-1"}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	run := httptest.NewRecorder()
	f.router.ServeHTTP(run, req)
	if run.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", run.Code, run.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/internal/jobs/runs?job=lock_games", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	list := httptest.NewRecorder()
	f.router.ServeHTTP(list, req)
	if list.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", list.Code, list.Body.String())
	}
	var body struct {
		Data []jobRunDTO `json:"data"`
	}
	decodeBody(t, list, &body)
	if len(body.Data) != 1 || body.Data[0].DispatchID != "manual-1" || body.Data[0].Status != "completed" {
		t.Fatalf("unexpected job runs: %+v", body.Data)
	}
}

func TestRouter_ObservesMatchedPattern(t *testing.T) {
	f := newAPIFixture(t, RouterConfig{})

	f.do(http.MethodGet, "/healthz", "", "")
	f.do(http.MethodGet, "/no-such-route", "", "")

	calls := f.observer.snapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 observed calls, got %d", len(calls))
	}
	if calls[0].route != "GET /healthz" || calls[0].status != http.StatusOK {
		t.Fatalf("unexpected first call: %+v", calls[0])
	}
	if calls[1].route != "unmatched" || calls[1].status != http.StatusNotFound {
		t.Fatalf("unexpected second call: %+v", calls[1])
	}
}

func TestRouter_MountsMetricsHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	f := newAPIFixture(t, RouterConfig{MetricsHandler: metrics})

	rec := f.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics" {
		t.Fatalf("unexpected metrics response: %d %q", rec.Code, rec.Body.String())
	}
}
