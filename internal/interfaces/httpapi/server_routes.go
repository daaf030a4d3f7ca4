package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func registerCatalogRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/seasons/current", RequireAuth(verifier, http.HandlerFunc(handler.GetCurrentSeason)))
	mux.Handle("GET /v1/teams", RequireAuth(verifier, http.HandlerFunc(handler.ListTeams)))
	mux.Handle("GET /v1/teams/{teamID}", RequireAuth(verifier, http.HandlerFunc(handler.GetTeam)))
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/leagues", RequireAuth(verifier, http.HandlerFunc(handler.CreateLeague)))
	mux.Handle("GET /v1/leagues/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyLeagues)))
	mux.Handle("POST /v1/leagues/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinLeague)))
	mux.Handle("GET /v1/leagues/{leagueID}", RequireAuth(verifier, http.HandlerFunc(handler.GetLeague)))
	mux.Handle("POST /v1/leagues/{leagueID}/join-code", RequireAuth(verifier, http.HandlerFunc(handler.RegenerateJoinCode)))
	mux.Handle("GET /v1/leagues/{leagueID}/members", RequireAuth(verifier, http.HandlerFunc(handler.ListMembers)))
	mux.Handle("DELETE /v1/leagues/{leagueID}/members/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveMember)))
	mux.Handle("PUT /v1/leagues/{leagueID}/owner", RequireAuth(verifier, http.HandlerFunc(handler.TransferOwnership)))
	mux.Handle("GET /v1/leagues/{leagueID}/team-values", RequireAuth(verifier, http.HandlerFunc(handler.ListTeamValues)))
	mux.Handle("PUT /v1/leagues/{leagueID}/team-values", RequireAuth(verifier, http.HandlerFunc(handler.SetTeamValues)))
	mux.Handle("GET /v1/leagues/{leagueID}/standings", RequireAuth(verifier, http.HandlerFunc(handler.GetStandings)))
	mux.Handle("GET /v1/leagues/{leagueID}/history", RequireAuth(verifier, http.HandlerFunc(handler.GetPickHistory)))
}

func registerPickRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, limiter *userRateLimiter) {
	mux.Handle("GET /v1/leagues/{leagueID}/weeks/{week}/picks", RequireAuth(verifier, http.HandlerFunc(handler.GetWeekPicks)))
	mux.Handle("PUT /v1/leagues/{leagueID}/weeks/{week}/picks", RequireAuth(verifier, RateLimitPerUser(limiter, http.HandlerFunc(handler.SubmitWeekPicks))))
	mux.Handle("GET /v1/leagues/{leagueID}/weeks/{week}/score", RequireAuth(verifier, http.HandlerFunc(handler.GetWeekScore)))
	mux.Handle("GET /v1/leagues/{leagueID}/weeks/{week}/breakdown", RequireAuth(verifier, http.HandlerFunc(handler.GetWeekBreakdown)))
	mux.Handle("GET /v1/leagues/{leagueID}/byes", RequireAuth(verifier, http.HandlerFunc(handler.GetByes)))
	mux.Handle("GET /v1/leagues/{leagueID}/teams-remaining", RequireAuth(verifier, http.HandlerFunc(handler.ListTeamsRemaining)))
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	internal := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireInternalJobToken(internalJobToken, fn))
	}

	internal("POST /v1/internal/jobs/sync-games", handler.RunSyncGamesJob)
	internal("POST /v1/internal/jobs/lock-games", handler.RunLockGamesJob)
	internal("POST /v1/internal/jobs/score", handler.RunScoringJob)
	internal("GET /v1/internal/jobs/runs", handler.ListJobRuns)
	internal("POST /v1/internal/sync/games", handler.SyncGames)
	internal("POST /v1/internal/ingestion/games", handler.IngestGames)
	internal("POST /v1/internal/leagues/{leagueID}/weeks/{week}/persist", handler.PersistLeagueWeek)
	internal("PUT /v1/internal/teams/{teamID}/points", handler.UpdateTeamDefaultPoints)
}
