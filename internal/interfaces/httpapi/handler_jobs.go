package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/jobscheduler"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

const defaultJobRunsLimit = 20

type jobRunner func(ctx context.Context, input usecase.JobInput) (usecase.JobResult, error)

func (h *Handler) RunSyncGamesJob(w http.ResponseWriter, r *http.Request) {
	h.runInternalJob(w, r, "httpapi.Handler.RunSyncGamesJob", jobscheduler.JobSyncGames, h.jobOrchestrator.RunGameSync)
}

func (h *Handler) RunLockGamesJob(w http.ResponseWriter, r *http.Request) {
	h.runInternalJob(w, r, "httpapi.Handler.RunLockGamesJob", jobscheduler.JobLockGames, h.jobOrchestrator.RunLockGames)
}

func (h *Handler) RunScoringJob(w http.ResponseWriter, r *http.Request) {
	h.runInternalJob(w, r, "httpapi.Handler.RunScoringJob", jobscheduler.JobScore, h.jobOrchestrator.RunScoring)
}

func (h *Handler) runInternalJob(w http.ResponseWriter, r *http.Request, spanName, job string, run jobRunner) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	var req internalJobRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}
	dispatchID := strings.TrimSpace(req.DispatchID)
	if dispatchID == "" {
		dispatchID = strings.TrimSpace(r.Header.Get("Upstash-Message-Id"))
	}

	result, err := run(ctx, usecase.JobInput{Force: req.Force, DispatchID: dispatchID})
	if err != nil {
		h.logger.WarnContext(ctx, "internal job failed", "job", job, "dispatch_id", dispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ListJobRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobRuns")
	defer span.End()

	limit, err := queryInt(r, "limit", defaultJobRunsLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	runs, err := h.jobOrchestrator.RecentRuns(ctx, strings.TrimSpace(r.URL.Query().Get("job")), limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]jobRunDTO, 0, len(runs))
	for _, item := range runs {
		out = append(out, jobRunToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) SyncGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncGames")
	defer span.End()

	var req syncGamesRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.gameFeedService.SyncSeason(ctx, usecase.SyncGamesInput{Force: req.Force, Weeks: req.Weeks})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) IngestGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestGames")
	defer span.End()

	var req ingestGamesRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.gameFeedService.IngestRaw(ctx, req.Games)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) PersistLeagueWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PersistLeagueWeek")
	defer span.End()

	week, err := pathWeek(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	persisted, err := h.scoringService.PersistLeagueWeek(ctx, leagueID, week)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"league_id": leagueID,
		"week":      week,
		"persisted": persisted,
	})
}
