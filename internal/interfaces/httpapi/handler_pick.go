package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/nfl-pick-two/internal/domain/pick"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

func (h *Handler) GetWeekPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekPicks")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	week, err := pathWeek(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.pickService.GetWeekState(ctx, usecase.WeekInput{
		LeagueID: r.PathValue("leagueID"),
		UserID:   principal.UserID,
		Week:     week,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	now := h.now()
	out := weekStateToDTO(result.State, result.ByesUsed)
	out.Games = make([]gameDTO, 0, len(result.Games))
	for _, g := range result.Games {
		out.Games = append(out.Games, gameToDTO(g, now))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) SubmitWeekPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitWeekPicks")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	week, err := pathWeek(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitWeekRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	teamIDs := make([]string, 0, len(req.TeamIDs))
	for _, id := range req.TeamIDs {
		teamIDs = append(teamIDs, strings.TrimSpace(id))
	}

	leagueID := r.PathValue("leagueID")
	result, err := h.pickService.SubmitWeek(ctx, usecase.SubmitWeekInput{
		LeagueID: leagueID,
		UserID:   principal.UserID,
		Week:     week,
		Submission: pick.Submission{
			Mode:    pick.Mode(req.Mode),
			TeamIDs: teamIDs,
		},
	})
	if err != nil {
		h.logger.InfoContext(ctx, "submit week picks rejected",
			"league_id", leagueID,
			"user_id", principal.UserID,
			"week", week,
			"mode", req.Mode,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	out := weekStateToDTO(result.State, result.ByesUsed)
	out.Skipped = skippedToDTO(result.Skipped)
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetByes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetByes")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	used, err := h.pickService.GetByesUsed(ctx, r.PathValue("leagueID"), principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, byesDTO{
		ByesUsed:      used,
		MaxByes:       pick.MaxByes,
		ByesRemaining: max(pick.MaxByes-used, 0),
	})
}

func (h *Handler) ListTeamsRemaining(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamsRemaining")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.pickService.ListTeamsRemaining(ctx, r.PathValue("leagueID"), principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if items == nil {
		items = []usecase.RemainingTeam{}
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
