package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

func (h *Handler) GetWeekScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekScore")
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

	result, err := h.scoringService.GetScore(ctx, r.PathValue("leagueID"), principal.UserID, week)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetWeekBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekBreakdown")
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

	result, err := h.scoringService.WeekBreakdown(ctx, r.PathValue("leagueID"), principal.UserID, week)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if result.Picks == nil {
		result.Picks = []usecase.PickBreakdown{}
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	rows, err := h.standingsService.ComputeStandings(ctx, leagueID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "compute standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if rows == nil {
		rows = []usecase.Standing{}
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

// GetPickHistory serves the caller's history, or another member's via ?user_id=.
func (h *Handler) GetPickHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPickHistory")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("user_id"))
	history, err := h.standingsService.PickHistory(ctx, r.PathValue("leagueID"), principal.UserID, target)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, history)
}
