package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/user"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

// Services groups the use cases served over HTTP.
type Services struct {
	Seasons   *usecase.SeasonService
	Teams     *usecase.TeamService
	Leagues   *usecase.LeagueService
	Picks     *usecase.PickService
	Scoring   *usecase.ScoringService
	Standings *usecase.StandingsService
	GameFeed  *usecase.GameFeedService
	Jobs      *usecase.JobOrchestratorService
}

type Handler struct {
	seasonService    *usecase.SeasonService
	teamService      *usecase.TeamService
	leagueService    *usecase.LeagueService
	pickService      *usecase.PickService
	scoringService   *usecase.ScoringService
	standingsService *usecase.StandingsService
	gameFeedService  *usecase.GameFeedService
	jobOrchestrator  *usecase.JobOrchestratorService
	logger           *logging.Logger
	validator        *validator.Validate
	now              func() time.Time
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		seasonService:    services.Seasons,
		teamService:      services.Teams,
		leagueService:    services.Leagues,
		pickService:      services.Picks,
		scoringService:   services.Scoring,
		standingsService: services.Standings,
		gameFeedService:  services.GameFeed,
		jobOrchestrator:  services.Jobs,
		logger:           logger,
		validator:        validator.New(validator.WithRequiredStructEnabled()),
		now:              time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeAndValidate reads a JSON body into dst. An empty body leaves dst
// zero-valued when allowEmpty is set.
func (h *Handler) decodeAndValidate(ctx context.Context, r *http.Request, dst any, allowEmpty bool) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(raw) > maxRequestBodyBytes {
		return fmt.Errorf("%w: request body too large", usecase.ErrInvalidInput)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}

	decoder := sonic.ConfigStd.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return h.validateRequest(ctx, dst)
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func pathWeek(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("week"))
	week, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: week %q is not a number", usecase.ErrInvalidInput, raw)
	}
	return week, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", usecase.ErrInvalidInput, name)
	}
	return value, nil
}
