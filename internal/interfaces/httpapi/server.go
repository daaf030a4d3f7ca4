package httpapi

import (
	"net/http"

	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
)

type RouterConfig struct {
	CORSAllowedOrigins      []string
	InternalJobToken        string
	PickSubmitRatePerMinute int
	PickSubmitBurst         int
	// MetricsHandler is mounted at GET /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	logger *logging.Logger,
	observer RequestObserver,
	cfg RouterConfig,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.MetricsHandler)
	registerCatalogRoutes(mux, handler, verifier)
	registerLeagueRoutes(mux, handler, verifier)
	registerPickRoutes(mux, handler, verifier, newUserRateLimiter(cfg.PickSubmitRatePerMinute, cfg.PickSubmitBurst))
	registerInternalRoutes(mux, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, ObserveRoutes(observer, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
