package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "nfl_pick_two"

// Metrics records engine counters on a dedicated registry. It satisfies
// usecase.MetricsRecorder.
type Metrics struct {
	registry        *prometheus.Registry
	pickSubmissions *prometheus.CounterVec
	scoresPersisted prometheus.Counter
	gamesIngested   *prometheus.CounterVec
	gamesLocked     prometheus.Counter
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pickSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pick_submissions_total",
			Help:      "Week pick submissions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		scoresPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scores_persisted_total",
			Help:      "Weekly score rows written.",
		}),
		gamesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "games_ingested_total",
			Help:      "Feed game records by result.",
		}, []string{"result"}),
		gamesLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "games_locked_total",
			Help:      "Games moved from scheduled to live by the lock job.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "job_runs_total",
			Help:      "Scheduler job runs by job and status.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduler job run duration.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status class.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pickSubmissions,
		m.scoresPersisted,
		m.gamesIngested,
		m.gamesLocked,
		m.jobRuns,
		m.jobDuration,
		m.httpRequests,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PickSubmitted(mode, outcome string) {
	m.pickSubmissions.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ScoresPersisted(count int) {
	if count > 0 {
		m.scoresPersisted.Add(float64(count))
	}
}

func (m *Metrics) GamesIngested(upserted, skipped int) {
	if upserted > 0 {
		m.gamesIngested.WithLabelValues("upserted").Add(float64(upserted))
	}
	if skipped > 0 {
		m.gamesIngested.WithLabelValues("skipped").Add(float64(skipped))
	}
}

func (m *Metrics) GamesLocked(count int) {
	if count > 0 {
		m.gamesLocked.Add(float64(count))
	}
}

func (m *Metrics) JobFinished(job, status string, elapsed time.Duration) {
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// HTTPRequest counts one request. route is the mux pattern, never the raw path.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
