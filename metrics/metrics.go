package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos_insights"

// Result label values.
const (
	RESULT_OK          = "ok"
	RESULT_ERROR       = "error"
	RESULT_UNAVAILABLE = "unavailable"
)

// Metrics owns a private registry so tests and multiple containers never
// collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	PipelineRuns        *prometheus.CounterVec
	PipelineRows        prometheus.Counter
	PersistenceWarnings prometheus.Counter
	ForecastRequests    *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Normalizer runs by result.",
		}, []string{"result"}),
		PipelineRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_rows_total",
			Help:      "Canonical rows produced by the normalizer.",
		}),
		PersistenceWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_warnings_total",
			Help:      "Canonical dataset writes that failed.",
		}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_requests_total",
			Help:      "Forecasts computed by model and result.",
		}, []string{"model", "result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_lookups_total",
			Help:      "Dataset cache lookups by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PipelineRuns,
		m.PipelineRows,
		m.PersistenceWarnings,
		m.ForecastRequests,
		m.CacheLookups,
		m.HTTPRequests,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// CacheHit and CacheMiss are nil-safe so collaborators can run without
// metrics.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) PipelineRun(result string, rows int) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(result).Inc()
	if rows > 0 {
		m.PipelineRows.Add(float64(rows))
	}
}

func (m *Metrics) PersistenceWarning() {
	if m != nil {
		m.PersistenceWarnings.Inc()
	}
}

func (m *Metrics) Forecast(model, result string) {
	if m != nil {
		m.ForecastRequests.WithLabelValues(model, result).Inc()
	}
}

func (m *Metrics) HTTPRequest(route string, code int) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}
