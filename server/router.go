package server

import (
	"net/http"

	"pos-insights/metrics"

	"github.com/gorilla/mux"
)

// DashboardRoutes is the handler surface the router binds.
type DashboardRoutes interface {
	GetDashboard(w http.ResponseWriter, r *http.Request)
	GetSalesCharts(w http.ResponseWriter, r *http.Request)
	GetSalesSummary(w http.ResponseWriter, r *http.Request)
	GetWeeklyForecast(w http.ResponseWriter, r *http.Request)
	GetYearlyForecast(w http.ResponseWriter, r *http.Request)
	InvalidateCache(w http.ResponseWriter, r *http.Request)
	Ping(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	dashboardHandler  DashboardRoutes
	metrics           *metrics.Metrics
	invalidateLimiter *RateLimiter
	router            *mux.Router
}

// NewRouter creates a router with the app's routes. m and invalidateLimiter
// may be nil.
func NewRouter(
	dashboardHandler DashboardRoutes,
	m *metrics.Metrics,
	invalidateLimiter *RateLimiter,
	router *mux.Router) *Router {
	return &Router{
		dashboardHandler:  dashboardHandler,
		metrics:           m,
		invalidateLimiter: invalidateLimiter,
		router:            router,
	}
}

func (r *Router) RegisterRoutes() {
	r.router.Use(r.countRequests)

	// expects ?year={year|All}&time_of_sale={bucket|All}
	r.router.HandleFunc("/", r.dashboardHandler.GetDashboard).Methods("GET")
	r.router.HandleFunc("/charts/sales", r.dashboardHandler.GetSalesCharts).Methods("GET")
	r.router.HandleFunc("/v1/sales/summary", r.dashboardHandler.GetSalesSummary).Methods("GET")

	r.router.HandleFunc("/v1/forecast/weekly", r.dashboardHandler.GetWeeklyForecast).Methods("GET")
	// expects optional ?year={int}
	r.router.HandleFunc("/v1/forecast/yearly", r.dashboardHandler.GetYearlyForecast).Methods("GET")

	// expects optional ?path={dataset path}; empty drops every entry
	r.router.Handle("/v1/cache/invalidate",
		r.invalidateLimiter.Handler(http.HandlerFunc(r.dashboardHandler.InvalidateCache))).Methods("POST")

	if r.metrics != nil {
		r.router.Handle("/metrics", r.metrics.Handler()).Methods("GET")
	}
	r.router.HandleFunc("/ping", r.dashboardHandler.Ping).Methods("GET")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		route := req.URL.Path
		if current := mux.CurrentRoute(req); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		r.metrics.HTTPRequest(route, rec.status)
	})
}
