package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"pos-insights/apperr"
	"pos-insights/logging"
	"pos-insights/models"
	services "pos-insights/service"
	"pos-insights/util"
)

const (
	YEAR_QUERY_ARG         = "year"
	TIME_OF_SALE_QUERY_ARG = "time_of_sale"
	PATH_QUERY_ARG         = "path"
)

const NO_DATA_WARNING = "No data to display. Please ensure the dataset is processed and available."

// DatasetSource loads and invalidates the canonical dataset.
type DatasetSource interface {
	Load(ctx context.Context, path string) (*models.Dataset, error)
	Invalidate(path string)
}

// WeeklyForecaster projects weekly totals.
type WeeklyForecaster interface {
	Forecast(ds *models.Dataset) (*models.ForecastResult, error)
	History(ds *models.Dataset) (models.WeeklySales, error)
}

// YearlyPredictor projects a yearly total.
type YearlyPredictor interface {
	TargetYear() int
	PredictYear(ds *models.Dataset, year int) (*models.YearlyPrediction, error)
}

// WeeklyForecastResponse carries either points or a non-blocking warning.
type WeeklyForecastResponse struct {
	Forecast *models.ForecastResult `json:"forecast"`
	Warning  string                 `json:"warning,omitempty"`
}

// YearlyForecastResponse carries either a prediction or a warning.
type YearlyForecastResponse struct {
	Prediction *models.YearlyPrediction `json:"prediction"`
	Warning    string                   `json:"warning,omitempty"`
}

type DashboardHandler struct {
	source      DatasetSource
	forecaster  WeeklyForecaster
	trend       YearlyPredictor
	datasetPath string
	logger      *slog.Logger
}

func NewDashboardHandler(source DatasetSource, forecaster WeeklyForecaster, trend YearlyPredictor, datasetPath string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		source:      source,
		forecaster:  forecaster,
		trend:       trend,
		datasetPath: datasetPath,
		logger:      logging.For(logger, "DashboardHandler"),
	}
}

// dashboardView is everything the HTML page renders.
type dashboardView struct {
	Summary    *models.SalesSummary
	Forecast   *models.ForecastResult
	Prediction *models.YearlyPrediction
	Warnings   []string
	ChartsURL  string
}

// GetDashboard handles GET /
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r, true)
	if !ok {
		return
	}

	filter := parseFilter(r.URL.Query())
	summary, err := services.Summarize(ds, filter)
	if err != nil {
		http.Error(w, "Invalid argument "+YEAR_QUERY_ARG, http.StatusBadRequest)
		return
	}

	view := dashboardView{Summary: summary}
	if summary.Empty {
		view.Warnings = append(view.Warnings, NO_DATA_WARNING)
	} else {
		view.Forecast, view.Warnings = h.weekly(ds, view.Warnings)
		view.Prediction, view.Warnings = h.yearly(ds, h.trend.TargetYear(), view.Warnings)
		view.ChartsURL = "/charts/sales?" + url.Values{
			YEAR_QUERY_ARG:         {summary.Filter.Year},
			TIME_OF_SALE_QUERY_ARG: {summary.Filter.TimeOfSale},
		}.Encode()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := dashboardTemplate.Execute(w, view); err != nil {
		h.logger.Error("Error rendering dashboard", slog.Any("error", err))
	}
}

// GetSalesCharts handles GET /charts/sales
func (h *DashboardHandler) GetSalesCharts(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r, true)
	if !ok {
		return
	}
	summary, err := services.Summarize(ds, parseFilter(r.URL.Query()))
	if err != nil {
		http.Error(w, "Invalid argument "+YEAR_QUERY_ARG, http.StatusBadRequest)
		return
	}

	forecast, _ := h.weekly(ds, nil)
	history, err := h.forecaster.History(ds)
	if err != nil {
		h.logger.Warn("Weekly history unavailable", slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := util.RenderChartsPage(w, util.SalesByItemTypeBar(summary), util.WeeklyForecastLine(history, forecast)); err != nil {
		h.logger.Error("Error rendering charts", slog.Any("error", err))
	}
}

// GetSalesSummary handles GET /v1/sales/summary
func (h *DashboardHandler) GetSalesSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r, false)
	if !ok {
		return
	}
	summary, err := services.Summarize(ds, parseFilter(r.URL.Query()))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid argument "+YEAR_QUERY_ARG)
		return
	}
	writeJSON(w, http.StatusOK, summary, h.logger)
}

// GetWeeklyForecast handles GET /v1/forecast/weekly
func (h *DashboardHandler) GetWeeklyForecast(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r, false)
	if !ok {
		return
	}
	forecast, warnings := h.weekly(ds, nil)
	resp := WeeklyForecastResponse{Forecast: forecast}
	if len(warnings) > 0 {
		resp.Warning = warnings[0]
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// GetYearlyForecast handles GET /v1/forecast/yearly?year=
func (h *DashboardHandler) GetYearlyForecast(w http.ResponseWriter, r *http.Request) {
	year := h.trend.TargetYear()
	if raw := r.URL.Query().Get(YEAR_QUERY_ARG); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid argument "+YEAR_QUERY_ARG)
			return
		}
		year = y
	}

	ds, ok := h.loadDataset(w, r, false)
	if !ok {
		return
	}
	prediction, warnings := h.yearly(ds, year, nil)
	resp := YearlyForecastResponse{Prediction: prediction}
	if len(warnings) > 0 {
		resp.Warning = warnings[0]
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// InvalidateCache handles POST /v1/cache/invalidate
func (h *DashboardHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get(PATH_QUERY_ARG)
	h.source.Invalidate(path)
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"}, h.logger)
}

// Ping handles GET /ping
func (h *DashboardHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "pong"}, h.logger)
}

// loadDataset writes the blocking 503 itself when the dataset is missing.
func (h *DashboardHandler) loadDataset(w http.ResponseWriter, r *http.Request, html bool) (*models.Dataset, bool) {
	ds, err := h.source.Load(r.Context(), h.datasetPath)
	if err == nil {
		return ds, true
	}

	var unavailable *apperr.SourceUnavailable
	if errors.As(err, &unavailable) {
		h.logger.Warn("Dataset unavailable", slog.String("path", unavailable.Path), slog.Any("error", err))
		msg := "File not found: " + unavailable.Path
		if html {
			http.Error(w, msg, http.StatusServiceUnavailable)
		} else {
			writeJSONError(w, http.StatusServiceUnavailable, msg)
		}
		return nil, false
	}

	h.logger.Error("Error loading dataset", slog.Any("error", err))
	if html {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	} else {
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
	return nil, false
}

func (h *DashboardHandler) weekly(ds *models.Dataset, warnings []string) (*models.ForecastResult, []string) {
	forecast, err := h.forecaster.Forecast(ds)
	if err != nil {
		return nil, append(warnings, "Weekly forecast unavailable: "+err.Error())
	}
	return forecast, warnings
}

func (h *DashboardHandler) yearly(ds *models.Dataset, year int, warnings []string) (*models.YearlyPrediction, []string) {
	prediction, err := h.trend.PredictYear(ds, year)
	if err != nil {
		return nil, append(warnings, "Yearly prediction unavailable: "+err.Error())
	}
	return prediction, warnings
}

func parseFilter(vals url.Values) models.SalesFilter {
	return models.SalesFilter{
		Year:       vals.Get(YEAR_QUERY_ARG),
		TimeOfSale: vals.Get(TIME_OF_SALE_QUERY_ARG),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding response", slog.Any("error", err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
