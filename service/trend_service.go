package services

import (
	"fmt"
	"log/slog"
	"sort"

	"pos-insights/apperr"
	"pos-insights/logging"
	"pos-insights/metrics"
	"pos-insights/models"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// YearlyTotal is the summed total_amount of one year.
type YearlyTotal struct {
	Year  int
	Total float64
}

// TrendService fits total = alpha + beta*Year over yearly totals.
type TrendService struct {
	targetYear int
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewTrendService(targetYear int, logger *slog.Logger, m *metrics.Metrics) *TrendService {
	return &TrendService{
		targetYear: targetYear,
		logger:     logging.For(logger, "TrendService"),
		metrics:    m,
	}
}

// TargetYear returns the default year predicted by Predict.
func (s *TrendService) TargetYear() int {
	return s.targetYear
}

// Predict projects the configured target year.
func (s *TrendService) Predict(ds *models.Dataset) (*models.YearlyPrediction, error) {
	return s.PredictYear(ds, s.targetYear)
}

// PredictYear projects the total for year. With a single observed year the
// prediction is that year's total.
func (s *TrendService) PredictYear(ds *models.Dataset, year int) (*models.YearlyPrediction, error) {
	totals := YearlyTotals(ds)
	if len(totals) == 0 {
		s.metrics.Forecast("yearly", metrics.RESULT_UNAVAILABLE)
		return nil, &apperr.ForecastUnavailable{Reason: "no rows with both Year and total_amount"}
	}

	pred := &models.YearlyPrediction{TargetYear: year, YearsObserved: len(totals)}
	if len(totals) == 1 {
		pred.Intercept = totals[0].Total
		pred.PredictedTotal = totals[0].Total
	} else {
		xs := make([]float64, len(totals))
		ys := make([]float64, len(totals))
		for i, t := range totals {
			xs[i] = float64(t.Year)
			ys[i] = t.Total
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		pred.Intercept = alpha
		pred.Slope = beta
		pred.PredictedTotal = alpha + beta*float64(year)
	}

	s.logger.Info("Predicted yearly total",
		slog.Int("target_year", year),
		slog.Int("years_observed", pred.YearsObserved),
		slog.String("predicted_total", fmt.Sprintf("%.2f", pred.PredictedTotal)),
	)
	s.metrics.Forecast("yearly", metrics.RESULT_OK)
	return pred, nil
}

// YearlyTotals sums total_amount per Year, ascending by year.
func YearlyTotals(ds *models.Dataset) []YearlyTotal {
	if ds == nil {
		return nil
	}
	sums := make(map[int]decimal.Decimal)
	for _, rec := range ds.Records {
		if !rec.DateValid || !rec.TotalAmount.Valid {
			continue
		}
		sums[rec.Year] = sums[rec.Year].Add(rec.TotalAmount.Decimal)
	}
	out := make([]YearlyTotal, 0, len(sums))
	for y, v := range sums {
		out = append(out, YearlyTotal{Year: y, Total: v.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
