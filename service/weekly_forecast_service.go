package services

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"pos-insights/apperr"
	"pos-insights/config"
	"pos-insights/logging"
	"pos-insights/metrics"
	"pos-insights/models"
	"pos-insights/regression"
	"pos-insights/util"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/interp"
)

const WINDOW_SIZE = config.MAX_FORECAST_LAGS

// salesColumns lists the accepted sales-amount columns in preference order.
var salesColumns = []string{models.COL_TOTAL_AMOUNT, models.COL_TRANSACTION_AMOUNT}

// WeeklyForecastOptions configures the weekly forecaster.
type WeeklyForecastOptions struct {
	Anchor  time.Weekday
	Lags    int
	Horizon int
	Forest  regression.Params
}

// WeeklyForecastService projects weekly sales totals with a random forest over
// lagged weekly values.
type WeeklyForecastService struct {
	opts    WeeklyForecastOptions
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWeeklyForecastService(opts WeeklyForecastOptions, logger *slog.Logger, m *metrics.Metrics) *WeeklyForecastService {
	if opts.Lags <= 0 || opts.Lags > WINDOW_SIZE {
		opts.Lags = WINDOW_SIZE
	}
	if opts.Horizon <= 0 {
		opts.Horizon = config.DEFAULT_FORECAST_HORIZON
	}
	return &WeeklyForecastService{
		opts:    opts,
		logger:  logging.For(logger, "WeeklyForecastService"),
		metrics: m,
	}
}

// Forecast runs the full chain: daily sums, gap filling, weekly anchors, lag
// rows, forest training and the auto-regressive projection. Missing columns
// and short histories come back as *apperr.ForecastUnavailable.
func (s *WeeklyForecastService) Forecast(ds *models.Dataset) (*models.ForecastResult, error) {
	result, err := s.forecast(ds)
	if err != nil {
		if apperr.IsForecastUnavailable(err) {
			s.logger.Warn("Weekly forecast unavailable", slog.Any("error", err))
			s.metrics.Forecast("weekly", metrics.RESULT_UNAVAILABLE)
		} else {
			s.logger.Error("Weekly forecast failed", slog.Any("error", err))
			s.metrics.Forecast("weekly", metrics.RESULT_ERROR)
		}
		return nil, err
	}
	s.metrics.Forecast("weekly", metrics.RESULT_OK)
	return result, nil
}

func (s *WeeklyForecastService) forecast(ds *models.Dataset) (*models.ForecastResult, error) {
	weekly, err := s.History(ds)
	if err != nil {
		return nil, err
	}
	rows := BuildLagRows(weekly, s.opts.Lags)
	if len(rows) == 0 {
		return nil, &apperr.ForecastUnavailable{
			Reason: fmt.Sprintf("need at least %d weekly anchors, have %d", s.opts.Lags+1, len(weekly)),
			Err:    apperr.ErrInsufficientHistory,
		}
	}
	s.logger.Info("Built weekly training set",
		slog.Int("weeks", len(weekly)),
		slog.Int("rows", len(rows)),
	)

	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.Lags
		y[i] = r.Target
	}
	forest := regression.NewRandomForest(s.opts.Forest)
	if err := forest.Fit(x, y); err != nil {
		return nil, fmt.Errorf("failed to train weekly model: %w", err)
	}

	last := weekly[len(weekly)-1].Date
	it := NewForecastIterator(forest, weekly.Values(), s.opts.Lags, last)
	points := make([]models.ForecastPoint, 0, s.opts.Horizon)
	for i := 0; i < s.opts.Horizon; i++ {
		date, value, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to predict step %d: %w", i+1, err)
		}
		points = append(points, models.ForecastPoint{Date: util.FormatDate(date), Value: value})
	}

	return &models.ForecastResult{
		AnchorWeekday: s.opts.Anchor.String(),
		LastObserved:  util.FormatDate(last),
		TrainingRows:  len(rows),
		Points:        points,
	}, nil
}

// History returns the gap-filled weekly series the model trains on.
func (s *WeeklyForecastService) History(ds *models.Dataset) (models.WeeklySales, error) {
	daily, err := AggregateDailySales(ds)
	if err != nil {
		return nil, err
	}
	filled, err := FillDailyGaps(daily)
	if err != nil {
		return nil, err
	}
	return SampleWeekly(filled, s.opts.Anchor), nil
}

// SalesColumn picks the sales-amount column of the dataset.
func SalesColumn(ds *models.Dataset) (string, bool) {
	for _, c := range salesColumns {
		if ds.HasColumn(c) {
			return c, true
		}
	}
	return "", false
}

func salesAmount(rec models.CanonicalTransaction, column string) (decimal.Decimal, bool) {
	if column == models.COL_TOTAL_AMOUNT {
		return rec.TotalAmount.Decimal, rec.TotalAmount.Valid
	}
	raw, ok := rec.Extra[column]
	if !ok {
		return decimal.Decimal{}, false
	}
	d := parseDecimal(raw, true)
	return d.Decimal, d.Valid
}

// AggregateDailySales sums the sales column per calendar date. Rows with an
// invalid date or a null amount are skipped.
func AggregateDailySales(ds *models.Dataset) (models.DailySales, error) {
	if ds == nil || !ds.HasColumn(models.COL_DATE) {
		return nil, &apperr.ForecastUnavailable{Reason: "dataset has no date column"}
	}
	column, ok := SalesColumn(ds)
	if !ok {
		return nil, &apperr.ForecastUnavailable{
			Reason: "dataset has no sales amount column (" + strings.Join(salesColumns, " or ") + ")",
		}
	}

	sums := make(map[time.Time]decimal.Decimal)
	for _, rec := range ds.Records {
		if !rec.DateValid {
			continue
		}
		amount, ok := salesAmount(rec, column)
		if !ok {
			continue
		}
		sums[rec.Date] = sums[rec.Date].Add(amount)
	}
	if len(sums) == 0 {
		return nil, &apperr.ForecastUnavailable{Reason: "no dated sales", Err: apperr.ErrInsufficientHistory}
	}

	daily := make(models.DailySales, 0, len(sums))
	for d, v := range sums {
		daily = append(daily, models.SeriesPoint{Date: d, Value: v.InexactFloat64()})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date.Before(daily[j].Date) })
	return daily, nil
}

// FillDailyGaps reindexes the series onto every day in [min, max] and fills
// absent days by linear interpolation between the nearest known days.
func FillDailyGaps(daily models.DailySales) (models.DailySales, error) {
	if len(daily) < 2 {
		return append(models.DailySales(nil), daily...), nil
	}

	start := daily[0].Date
	xs := make([]float64, len(daily))
	ys := make([]float64, len(daily))
	known := make(map[int]float64, len(daily))
	for i, p := range daily {
		offset := daysBetween(start, p.Date)
		xs[i] = float64(offset)
		ys[i] = p.Value
		known[offset] = p.Value
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("failed to fit daily interpolation: %w", err)
	}

	span := daysBetween(start, daily[len(daily)-1].Date)
	out := make(models.DailySales, 0, span+1)
	for offset := 0; offset <= span; offset++ {
		date := start.AddDate(0, 0, offset)
		if v, ok := known[offset]; ok {
			out = append(out, models.SeriesPoint{Date: date, Value: v})
			continue
		}
		out = append(out, models.SeriesPoint{Date: date, Value: pl.Predict(float64(offset)), Interpolated: true})
	}
	return out, nil
}

// SampleWeekly keeps the days of a gap-free daily series that fall on anchor.
func SampleWeekly(daily models.DailySales, anchor time.Weekday) models.WeeklySales {
	var weekly models.WeeklySales
	for _, p := range daily {
		if p.Date.Weekday() == anchor {
			weekly = append(weekly, p)
		}
	}
	return weekly
}

// BuildLagRows builds one row per week that has lags preceding weeks;
// Lags[0] is the previous week.
func BuildLagRows(weekly models.WeeklySales, lags int) []models.LagRow {
	if lags <= 0 || len(weekly) <= lags {
		return nil
	}
	rows := make([]models.LagRow, 0, len(weekly)-lags)
	for t := lags; t < len(weekly); t++ {
		row := models.LagRow{Date: weekly[t].Date, Lags: make([]float64, lags), Target: weekly[t].Value}
		for k := 0; k < lags; k++ {
			row.Lags[k] = weekly[t-1-k].Value
		}
		rows = append(rows, row)
	}
	return rows
}

// Predictor is the model contract the iterator drives.
type Predictor interface {
	Predict(x []float64) (float64, error)
}

// ForecastIterator projects one week per Next call, feeding each prediction
// back in as the newest lag.
type ForecastIterator struct {
	model  Predictor
	window [WINDOW_SIZE]float64
	lags   int
	date   time.Time
}

// NewForecastIterator seeds the window from the tail of history: window[0] is
// the last observed week. lastAnchor is the date of that week.
func NewForecastIterator(model Predictor, history []float64, lags int, lastAnchor time.Time) *ForecastIterator {
	it := &ForecastIterator{model: model, lags: lags, date: lastAnchor}
	for k := 0; k < lags && k < len(history); k++ {
		it.window[k] = history[len(history)-1-k]
	}
	return it
}

// Next returns the next anchor date and its prediction rounded to 2 dp.
func (it *ForecastIterator) Next() (time.Time, float64, error) {
	pred, err := it.model.Predict(it.window[:it.lags])
	if err != nil {
		return time.Time{}, 0, err
	}
	copy(it.window[1:it.lags], it.window[:it.lags-1])
	it.window[0] = pred
	it.date = it.date.AddDate(0, 0, 7)
	return it.date, roundTo(pred, 2), nil
}

// Window returns a copy of the active lag window, newest first.
func (it *ForecastIterator) Window() []float64 {
	return append([]float64(nil), it.window[:it.lags]...)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
