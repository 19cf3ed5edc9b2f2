package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"pos-insights/apperr"
	"pos-insights/logging"
	"pos-insights/metrics"
	"pos-insights/models"
	"pos-insights/regression"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyDataset has one sale per day starting 2023-01-01, skipping every day
// for which skip returns true.
func dailyDataset(days int, skip func(i int) bool) *models.Dataset {
	ds := &models.Dataset{Columns: []string{models.COL_DATE, models.COL_ITEM_TYPE, models.COL_TOTAL_AMOUNT}}
	start := date(2023, 1, 1)
	for i := 0; i < days; i++ {
		if skip != nil && skip(i) {
			continue
		}
		d := start.AddDate(0, 0, i)
		value := 100 + 10*float64(i%7) + float64(i)
		ds.Records = append(ds.Records, models.CanonicalTransaction{
			Date:            d,
			DateValid:       true,
			Year:            d.Year(),
			ItemType:        "Fastfood",
			TransactionType: "Cash",
			TotalAmount:     decimal.NewNullDecimal(decimal.NewFromFloat(value)),
		})
	}
	return ds
}

func testForecaster(m *metrics.Metrics) *WeeklyForecastService {
	return NewWeeklyForecastService(WeeklyForecastOptions{
		Anchor:  time.Friday,
		Lags:    8,
		Horizon: 4,
		Forest:  regression.Params{Trees: 30, Seed: 42},
	}, logging.Discard(), m)
}

func TestFillDailyGaps_Interpolates(t *testing.T) {
	// Arrange: [10, null, 30] on three consecutive days
	daily := models.DailySales{
		{Date: date(2023, 5, 1), Value: 10},
		{Date: date(2023, 5, 3), Value: 30},
	}

	// Act
	filled, err := FillDailyGaps(daily)

	// Assert
	require.NoError(t, err)
	require.Len(t, filled, 3)
	assert.Equal(t, date(2023, 5, 2), filled[1].Date)
	assert.InDelta(t, 20.0, filled[1].Value, 1e-9)
	assert.True(t, filled[1].Interpolated)
	assert.False(t, filled[0].Interpolated)
}

func TestFillDailyGaps_NoGapsAfterReindex(t *testing.T) {
	// Day 0 and day 59 survive the skip rule, so the span is 60 days.
	ds := dailyDataset(60, func(i int) bool { return i%5 == 2 || i%11 == 3 })
	daily, err := AggregateDailySales(ds)
	require.NoError(t, err)
	require.Less(t, len(daily), 60)

	filled, err := FillDailyGaps(daily)

	require.NoError(t, err)
	assert.Len(t, filled, 60)
	assert.Equal(t, date(2023, 1, 1), filled[0].Date)
	assert.Equal(t, date(2023, 3, 1), filled[len(filled)-1].Date)
	for i := 1; i < len(filled); i++ {
		assert.Equal(t, filled[i-1].Date.AddDate(0, 0, 1), filled[i].Date)
	}
}

func TestAggregateDailySales_NullDayIsInterpolated(t *testing.T) {
	// Arrange
	ds := &models.Dataset{
		Columns: []string{models.COL_DATE, models.COL_TOTAL_AMOUNT},
		Records: []models.CanonicalTransaction{
			{Date: date(2023, 5, 1), DateValid: true, TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(4))},
			{Date: date(2023, 5, 1), DateValid: true, TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(6))},
			{Date: date(2023, 5, 2), DateValid: true},
			{Date: date(2023, 5, 3), DateValid: true, TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(30))},
			{DateValid: false, TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(999))},
		},
	}

	// Act
	daily, err := AggregateDailySales(ds)
	require.NoError(t, err)
	filled, err := FillDailyGaps(daily)

	// Assert
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, 10.0, daily[0].Value)
	assert.InDelta(t, 20.0, filled[1].Value, 1e-9)
}

func TestAggregateDailySales_TransactionAmountSynonym(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{models.COL_DATE, models.COL_TRANSACTION_AMOUNT},
		Records: []models.CanonicalTransaction{
			{Date: date(2023, 5, 1), DateValid: true, Extra: map[string]string{"transaction_amount": "260"}},
			{Date: date(2023, 5, 1), DateValid: true, Extra: map[string]string{"transaction_amount": "NaN"}},
		},
	}

	daily, err := AggregateDailySales(ds)

	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 260.0, daily[0].Value)
}

func TestAggregateDailySales_MissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
	}{
		{"no date", []string{models.COL_TOTAL_AMOUNT}},
		{"no sales column", []string{models.COL_DATE, models.COL_ITEM_TYPE}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AggregateDailySales(&models.Dataset{Columns: tt.columns})
			assert.True(t, apperr.IsForecastUnavailable(err))
		})
	}
}

func TestSampleWeeklyAndLagRows(t *testing.T) {
	// Arrange
	daily, err := FillDailyGaps(mustDaily(t, dailyDataset(70, nil)))
	require.NoError(t, err)

	// Act
	weekly := SampleWeekly(daily, time.Friday)
	rows := BuildLagRows(weekly, 8)

	// Assert
	require.Len(t, weekly, 10)
	assert.Equal(t, date(2023, 1, 6), weekly[0].Date)
	for _, w := range weekly {
		assert.Equal(t, time.Friday, w.Date.Weekday())
	}
	require.Len(t, rows, 2)
	assert.Equal(t, weekly[8].Date, rows[0].Date)
	assert.Equal(t, weekly[8].Value, rows[0].Target)
	assert.Equal(t, weekly[7].Value, rows[0].Lags[0])
	assert.Equal(t, weekly[0].Value, rows[0].Lags[7])
	assert.Nil(t, BuildLagRows(weekly[:8], 8))
}

func mustDaily(t *testing.T, ds *models.Dataset) models.DailySales {
	t.Helper()
	daily, err := AggregateDailySales(ds)
	require.NoError(t, err)
	return daily
}

func TestWeeklyForecastService_Forecast(t *testing.T) {
	// Arrange
	ds := dailyDataset(180, func(i int) bool { return i%9 == 3 })
	m := metrics.New()
	svc := testForecaster(m)
	weekly := SampleWeekly(mustFilled(t, ds), time.Friday)
	last := weekly[len(weekly)-1].Date

	// Act
	result, err := svc.Forecast(ds)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Points, 4)
	assert.Equal(t, last.Format("2006-01-02"), result.LastObserved)
	assert.Equal(t, len(weekly)-8, result.TrainingRows)
	for k, p := range result.Points {
		assert.Equal(t, last.AddDate(0, 0, 7*(k+1)).Format("2006-01-02"), p.Date)
		assert.Equal(t, math.Round(p.Value*100)/100, p.Value)
		assert.Greater(t, p.Value, 0.0)
	}
	assert.Len(t, result.AsMap(), 4)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForecastRequests.WithLabelValues("weekly", metrics.RESULT_OK)))

	again, err := svc.Forecast(ds)
	require.NoError(t, err)
	assert.Equal(t, result.Points, again.Points)
}

func mustFilled(t *testing.T, ds *models.Dataset) models.DailySales {
	t.Helper()
	filled, err := FillDailyGaps(mustDaily(t, ds))
	require.NoError(t, err)
	return filled
}

func TestWeeklyForecastService_InsufficientHistory(t *testing.T) {
	m := metrics.New()

	_, err := testForecaster(m).Forecast(dailyDataset(40, nil))

	var unavailable *apperr.ForecastUnavailable
	require.True(t, errors.As(err, &unavailable))
	assert.ErrorIs(t, err, apperr.ErrInsufficientHistory)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForecastRequests.WithLabelValues("weekly", metrics.RESULT_UNAVAILABLE)))
}

type stepPredictor struct {
	inputs [][]float64
}

func (s *stepPredictor) Predict(x []float64) (float64, error) {
	s.inputs = append(s.inputs, append([]float64(nil), x...))
	return x[0] + 0.123, nil
}

func TestForecastIterator_ShiftsWindow(t *testing.T) {
	// Arrange
	model := &stepPredictor{}
	anchor := date(2023, 6, 30)
	it := NewForecastIterator(model, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3, anchor)

	// Act
	d1, v1, err1 := it.Next()
	d2, v2, err2 := it.Next()

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, anchor.AddDate(0, 0, 7), d1)
	assert.Equal(t, anchor.AddDate(0, 0, 14), d2)
	assert.Equal(t, 10.12, v1)
	assert.Equal(t, 10.25, v2)
	assert.Equal(t, []float64{10, 9, 8}, model.inputs[0])
	assert.InDeltaSlice(t, []float64{10.123, 10, 9}, model.inputs[1], 1e-9)
	assert.Len(t, it.Window(), 3)
}
