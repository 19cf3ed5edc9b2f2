package services

import (
	"testing"

	"pos-insights/apperr"
	"pos-insights/logging"
	"pos-insights/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yearRecord(year int, amount int64) models.CanonicalTransaction {
	return models.CanonicalTransaction{
		Date:        date(year, 6, 1),
		DateValid:   true,
		Year:        year,
		TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(amount)),
	}
}

func TestTrendService_LinearFit(t *testing.T) {
	// Arrange
	ds := &models.Dataset{Records: []models.CanonicalTransaction{
		yearRecord(2021, 60), yearRecord(2021, 40),
		yearRecord(2022, 200),
		yearRecord(2023, 300),
		{DateValid: false, TotalAmount: decimal.NewNullDecimal(decimal.NewFromInt(5000))},
		{Date: date(2023, 1, 1), DateValid: true, Year: 2023},
	}}
	svc := NewTrendService(2024, logging.Discard(), nil)

	// Act
	pred, err := svc.Predict(ds)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2024, pred.TargetYear)
	assert.Equal(t, 3, pred.YearsObserved)
	assert.InDelta(t, 100.0, pred.Slope, 1e-6)
	assert.InDelta(t, 400.0, pred.PredictedTotal, 1e-6)
}

func TestTrendService_SingleYear(t *testing.T) {
	ds := &models.Dataset{Records: []models.CanonicalTransaction{yearRecord(2023, 120), yearRecord(2023, 30)}}

	pred, err := NewTrendService(2024, logging.Discard(), nil).PredictYear(ds, 2030)

	require.NoError(t, err)
	assert.Equal(t, 150.0, pred.PredictedTotal)
	assert.Equal(t, 2030, pred.TargetYear)
}

func TestTrendService_NoData(t *testing.T) {
	_, err := NewTrendService(2024, logging.Discard(), nil).Predict(&models.Dataset{})
	assert.True(t, apperr.IsForecastUnavailable(err))
}

func TestYearlyTotals_Sorted(t *testing.T) {
	ds := &models.Dataset{Records: []models.CanonicalTransaction{yearRecord(2023, 1), yearRecord(2021, 2), yearRecord(2022, 3)}}

	totals := YearlyTotals(ds)

	assert.Equal(t, []YearlyTotal{{2021, 2}, {2022, 3}, {2023, 1}}, totals)
}
