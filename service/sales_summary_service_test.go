package services

import (
	"testing"

	"pos-insights/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryDataset() *models.Dataset {
	rec := func(year int, itemType, timeOfSale string, amount int64) models.CanonicalTransaction {
		return models.CanonicalTransaction{
			Date:            date(year, 3, 1),
			DateValid:       true,
			Year:            year,
			ItemType:        itemType,
			TimeOfSale:      timeOfSale,
			TransactionType: "Cash",
			TotalAmount:     decimal.NewNullDecimal(decimal.NewFromInt(amount)),
		}
	}
	return &models.Dataset{Records: []models.CanonicalTransaction{
		rec(2022, "Fastfood", "Night", 100),
		rec(2022, "Beverages", "Morning", 300),
		rec(2023, "Fastfood", "Night", 50),
		rec(2023, "Beverages", "Night", 20),
		{ItemType: "Fastfood", TimeOfSale: "Evening", TransactionType: "Cash"},
	}}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.SalesFilter
		wantTotal float64
		wantRows  int
		wantBars  []models.ItemTypeTotal
	}{
		{
			name:      "no filter",
			filter:    models.SalesFilter{},
			wantTotal: 470,
			wantRows:  5,
			wantBars:  []models.ItemTypeTotal{{ItemType: "Beverages", Total: 320}, {ItemType: "Fastfood", Total: 150}},
		},
		{
			name:      "year",
			filter:    models.SalesFilter{Year: "2023", TimeOfSale: "All"},
			wantTotal: 70,
			wantRows:  2,
			wantBars:  []models.ItemTypeTotal{{ItemType: "Fastfood", Total: 50}, {ItemType: "Beverages", Total: 20}},
		},
		{
			name:      "year and time of sale",
			filter:    models.SalesFilter{Year: "2022", TimeOfSale: "Night"},
			wantTotal: 100,
			wantRows:  1,
			wantBars:  []models.ItemTypeTotal{{ItemType: "Fastfood", Total: 100}},
		},
		{
			name:      "no matches",
			filter:    models.SalesFilter{Year: "1999"},
			wantTotal: 0,
			wantRows:  0,
			wantBars:  []models.ItemTypeTotal{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			summary, err := Summarize(summaryDataset(), tt.filter)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, summary.Total)
			assert.Equal(t, tt.wantRows, summary.Rows)
			assert.Equal(t, tt.wantBars, summary.ByItemType)
			assert.False(t, summary.Empty)
		})
	}
}

func TestSummarize_Options(t *testing.T) {
	summary, err := Summarize(summaryDataset(), models.SalesFilter{})

	require.NoError(t, err)
	assert.Equal(t, []string{"All", "2022", "2023"}, summary.YearOptions)
	assert.Equal(t, []string{"All", "Evening", "Morning", "Night"}, summary.TimeOptions)
	assert.Equal(t, models.FILTER_ALL, summary.Filter.Year)
}

func TestSummarize_Empty(t *testing.T) {
	summary, err := Summarize(&models.Dataset{}, models.SalesFilter{})

	require.NoError(t, err)
	assert.True(t, summary.Empty)
	assert.Equal(t, []string{"All"}, summary.YearOptions)
}

func TestSummarize_InvalidYear(t *testing.T) {
	_, err := Summarize(summaryDataset(), models.SalesFilter{Year: "twenty"})
	assert.Error(t, err)
}
