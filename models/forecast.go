package models

import (
	"pos-insights/apperr"

	"github.com/google/uuid"
)

// ForecastPoint is one projected weekly total.
type ForecastPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"predicted_total"`
}

// ForecastResult is the ordered weekly projection.
type ForecastResult struct {
	AnchorWeekday string          `json:"anchor_weekday"`
	LastObserved  string          `json:"last_observed"`
	TrainingRows  int             `json:"training_rows"`
	Points        []ForecastPoint `json:"points"`
}

// AsMap keys predictions by date string.
func (r *ForecastResult) AsMap() map[string]float64 {
	out := make(map[string]float64, len(r.Points))
	for _, p := range r.Points {
		out[p.Date] = p.Value
	}
	return out
}

// YearlyPrediction is the single-scalar output of the yearly trend model.
type YearlyPrediction struct {
	TargetYear     int     `json:"target_year"`
	PredictedTotal float64 `json:"predicted_total"`
	Intercept      float64 `json:"intercept"`
	Slope          float64 `json:"slope"`
	YearsObserved  int     `json:"years_observed"`
}

// NormalizeResult is what one pipeline run hands back. Warning is set when the
// canonical file could not be written; Dataset is usable either way.
type NormalizeResult struct {
	RunID      uuid.UUID                  `json:"run_id"`
	Dataset    *Dataset                   `json:"-"`
	OutputPath string                     `json:"output_path"`
	Persisted  bool                       `json:"persisted"`
	Warning    *apperr.PersistenceWarning `json:"-"`
	Stats      NormalizeStats             `json:"stats"`
}

// NormalizeStats counts what the normalizer did to the batch.
type NormalizeStats struct {
	Rows                  int `json:"rows"`
	InvalidDates          int `json:"invalid_dates"`
	FilledTransactionType int `json:"filled_transaction_type"`
	NullTotals            int `json:"null_totals"`
}
