package models

import "time"

// SeriesPoint is one observation of a date-indexed sales series.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	// Interpolated marks days that were absent from the aggregate.
	Interpolated bool `json:"interpolated,omitempty"`
}

// DailySales is the per-day sum of sales, ordered by date.
type DailySales []SeriesPoint

// WeeklySales is the daily series sampled at each anchor weekday.
type WeeklySales []SeriesPoint

// LagRow holds lag_1..lag_n (Lags[0] is the previous week) and the target.
type LagRow struct {
	Date   time.Time `json:"date"`
	Lags   []float64 `json:"lags"`
	Target float64   `json:"target"`
}

// Values returns the series values in order.
func (w WeeklySales) Values() []float64 {
	out := make([]float64, len(w))
	for i, p := range w {
		out[i] = p.Value
	}
	return out
}
