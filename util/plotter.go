package util

import (
	"fmt"
	"io"

	"pos-insights/models"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// SalesByItemTypeBar charts the filtered totals per item type, in the order
// the summary lists them.
func SalesByItemTypeBar(summary *models.SalesSummary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Sales by Item Type",
			Width:     "900px",
			Height:    "450px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Total Sales by Item Type",
			Subtitle: fmt.Sprintf("%s, %s", filterLabel(summary.Filter.Year, "All Years"), filterLabel(summary.Filter.TimeOfSale, "All Times")),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Total Sales"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Item Type"}),
	)

	labels := make([]string, 0, len(summary.ByItemType))
	values := make([]opts.BarData, 0, len(summary.ByItemType))
	for _, t := range summary.ByItemType {
		labels = append(labels, t.ItemType)
		values = append(values, opts.BarData{Name: t.ItemType, Value: t.Total})
	}
	bar.SetXAxis(labels).AddSeries("total_amount", values)
	return bar
}

// WeeklyForecastLine draws observed weekly totals followed by the projected
// weeks as a second series. forecast may be nil.
func WeeklyForecastLine(history models.WeeklySales, forecast *models.ForecastResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Weekly Sales Forecast",
			Width:     "900px",
			Height:    "400px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Weekly Sales and Forecast"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	var points []models.ForecastPoint
	if forecast != nil {
		points = forecast.Points
	}

	dates := make([]string, 0, len(history)+len(points))
	observed := make([]opts.LineData, 0, len(history)+len(points))
	projected := make([]opts.LineData, 0, len(history)+len(points))
	for i, p := range history {
		dates = append(dates, FormatDate(p.Date))
		observed = append(observed, opts.LineData{Value: p.Value})
		// Join the projection to the last observed point.
		if i == len(history)-1 && len(points) > 0 {
			projected = append(projected, opts.LineData{Value: p.Value})
		} else {
			projected = append(projected, opts.LineData{Value: nil})
		}
	}
	for _, p := range points {
		dates = append(dates, p.Date)
		observed = append(observed, opts.LineData{Value: nil})
		projected = append(projected, opts.LineData{Value: p.Value})
	}

	line.SetXAxis(dates).
		AddSeries("Observed", observed).
		AddSeries("Forecast", projected)
	return line
}

// RenderChartsPage writes the charts as one standalone HTML page.
func RenderChartsPage(w io.Writer, chartList ...components.Charter) error {
	page := components.NewPage()
	page.AddCharts(chartList...)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}

func filterLabel(value, all string) string {
	if value == "" || value == models.FILTER_ALL {
		return all
	}
	return value
}
