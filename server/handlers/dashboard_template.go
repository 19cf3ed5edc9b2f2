package handlers

import (
	"html/template"
	"math"

	"github.com/dustin/go-humanize"
)

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"money": func(v float64) string { return formatThousands(v) },
	"isSelected": func(current, option string) bool { return current == option },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Sales Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.metric { font-size: 2em; font-weight: bold; }
.warning { background: #fff3cd; padding: .5em 1em; margin: .5em 0; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: .3em .8em; text-align: right; }
</style>
</head>
<body>
<h1>Sales Dashboard</h1>
<p>Filter and search the processed sales records.</p>
{{range .Warnings}}<div class="warning">{{.}}</div>
{{end}}
<form method="get" action="/">
  <label>Select Year
    <select name="year">{{range .Summary.YearOptions}}<option value="{{.}}"{{if isSelected $.Summary.Filter.Year .}} selected{{end}}>{{.}}</option>{{end}}</select>
  </label>
  <label>Select Time of Sale
    <select name="time_of_sale">{{range .Summary.TimeOptions}}<option value="{{.}}"{{if isSelected $.Summary.Filter.TimeOfSale .}} selected{{end}}>{{.}}</option>{{end}}</select>
  </label>
  <button type="submit">Apply</button>
</form>
{{if not .Summary.Empty}}
<h2>Total Sales by Item Type</h2>
<div>Total Sales (₹)</div>
<div class="metric">{{money .Summary.Total}}</div>
{{if .ChartsURL}}<iframe src="{{.ChartsURL}}" width="960" height="920" frameborder="0"></iframe>{{end}}
{{if .Forecast}}
<h2>Weekly Sales Forecast</h2>
<table>
<tr><th>Week ({{.Forecast.AnchorWeekday}})</th><th>Predicted Total</th></tr>
{{range .Forecast.Points}}<tr><td>{{.Date}}</td><td>{{printf "%.2f" .Value}}</td></tr>
{{end}}</table>
{{end}}
{{if .Prediction}}
<h2>Predict Total Sales for {{.Prediction.TargetYear}}</h2>
<div>Predicted Sales for {{.Prediction.TargetYear}} (₹)</div>
<div class="metric">{{money .Prediction.PredictedTotal}}</div>
{{end}}
{{end}}
</body>
</html>
`))

// formatThousands renders v rounded to a whole number with comma grouping.
func formatThousands(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
