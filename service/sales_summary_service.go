package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pos-insights/models"

	"github.com/shopspring/decimal"
)

// Summarize applies filter and totals the remaining rows by item_type, largest
// first. The filter options always come from the whole dataset.
func Summarize(ds *models.Dataset, filter models.SalesFilter) (*models.SalesSummary, error) {
	filter = normalizeFilter(filter)
	if ds == nil {
		ds = &models.Dataset{}
	}

	var year int
	if filter.Year != models.FILTER_ALL {
		y, err := strconv.Atoi(filter.Year)
		if err != nil {
			return nil, fmt.Errorf("invalid year filter %q: %w", filter.Year, err)
		}
		year = y
	}

	summary := &models.SalesSummary{
		Filter:      filter,
		YearOptions: yearOptions(ds),
		TimeOptions: timeOptions(ds),
		ByItemType:  []models.ItemTypeTotal{},
	}
	if ds.Len() == 0 {
		summary.Empty = true
		return summary, nil
	}

	total := decimal.Zero
	byType := make(map[string]decimal.Decimal)
	for _, rec := range ds.Records {
		if filter.Year != models.FILTER_ALL && (!rec.DateValid || rec.Year != year) {
			continue
		}
		if filter.TimeOfSale != models.FILTER_ALL && rec.TimeOfSale != filter.TimeOfSale {
			continue
		}
		summary.Rows++
		if !rec.TotalAmount.Valid {
			continue
		}
		total = total.Add(rec.TotalAmount.Decimal)
		byType[rec.ItemType] = byType[rec.ItemType].Add(rec.TotalAmount.Decimal)
	}

	summary.Total = total.InexactFloat64()
	for itemType, v := range byType {
		summary.ByItemType = append(summary.ByItemType, models.ItemTypeTotal{ItemType: itemType, Total: v.InexactFloat64()})
	}
	sort.Slice(summary.ByItemType, func(i, j int) bool {
		a, b := summary.ByItemType[i], summary.ByItemType[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.ItemType < b.ItemType
	})
	return summary, nil
}

func normalizeFilter(f models.SalesFilter) models.SalesFilter {
	f.Year = strings.TrimSpace(f.Year)
	f.TimeOfSale = strings.TrimSpace(f.TimeOfSale)
	if f.Year == "" || strings.EqualFold(f.Year, models.FILTER_ALL) {
		f.Year = models.FILTER_ALL
	}
	if f.TimeOfSale == "" || strings.EqualFold(f.TimeOfSale, models.FILTER_ALL) {
		f.TimeOfSale = models.FILTER_ALL
	}
	return f
}

func yearOptions(ds *models.Dataset) []string {
	seen := make(map[int]struct{})
	for _, rec := range ds.Records {
		if rec.DateValid {
			seen[rec.Year] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	out := []string{models.FILTER_ALL}
	for _, y := range years {
		out = append(out, strconv.Itoa(y))
	}
	return out
}

func timeOptions(ds *models.Dataset) []string {
	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		if rec.TimeOfSale != "" {
			seen[rec.TimeOfSale] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{models.FILTER_ALL}, values...)
}
