package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"pos-insights/apperr"
	"pos-insights/config"
	"pos-insights/logging"
	"pos-insights/metrics"
	"pos-insights/models"
	"pos-insights/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TableFetcher downloads a raw table from a remote location.
type TableFetcher interface {
	FetchCSVTable(ctx context.Context, url string) (*models.RawTable, error)
}

// NormalizeOptions controls a single NormalizeTable call.
type NormalizeOptions struct {
	Policy util.DatePolicy
	// Lenient skips the required-column check. Used when re-reading the
	// canonical file, where derived columns may stand in for missing ones.
	Lenient bool
}

// NormalizerService turns raw POS exports into the canonical dataset and
// persists it.
type NormalizerService struct {
	policy  util.DatePolicy
	fetcher TableFetcher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewNormalizerService constructs a NormalizerService. fetcher may be nil when
// only local files are read.
func NewNormalizerService(policy util.DatePolicy, fetcher TableFetcher, logger *slog.Logger, m *metrics.Metrics) *NormalizerService {
	return &NormalizerService{
		policy:  policy,
		fetcher: fetcher,
		logger:  logging.For(logger, "NormalizerService"),
		metrics: m,
	}
}

// Policy returns the date policy the service normalizes with.
func (ns *NormalizerService) Policy() util.DatePolicy {
	return ns.policy
}

// Run loads inputPath, normalizes it and overwrites outputPath. A failed write
// is reported in the result's Warning; the dataset is returned regardless.
func (ns *NormalizerService) Run(ctx context.Context, inputPath, outputPath string) (*models.NormalizeResult, error) {
	runID := uuid.New()
	logger := ns.logger.With(slog.String("run_id", runID.String()))
	logger.Info("Starting normalization run", slog.String("input", inputPath), slog.String("output", outputPath))

	table, err := ns.load(ctx, inputPath)
	if err != nil {
		logger.Error("Failed to load raw dataset", slog.Any("error", err))
		ns.metrics.PipelineRun(metrics.RESULT_ERROR, 0)
		return nil, err
	}

	dataset, stats, err := NormalizeTable(table, NormalizeOptions{Policy: ns.policy})
	if err != nil {
		logger.Error("Failed to normalize dataset", slog.Any("error", err))
		ns.metrics.PipelineRun(metrics.RESULT_ERROR, 0)
		return nil, err
	}
	logger.Info("Normalized dataset",
		slog.Int("rows", stats.Rows),
		slog.Int("invalid_dates", stats.InvalidDates),
		slog.Int("filled_transaction_type", stats.FilledTransactionType),
		slog.Int("null_totals", stats.NullTotals),
	)

	result := &models.NormalizeResult{
		RunID:      runID,
		Dataset:    dataset,
		OutputPath: outputPath,
		Stats:      stats,
	}

	if err := util.WriteCSVTable(outputPath, dataset.Columns, EncodeDataset(dataset)); err != nil {
		result.Warning = &apperr.PersistenceWarning{Path: outputPath, Err: err}
		logger.Warn("Failed to persist canonical dataset", slog.Any("error", err))
		ns.metrics.PersistenceWarning()
	} else {
		result.Persisted = true
		logger.Info("Processed dataset saved", slog.String("output", outputPath))
	}

	ns.metrics.PipelineRun(metrics.RESULT_OK, stats.Rows)
	return result, nil
}

func (ns *NormalizerService) load(ctx context.Context, inputPath string) (*models.RawTable, error) {
	if config.IsRemote(inputPath) {
		if ns.fetcher == nil {
			return nil, &apperr.SourceUnavailable{Path: inputPath, Err: fmt.Errorf("no remote fetcher configured")}
		}
		return ns.fetcher.FetchCSVTable(ctx, inputPath)
	}
	return util.ReadTable(inputPath)
}

// NormalizeTable is the pure raw -> canonical transform. It never aborts on a
// bad cell: unparseable dates and amounts become invalid markers on the row.
func NormalizeTable(table *models.RawTable, opts NormalizeOptions) (*models.Dataset, models.NormalizeStats, error) {
	header := table.NormalizedHeader()
	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	if !opts.Lenient {
		var missing []string
		for _, col := range models.RequiredColumns {
			if _, ok := index[col]; !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return nil, models.NormalizeStats{}, &apperr.MissingColumnError{Columns: missing}
		}
	}

	_, hasDate := index[models.COL_DATE]
	_, hasPrice := index[models.COL_ITEM_PRICE]
	_, hasQty := index[models.COL_QUANTITY]
	_, hasTotal := index[strings.ToLower(models.COL_TOTAL_AMOUNT)]
	computeTotal := hasPrice && hasQty

	var passThrough []string
	for i, h := range header {
		if isDerivedColumn(h) || index[h] != i {
			continue
		}
		passThrough = append(passThrough, h)
	}

	columns := append([]string(nil), passThrough...)
	if hasDate {
		columns = append(columns, models.COL_YEAR, models.COL_HOUR)
	}
	if computeTotal || hasTotal {
		columns = append(columns, models.COL_TOTAL_AMOUNT)
	}

	cell := func(row []string, col string) (string, bool) {
		i, ok := index[col]
		if !ok {
			return "", false
		}
		return table.Cell(row, i), true
	}

	stats := models.NormalizeStats{}
	records := make([]models.CanonicalTransaction, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := models.CanonicalTransaction{Extra: map[string]string{}}

		if raw, ok := cell(row, models.COL_DATE); ok {
			if parsed, valid := opts.Policy.Parse(raw); valid {
				rec.Date = parsed.Date
				rec.DateValid = true
				rec.Year = parsed.Date.Year()
				if parsed.HasTime {
					rec.Hour, rec.HasHour = parsed.Hour, true
				} else if hourRaw, ok := cell(row, strings.ToLower(models.COL_HOUR)); ok {
					// Canonical files store the date only; keep the hour they carry.
					if h, err := strconv.Atoi(strings.TrimSpace(hourRaw)); err == nil && h >= 0 && h < 24 {
						rec.Hour, rec.HasHour = h, true
					}
				}
			} else {
				stats.InvalidDates++
			}
		}

		rec.ItemType = nullToEmpty(cell(row, models.COL_ITEM_TYPE))
		rec.TimeOfSale = nullToEmpty(cell(row, models.COL_TIME_OF_SALE))

		if raw, ok := cell(row, models.COL_TRANSACTION_TYPE); ok && !util.IsNull(raw) {
			rec.TransactionType = raw
		} else {
			rec.TransactionType = models.DEFAULT_TRANSACTION_TYPE
			stats.FilledTransactionType++
		}

		rec.ItemPrice = parseDecimal(cell(row, models.COL_ITEM_PRICE))
		rec.Quantity = parseDecimal(cell(row, models.COL_QUANTITY))
		switch {
		case computeTotal:
			if rec.ItemPrice.Valid && rec.Quantity.Valid {
				rec.TotalAmount = decimal.NewNullDecimal(rec.ItemPrice.Decimal.Mul(rec.Quantity.Decimal))
			}
		case hasTotal:
			rec.TotalAmount = parseDecimal(cell(row, strings.ToLower(models.COL_TOTAL_AMOUNT)))
		}
		if !rec.TotalAmount.Valid {
			stats.NullTotals++
		}

		for _, col := range passThrough {
			if isModelledColumn(col) {
				continue
			}
			v, _ := cell(row, col)
			rec.Extra[col] = v
		}

		records = append(records, rec)
	}
	stats.Rows = len(records)

	return &models.Dataset{Columns: columns, Records: records}, stats, nil
}

// EncodeDataset renders the records as CSV rows in dataset column order.
func EncodeDataset(ds *models.Dataset) [][]string {
	rows := make([][]string, 0, len(ds.Records))
	for _, rec := range ds.Records {
		row := make([]string, len(ds.Columns))
		for i, col := range ds.Columns {
			row[i] = encodeCell(rec, col)
		}
		rows = append(rows, row)
	}
	return rows
}

func encodeCell(rec models.CanonicalTransaction, col string) string {
	switch col {
	case models.COL_DATE:
		if rec.DateValid {
			return util.FormatDate(rec.Date)
		}
		return ""
	case models.COL_YEAR:
		if rec.DateValid {
			return strconv.Itoa(rec.Year)
		}
		return ""
	case models.COL_HOUR:
		if rec.HasHour {
			return strconv.Itoa(rec.Hour)
		}
		return ""
	case models.COL_TOTAL_AMOUNT:
		return formatDecimal(rec.TotalAmount)
	case models.COL_ITEM_PRICE:
		return formatDecimal(rec.ItemPrice)
	case models.COL_QUANTITY:
		return formatDecimal(rec.Quantity)
	case models.COL_ITEM_TYPE:
		return rec.ItemType
	case models.COL_TIME_OF_SALE:
		return rec.TimeOfSale
	case models.COL_TRANSACTION_TYPE:
		return rec.TransactionType
	}
	return rec.Extra[col]
}

func isDerivedColumn(lower string) bool {
	return lower == strings.ToLower(models.COL_YEAR) ||
		lower == strings.ToLower(models.COL_HOUR) ||
		lower == strings.ToLower(models.COL_TOTAL_AMOUNT)
}

func isModelledColumn(col string) bool {
	switch col {
	case models.COL_DATE, models.COL_ITEM_TYPE, models.COL_ITEM_PRICE, models.COL_QUANTITY,
		models.COL_TRANSACTION_TYPE, models.COL_TIME_OF_SALE:
		return true
	}
	return false
}

func parseDecimal(raw string, present bool) decimal.NullDecimal {
	if !present || util.IsNull(raw) {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func formatDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func nullToEmpty(raw string, present bool) string {
	if !present || util.IsNull(raw) {
		return ""
	}
	return raw
}
