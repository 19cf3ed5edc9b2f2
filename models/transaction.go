package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Raw column names, lowercased.
const (
	COL_DATE               = "date"
	COL_ITEM_TYPE          = "item_type"
	COL_ITEM_PRICE         = "item_price"
	COL_QUANTITY           = "quantity"
	COL_TRANSACTION_TYPE   = "transaction_type"
	COL_TIME_OF_SALE       = "time_of_sale"
	COL_TRANSACTION_AMOUNT = "transaction_amount"
)

// Derived column names as written to the canonical file.
const (
	COL_YEAR         = "Year"
	COL_HOUR         = "Hour"
	COL_TOTAL_AMOUNT = "total_amount"
)

// DEFAULT_TRANSACTION_TYPE replaces a missing transaction_type.
const DEFAULT_TRANSACTION_TYPE = "Credit Card"

// RequiredColumns must all be present in a raw input header.
var RequiredColumns = []string{
	COL_DATE,
	COL_ITEM_PRICE,
	COL_QUANTITY,
	COL_TRANSACTION_TYPE,
	COL_ITEM_TYPE,
	COL_TIME_OF_SALE,
}

// CanonicalTransaction is one cleaned and enriched sale row.
type CanonicalTransaction struct {
	Date            time.Time           `json:"date"`
	DateValid       bool                `json:"date_valid"`
	Year            int                 `json:"year,omitempty"`
	Hour            int                 `json:"hour,omitempty"`
	HasHour         bool                `json:"has_hour"`
	ItemType        string              `json:"item_type"`
	ItemPrice       decimal.NullDecimal `json:"item_price"`
	Quantity        decimal.NullDecimal `json:"quantity"`
	TransactionType string              `json:"transaction_type"`
	TimeOfSale      string              `json:"time_of_sale"`
	TotalAmount     decimal.NullDecimal `json:"total_amount"`
	// Extra holds pass-through columns (order_id, item_name, ...) by
	// lowercased name.
	Extra map[string]string `json:"extra,omitempty"`
}

// Dataset is the canonical record set plus the column layout it is written
// with.
type Dataset struct {
	Columns []string               `json:"columns"`
	Records []CanonicalTransaction `json:"records"`
}

// HasColumn reports whether the dataset carries the named column. The lookup
// is case-insensitive.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
