package models

// FILTER_ALL disables a dashboard filter.
const FILTER_ALL = "All"

// SalesFilter narrows the dashboard view. Empty values mean FILTER_ALL.
type SalesFilter struct {
	Year       string `json:"year"`
	TimeOfSale string `json:"time_of_sale"`
}

// ItemTypeTotal is one bar of the sales-by-item-type chart.
type ItemTypeTotal struct {
	ItemType string  `json:"item_type"`
	Total    float64 `json:"total_amount"`
}

// SalesSummary is what the dashboard shows for one filter selection.
type SalesSummary struct {
	Filter      SalesFilter     `json:"filter"`
	Rows        int             `json:"rows"`
	Total       float64         `json:"total_sales"`
	ByItemType  []ItemTypeTotal `json:"by_item_type"`
	YearOptions []string        `json:"year_options"`
	TimeOptions []string        `json:"time_of_sale_options"`
	Empty       bool            `json:"empty"`
}
