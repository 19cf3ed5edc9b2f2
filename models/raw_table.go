package models

import "strings"

// RawTable is a delimited file as read from disk: one header row and the
// data rows, every cell still a string.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NormalizedHeader returns the header trimmed and lowercased.
func (t RawTable) NormalizedHeader() []string {
	out := make([]string, len(t.Header))
	for i, h := range t.Header {
		out[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return out
}

// Cell returns row[i], or "" for short rows.
func (t RawTable) Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
