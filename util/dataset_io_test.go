package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pos-insights/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSVTable(t *testing.T) {
	// Arrange
	path := createTempFile(t, "sales.csv", "order_id,date,item_price\n1,07-03-2022,20\n\n2,08-03-2022,30,extra\n")

	// Act
	table, err := ReadTable(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "date", "item_price"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2", "08-03-2022", "30", "extra"}, table.Rows[1])
}

func TestReadCSVTableFromEmpty(t *testing.T) {
	_, err := ReadCSVTableFrom(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadTableMissingFile(t *testing.T) {
	// Act
	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.csv"))

	// Assert
	require.Error(t, err)
	assert.True(t, apperr.IsSourceUnavailable(err))
}

func TestReadXLSXTable(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Item_Price", "Quantity"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]interface{}{"07-03-2022", "20", "3"}))
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	// Act
	table, err := ReadTable(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "item_price", "quantity"}, table.NormalizedHeader())
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "20", table.Rows[0][1])
}

func TestReadXLSXTableDateCells(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Item_Price", "Quantity"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]interface{}{time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC), 20, 3}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]interface{}{time.Date(2023, 3, 25, 0, 0, 0, 0, time.UTC), 15, 1}))
	require.NoError(t, book.SetSheetRow(sheet, "A4", &[]interface{}{time.Date(2023, 3, 5, 14, 30, 0, 0, time.UTC), 12, 2}))
	custom := "dd/mm/yyyy"
	styleID, err := book.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, book.SetSheetRow(sheet, "A5", &[]interface{}{45000, 10, 1}))
	require.NoError(t, book.SetCellStyle(sheet, "A5", "A5", styleID))
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	// Act
	table, err := ReadTable(path)

	// Assert
	require.NoError(t, err)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "2023-03-04", table.Rows[0][0])
	assert.Equal(t, "2023-03-25", table.Rows[1][0])
	assert.Equal(t, "2023-03-05 14:30:00", table.Rows[2][0])
	assert.Equal(t, "2023-03-15", table.Rows[3][0])
	assert.Equal(t, "20", table.Rows[0][1])

	policy := DatePolicy{Order: DayFirst}
	parsed, ok := policy.Parse(table.Rows[0][0])
	require.True(t, ok)
	assert.Equal(t, time.March, parsed.Date.Month())
	assert.Equal(t, 4, parsed.Date.Day())
	parsed, ok = policy.Parse(table.Rows[2][0])
	require.True(t, ok)
	assert.Equal(t, 14, parsed.Hour)
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"dd/mm/yyyy", true},
		{"yyyy-mm-dd hh:mm", true},
		{"mmm-yy", true},
		{"#,##0.00", false},
		{"[$-409]0.00", false},
		{`0.00" days"`, false},
		{"hh:mm:ss", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestWriteCSVTableOverwrites(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, WriteCSVTable(path, []string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}}))

	// Act
	err := WriteCSVTable(path, []string{"a"}, [][]string{{"9"}})

	// Assert
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n9\n", string(data))
}

func TestWriteCSVTableUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteCSVTable(filepath.Join(blocker, "out.csv"), []string{"a"}, nil)
	assert.Error(t, err)
}

func TestWriteCSVTableReportsDeviceErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	err := WriteCSVTable("/dev/full", []string{"a"}, [][]string{{"1"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/full")
}
