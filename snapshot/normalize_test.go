package snapshot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() RawRow {
	return RawRow{
		"Item Code":     "SKU-001",
		"Item Name":     "Widget",
		"Supplier":      "Acme",
		"Snapshot Date": "2024-01-15",
		"Current Stock": "10",
		"Reorder Point": "12",
		"Avg Daily Consumption": "0.5",
		"Lead Time (days)":      "7",
		"Unit Cost":             "3.25",
	}
}

func TestNormalizeValidRow(t *testing.T) {
	items, rowErrs := Normalize([]RawRow{validRow()}, "stock.csv")
	require.Empty(t, rowErrs)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "SKU-001", item.ItemCode)
	assert.Equal(t, "Acme", item.Supplier)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), item.SnapshotDate)
	assert.Equal(t, 10.0, item.CurrentStock)
	assert.Equal(t, 12.0, item.ReorderPoint)
	assert.Equal(t, 0.5, item.AvgDailyConsumption)
	assert.Equal(t, 7.0, item.LeadTimeDays)
	assert.Equal(t, 3.25, item.UnitCost)
}

func TestNormalizeHeaderSynonyms(t *testing.T) {
	row := RawRow{
		"SKU":         "SKU-002",
		"Vendor":      "Globex",
		"As Of":       "2024/02/01",
		"On Hand":     "5",
		"ROP":         "8",
		"Daily Usage": "1.0",
		"LT(days)":    "3",
	}
	items, rowErrs := Normalize([]RawRow{row}, "stock.csv")
	require.Empty(t, rowErrs)
	require.Len(t, items, 1)
	assert.Equal(t, "SKU-002", items[0].ItemCode)
	assert.Equal(t, "Globex", items[0].Supplier)
	assert.Equal(t, 3.0, items[0].LeadTimeDays)
}

func TestNormalizeMissingRequiredField(t *testing.T) {
	row := validRow()
	delete(row, "Supplier")

	items, rowErrs := Normalize([]RawRow{row}, "stock.csv")
	assert.Empty(t, items)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, ReasonMissingField, rowErrs[0].Reason)
	assert.Equal(t, "supplier", rowErrs[0].Field)
	assert.Equal(t, 0, rowErrs[0].Row)
}

func TestNormalizeInvalidNumber(t *testing.T) {
	row := validRow()
	row["Current Stock"] = "lots"

	items, rowErrs := Normalize([]RawRow{row}, "stock.csv")
	assert.Empty(t, items)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, ReasonInvalidNumber, rowErrs[0].Reason)
	assert.Equal(t, "current_stock", rowErrs[0].Field)
}

func TestNormalizeNegativeStock(t *testing.T) {
	row := validRow()
	row["Current Stock"] = "-4"

	items, rowErrs := Normalize([]RawRow{row}, "stock.csv")
	assert.Empty(t, items)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, ReasonNegativeValue, rowErrs[0].Reason)
}

func TestNormalizeDateFromFilename(t *testing.T) {
	row := validRow()
	delete(row, "Snapshot Date")

	items, rowErrs := Normalize([]RawRow{row}, "inventory_2024-03-10.csv")
	require.Empty(t, rowErrs)
	require.Len(t, items, 1)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), items[0].SnapshotDate)
}

func TestNormalizeCompactFilenameDate(t *testing.T) {
	row := validRow()
	delete(row, "Snapshot Date")

	items, rowErrs := Normalize([]RawRow{row}, "snapshot20240310.csv")
	require.Empty(t, rowErrs)
	require.Len(t, items, 1)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), items[0].SnapshotDate)
}

func TestNormalizeNoDateAnywhere(t *testing.T) {
	row := validRow()
	delete(row, "Snapshot Date")

	items, rowErrs := Normalize([]RawRow{row}, "inventory.csv")
	assert.Empty(t, items)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, ReasonMissingSnapshotDate, rowErrs[0].Reason)
}

func TestNormalizePreservesOrderAcrossRejections(t *testing.T) {
	good1 := validRow()
	good1["Item Code"] = "A"
	bad := validRow()
	bad["Reorder Point"] = "??"
	good2 := validRow()
	good2["Item Code"] = "B"

	items, rowErrs := Normalize([]RawRow{good1, bad, good2}, "stock.csv")
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ItemCode)
	assert.Equal(t, "B", items[1].ItemCode)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 1, rowErrs[0].Row)
}

func TestParseDecimalLocales(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1234.56", 1234.56},
		{"1,234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"1 234,56", 1234.56},
		{"12,5", 12.5},
		{"1,234,567", 1234567},
		{"7", 7},
	}
	for _, tc := range cases {
		got, err := parseDecimal(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := parseDecimal("abc")
	assert.Error(t, err)
	_, err = parseDecimal("")
	assert.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	data := "Item Code,Supplier,Current Stock\nSKU-1,Acme,10\nSKU-2,Globex,4\n"

	rows, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SKU-1", rows[0]["Item Code"])
	assert.Equal(t, "Globex", rows[1]["Supplier"])
}

func TestParseCSVEmpty(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseCSVRaggedRow(t *testing.T) {
	data := "A,B,C\n1,2\n"
	rows, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, ok := rows[0]["C"]
	assert.False(t, ok)
}
