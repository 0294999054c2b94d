package snapshot

import (
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/replenix/replenix/errors"
)

// RawRow is one unparsed snapshot row: column name -> cell value.
type RawRow map[string]string

// Column synonyms, keyed by canonical form (lowercased, alphanumerics only).
// Real-world snapshot exports disagree on almost every header name.
var fieldSynonyms = map[string][]string{
	"item_code":             {"itemcode", "code", "sku", "itemno", "partnumber"},
	"item_name":             {"itemname", "name", "description", "item"},
	"supplier":              {"supplier", "vendor", "suppliername", "vendorname"},
	"snapshot_date":         {"snapshotdate", "date", "asof", "asofdate", "stockdate"},
	"current_stock":         {"currentstock", "stock", "onhand", "qtyonhand", "stockonhand", "quantity"},
	"reorder_point":         {"reorderpoint", "rop", "reorderlevel", "minstock"},
	"avg_daily_consumption": {"avgdailyconsumption", "dailyusage", "dailyconsumption", "avgdailyusage", "adc", "consumption"},
	"lead_time_days":        {"leadtimedays", "leadtime", "ltdays", "lt"},
	"unit_cost":             {"unitcost", "cost", "unitprice", "price"},
}

var requiredFields = []string{
	"item_code", "supplier", "current_stock", "reorder_point",
	"avg_daily_consumption", "lead_time_days",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// canonical reduces a header name to its comparable form:
// "LT(days)" -> "ltdays", "Lead Time" -> "leadtime".
func canonical(header string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(header), "")
}

// resolveField finds the logical field a raw header maps to, or "".
func resolveField(header string) string {
	c := canonical(header)
	for field, synonyms := range fieldSynonyms {
		for _, s := range synonyms {
			if c == s {
				return field
			}
		}
	}
	return ""
}

// filenameDate extracts a YYYYMMDD-style token embedded in a filename,
// e.g. "stock_2024-01-15.csv" or "snapshot20240115.xlsx".
var filenameDate = regexp.MustCompile(`(20\d{2})[-_.]?(\d{2})[-_.]?(\d{2})`)

func dateFromFilename(filename string) (time.Time, bool) {
	m := filenameDate.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse("20060102", m[1]+m[2]+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// acceptedDateLayouts are tried in order when parsing an explicit date cell.
var acceptedDateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006.01.02",
	"20060102",
	"01/02/2006",
}

func parseDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if d, err := time.Parse(layout, cell); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// parseDecimal parses a numeric cell tolerating locale separators:
// "1,234.56", "1.234,56", "1 234,56" and plain "1234.56" all parse.
func parseDecimal(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, errors.New("empty numeric value")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the rightmost separator is the decimal point
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// Comma only: decimal comma when followed by 1-2 digits and it
		// appears once; otherwise treat commas as grouping
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	return strconv.ParseFloat(s, 64)
}

// Normalize parses raw snapshot rows into validated items.
//
// Column names are matched case-insensitively against per-field synonyms.
// A malformed row is rejected with a structured RowError and never aborts
// the batch; output preserves input row order. The snapshot date per row
// comes from an explicit date column when present, else from a date token
// in sourceFilename, else the row is rejected.
func Normalize(rows []RawRow, sourceFilename string) ([]Item, []RowError) {
	items := make([]Item, 0, len(rows))
	var rowErrs []RowError

	fallbackDate, haveFallback := dateFromFilename(sourceFilename)

	for i, row := range rows {
		// Resolve raw headers once per row; RawRow inputs may come from
		// heterogeneous sources with differing headers per batch
		values := make(map[string]string, len(row))
		for header, cell := range row {
			if field := resolveField(header); field != "" {
				values[field] = strings.TrimSpace(cell)
			}
		}

		if rerr, ok := missingRequired(i, values); !ok {
			rowErrs = append(rowErrs, rerr)
			continue
		}

		item := Item{
			ItemCode: values["item_code"],
			ItemName: values["item_name"],
			Supplier: values["supplier"],
		}

		date, ok := parseDate(values["snapshot_date"])
		if !ok {
			if !haveFallback {
				rowErrs = append(rowErrs, RowError{
					Row:    i,
					Reason: ReasonMissingSnapshotDate,
					Detail: "no date column and no date token in source filename",
				})
				continue
			}
			date = fallbackDate
		}
		item.SnapshotDate = date

		numeric := []struct {
			field string
			dst   *float64
		}{
			{"current_stock", &item.CurrentStock},
			{"reorder_point", &item.ReorderPoint},
			{"avg_daily_consumption", &item.AvgDailyConsumption},
			{"lead_time_days", &item.LeadTimeDays},
		}

		bad := false
		for _, n := range numeric {
			v, err := parseDecimal(values[n.field])
			if err != nil {
				rowErrs = append(rowErrs, RowError{
					Row:    i,
					Reason: ReasonInvalidNumber,
					Field:  n.field,
					Detail: err.Error(),
				})
				bad = true
				break
			}
			*n.dst = v
		}
		if bad {
			continue
		}

		// Unit cost is optional; bad values reject the row like any numeric
		if raw, ok := values["unit_cost"]; ok && raw != "" {
			v, err := parseDecimal(raw)
			if err != nil {
				rowErrs = append(rowErrs, RowError{
					Row:    i,
					Reason: ReasonInvalidNumber,
					Field:  "unit_cost",
					Detail: err.Error(),
				})
				continue
			}
			item.UnitCost = v
		}

		if rerr, ok := checkBounds(i, item); !ok {
			rowErrs = append(rowErrs, rerr)
			continue
		}

		items = append(items, item)
	}

	return items, rowErrs
}

// missingRequired reports the first unmatched required field for a row
func missingRequired(row int, values map[string]string) (RowError, bool) {
	for _, field := range requiredFields {
		if v, ok := values[field]; !ok || v == "" {
			return RowError{
				Row:    row,
				Reason: ReasonMissingField,
				Field:  field,
				Detail: "required column missing or empty",
			}, false
		}
	}
	return RowError{}, true
}

// checkBounds enforces the item invariants: stock >= 0, lead time >= 0
func checkBounds(row int, item Item) (RowError, bool) {
	if item.CurrentStock < 0 {
		return RowError{Row: row, Reason: ReasonNegativeValue, Field: "current_stock",
			Detail: "current stock cannot be negative"}, false
	}
	if item.LeadTimeDays < 0 {
		return RowError{Row: row, Reason: ReasonNegativeValue, Field: "lead_time_days",
			Detail: "lead time cannot be negative"}, false
	}
	if item.AvgDailyConsumption < 0 {
		return RowError{Row: row, Reason: ReasonNegativeValue, Field: "avg_daily_consumption",
			Detail: "consumption cannot be negative"}, false
	}
	return RowError{}, true
}

// ParseCSV reads a tabular snapshot into raw rows using the first record
// as the header. Returns the rows in file order.
func ParseCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Tolerate ragged exports; row validation catches the gaps

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV record")
		}

		row := make(RawRow, len(header))
		for i, cell := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = cell
		}
		rows = append(rows, row)
	}

	return rows, nil
}
