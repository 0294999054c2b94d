// Package snapshot normalizes raw inventory snapshot rows into typed items.
package snapshot

import (
	"fmt"
	"time"
)

// DateLayout is the canonical wire format for snapshot dates.
const DateLayout = "2006-01-02"

// Item is one validated inventory row. Immutable once produced.
type Item struct {
	ItemCode            string    `json:"item_code"`
	ItemName            string    `json:"item_name,omitempty"`
	Supplier            string    `json:"supplier"`
	SnapshotDate        time.Time `json:"snapshot_date"`
	CurrentStock        float64   `json:"current_stock"`
	ReorderPoint        float64   `json:"reorder_point"`
	AvgDailyConsumption float64   `json:"avg_daily_consumption"`
	LeadTimeDays        float64   `json:"lead_time_days"`
	UnitCost            float64   `json:"unit_cost"`
}

// RowErrorReason classifies why a row was rejected
type RowErrorReason string

const (
	ReasonMissingField        RowErrorReason = "missing_field"
	ReasonInvalidNumber       RowErrorReason = "invalid_number"
	ReasonNegativeValue       RowErrorReason = "negative_value"
	ReasonMissingSnapshotDate RowErrorReason = "missing_snapshot_date"
)

// RowError reports one rejected row. Rejected rows never appear in the
// normalized output but are always surfaced for visibility.
type RowError struct {
	Row    int            `json:"row"` // zero-based index into the input batch
	Reason RowErrorReason `json:"reason"`
	Field  string         `json:"field,omitempty"`
	Detail string         `json:"detail,omitempty"`
}

func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s (%s): %s", e.Row, e.Reason, e.Field, e.Detail)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Reason, e.Detail)
}
