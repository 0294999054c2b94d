// Package replen partitions normalized inventory items into supplier
// groups and computes lead-time-aware purchase recommendations.
package replen

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/replenix/replenix/snapshot"
)

// Rationale classifies why an item does or does not need replenishment.
type Rationale string

const (
	// RationaleLowStock means stock is at or below the reorder point.
	RationaleLowStock Rationale = "LOW_STOCK"

	// RationaleLeadTimeRisk means stock is above the reorder point but
	// will not cover lead-time demand plus the safety buffer.
	RationaleLeadTimeRisk Rationale = "LEAD_TIME_RISK"

	// RationaleNone means no action is needed.
	RationaleNone Rationale = "NONE"
)

// RecommendedPurchase is the derived order advice for one item. Immutable
// after computation.
type RecommendedPurchase struct {
	ItemCode  string     `json:"item_code"`
	OrderDate *time.Time `json:"recommended_order_date,omitempty"`
	Quantity  int        `json:"recommended_quantity"`
	Rationale Rationale  `json:"rationale"`
}

// SupplierGroup holds all items from one supplier within one snapshot,
// with their recommendations attached. Read-only after Group returns.
type SupplierGroup struct {
	SnapshotDate    time.Time                      `json:"snapshot_date"`
	Supplier        string                         `json:"supplier"`
	Items           []snapshot.Item                `json:"items"`
	Recommendations map[string]RecommendedPurchase `json:"recommendations"`
}

// Key returns the group's unique (snapshotDate, supplier) identity.
func (g *SupplierGroup) Key() string {
	return GroupKey(g.SnapshotDate, g.Supplier)
}

// GroupKey builds the canonical group identity string.
func GroupKey(date time.Time, supplier string) string {
	return fmt.Sprintf("%s/%s", date.Format(snapshot.DateLayout), supplier)
}

// Group partitions items by (snapshotDate, supplier) and computes a
// recommendation per item. Output is sorted by supplier name ascending,
// then snapshot date ascending, and is deterministic for identical input.
// Empty input yields an empty slice; empty groups are never produced.
func Group(items []snapshot.Item, policy Policy) []SupplierGroup {
	byKey := make(map[string]*SupplierGroup)
	var order []string

	for _, item := range items {
		key := GroupKey(item.SnapshotDate, item.Supplier)
		g, ok := byKey[key]
		if !ok {
			g = &SupplierGroup{
				SnapshotDate:    item.SnapshotDate,
				Supplier:        item.Supplier,
				Recommendations: make(map[string]RecommendedPurchase),
			}
			byKey[key] = g
			order = append(order, key)
		}
		g.Items = append(g.Items, item)
		g.Recommendations[item.ItemCode] = Recommend(item, policy)
	}

	groups := make([]SupplierGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Supplier != groups[j].Supplier {
			return groups[i].Supplier < groups[j].Supplier
		}
		return groups[i].SnapshotDate.Before(groups[j].SnapshotDate)
	})

	return groups
}

// Recommend computes the purchase recommendation for a single item.
//
// Lead-time demand is the stock consumed while an order is in transit;
// the target level adds the policy's safety buffer on top. An item at or
// below its reorder point orders immediately. An item above the reorder
// point but below the target orders on the latest date that still
// receives stock before the projected stockout.
func Recommend(item snapshot.Item, policy Policy) RecommendedPurchase {
	rec := RecommendedPurchase{ItemCode: item.ItemCode, Rationale: RationaleNone}

	leadTimeDemand := item.AvgDailyConsumption * item.LeadTimeDays
	target := leadTimeDemand * (1 + policy.SafetyMargin)

	switch {
	case item.CurrentStock <= item.ReorderPoint:
		rec.Rationale = RationaleLowStock
		rec.Quantity = orderQuantity(target, item.CurrentStock)
		date := item.SnapshotDate
		rec.OrderDate = &date

	case item.CurrentStock < target:
		// Only reachable when consumption is positive: target is zero
		// otherwise and stock is never negative
		rec.Rationale = RationaleLeadTimeRisk
		rec.Quantity = orderQuantity(target, item.CurrentStock)

		daysUntilStockout := item.CurrentStock / item.AvgDailyConsumption
		offset := int(math.Floor(daysUntilStockout - item.LeadTimeDays))
		if offset < 0 {
			offset = 0
		}
		date := item.SnapshotDate.AddDate(0, 0, offset)
		rec.OrderDate = &date
	}

	return rec
}

func orderQuantity(target, stock float64) int {
	qty := math.Ceil(target - stock)
	if qty < 0 {
		return 0
	}
	return int(qty)
}
