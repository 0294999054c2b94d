package pipeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/replen"
	"github.com/replenix/replenix/snapshot"
)

// Artifact is one generated document in the final result.
type Artifact struct {
	SnapshotDate time.Time `json:"snapshot_date"`
	Supplier     string    `json:"supplier"`
	Filename     string    `json:"filename"`
	Content      string    `json:"content"`
}

// GroupSummary is the per-group entry of the final result.
type GroupSummary struct {
	SnapshotDate    time.Time                            `json:"snapshot_date"`
	Supplier        string                               `json:"supplier"`
	ItemCount       int                                  `json:"item_count"`
	Recommendations map[string]replen.RecommendedPurchase `json:"recommendations"`
	Failed          bool                                 `json:"failed,omitempty"`
}

// Result is the final aggregate payload of one run. Failed groups appear
// in Groups but contribute only the artifacts they produced before
// failing.
type Result struct {
	Groups      []GroupSummary `json:"groups"`
	Reports     []Artifact     `json:"reports"`
	Requests    []Artifact     `json:"requests"`
	Emails      []Artifact     `json:"emails"`
	Evaluations []Artifact     `json:"evaluations"`
}

// Aggregator accumulates artifacts from concurrently running groups.
// Writes are serialized by a mutex; a duplicate (snapshotDate, supplier,
// stage) key is a programming fault and fatal to the run.
type Aggregator struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	result Result
	done   bool
}

// NewAggregator seeds the result with one summary per group.
func NewAggregator(groups []replen.SupplierGroup) *Aggregator {
	a := &Aggregator{seen: make(map[string]struct{})}
	for i := range groups {
		g := &groups[i]
		a.result.Groups = append(a.result.Groups, GroupSummary{
			SnapshotDate:    g.SnapshotDate,
			Supplier:        g.Supplier,
			ItemCount:       len(g.Items),
			Recommendations: g.Recommendations,
		})
	}
	return a
}

// Add records one produced artifact under its stage.
func (a *Aggregator) Add(stage Stage, artifact Artifact) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return errors.AssertionFailedf("artifact added after result was finalized")
	}

	key := fmt.Sprintf("%s/%s/%s",
		artifact.SnapshotDate.Format(snapshot.DateLayout), artifact.Supplier, stage)
	if _, dup := a.seen[key]; dup {
		return errors.Wrapf(errors.ErrDuplicateArtifact, "aggregation key %s", key)
	}
	a.seen[key] = struct{}{}

	switch stage {
	case StageAnalysis:
		a.result.Reports = append(a.result.Reports, artifact)
	case StagePurchaseRequest:
		a.result.Requests = append(a.result.Requests, artifact)
	case StageEmail:
		a.result.Emails = append(a.result.Emails, artifact)
	case StageEvaluation:
		a.result.Evaluations = append(a.result.Evaluations, artifact)
	default:
		return errors.AssertionFailedf("unknown stage %q", stage)
	}
	return nil
}

// MarkFailed flags a group's summary as failed.
func (a *Aggregator) MarkFailed(meta DocumentMeta) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.result.Groups {
		g := &a.result.Groups[i]
		if g.Supplier == meta.Supplier && g.SnapshotDate.Equal(meta.SnapshotDate) {
			g.Failed = true
			return
		}
	}
}

// Finalize sorts artifact lists into deterministic order and hands the
// result over. Must be called exactly once, after all groups are
// terminal.
func (a *Aggregator) Finalize() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.done = true
	for _, list := range [][]Artifact{
		a.result.Reports, a.result.Requests, a.result.Emails, a.result.Evaluations,
	} {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Supplier != list[j].Supplier {
				return list[i].Supplier < list[j].Supplier
			}
			return list[i].SnapshotDate.Before(list[j].SnapshotDate)
		})
	}
	return &a.result
}
