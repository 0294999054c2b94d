package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/replen"
)

func artifact(supplier, filename string) Artifact {
	return Artifact{
		SnapshotDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Supplier:     supplier,
		Filename:     filename,
		Content:      "content",
	}
}

func TestAggregatorAddAndFinalize(t *testing.T) {
	groups := []replen.SupplierGroup{
		{Supplier: "Acme", SnapshotDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	agg := NewAggregator(groups)

	require.NoError(t, agg.Add(StageAnalysis, artifact("Acme", "report.md")))
	require.NoError(t, agg.Add(StagePurchaseRequest, artifact("Acme", "pr.md")))
	require.NoError(t, agg.Add(StageEmail, artifact("Acme", "email.md")))

	result := agg.Finalize()
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "Acme", result.Groups[0].Supplier)
	assert.False(t, result.Groups[0].Failed)
	assert.Len(t, result.Reports, 1)
	assert.Len(t, result.Requests, 1)
	assert.Len(t, result.Emails, 1)
	assert.Empty(t, result.Evaluations)
}

func TestAggregatorDuplicateKey(t *testing.T) {
	agg := NewAggregator(nil)

	require.NoError(t, agg.Add(StageAnalysis, artifact("Acme", "report.md")))
	err := agg.Add(StageAnalysis, artifact("Acme", "report_again.md"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateArtifact))
}

func TestAggregatorSameSupplierDifferentStages(t *testing.T) {
	agg := NewAggregator(nil)

	assert.NoError(t, agg.Add(StageAnalysis, artifact("Acme", "a.md")))
	assert.NoError(t, agg.Add(StagePurchaseRequest, artifact("Acme", "b.md")))
}

func TestAggregatorMarkFailed(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	agg := NewAggregator([]replen.SupplierGroup{
		{Supplier: "Acme", SnapshotDate: date},
		{Supplier: "Globex", SnapshotDate: date},
	})

	agg.MarkFailed(DocumentMeta{Supplier: "Globex", SnapshotDate: date})

	result := agg.Finalize()
	assert.False(t, result.Groups[0].Failed)
	assert.True(t, result.Groups[1].Failed)
}

func TestAggregatorFinalizeSortsArtifacts(t *testing.T) {
	agg := NewAggregator(nil)
	require.NoError(t, agg.Add(StageAnalysis, artifact("Zeta", "z.md")))
	require.NoError(t, agg.Add(StageAnalysis, artifact("Acme", "a.md")))

	result := agg.Finalize()
	require.Len(t, result.Reports, 2)
	assert.Equal(t, "Acme", result.Reports[0].Supplier)
	assert.Equal(t, "Zeta", result.Reports[1].Supplier)
}

func TestAggregatorAddAfterFinalize(t *testing.T) {
	agg := NewAggregator(nil)
	agg.Finalize()

	err := agg.Add(StageAnalysis, artifact("Acme", "a.md"))
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestAggregatorConcurrentWrites(t *testing.T) {
	agg := NewAggregator(nil)

	var wg sync.WaitGroup
	suppliers := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for _, s := range suppliers {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, agg.Add(StageAnalysis, artifact(s, s+".md")))
		}()
	}
	wg.Wait()

	assert.Len(t, agg.Finalize().Reports, len(suppliers))
}
