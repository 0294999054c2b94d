package gen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenix/replenix/pipeline"
)

func testMeta() pipeline.DocumentMeta {
	return pipeline.DocumentMeta{
		Supplier:     "Acme Corp",
		SnapshotDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestRendererFilename(t *testing.T) {
	r := MarkdownRenderer{}
	meta := testMeta()

	assert.Equal(t, "report_Acme_Corp_2024-01-15.md", r.Filename(pipeline.StageAnalysis, meta))
	assert.Equal(t, "purchase_request_Acme_Corp_2024-01-15.md", r.Filename(pipeline.StagePurchaseRequest, meta))
	assert.Equal(t, "email_Acme_Corp_2024-01-15.md", r.Filename(pipeline.StageEmail, meta))
	assert.Equal(t, "evaluation_Acme_Corp_2024-01-15.md", r.Filename(pipeline.StageEvaluation, meta))
}

func TestRendererFilenameSanitizesSupplier(t *testing.T) {
	meta := testMeta()
	meta.Supplier = "Müller & Söhne GmbH"

	name := MarkdownRenderer{}.Filename(pipeline.StageAnalysis, meta)
	assert.NotContains(t, name, "&")
	assert.NotContains(t, name, " ")
}

func TestRendererDocument(t *testing.T) {
	doc, err := MarkdownRenderer{}.RenderDocument(
		pipeline.StageAnalysis, "A1 needs reordering.\n", testMeta())
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, "# Replenishment Analysis")
	assert.Contains(t, out, "Supplier: Acme Corp")
	assert.Contains(t, out, "Snapshot date: 2024-01-15")
	assert.Contains(t, out, "A1 needs reordering.")
}
