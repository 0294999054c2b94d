// Package pipeline plans and executes the per-supplier generation
// pipeline, streaming ordered progress events and aggregating the
// produced artifacts into a final result.
package pipeline

import (
	"context"
	"time"

	"github.com/replenix/replenix/replen"
)

// Snippet is one retrieved fragment of historical context for a supplier.
type Snippet struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// DocumentMeta identifies the group a rendered document belongs to.
type DocumentMeta struct {
	Supplier     string
	SnapshotDate time.Time
}

// StageInput carries everything a generation stage needs. Analysis output
// is empty for the analysis stage itself and populated for downstream
// stages that consume its findings.
type StageInput struct {
	Stage     Stage
	Group     *replen.SupplierGroup
	Retrieved []Snippet
	Analysis  string
}

// Generator produces the natural-language body of one stage's document.
type Generator interface {
	GenerateContent(ctx context.Context, in StageInput) (string, error)
}

// Retriever looks up historical context for a supplier. Best-effort: an
// empty result is not an error.
type Retriever interface {
	RetrieveContext(ctx context.Context, supplier string, itemCodes []string) ([]Snippet, error)
}

// Renderer turns generated text into a distributable document.
type Renderer interface {
	RenderDocument(stage Stage, text string, meta DocumentMeta) ([]byte, error)
	Filename(stage Stage, meta DocumentMeta) string
}
