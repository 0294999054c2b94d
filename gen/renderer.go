package gen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/replenix/replenix/pipeline"
	"github.com/replenix/replenix/snapshot"
)

// MarkdownRenderer renders stage text into Markdown documents with a
// metadata header. Implements pipeline.Renderer.
type MarkdownRenderer struct{}

// stageKind maps a stage to the document kind used in filenames and
// titles.
func stageKind(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageAnalysis:
		return "report"
	case pipeline.StagePurchaseRequest:
		return "purchase_request"
	case pipeline.StageEmail:
		return "email"
	case pipeline.StageEvaluation:
		return "evaluation"
	default:
		return strings.ToLower(string(stage))
	}
}

func stageTitle(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageAnalysis:
		return "Replenishment Analysis"
	case pipeline.StagePurchaseRequest:
		return "Purchase Request"
	case pipeline.StageEmail:
		return "Supplier Email"
	case pipeline.StageEvaluation:
		return "Quality Evaluation"
	default:
		return string(stage)
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename builds the document filename: {kind}_{supplier}_{date}.md
// with the supplier name sanitized for filesystem use.
func (MarkdownRenderer) Filename(stage pipeline.Stage, meta pipeline.DocumentMeta) string {
	supplier := unsafeFilenameChars.ReplaceAllString(meta.Supplier, "_")
	return fmt.Sprintf("%s_%s_%s.md",
		stageKind(stage), supplier, meta.SnapshotDate.Format(snapshot.DateLayout))
}

// RenderDocument implements pipeline.Renderer.
func (MarkdownRenderer) RenderDocument(stage pipeline.Stage, text string, meta pipeline.DocumentMeta) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", stageTitle(stage))
	fmt.Fprintf(&b, "- Supplier: %s\n", meta.Supplier)
	fmt.Fprintf(&b, "- Snapshot date: %s\n\n", meta.SnapshotDate.Format(snapshot.DateLayout))
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")
	return []byte(b.String()), nil
}
