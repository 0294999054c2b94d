// Package gen provides the default pipeline collaborators: an
// OpenAI-compatible text generator, a SQLite-backed supplier history
// store, and a Markdown document renderer.
package gen

import (
	"fmt"
	"strings"

	"github.com/replenix/replenix/pipeline"
	"github.com/replenix/replenix/snapshot"
)

const (
	analysisSystemPrompt = `You are a procurement analyst. Given an inventory snapshot for one supplier, write a concise replenishment analysis: which items are at risk, why, and what should be ordered. Use the recommendation data as ground truth; do not invent quantities. Plain Markdown, no preamble.`

	purchaseRequestSystemPrompt = `You are a procurement officer. Based on the analysis findings provided, draft a formal purchase request for this supplier listing each recommended item with quantity and requested order date. Plain Markdown with a table, no preamble.`

	emailSystemPrompt = `You are writing on behalf of the purchasing department. Based on the analysis findings provided, draft a professional email to the supplier requesting a quotation for the recommended items. Include a greeting, the item list, and a sign-off. Plain Markdown, no preamble.`

	evaluationSystemPrompt = `You are a quality reviewer. Check the analysis findings for internal consistency: quantities matching rationales, dates not preceding the snapshot date, no items invented beyond the snapshot. Reply with a short verdict and any issues found. Plain Markdown, no preamble.`
)

func systemPrompt(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageAnalysis:
		return analysisSystemPrompt
	case pipeline.StagePurchaseRequest:
		return purchaseRequestSystemPrompt
	case pipeline.StageEmail:
		return emailSystemPrompt
	case pipeline.StageEvaluation:
		return evaluationSystemPrompt
	default:
		return analysisSystemPrompt
	}
}

// buildUserPrompt assembles the group context for one stage call: the
// snapshot table, the computed recommendations, retrieved history, and
// the analysis findings for downstream stages.
func buildUserPrompt(in pipeline.StageInput) string {
	var b strings.Builder
	group := in.Group

	fmt.Fprintf(&b, "Supplier: %s\nSnapshot date: %s\n\n",
		group.Supplier, group.SnapshotDate.Format(snapshot.DateLayout))

	b.WriteString("Inventory snapshot:\n\n")
	b.WriteString("| Item | Name | Stock | Reorder point | Daily use | Lead time (days) |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, it := range group.Items {
		fmt.Fprintf(&b, "| %s | %s | %g | %g | %g | %g |\n",
			it.ItemCode, it.ItemName, it.CurrentStock, it.ReorderPoint,
			it.AvgDailyConsumption, it.LeadTimeDays)
	}

	b.WriteString("\nComputed recommendations:\n\n")
	for _, it := range group.Items {
		rec, ok := group.Recommendations[it.ItemCode]
		if !ok {
			continue
		}
		date := "none"
		if rec.OrderDate != nil {
			date = rec.OrderDate.Format(snapshot.DateLayout)
		}
		fmt.Fprintf(&b, "- %s: %s, quantity %d, order date %s\n",
			rec.ItemCode, rec.Rationale, rec.Quantity, date)
	}

	if len(in.Retrieved) > 0 {
		b.WriteString("\nHistorical context:\n\n")
		for _, s := range in.Retrieved {
			fmt.Fprintf(&b, "- [%s] %s\n", s.Source, s.Content)
		}
	}

	if in.Analysis != "" {
		b.WriteString("\nAnalysis findings:\n\n")
		b.WriteString(in.Analysis)
		b.WriteString("\n")
	}

	return b.String()
}
