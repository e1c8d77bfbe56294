package translate

import (
	"fmt"
	"strings"

	"github.com/plantell/plantell/internal/config"
	"github.com/plantell/plantell/internal/model"
)

// Step is the per-node narrative record, produced fresh on each translation.
type Step struct {
	Number          int
	Node            *model.PlanNode
	Description     string
	Metrics         string
	Notes           []string
	Warnings        []string
	Recommendations []string
}

// Translate walks the tree in post-order (children before parents, matching
// bottom-up execution) and assembles the narrative. It is a pure function of
// the completed tree: translating the same tree twice yields identical
// results, and it never fails. A field-sparse tree just produces a sparser
// narrative.
func Translate(root *model.PlanNode) model.TranslationResult {
	steps := CollectSteps(root)

	result := model.TranslationResult{}
	warnSeen := map[string]struct{}{}
	recSeen := map[string]struct{}{}

	for _, step := range steps {
		result.Steps = append(result.Steps, formatStep(step))
		for _, w := range step.Warnings {
			appendUnique(&result.Warnings, warnSeen, w)
		}
		for _, r := range step.Recommendations {
			appendUnique(&result.Recommendations, recSeen, r)
		}
	}

	result.Summary = buildSummary(root, steps)
	return result
}

// CollectSteps produces the ordered per-node records: every child's step
// number is smaller than its parent's.
func CollectSteps(root *model.PlanNode) []Step {
	var steps []Step
	root.Walk(func(node *model.PlanNode) {
		ex := Describe(node)
		warnings := append(append([]string(nil), ex.Warnings...), detectPerformanceIssues(node)...)
		recs := append(append([]string(nil), ex.Recommendations...), generateRecommendations(node)...)
		steps = append(steps, Step{
			Number:          len(steps) + 1,
			Node:            node,
			Description:     ex.Description,
			Metrics:         formatMetrics(node),
			Notes:           ex.Notes,
			Warnings:        warnings,
			Recommendations: recs,
		})
	})
	return steps
}

func formatStep(step Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s", step.Number, upperFirst(step.Description))
	for _, note := range step.Notes {
		b.WriteString(", ")
		b.WriteString(note)
	}
	if step.Metrics != "" {
		fmt.Fprintf(&b, " (%s)", step.Metrics)
	}
	if len(step.Warnings) > 0 {
		fmt.Fprintf(&b, " [warning: %s]", strings.Join(step.Warnings, "; "))
	}
	return b.String()
}

func formatMetrics(node *model.PlanNode) string {
	var parts []string
	if node.Cost != nil {
		parts = append(parts, fmt.Sprintf("cost %.2f..%.2f", node.Cost.Startup, node.Cost.Total))
	}
	if node.PlanRows != nil {
		parts = append(parts, fmt.Sprintf("~%.0f rows", *node.PlanRows))
	}
	if node.Actual != nil {
		actual := fmt.Sprintf("actual %.3f ms, %.0f rows", node.Actual.TotalMs, node.Actual.Rows)
		if node.Actual.Loops > 1 {
			actual += fmt.Sprintf(" x%d loops", node.Actual.Loops)
		}
		parts = append(parts, actual)
	}
	if total := node.Buffers.Total(); total > 0 {
		parts = append(parts, fmt.Sprintf("%d buffers", total))
	}
	return strings.Join(parts, ", ")
}

// buildSummary classifies the steps into scan/join/sort/limit/gather buckets
// and composes a short prose overview, with a cost-magnitude remark above
// the configured threshold.
func buildSummary(root *model.PlanNode, steps []Step) string {
	var (
		scans    []string
		joins    []string
		sorters  int
		limited  bool
		parallel bool
	)

	for _, step := range steps {
		node := step.Node
		switch {
		case node.Kind.IsScan():
			scans = append(scans, scanPhrase(node))
		case node.Kind.IsJoin():
			joins = append(joins, strings.ToLower(string(node.Kind)))
		case node.Kind == model.OpSort || node.Kind == model.OpIncrementalSort:
			sorters++
		case node.Kind == model.OpLimit:
			limited = true
		case node.Kind == model.OpGather || node.Kind == model.OpGatherMerge:
			parallel = true
		}
	}

	var sentences []string
	if len(scans) > 0 {
		sentences = append(sentences, fmt.Sprintf("The plan reads %s.", joinAnd(scans)))
	}
	if len(joins) > 0 {
		sentences = append(sentences, fmt.Sprintf("Rows are combined with %s.", joinAnd(joins)))
	}
	if sorters > 0 {
		if sorters == 1 {
			sentences = append(sentences, "The result is sorted.")
		} else {
			sentences = append(sentences, fmt.Sprintf("The result passes through %d sorts.", sorters))
		}
	}
	if parallel {
		sentences = append(sentences, "Parts of the plan run in parallel workers.")
	}
	if limited {
		sentences = append(sentences, "Only the first rows of the result are returned.")
	}

	cfg := config.Active().Translate
	if root.Cost != nil && root.Cost.Total > cfg.TotalCostWarning {
		sentences = append(sentences,
			fmt.Sprintf("Total estimated cost is high (%.2f).", root.Cost.Total))
	}

	if len(sentences) == 0 {
		return fmt.Sprintf("The plan consists of %d steps.", len(steps))
	}
	return strings.Join(sentences, " ")
}

func scanPhrase(node *model.PlanNode) string {
	target := node.Table
	if target == "" {
		target = node.Alias
	}
	if target == "" {
		return strings.ToLower(string(node.Kind))
	}
	switch node.Kind {
	case model.OpSeqScan:
		return fmt.Sprintf("%s sequentially", target)
	case model.OpIndexScan, model.OpIndexOnlyScan, model.OpBitmapHeapScan:
		return fmt.Sprintf("%s via index", target)
	default:
		return target
	}
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func appendUnique(dst *[]string, seen map[string]struct{}, s string) {
	if _, dup := seen[s]; dup {
		return
	}
	seen[s] = struct{}{}
	*dst = append(*dst, s)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
