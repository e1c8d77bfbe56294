package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/plantell/plantell/internal/model"
)

// Options controls how the terminal renderer behaves.
type Options struct {
	EnableColor  bool
	MaxDepth     int
	ShowWarnings bool
}

// Render prints the narrative translation followed by an ASCII plan tree.
func Render(w io.Writer, plan *model.Plan, result model.TranslationResult, opts Options) error {
	if w == nil {
		return errors.New("tui: writer is nil")
	}
	if plan == nil || plan.Root == nil {
		return errors.New("tui: empty plan")
	}

	if plan.ExecutionTimeMs != nil || plan.PlanningTimeMs != nil {
		_, _ = fmt.Fprintf(w, "Execution time %s (planning %s)\n\n",
			formatMs(plan.ExecutionTimeMs), formatMs(plan.PlanningTimeMs))
	}

	_, _ = fmt.Fprintln(w, result.Summary)
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "Steps:")
	for _, step := range result.Steps {
		_, _ = fmt.Fprintf(w, "  %s\n", step)
	}
	_, _ = fmt.Fprintln(w)

	if opts.ShowWarnings && len(result.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range result.Warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", colorize(warning, "yellow", opts.EnableColor))
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(result.Recommendations) > 0 {
		_, _ = fmt.Fprintln(w, "Recommendations:")
		for _, rec := range result.Recommendations {
			_, _ = fmt.Fprintf(w, "  - %s\n", rec)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "%s\n", nodeLine(plan.Root))
	printChildren(w, plan.Root, "", 1, opts)
	return nil
}

func printChildren(w io.Writer, parent *model.PlanNode, prefix string, depth int, opts Options) {
	for i, child := range parent.Children {
		renderBranch(w, child, prefix, i == len(parent.Children)-1, depth, opts)
	}
}

func renderBranch(w io.Writer, node *model.PlanNode, prefix string, isLast bool, depth int, opts Options) {
	connector := "|-- "
	childPrefix := prefix + "|   "
	if isLast {
		connector = "`-- "
		childPrefix = prefix + "    "
	}

	_, _ = fmt.Fprintf(w, "%s%s%s\n", prefix, connector, nodeLine(node))

	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		if len(node.Children) > 0 {
			_, _ = fmt.Fprintf(w, "%s`-- ... (%d more nodes)\n", childPrefix, countDescendants(node))
		}
		return
	}
	printChildren(w, node, childPrefix, depth+1, opts)
}

func nodeLine(node *model.PlanNode) string {
	parts := []string{label(node)}
	if node.Cost != nil {
		parts = append(parts, fmt.Sprintf("cost %.2f..%.2f", node.Cost.Startup, node.Cost.Total))
	}
	if node.PlanRows != nil {
		parts = append(parts, fmt.Sprintf("~%.0f rows", *node.PlanRows))
	}
	if node.Actual != nil {
		parts = append(parts, fmt.Sprintf("actual %.3f ms, %.0f rows", node.Actual.TotalMs, node.Actual.Rows))
	}
	if node.NeverExecuted {
		parts = append(parts, "never executed")
	}
	return strings.Join(parts, " | ")
}

func label(node *model.PlanNode) string {
	l := string(node.Kind)
	if node.Parallel {
		l = "Parallel " + l
	}
	if node.Table != "" {
		l += " on " + node.Table
		if node.Alias != "" && node.Alias != node.Table {
			l += fmt.Sprintf(" (%s)", node.Alias)
		}
	}
	if node.Index != "" {
		l += " using " + node.Index
	}
	return l
}

func countDescendants(node *model.PlanNode) int {
	total := 0
	node.Walk(func(*model.PlanNode) { total++ })
	return total - 1
}

func formatMs(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f ms", *v)
}

func colorize(text, color string, enabled bool) string {
	if !enabled {
		return text
	}
	code := ""
	switch color {
	case "red":
		code = "\033[31m"
	case "yellow":
		code = "\033[33m"
	case "cyan":
		code = "\033[36m"
	default:
		return text
	}
	return code + text + "\033[0m"
}
