// Package diff compares two parsed plans and reports per-operator deltas.
package diff

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/plantell/plantell/internal/config"
	"github.com/plantell/plantell/internal/model"
)

// Options configures the diff sensitivity.
type Options struct {
	MinSelfTimeDeltaMs float64
	MinCostDelta       float64
	MinPercentChange   float64
	MaxItems           int
}

// Report summarises the delta between two plans.
type Report struct {
	Summary      SummaryDiff `json:"summary"`
	Regressions  []Entry     `json:"regressions"`
	Improvements []Entry     `json:"improvements"`
	Options      Options     `json:"-"`
}

// SummaryDiff covers high-level execution differences.
type SummaryDiff struct {
	BaseExecutionMs   float64 `json:"base_execution_ms"`
	TargetExecutionMs float64 `json:"target_execution_ms"`
	DeltaExecutionMs  float64 `json:"delta_execution_ms"`
	BaseTotalCost     float64 `json:"base_total_cost"`
	TargetTotalCost   float64 `json:"target_total_cost"`
	DeltaTotalCost    float64 `json:"delta_total_cost"`
	HasTiming         bool    `json:"has_timing"`
}

// Entry captures the delta for all nodes sharing a signature. With ANALYZE
// data the delta is self time; estimate-only plans fall back to cost.
type Entry struct {
	Signature     string  `json:"signature"`
	BaseSelfMs    float64 `json:"base_self_ms"`
	TargetSelfMs  float64 `json:"target_self_ms"`
	DeltaSelfMs   float64 `json:"delta_self_ms"`
	BaseCost      float64 `json:"base_cost"`
	TargetCost    float64 `json:"target_cost"`
	DeltaCost     float64 `json:"delta_cost"`
	PercentChange float64 `json:"percent_change"`
	BaseRows      float64 `json:"base_rows"`
	TargetRows    float64 `json:"target_rows"`
}

// Compare builds a diff report for two plans.
func Compare(base, target *model.Plan, opts Options) (*Report, error) {
	if base == nil || base.Root == nil {
		return nil, fmt.Errorf("diff: base plan missing")
	}
	if target == nil || target.Root == nil {
		return nil, fmt.Errorf("diff: target plan missing")
	}

	opts = applyDefaults(opts)
	hasTiming := hasActual(base.Root) && hasActual(target.Root)

	baseAgg := aggregate(base.Root)
	targetAgg := aggregate(target.Root)

	var regressions, improvements []Entry
	for _, sig := range unionKeys(baseAgg, targetAgg) {
		entry := buildEntry(sig, baseAgg[sig], targetAgg[sig], hasTiming)
		switch {
		case passesRegression(entry, opts, hasTiming):
			regressions = append(regressions, entry)
		case passesImprovement(entry, opts, hasTiming):
			improvements = append(improvements, entry)
		}
	}

	sortEntries(regressions, hasTiming, true)
	sortEntries(improvements, hasTiming, false)
	if opts.MaxItems > 0 {
		if len(regressions) > opts.MaxItems {
			regressions = regressions[:opts.MaxItems]
		}
		if len(improvements) > opts.MaxItems {
			improvements = improvements[:opts.MaxItems]
		}
	}

	report := &Report{
		Summary: SummaryDiff{
			BaseExecutionMs:   millis(base.ExecutionTimeMs),
			TargetExecutionMs: millis(target.ExecutionTimeMs),
			DeltaExecutionMs:  millis(target.ExecutionTimeMs) - millis(base.ExecutionTimeMs),
			BaseTotalCost:     rootCost(base.Root),
			TargetTotalCost:   rootCost(target.Root),
			DeltaTotalCost:    rootCost(target.Root) - rootCost(base.Root),
			HasTiming:         hasTiming,
		},
		Regressions:  regressions,
		Improvements: improvements,
		Options:      opts,
	}
	return report, nil
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# plan diff\n\n")
	b.WriteString("## Summary\n")
	if r.Summary.HasTiming {
		fmt.Fprintf(&b, "- Execution: %.3f ms → %.3f ms (%+.3f ms)\n",
			r.Summary.BaseExecutionMs, r.Summary.TargetExecutionMs, r.Summary.DeltaExecutionMs)
	}
	fmt.Fprintf(&b, "- Total cost: %.2f → %.2f (%+.2f)\n\n",
		r.Summary.BaseTotalCost, r.Summary.TargetTotalCost, r.Summary.DeltaTotalCost)

	writeSection(&b, "Regressions", r.Regressions, r.Summary.HasTiming)
	writeSection(&b, "Improvements", r.Improvements, r.Summary.HasTiming)
	return b.String()
}

// JSON marshals the diff report into an indented JSON document.
func (r *Report) JSON() ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("nil report")
	}
	type alias Report
	return json.MarshalIndent((*alias)(r), "", "  ")
}

func writeSection(b *strings.Builder, title string, entries []Entry, hasTiming bool) {
	fmt.Fprintf(b, "### %s\n", title)
	if len(entries) == 0 {
		b.WriteString("- None above threshold\n\n")
		return
	}
	if hasTiming {
		b.WriteString("| Operator | Base self (ms) | Target self (ms) | Δ self (ms) | Δ % |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, e := range entries {
			fmt.Fprintf(b, "| %s | %.2f | %.2f | %+.2f | %+.1f%% |\n",
				e.Signature, e.BaseSelfMs, e.TargetSelfMs, e.DeltaSelfMs, e.PercentChange)
		}
	} else {
		b.WriteString("| Operator | Base cost | Target cost | Δ cost | Δ % |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, e := range entries {
			fmt.Fprintf(b, "| %s | %.2f | %.2f | %+.2f | %+.1f%% |\n",
				e.Signature, e.BaseCost, e.TargetCost, e.DeltaCost, e.PercentChange)
		}
	}
	b.WriteString("\n")
}

type aggregated struct {
	SelfMs float64
	Cost   float64
	Rows   float64
}

func aggregate(root *model.PlanNode) map[string]aggregated {
	result := map[string]aggregated{}
	root.Walk(func(n *model.PlanNode) {
		sig := signature(n)
		entry := result[sig]
		entry.SelfMs += selfTimeMs(n)
		if n.Cost != nil {
			entry.Cost += selfCost(n)
		}
		if n.Actual != nil {
			entry.Rows += n.Actual.Rows
		} else if n.PlanRows != nil {
			entry.Rows += *n.PlanRows
		}
		result[sig] = entry
	})
	return result
}

// selfTimeMs is the node's inclusive time minus its children's, loop-scaled.
func selfTimeMs(n *model.PlanNode) float64 {
	if n.Actual == nil {
		return 0
	}
	inclusive := inclusiveTimeMs(n)
	for _, child := range n.Children {
		inclusive -= inclusiveTimeMs(child)
	}
	return math.Max(inclusive, 0)
}

func inclusiveTimeMs(n *model.PlanNode) float64 {
	if n.Actual == nil {
		return 0
	}
	loops := n.Actual.Loops
	if loops <= 0 {
		loops = 1
	}
	return n.Actual.TotalMs * float64(loops)
}

func selfCost(n *model.PlanNode) float64 {
	if n.Cost == nil {
		return 0
	}
	cost := n.Cost.Total
	for _, child := range n.Children {
		if child.Cost != nil {
			cost -= child.Cost.Total
		}
	}
	return math.Max(cost, 0)
}

func signature(n *model.PlanNode) string {
	parts := []string{string(n.Kind)}
	if n.Table != "" {
		parts = append(parts, n.Table)
	}
	if n.Index != "" {
		parts = append(parts, n.Index)
	}
	return strings.Join(parts, " · ")
}

func unionKeys(base, target map[string]aggregated) []string {
	seen := map[string]struct{}{}
	for k := range base {
		seen[k] = struct{}{}
	}
	for k := range target {
		seen[k] = struct{}{}
	}
	all := make([]string, 0, len(seen))
	for k := range seen {
		all = append(all, k)
	}
	sort.Strings(all)
	return all
}

func buildEntry(sig string, base, target aggregated, hasTiming bool) Entry {
	entry := Entry{
		Signature:    sig,
		BaseSelfMs:   base.SelfMs,
		TargetSelfMs: target.SelfMs,
		DeltaSelfMs:  target.SelfMs - base.SelfMs,
		BaseCost:     base.Cost,
		TargetCost:   target.Cost,
		DeltaCost:    target.Cost - base.Cost,
		BaseRows:     base.Rows,
		TargetRows:   target.Rows,
	}
	if hasTiming {
		entry.PercentChange = percentChange(base.SelfMs, target.SelfMs)
	} else {
		entry.PercentChange = percentChange(base.Cost, target.Cost)
	}
	return entry
}

func passesRegression(e Entry, opts Options, hasTiming bool) bool {
	if hasTiming {
		return e.DeltaSelfMs >= opts.MinSelfTimeDeltaMs && e.PercentChange >= opts.MinPercentChange
	}
	return e.DeltaCost >= opts.MinCostDelta && e.PercentChange >= opts.MinPercentChange
}

func passesImprovement(e Entry, opts Options, hasTiming bool) bool {
	if hasTiming {
		return e.DeltaSelfMs <= -opts.MinSelfTimeDeltaMs && e.PercentChange <= -opts.MinPercentChange
	}
	return e.DeltaCost <= -opts.MinCostDelta && e.PercentChange <= -opts.MinPercentChange
}

func sortEntries(entries []Entry, hasTiming, descending bool) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].DeltaCost, entries[j].DeltaCost
		if hasTiming {
			a, b = entries[i].DeltaSelfMs, entries[j].DeltaSelfMs
		}
		if descending {
			return a > b
		}
		return a < b
	})
}

func hasActual(root *model.PlanNode) bool {
	found := false
	root.Walk(func(n *model.PlanNode) {
		if n.Actual != nil {
			found = true
		}
	})
	return found
}

func rootCost(root *model.PlanNode) float64 {
	if root.Cost == nil {
		return 0
	}
	return root.Cost.Total
}

func millis(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func percentChange(base, target float64) float64 {
	const eps = 1e-9
	if math.Abs(base) <= eps {
		if math.Abs(target) <= eps {
			return 0
		}
		if target > 0 {
			return 100
		}
		return -100
	}
	return (target - base) / base * 100
}

func applyDefaults(opts Options) Options {
	cfg := config.Active().Diff
	if opts.MinSelfTimeDeltaMs <= 0 {
		opts.MinSelfTimeDeltaMs = cfg.MinSelfDeltaMs
	}
	if opts.MinCostDelta <= 0 {
		opts.MinCostDelta = cfg.MinCostDelta
	}
	if opts.MinPercentChange <= 0 {
		opts.MinPercentChange = cfg.MinPercentChange
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = cfg.MaxItems
	}
	return opts
}
