package translate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/plantell/plantell/internal/config"
	"github.com/plantell/plantell/internal/model"
)

// detectPerformanceIssues flags cross-cutting problems not tied to one
// operation kind. It deliberately overlaps with the per-kind rules; the
// assembler de-duplicates the union.
func detectPerformanceIssues(node *model.PlanNode) []string {
	cfg := config.Active().Translate
	var warnings []string

	if node.Cost != nil && node.Cost.Total > cfg.TotalCostWarning {
		warnings = append(warnings,
			fmt.Sprintf("expensive step: %s has total cost %.2f", string(node.Kind), node.Cost.Total))
	}

	if drift, est, act, ok := rowDrift(node); ok && drift > cfg.RowDriftRatio {
		warnings = append(warnings,
			fmt.Sprintf("row estimate significantly off on %s: estimated %.0f, actual %.0f", string(node.Kind), est, act))
	}

	if node.RowsRemovedByFilter != nil && node.Actual != nil {
		removed := float64(*node.RowsRemovedByFilter)
		kept := node.Actual.Rows
		if removed > 0 && removed/(removed+kept) > cfg.FilterRemovedRatio {
			warnings = append(warnings,
				fmt.Sprintf("filter on %s discarded %.0f%% of the rows it read", string(node.Kind), 100*removed/(removed+kept)))
		}
	}

	return warnings
}

// generateRecommendations independently proposes remediations using the same
// threshold rules as the other passes.
func generateRecommendations(node *model.PlanNode) []string {
	cfg := config.Active().Translate
	var recs []string

	if node.Kind == model.OpSeqScan && node.Filter != "" &&
		node.PlanRows != nil && *node.PlanRows > cfg.SeqScanRowWarning {
		recs = append(recs, indexRecommendation(node))
	}

	if node.SortSpaceType == "Disk" {
		recs = append(recs,
			"increase work_mem so the sort fits in memory, or add an index providing the order")
	}

	if drift, _, _, ok := rowDrift(node); ok && drift > cfg.RowDriftRatio {
		recs = append(recs,
			fmt.Sprintf("run ANALYZE on %s to refresh planner statistics", tableName(node)))
	}

	return recs
}

// rowDrift returns the absolute relative error between estimated and actual
// rows: |actual - estimated| / estimated. Both sides must be present; absent
// is not zero.
func rowDrift(node *model.PlanNode) (drift, estimated, actual float64, ok bool) {
	if node.PlanRows == nil || node.Actual == nil || node.NeverExecuted {
		return 0, 0, 0, false
	}
	estimated = *node.PlanRows
	actual = node.Actual.Rows
	if estimated <= 0 {
		return 0, 0, 0, false
	}
	return math.Abs(actual-estimated) / estimated, estimated, actual, true
}

var (
	identRe  = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)?\s*(?:=|<>|<=|>=|<|>|~~|!~~| IS )`)
	opTailRe = regexp.MustCompile(`\s*(?:=|<>|<=|>=|<|>|~~|!~~|IS)\s*$`)
)

// sqlKeywords never name columns; they appear in predicate text as operators
// and literals.
var sqlKeywords = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "is": {}, "null": {}, "true": {}, "false": {},
	"any": {}, "all": {}, "text": {}, "numeric": {}, "integer": {}, "bigint": {},
	"timestamp": {}, "date": {}, "interval": {},
}

// filterColumns lifts probable column names out of opaque predicate text.
// This is cosmetic extraction, not expression parsing.
func filterColumns(filter string) []string {
	var cols []string
	seen := map[string]struct{}{}
	for _, m := range identRe.FindAllString(filter, -1) {
		name := strings.TrimSpace(opTailRe.ReplaceAllString(m, ""))
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if name == "" {
			continue
		}
		if _, keyword := sqlKeywords[strings.ToLower(name)]; keyword {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
	}
	return cols
}
