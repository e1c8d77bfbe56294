// Package translate turns a parsed plan tree into a human-readable
// narrative: ordered execution steps, performance notes, warnings, and
// remediation recommendations.
package translate

import (
	"fmt"
	"strings"

	"github.com/plantell/plantell/internal/config"
	"github.com/plantell/plantell/internal/model"
)

// Explanation is the per-node narrative record produced by the
// operation-kind rules.
type Explanation struct {
	Description     string
	Notes           []string
	Warnings        []string
	Recommendations []string
}

// Describe maps a node's operation kind to a natural-language description
// with per-kind performance notes, warnings, and recommendations. Kinds
// outside the catalog fall through to a generic description rather than
// failing.
func Describe(node *model.PlanNode) Explanation {
	cfg := config.Active().Translate
	var ex Explanation

	switch node.Kind {
	case model.OpSeqScan:
		ex.Description = fmt.Sprintf("read every row in table %s", tableRef(node))
		if node.Filter != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("keeping only rows where %s", node.Filter))
		}
		if node.PlanRows != nil && *node.PlanRows > cfg.SeqScanRowWarning {
			ex.Warnings = append(ex.Warnings,
				fmt.Sprintf("sequential scan over an estimated %.0f rows on %s", *node.PlanRows, tableRef(node)))
			if node.Filter != "" {
				ex.Recommendations = append(ex.Recommendations, indexRecommendation(node))
			}
		}

	case model.OpIndexScan:
		ex.Description = fmt.Sprintf("scan table %s using index %s", tableRef(node), node.Index)
		if node.IndexCond != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("matching %s", node.IndexCond))
		}
		if node.Filter != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("then filtering by %s", node.Filter))
		}

	case model.OpIndexOnlyScan:
		ex.Description = fmt.Sprintf("read table %s directly from index %s without touching the heap", tableRef(node), node.Index)
		if node.IndexCond != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("matching %s", node.IndexCond))
		}
		if node.HeapFetches != nil && *node.HeapFetches > 0 {
			ex.Notes = append(ex.Notes, fmt.Sprintf("%d heap fetches were still required", *node.HeapFetches))
			ex.Recommendations = append(ex.Recommendations,
				fmt.Sprintf("run VACUUM on %s so the visibility map lets the index-only scan skip the heap", tableName(node)))
		}

	case model.OpBitmapIndexScan:
		ex.Description = fmt.Sprintf("collect matching row locations from index %s into a bitmap", node.Index)
		if node.IndexCond != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("matching %s", node.IndexCond))
		}

	case model.OpBitmapHeapScan:
		ex.Description = fmt.Sprintf("fetch the rows of %s flagged by the bitmap below", tableRef(node))
		if node.RecheckCond != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("rechecking %s on each fetched row", node.RecheckCond))
		}
		if node.RowsRemovedByRecheck != nil && *node.RowsRemovedByRecheck > 0 {
			ex.Warnings = append(ex.Warnings,
				fmt.Sprintf("bitmap heap scan on %s rechecked and discarded %d rows (lossy bitmap)", tableName(node), *node.RowsRemovedByRecheck))
			ex.Recommendations = append(ex.Recommendations, "increase work_mem so bitmap pages stay exact instead of lossy")
		}

	case model.OpBitmapAnd:
		ex.Description = "intersect the bitmaps produced below"
	case model.OpBitmapOr:
		ex.Description = "union the bitmaps produced below"

	case model.OpTidScan:
		ex.Description = fmt.Sprintf("fetch rows from %s by physical row id", tableRef(node))
	case model.OpSubqueryScan:
		ex.Description = fmt.Sprintf("scan the subquery result %s", aliasOrTable(node))
	case model.OpFunctionScan:
		ex.Description = fmt.Sprintf("scan the rows returned by function %s", aliasOrTable(node))
	case model.OpCTEScan:
		ex.Description = fmt.Sprintf("scan the materialized CTE %s", aliasOrTable(node))
	case model.OpForeignScan:
		ex.Description = fmt.Sprintf("fetch rows from foreign table %s on a remote server", tableRef(node))
	case model.OpCustomScan:
		ex.Description = "run an extension-provided custom scan"
	case model.OpValuesScan:
		ex.Description = "scan an inline VALUES list"

	case model.OpNestedLoop:
		ex.Description = "join: for each row from the first input, look up matching rows in the second"
		if node.JoinFilter != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("join condition %s", node.JoinFilter))
		}
		if w := nestedLoopWarning(node, cfg); w != "" {
			ex.Warnings = append(ex.Warnings, w)
			ex.Recommendations = append(ex.Recommendations,
				"add an index supporting the inner side of the nested loop, or rewrite the join")
		}

	case model.OpMergeJoin:
		ex.Description = "join two pre-sorted inputs by merging them"
		if node.MergeCond != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("merging on %s", node.MergeCond))
		}

	case model.OpHashJoin:
		ex.Description = "join by probing a hash table built from the second input"
		if node.HashCond != "" {
			ex.Notes = append(ex.Notes, fmt.Sprintf("matching on %s", node.HashCond))
		}

	case model.OpHash:
		ex.Description = "build an in-memory hash table from the input rows"

	case model.OpAggregate, model.OpHashAggregate, model.OpGroupAggregate, model.OpMixedAggregate:
		ex.Description = "aggregate the input rows"
		if len(node.GroupKeys) > 0 {
			ex.Description = fmt.Sprintf("aggregate the input rows grouped by %s", strings.Join(node.GroupKeys, ", "))
		}
	case model.OpWindowAgg:
		ex.Description = "compute window functions over the input rows"
	case model.OpGroup:
		ex.Description = fmt.Sprintf("group adjacent rows by %s", strings.Join(node.GroupKeys, ", "))
	case model.OpUnique:
		ex.Description = "drop adjacent duplicate rows"

	case model.OpSort, model.OpIncrementalSort:
		ex.Description = "sort the input rows"
		if len(node.SortKeys) > 0 {
			ex.Description = fmt.Sprintf("sort the input rows by %s", strings.Join(node.SortKeys, ", "))
		}
		if node.Kind == model.OpIncrementalSort {
			ex.Notes = append(ex.Notes, "reusing the existing order of a prefix of the sort keys")
		}
		if node.SortMethod != "" {
			ex.Notes = append(ex.Notes, sortMethodNote(node))
		}
		if node.SortSpaceType == "Disk" {
			ex.Warnings = append(ex.Warnings, fmt.Sprintf("sort spilled to disk (%s)", sortSpace(node)))
			ex.Recommendations = append(ex.Recommendations,
				"increase work_mem so the sort fits in memory, or add an index providing the order")
		}

	case model.OpLimit:
		ex.Description = "return only the first rows of the input"
	case model.OpMaterialize:
		ex.Description = "materialize the input so it can be rescanned cheaply"
	case model.OpMemoize:
		ex.Description = "cache input lookups keyed by parameter value"
	case model.OpAppend, model.OpMergeAppend:
		ex.Description = "concatenate the results of the inputs below"
	case model.OpResult:
		ex.Description = "produce a constant or one-off result row"
	case model.OpSetOp:
		ex.Description = "combine inputs with a set operation (EXCEPT/INTERSECT)"

	case model.OpGather, model.OpGatherMerge:
		ex.Description = "collect rows from parallel workers"
		if node.Kind == model.OpGatherMerge {
			ex.Description = "collect rows from parallel workers, preserving sort order"
		}
		if node.WorkersLaunched != nil {
			note := fmt.Sprintf("%d workers launched", *node.WorkersLaunched)
			if node.WorkersPlanned != nil && *node.WorkersPlanned != *node.WorkersLaunched {
				note = fmt.Sprintf("%d of %d planned workers launched", *node.WorkersLaunched, *node.WorkersPlanned)
				ex.Warnings = append(ex.Warnings,
					fmt.Sprintf("only %d of %d planned parallel workers launched", *node.WorkersLaunched, *node.WorkersPlanned))
			}
			ex.Notes = append(ex.Notes, note)
		} else if node.WorkersPlanned != nil {
			ex.Notes = append(ex.Notes, fmt.Sprintf("%d workers planned", *node.WorkersPlanned))
		}

	default:
		ex.Description = fmt.Sprintf("perform a %s operation", string(node.Kind))
		if node.Table != "" {
			ex.Description += fmt.Sprintf(" on %s", tableRef(node))
		}
	}

	if node.Parallel {
		ex.Notes = append(ex.Notes, "executed by parallel workers")
	}
	if node.NeverExecuted {
		ex.Notes = append(ex.Notes, "never executed at runtime")
	}
	return ex
}

func tableRef(node *model.PlanNode) string {
	if node.Table == "" {
		return "the input"
	}
	if node.Alias != "" && node.Alias != node.Table {
		return fmt.Sprintf("%s (as %s)", node.Table, node.Alias)
	}
	return node.Table
}

func tableName(node *model.PlanNode) string {
	if node.Table != "" {
		return node.Table
	}
	return "the table"
}

func aliasOrTable(node *model.PlanNode) string {
	if node.Alias != "" {
		return node.Alias
	}
	return tableName(node)
}

func sortMethodNote(node *model.PlanNode) string {
	note := fmt.Sprintf("sort method: %s", node.SortMethod)
	if space := sortSpace(node); space != "" {
		note += fmt.Sprintf(", %s", space)
	}
	return note
}

func sortSpace(node *model.PlanNode) string {
	if node.SortSpaceKB == nil {
		return ""
	}
	return fmt.Sprintf("%d kB on %s", *node.SortSpaceKB, strings.ToLower(node.SortSpaceType))
}

func nestedLoopWarning(node *model.PlanNode, cfg config.TranslateConfig) string {
	for _, child := range node.Children {
		if child.Actual == nil || child.Actual.Loops <= cfg.NestedLoopWarnLoops {
			continue
		}
		if !child.Kind.IsScan() {
			continue
		}
		return fmt.Sprintf("nested loop executed its inner %s %d times", string(child.Kind), child.Actual.Loops)
	}
	return ""
}

// indexRecommendation suggests an index covering the columns referenced by
// the node's filter. Predicate text stays opaque; only bare column names are
// lifted out of it.
func indexRecommendation(node *model.PlanNode) string {
	cols := filterColumns(node.Filter)
	if len(cols) == 0 {
		return fmt.Sprintf("consider adding an index on %s to avoid the sequential scan", tableName(node))
	}
	return fmt.Sprintf("consider adding an index on %s (%s) to avoid the sequential scan",
		tableName(node), strings.Join(cols, ", "))
}
