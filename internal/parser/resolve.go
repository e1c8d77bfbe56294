package parser

import (
	"regexp"
	"strings"

	"github.com/plantell/plantell/internal/model"
)

// The resolver runs after the tree is built, directly on each node's raw
// header text, deliberately decoupled from the cost-pattern extraction:
// plans produced without ANALYZE still need table, index, and operation
// resolution.

// Table patterns, ordered, first match sets table and alias. The alias group
// rejects tokens the planner never uses as aliases.
var tablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:Parallel )?Seq Scan on ([\w$.]+)(?:\s+([\w$]+))?$`),
	regexp.MustCompile(`^(?:Parallel )?Index (?:Only )?Scan(?: Backward)? using [\w$.]+ on ([\w$.]+)(?:\s+([\w$]+))?$`),
	regexp.MustCompile(`^(?:Parallel )?Bitmap Heap Scan on ([\w$.]+)(?:\s+([\w$]+))?$`),
	regexp.MustCompile(`^(?:Parallel )?(?:Tid|Foreign|Sample) Scan on ([\w$.]+)(?:\s+([\w$]+))?$`),
	regexp.MustCompile(`^(?:CTE|Subquery|Function|Values) Scan on ([\w$.]+)(?:\s+([\w$]+))?$`),
}

// Index patterns, ordered. A Bitmap Index Scan names the index after "on",
// so it must not fall through to the table patterns above.
var indexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`using ([\w$.]+)`),
	regexp.MustCompile(`^Bitmap Index Scan on ([\w$.]+)`),
}

// opMatcher maps a header prefix to a canonical operation kind. contains, if
// set, must also appear in the label; it distinguishes "Hash Left Join" from
// a bare "Hash" build node.
type opMatcher struct {
	prefix   string
	contains string
	kind     model.OpKind
}

// opMatchers is ordered most to least specific; first match wins. Unmatched
// labels keep their raw text as the kind.
var opMatchers = []opMatcher{
	{prefix: "Seq Scan", kind: model.OpSeqScan},
	{prefix: "Index Only Scan", kind: model.OpIndexOnlyScan},
	{prefix: "Index Scan", kind: model.OpIndexScan},
	{prefix: "Bitmap Heap Scan", kind: model.OpBitmapHeapScan},
	{prefix: "Bitmap Index Scan", kind: model.OpBitmapIndexScan},
	{prefix: "BitmapAnd", kind: model.OpBitmapAnd},
	{prefix: "BitmapOr", kind: model.OpBitmapOr},
	{prefix: "Tid Scan", kind: model.OpTidScan},
	{prefix: "Subquery Scan", kind: model.OpSubqueryScan},
	{prefix: "Function Scan", kind: model.OpFunctionScan},
	{prefix: "CTE Scan", kind: model.OpCTEScan},
	{prefix: "Foreign Scan", kind: model.OpForeignScan},
	{prefix: "Custom Scan", kind: model.OpCustomScan},
	{prefix: "Values Scan", kind: model.OpValuesScan},
	{prefix: "Nested Loop", kind: model.OpNestedLoop},
	{prefix: "Merge Append", kind: model.OpMergeAppend},
	{prefix: "Merge", contains: "Join", kind: model.OpMergeJoin},
	{prefix: "Hash", contains: "Join", kind: model.OpHashJoin},
	{prefix: "Finalize HashAggregate", kind: model.OpHashAggregate},
	{prefix: "Partial HashAggregate", kind: model.OpHashAggregate},
	{prefix: "HashAggregate", kind: model.OpHashAggregate},
	{prefix: "Finalize GroupAggregate", kind: model.OpGroupAggregate},
	{prefix: "Partial GroupAggregate", kind: model.OpGroupAggregate},
	{prefix: "GroupAggregate", kind: model.OpGroupAggregate},
	{prefix: "MixedAggregate", kind: model.OpMixedAggregate},
	{prefix: "Finalize Aggregate", kind: model.OpAggregate},
	{prefix: "Partial Aggregate", kind: model.OpAggregate},
	{prefix: "Aggregate", kind: model.OpAggregate},
	{prefix: "WindowAgg", kind: model.OpWindowAgg},
	{prefix: "GroupingSets", kind: model.OpGroupAggregate},
	{prefix: "Group", kind: model.OpGroup},
	{prefix: "Unique", kind: model.OpUnique},
	{prefix: "Incremental Sort", kind: model.OpIncrementalSort},
	{prefix: "Sort", kind: model.OpSort},
	{prefix: "Limit", kind: model.OpLimit},
	{prefix: "Materialize", kind: model.OpMaterialize},
	{prefix: "Memoize", kind: model.OpMemoize},
	{prefix: "Append", kind: model.OpAppend},
	{prefix: "Result", kind: model.OpResult},
	{prefix: "SetOp", kind: model.OpSetOp},
	{prefix: "Gather Merge", kind: model.OpGatherMerge},
	{prefix: "Gather", kind: model.OpGather},
	{prefix: "Hash", kind: model.OpHash},
}

// resolve derives table, index, alias, and the canonical operation kind from
// the node's raw header text.
func resolve(node *model.PlanNode) {
	label := headerLabel(node.RawHeader)

	for _, re := range tablePatterns {
		if m := re.FindStringSubmatch(label); m != nil {
			node.Table = m[1]
			if len(m) > 2 && m[2] != "" {
				node.Alias = m[2]
			}
			break
		}
	}

	for _, re := range indexPatterns {
		if m := re.FindStringSubmatch(label); m != nil {
			node.Index = m[1]
			break
		}
	}

	opLabel := label
	if rest, ok := strings.CutPrefix(opLabel, "Parallel "); ok {
		node.Parallel = true
		opLabel = rest
	}
	node.Kind = matchOperation(opLabel)
}

func matchOperation(label string) model.OpKind {
	for _, m := range opMatchers {
		if !strings.HasPrefix(label, m.prefix) {
			continue
		}
		if m.contains != "" && !strings.Contains(label, m.contains) {
			continue
		}
		return m.kind
	}
	return model.OpKind(label)
}

// knownOperationPrefix reports whether the label opens with an operation
// from the fixed catalog. Used by the classifier for headers that carry no
// cost annotation.
func knownOperationPrefix(label string) bool {
	if rest, ok := strings.CutPrefix(label, "Parallel "); ok {
		label = rest
	}
	for _, m := range opMatchers {
		if strings.HasPrefix(label, m.prefix) {
			if m.contains != "" && !strings.Contains(label, m.contains) {
				continue
			}
			return true
		}
	}
	return false
}

// headerLabel is the header text before any parenthesized statistics, with
// the branch arrow removed.
func headerLabel(raw string) string {
	label := stripArrow(strings.TrimSpace(raw))
	for _, marker := range []string{"(cost=", "(actual ", "(never executed)"} {
		if i := strings.Index(label, marker); i >= 0 {
			label = label[:i]
		}
	}
	return strings.TrimSpace(label)
}
