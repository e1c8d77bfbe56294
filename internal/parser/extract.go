package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/plantell/plantell/internal/model"
)

// Header shape patterns, most to least specific. First match wins: a header
// carrying ANALYZE statistics also matches the estimate-only pattern, so
// reordering these changes behavior.
var (
	headerAnalyzeRe = regexp.MustCompile(
		`^(.*?)\s*\(cost=([0-9.]+)\.\.([0-9.]+) rows=(\d+) width=(\d+)\)\s*\(actual time=([0-9.]+)\.\.([0-9.]+) rows=(\d+) loops=(\d+)\)`)
	headerAnalyzeNoTimingRe = regexp.MustCompile(
		`^(.*?)\s*\(cost=([0-9.]+)\.\.([0-9.]+) rows=(\d+) width=(\d+)\)\s*\(actual rows=(\d+) loops=(\d+)\)`)
	headerCostRe = regexp.MustCompile(
		`^(.*?)\s*\(cost=([0-9.]+)\.\.([0-9.]+) rows=(\d+) width=(\d+)\)`)
	headerNeverExecutedRe = regexp.MustCompile(
		`^(.*?)\s*\(never executed\)`)
)

// newNodeFromHeader extracts typed fields from a NODE-HEADER line. Shapes
// that do not match leave the optional fields nil rather than zero; the
// estimate-vs-actual diagnostics depend on that distinction.
func newNodeFromHeader(content string) *model.PlanNode {
	node := &model.PlanNode{RawHeader: content}
	header := stripArrow(content)

	switch {
	case headerAnalyzeRe.MatchString(header):
		m := headerAnalyzeRe.FindStringSubmatch(header)
		node.Cost = &model.CostRange{Startup: mustFloat(m[2]), Total: mustFloat(m[3])}
		node.PlanRows = floatPtr(mustFloat(m[4]))
		node.PlanWidth = intPtr(mustInt(m[5]))
		node.Actual = &model.ActualStats{
			StartupMs: mustFloat(m[6]),
			TotalMs:   mustFloat(m[7]),
			Rows:      mustFloat(m[8]),
			Loops:     mustInt(m[9]),
		}
	case headerAnalyzeNoTimingRe.MatchString(header):
		m := headerAnalyzeNoTimingRe.FindStringSubmatch(header)
		node.Cost = &model.CostRange{Startup: mustFloat(m[2]), Total: mustFloat(m[3])}
		node.PlanRows = floatPtr(mustFloat(m[4]))
		node.PlanWidth = intPtr(mustInt(m[5]))
		node.Actual = &model.ActualStats{
			Rows:  mustFloat(m[6]),
			Loops: mustInt(m[7]),
		}
	case headerCostRe.MatchString(header):
		m := headerCostRe.FindStringSubmatch(header)
		node.Cost = &model.CostRange{Startup: mustFloat(m[2]), Total: mustFloat(m[3])}
		node.PlanRows = floatPtr(mustFloat(m[4]))
		node.PlanWidth = intPtr(mustInt(m[5]))
	case headerNeverExecutedRe.MatchString(header):
		// no cost data at all; the label is everything before the marker
	}

	if strings.Contains(header, "(never executed)") {
		node.NeverExecuted = true
	}
	return node
}

// propertyRule assigns one labeled property line onto the open node.
type propertyRule struct {
	label string
	apply func(*model.PlanNode, string)
}

// propertyRules is an ordered list; the first matching label wins and at
// most one property is extracted per line. "Join Filter" must precede
// "Filter".
var propertyRules = []propertyRule{
	{"Sort Key:", func(n *model.PlanNode, v string) { n.SortKeys = splitKeys(v) }},
	{"Group Key:", func(n *model.PlanNode, v string) { n.GroupKeys = append(n.GroupKeys, splitKeys(v)...) }},
	{"Sort Method:", applySortMethod},
	{"Index Cond:", func(n *model.PlanNode, v string) { n.IndexCond = normalizeExpr(v) }},
	{"Recheck Cond:", func(n *model.PlanNode, v string) { n.RecheckCond = normalizeExpr(v) }},
	{"Hash Cond:", func(n *model.PlanNode, v string) { n.HashCond = normalizeExpr(v) }},
	{"Merge Cond:", func(n *model.PlanNode, v string) { n.MergeCond = normalizeExpr(v) }},
	{"Join Filter:", func(n *model.PlanNode, v string) { n.JoinFilter = normalizeExpr(v) }},
	{"Rows Removed by Filter:", func(n *model.PlanNode, v string) { n.RowsRemovedByFilter = parseIntPtr(v) }},
	{"Rows Removed by Index Recheck:", func(n *model.PlanNode, v string) { n.RowsRemovedByRecheck = parseIntPtr(v) }},
	{"Rows Removed by Join Filter:", func(n *model.PlanNode, v string) { n.RowsRemovedByFilter = parseIntPtr(v) }},
	{"Filter:", func(n *model.PlanNode, v string) { n.Filter = normalizeExpr(v) }},
	{"Heap Fetches:", func(n *model.PlanNode, v string) { n.HeapFetches = parseIntPtr(v) }},
	{"Workers Planned:", func(n *model.PlanNode, v string) { n.WorkersPlanned = parseIntPtr(v) }},
	{"Workers Launched:", func(n *model.PlanNode, v string) { n.WorkersLaunched = parseIntPtr(v) }},
	{"Buffers:", applyBuffers},
}

// applyProperty extracts the single matching field onto the node. Unmatched
// property lines are silently skipped.
func applyProperty(node *model.PlanNode, content string) {
	for _, rule := range propertyRules {
		if strings.HasPrefix(content, rule.label) {
			rule.apply(node, strings.TrimSpace(content[len(rule.label):]))
			return
		}
	}
}

func splitKeys(v string) []string {
	var keys []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

var sortMethodRe = regexp.MustCompile(`^(.*?)\s+(Memory|Disk):\s*(\d+)kB`)

// applySortMethod parses lines such as
// "quicksort  Memory: 25kB" or "external merge  Disk: 2048kB".
func applySortMethod(n *model.PlanNode, v string) {
	m := sortMethodRe.FindStringSubmatch(v)
	if m == nil {
		n.SortMethod = strings.TrimSpace(v)
		return
	}
	n.SortMethod = strings.TrimSpace(m[1])
	n.SortSpaceType = m[2]
	n.SortSpaceKB = parseIntPtr(m[3])
}

var bufferGroupRe = regexp.MustCompile(`(shared|local|temp)((?:\s+\w+=\d+)+)`)
var bufferPairRe = regexp.MustCompile(`(\w+)=(\d+)`)

// applyBuffers parses "shared hit=132 read=538, temp read=722 written=724".
func applyBuffers(n *model.PlanNode, v string) {
	stats := n.Buffers
	if stats == nil {
		stats = &model.BufferStats{}
	}
	for _, group := range bufferGroupRe.FindAllStringSubmatch(v, -1) {
		class := group[1]
		for _, pair := range bufferPairRe.FindAllStringSubmatch(group[2], -1) {
			count := mustInt(pair[2])
			switch class + " " + pair[1] {
			case "shared hit":
				stats.SharedHit += count
			case "shared read":
				stats.SharedRead += count
			case "shared dirtied":
				stats.SharedDirtied += count
			case "shared written":
				stats.SharedWritten += count
			case "local hit":
				stats.LocalHit += count
			case "local read":
				stats.LocalRead += count
			case "local dirtied":
				stats.LocalDirtied += count
			case "local written":
				stats.LocalWritten += count
			case "temp read":
				stats.TempRead += count
			case "temp written":
				stats.TempWritten += count
			}
		}
	}
	n.Buffers = stats
}

// normalizeExpr collapses whitespace in predicate text. The expression is
// otherwise opaque: no semantic interpretation.
func normalizeExpr(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func mustFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func mustInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseIntPtr(s string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int64) *int64       { return &v }
