package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/plantell/plantell/internal/model"
)

const seqScanPlan = `Seq Scan on orders  (cost=0.00..100.00 rows=5000 width=40)
  Filter: (status = 'shipped'::text)`

const limitSortPlan = `Limit  (cost=345.10..345.12 rows=10 width=40)
  ->  Sort  (cost=345.10..357.60 rows=5000 width=40)
        Sort Key: created_at DESC
        ->  Seq Scan on orders  (cost=0.00..100.00 rows=5000 width=40)`

func TestParseSingleSeqScan(t *testing.T) {
	plan, err := Parse(seqScanPlan)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	root := plan.Root
	if root.Kind != model.OpSeqScan {
		t.Fatalf("kind = %q, want %q", root.Kind, model.OpSeqScan)
	}
	if root.Table != "orders" {
		t.Fatalf("table = %q, want orders", root.Table)
	}
	if root.Cost == nil || root.Cost.Total != 100.00 {
		t.Fatalf("total cost = %+v, want 100.00", root.Cost)
	}
	if root.PlanRows == nil || *root.PlanRows != 5000 {
		t.Fatalf("plan rows = %v, want 5000", root.PlanRows)
	}
	if root.Filter != "(status = 'shipped'::text)" {
		t.Fatalf("filter = %q", root.Filter)
	}
	if root.Actual != nil {
		t.Fatalf("actual stats present on estimate-only plan: %+v", root.Actual)
	}
	if len(root.Children) != 0 {
		t.Fatalf("children = %d, want 0", len(root.Children))
	}
}

func TestParseTreeShape(t *testing.T) {
	plan, err := Parse(limitSortPlan)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	limit := plan.Root
	if limit.Kind != model.OpLimit || len(limit.Children) != 1 {
		t.Fatalf("root = %q with %d children, want Limit with 1", limit.Kind, len(limit.Children))
	}
	sort := limit.Children[0]
	if sort.Kind != model.OpSort || len(sort.Children) != 1 {
		t.Fatalf("child = %q with %d children, want Sort with 1", sort.Kind, len(sort.Children))
	}
	if got := sort.SortKeys; len(got) != 1 || got[0] != "created_at DESC" {
		t.Fatalf("sort keys = %v", got)
	}
	scan := sort.Children[0]
	if scan.Kind != model.OpSeqScan || len(scan.Children) != 0 {
		t.Fatalf("leaf = %q with %d children, want Seq Scan with 0", scan.Kind, len(scan.Children))
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t\n"} {
		if _, err := Parse(input); !errors.Is(err, ErrNoPlan) {
			t.Fatalf("Parse(%q) error = %v, want ErrNoPlan", input, err)
		}
	}
}

func TestParseGarbageInput(t *testing.T) {
	input := "this is not a plan\nneither is this line\n42"
	if _, err := Parse(input); !errors.Is(err, ErrNoPlan) {
		t.Fatalf("error = %v, want ErrNoPlan", err)
	}
}

func TestParseAnalyzeStatistics(t *testing.T) {
	input := `Seq Scan on orders o  (cost=0.00..100.00 rows=5000 width=40) (actual time=0.014..32.953 rows=4821 loops=2)
  Filter: (status = 'shipped'::text)
  Rows Removed by Filter: 151787
  Buffers: shared hit=96 read=478, temp read=10 written=12`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := plan.Root
	if root.Actual == nil {
		t.Fatalf("actual stats missing")
	}
	if root.Actual.TotalMs != 32.953 || root.Actual.Rows != 4821 || root.Actual.Loops != 2 {
		t.Fatalf("actual = %+v", root.Actual)
	}
	if root.Alias != "o" {
		t.Fatalf("alias = %q, want o", root.Alias)
	}
	if root.RowsRemovedByFilter == nil || *root.RowsRemovedByFilter != 151787 {
		t.Fatalf("rows removed = %v", root.RowsRemovedByFilter)
	}
	if root.Buffers == nil || root.Buffers.SharedHit != 96 || root.Buffers.SharedRead != 478 {
		t.Fatalf("buffers = %+v", root.Buffers)
	}
	if root.Buffers.TempRead != 10 || root.Buffers.TempWritten != 12 {
		t.Fatalf("temp buffers = %+v", root.Buffers)
	}
}

func TestParseNeverExecuted(t *testing.T) {
	input := `Nested Loop  (cost=0.43..325.90 rows=38 width=64) (actual time=0.020..0.020 rows=0 loops=1)
  ->  Seq Scan on users  (cost=0.00..8.45 rows=1 width=32) (actual time=0.019..0.019 rows=0 loops=1)
  ->  Index Scan using sessions_pkey on sessions  (never executed)`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(plan.Root.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(plan.Root.Children))
	}
	inner := plan.Root.Children[1]
	if !inner.NeverExecuted {
		t.Fatalf("inner side not flagged never executed: %+v", inner)
	}
	if inner.Cost != nil || inner.Actual != nil {
		t.Fatalf("never-executed node should carry no statistics: %+v", inner)
	}
	if inner.Index != "sessions_pkey" {
		t.Fatalf("index = %q", inner.Index)
	}
}

func TestParseTimingSummary(t *testing.T) {
	input := limitSortPlan + "\nPlanning Time: 0.412 ms\nExecution Time: 89.108 ms\n(7 rows)"

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if plan.PlanningTimeMs == nil || *plan.PlanningTimeMs != 0.412 {
		t.Fatalf("planning time = %v", plan.PlanningTimeMs)
	}
	if plan.ExecutionTimeMs == nil || *plan.ExecutionTimeMs != 89.108 {
		t.Fatalf("execution time = %v", plan.ExecutionTimeMs)
	}
}

func TestParseTotalRuntimeFallback(t *testing.T) {
	input := seqScanPlan + "\nTotal runtime: 12.500 ms"

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if plan.ExecutionTimeMs == nil || *plan.ExecutionTimeMs != 12.5 {
		t.Fatalf("execution time = %v", plan.ExecutionTimeMs)
	}
	if plan.PlanningTimeMs != nil {
		t.Fatalf("planning time = %v, want nil", plan.PlanningTimeMs)
	}
}

func TestParsePsqlChrome(t *testing.T) {
	input := `                 QUERY PLAN
---------------------------------------------
 Seq Scan on orders  (cost=0.00..100.00 rows=5000 width=40)
(1 row)`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if plan.Root.Kind != model.OpSeqScan {
		t.Fatalf("kind = %q", plan.Root.Kind)
	}
}

func TestParseIdempotent(t *testing.T) {
	first, err := Parse(limitSortPlan)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, err := Parse(limitSortPlan)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}

	var a, b []string
	first.Root.Walk(func(n *model.PlanNode) { a = append(a, string(n.Kind)) })
	second.Root.Walk(func(n *model.PlanNode) { b = append(b, string(n.Kind)) })
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Fatalf("parses differ: %v vs %v", a, b)
	}
}

func TestParsePropertyBeforeHeaderIgnored(t *testing.T) {
	input := "Filter: (id = 1)\nSeq Scan on orders  (cost=0.00..100.00 rows=5000 width=40)"

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if plan.Root.Filter != "" {
		t.Fatalf("filter = %q, want empty", plan.Root.Filter)
	}
}
