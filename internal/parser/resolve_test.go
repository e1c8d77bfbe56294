package parser

import (
	"testing"

	"github.com/plantell/plantell/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		content string
		want    lineClass
	}{
		{"->  Seq Scan on orders  (cost=0.00..1.00 rows=1 width=4)", classHeader},
		{"Limit  (cost=0.00..1.00 rows=1 width=4)", classHeader},
		{"->  Materialize", classHeader},
		{"Hash Join  (never executed)", classHeader},
		{"Filter: (status = 'shipped')", classProperty},
		{"Join Filter: (o.id = c.id)", classProperty},
		{"Sort Method: quicksort  Memory: 25kB", classProperty},
		{"Rows Removed by Filter: 100", classProperty},
		{"Buffers: shared hit=10", classProperty},
		{"some stray annotation", classUnknown},
	}
	for _, tt := range tests {
		if got := classify(tt.content); got != tt.want {
			t.Errorf("classify(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestResolveOperations(t *testing.T) {
	tests := []struct {
		header   string
		kind     model.OpKind
		table    string
		index    string
		parallel bool
	}{
		{"Seq Scan on orders", model.OpSeqScan, "orders", "", false},
		{"Parallel Seq Scan on orders", model.OpSeqScan, "orders", "", true},
		{"Index Scan using orders_pkey on orders", model.OpIndexScan, "orders", "orders_pkey", false},
		{"Index Only Scan using orders_pkey on orders", model.OpIndexOnlyScan, "orders", "orders_pkey", false},
		{"Index Scan Backward using orders_pkey on orders", model.OpIndexScan, "orders", "orders_pkey", false},
		{"Bitmap Heap Scan on orders", model.OpBitmapHeapScan, "orders", "", false},
		{"Bitmap Index Scan on orders_status_idx", model.OpBitmapIndexScan, "", "orders_status_idx", false},
		{"Hash Join", model.OpHashJoin, "", "", false},
		{"Hash Left Join", model.OpHashJoin, "", "", false},
		{"Hash", model.OpHash, "", "", false},
		{"Merge Join", model.OpMergeJoin, "", "", false},
		{"Merge Append", model.OpMergeAppend, "", "", false},
		{"Nested Loop Left Join", model.OpNestedLoop, "", "", false},
		{"Finalize Aggregate", model.OpAggregate, "", "", false},
		{"Partial HashAggregate", model.OpHashAggregate, "", "", false},
		{"Incremental Sort", model.OpIncrementalSort, "", "", false},
		{"Sort", model.OpSort, "", "", false},
		{"Gather Merge", model.OpGatherMerge, "", "", false},
		{"Gather", model.OpGather, "", "", false},
		{"CTE Scan on recent_orders", model.OpCTEScan, "recent_orders", "", false},
		{"Custom Scan (Columnar)", model.OpCustomScan, "", "", false},
	}
	for _, tt := range tests {
		node := &model.PlanNode{RawHeader: "->  " + tt.header + "  (cost=0.00..1.00 rows=1 width=4)"}
		resolve(node)
		if node.Kind != tt.kind {
			t.Errorf("%q kind = %q, want %q", tt.header, node.Kind, tt.kind)
		}
		if node.Table != tt.table {
			t.Errorf("%q table = %q, want %q", tt.header, node.Table, tt.table)
		}
		if node.Index != tt.index {
			t.Errorf("%q index = %q, want %q", tt.header, node.Index, tt.index)
		}
		if node.Parallel != tt.parallel {
			t.Errorf("%q parallel = %v, want %v", tt.header, node.Parallel, tt.parallel)
		}
	}
}

func TestResolveUnknownOperationKeepsLabel(t *testing.T) {
	node := &model.PlanNode{RawHeader: "Tuplestore Scan  (cost=0.00..1.00 rows=1 width=4)"}
	resolve(node)
	if node.Kind != model.OpKind("Tuplestore Scan") {
		t.Fatalf("kind = %q, want raw label", node.Kind)
	}
}

func TestApplySortMethod(t *testing.T) {
	node := &model.PlanNode{}
	applyProperty(node, "Sort Method: external merge  Disk: 2048kB")
	if node.SortMethod != "external merge" {
		t.Fatalf("method = %q", node.SortMethod)
	}
	if node.SortSpaceType != "Disk" {
		t.Fatalf("space type = %q", node.SortSpaceType)
	}
	if node.SortSpaceKB == nil || *node.SortSpaceKB != 2048 {
		t.Fatalf("space = %v", node.SortSpaceKB)
	}

	node = &model.PlanNode{}
	applyProperty(node, "Sort Method: quicksort  Memory: 25kB")
	if node.SortMethod != "quicksort" || node.SortSpaceType != "Memory" {
		t.Fatalf("method = %q type = %q", node.SortMethod, node.SortSpaceType)
	}
}

func TestJoinFilterDoesNotClobberFilter(t *testing.T) {
	node := &model.PlanNode{}
	applyProperty(node, "Join Filter: (o.total > c.credit)")
	applyProperty(node, "Filter: (o.status = 'open')")
	if node.JoinFilter != "(o.total > c.credit)" {
		t.Fatalf("join filter = %q", node.JoinFilter)
	}
	if node.Filter != "(o.status = 'open')" {
		t.Fatalf("filter = %q", node.Filter)
	}
}

func TestIndentDepth(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"Limit", 0},
		{"  ->  Sort", 2},
		{"\t->  Sort", 4},
		{"\t  ->  Sort", 6},
	}
	for _, tt := range tests {
		if got := indentDepth(tt.raw); got != tt.want {
			t.Errorf("indentDepth(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
