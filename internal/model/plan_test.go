package model

import (
	"reflect"
	"testing"
)

func TestWalkPostOrder(t *testing.T) {
	leafA := &PlanNode{Kind: OpSeqScan}
	leafB := &PlanNode{Kind: OpIndexScan}
	hash := &PlanNode{Kind: OpHash, Children: []*PlanNode{leafB}}
	root := &PlanNode{Kind: OpHashJoin, Children: []*PlanNode{leafA, hash}}

	var order []OpKind
	root.Walk(func(n *PlanNode) { order = append(order, n.Kind) })

	want := []OpKind{OpSeqScan, OpIndexScan, OpHash, OpHashJoin}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("walk order = %v, want %v", order, want)
	}
}

func TestWalkNilReceiver(t *testing.T) {
	var n *PlanNode
	n.Walk(func(*PlanNode) { t.Fatal("callback invoked on nil node") })
}

func TestBufferTotals(t *testing.T) {
	var none *BufferStats
	if none.Total() != 0 {
		t.Fatalf("nil total = %d, want 0", none.Total())
	}

	stats := &BufferStats{SharedHit: 96, SharedRead: 478, TempRead: 10, TempWritten: 12}
	if got := stats.Total(); got != 596 {
		t.Fatalf("total = %d, want 596", got)
	}
}

func TestOpKindClassification(t *testing.T) {
	if !OpSeqScan.IsScan() || OpHashJoin.IsScan() {
		t.Fatalf("scan classification wrong")
	}
	if !OpNestedLoop.IsJoin() || OpHash.IsJoin() {
		t.Fatalf("join classification wrong")
	}
	if !OpHashAggregate.IsAggregate() || OpSort.IsAggregate() {
		t.Fatalf("aggregate classification wrong")
	}
	if OpKind("Tuplestore Scan").IsScan() {
		t.Fatalf("unknown kind classified as scan")
	}
}
