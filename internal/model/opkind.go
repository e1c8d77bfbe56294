package model

// OpKind is the canonical tag for what a plan node does, independent of its
// raw header text. Headers that match no known operation keep their raw text
// as the kind, so the type stays open for engine versions we have not seen.
type OpKind string

const (
	OpSeqScan         OpKind = "Seq Scan"
	OpIndexScan       OpKind = "Index Scan"
	OpIndexOnlyScan   OpKind = "Index Only Scan"
	OpBitmapHeapScan  OpKind = "Bitmap Heap Scan"
	OpBitmapIndexScan OpKind = "Bitmap Index Scan"
	OpBitmapAnd       OpKind = "BitmapAnd"
	OpBitmapOr        OpKind = "BitmapOr"
	OpTidScan         OpKind = "Tid Scan"
	OpSubqueryScan    OpKind = "Subquery Scan"
	OpFunctionScan    OpKind = "Function Scan"
	OpCTEScan         OpKind = "CTE Scan"
	OpForeignScan     OpKind = "Foreign Scan"
	OpCustomScan      OpKind = "Custom Scan"
	OpValuesScan      OpKind = "Values Scan"

	OpNestedLoop OpKind = "Nested Loop"
	OpMergeJoin  OpKind = "Merge Join"
	OpHashJoin   OpKind = "Hash Join"
	OpHash       OpKind = "Hash"

	OpAggregate       OpKind = "Aggregate"
	OpHashAggregate   OpKind = "HashAggregate"
	OpGroupAggregate  OpKind = "GroupAggregate"
	OpMixedAggregate  OpKind = "MixedAggregate"
	OpWindowAgg       OpKind = "WindowAgg"
	OpGroup           OpKind = "Group"
	OpUnique          OpKind = "Unique"
	OpSort            OpKind = "Sort"
	OpIncrementalSort OpKind = "Incremental Sort"
	OpLimit           OpKind = "Limit"
	OpMaterialize     OpKind = "Materialize"
	OpMemoize         OpKind = "Memoize"
	OpAppend          OpKind = "Append"
	OpMergeAppend     OpKind = "Merge Append"
	OpResult          OpKind = "Result"
	OpSetOp           OpKind = "SetOp"

	OpGather      OpKind = "Gather"
	OpGatherMerge OpKind = "Gather Merge"
)

// IsScan reports whether the kind reads base data rather than combining or
// reshaping the output of other nodes.
func (k OpKind) IsScan() bool {
	switch k {
	case OpSeqScan, OpIndexScan, OpIndexOnlyScan, OpBitmapHeapScan,
		OpBitmapIndexScan, OpTidScan, OpSubqueryScan, OpFunctionScan,
		OpCTEScan, OpForeignScan, OpCustomScan, OpValuesScan:
		return true
	default:
		return false
	}
}

// IsJoin reports whether the kind combines two child streams.
func (k OpKind) IsJoin() bool {
	switch k {
	case OpNestedLoop, OpMergeJoin, OpHashJoin:
		return true
	default:
		return false
	}
}

// IsAggregate reports whether the kind groups or aggregates rows.
func (k OpKind) IsAggregate() bool {
	switch k {
	case OpAggregate, OpHashAggregate, OpGroupAggregate, OpMixedAggregate,
		OpWindowAgg, OpGroup:
		return true
	default:
		return false
	}
}
