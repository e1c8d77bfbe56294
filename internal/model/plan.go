package model

// Plan represents one parsed EXPLAIN document.
type Plan struct {
	Root *PlanNode
	// PlanningTimeMs and ExecutionTimeMs come from the trailing summary lines
	// and are extracted independently of the tree; nil when the input lacks them.
	PlanningTimeMs  *float64
	ExecutionTimeMs *float64
}

// PlanNode captures one executable step of the query plan.
type PlanNode struct {
	Kind      OpKind
	RawHeader string

	Table string
	Index string
	Alias string

	// Parallel marks headers carrying the "Parallel" prefix; Kind keeps the
	// base operation so downstream dispatch stays closed.
	Parallel bool

	Cost      *CostRange
	PlanRows  *float64
	PlanWidth *int64

	Actual        *ActualStats
	NeverExecuted bool

	// Predicate text is opaque: whitespace-normalized, never interpreted.
	Filter      string
	IndexCond   string
	RecheckCond string
	JoinFilter  string
	HashCond    string
	MergeCond   string

	SortKeys  []string
	GroupKeys []string

	SortMethod string
	// SortSpaceKB and SortSpaceType record "Sort Method: ...  Disk: 2048kB".
	SortSpaceKB   *int64
	SortSpaceType string

	RowsRemovedByFilter  *int64
	RowsRemovedByRecheck *int64
	HeapFetches          *int64

	WorkersPlanned  *int64
	WorkersLaunched *int64

	Buffers *BufferStats

	Children []*PlanNode
}

// CostRange is the planner's (startup, total) cost estimate.
type CostRange struct {
	Startup float64
	Total   float64
}

// ActualStats holds runtime statistics from EXPLAIN ANALYZE.
type ActualStats struct {
	StartupMs float64
	TotalMs   float64
	Rows      float64
	Loops     int64
}

// BufferStats holds the counters from a "Buffers:" property line.
type BufferStats struct {
	SharedHit     int64
	SharedRead    int64
	SharedDirtied int64
	SharedWritten int64
	LocalHit      int64
	LocalRead     int64
	LocalDirtied  int64
	LocalWritten  int64
	TempRead      int64
	TempWritten   int64
}

// Total returns the sum of all buffer counters.
func (b *BufferStats) Total() int64 {
	if b == nil {
		return 0
	}
	return b.SharedHit + b.SharedRead + b.SharedDirtied + b.SharedWritten +
		b.LocalHit + b.LocalRead + b.LocalDirtied + b.LocalWritten +
		b.TempRead + b.TempWritten
}

// Walk visits the node and all descendants in post-order, children before the
// parent, matching bottom-up execution order.
func (n *PlanNode) Walk(fn func(*PlanNode)) {
	if n == nil {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
	fn(n)
}

// TranslationResult is the narrative rendering of a plan tree.
type TranslationResult struct {
	Summary         string
	Steps           []string
	Warnings        []string
	Recommendations []string
}
