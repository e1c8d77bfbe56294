package parser

import "strings"

type lineClass int

const (
	classUnknown lineClass = iota
	classHeader
	classProperty
)

// propertyLabels are checked first: any of these prefixes short-circuits
// classification as PROPERTY regardless of other signals. Order matters only
// for extraction, not classification.
var propertyLabels = []string{
	"Sort Key:",
	"Presorted Key:",
	"Group Key:",
	"Sort Method:",
	"Index Cond:",
	"Recheck Cond:",
	"Hash Cond:",
	"Merge Cond:",
	"Join Filter:",
	"Filter:",
	"Rows Removed by",
	"Heap Fetches:",
	"Workers Planned:",
	"Workers Launched:",
	"Workers:",
	"Buffers:",
	"Output:",
	"Hash Buckets:",
	"Batches:",
	"Peak Memory Usage:",
	"Cache Key:",
	"Cache Mode:",
	"Hits:",
	"One-Time Filter:",
	"Order By:",
	"TID Cond:",
	"Cache Hits:",
	"I/O Timings:",
}

// classify decides whether a line opens a new plan node or annotates the
// node currently open. Lines matching neither are ignored: explainer output
// varies across server versions and a stray annotation must not abort the
// whole parse.
func classify(content string) lineClass {
	for _, label := range propertyLabels {
		if strings.HasPrefix(content, label) {
			return classProperty
		}
	}
	if strings.Contains(content, "(cost=") {
		return classHeader
	}
	if strings.Contains(content, "(never executed)") {
		return classHeader
	}
	if strings.HasPrefix(content, "->") {
		return classHeader
	}
	if knownOperationPrefix(stripArrow(content)) {
		return classHeader
	}
	return classUnknown
}

func stripArrow(content string) string {
	return strings.TrimLeft(content, "-> ")
}
