// Package parser reconstructs a plan tree from the text format of
// PostgreSQL's EXPLAIN output. The format is whitespace-sensitive plain
// text: indentation depth is the only parent/child signal, and node headers
// are disambiguated from attribute lines by heuristic classification.
package parser

import (
	"errors"
	"strings"

	"github.com/plantell/plantell/internal/model"
)

// ErrNoPlan is returned when no node-header line is recognized. It is the
// only hard failure in parsing; everything else degrades to missing fields.
var ErrNoPlan = errors.New("no plan node recognized in input")

type stackFrame struct {
	node   *model.PlanNode
	indent int
}

// Parse converts raw EXPLAIN text into a plan tree. It is pure and
// stateless: each call builds its own tree from an immutable input string.
func Parse(text string) (*model.Plan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoPlan
	}

	var (
		root  *model.PlanNode
		stack []stackFrame
	)

	for _, line := range splitLines(text) {
		switch classify(line.Content) {
		case classHeader:
			node := newNodeFromHeader(line.Content)

			// Close every frame at or below this depth; those nodes can no
			// longer receive children.
			for len(stack) > 0 && stack[len(stack)-1].indent >= line.Indent {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, stackFrame{node: node, indent: line.Indent})

			if root == nil {
				root = node
			}
		case classProperty:
			// Property indentation is irrelevant to tree shape: the line
			// annotates whichever node is currently open.
			if len(stack) > 0 {
				applyProperty(stack[len(stack)-1].node, line.Content)
			}
		default:
			// Unrecognized lines are skipped and close no stack frames.
		}
	}

	if root == nil {
		return nil, ErrNoPlan
	}

	root.Walk(resolve)

	return &model.Plan{
		Root:            root,
		PlanningTimeMs:  planningTime(text),
		ExecutionTimeMs: executionTime(text),
	}, nil
}
