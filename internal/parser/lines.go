package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Line is one surviving input line with its indentation depth.
type Line struct {
	Indent  int
	Content string
	Raw     string
}

const tabWidth = 4

var (
	planningTimeRe  = regexp.MustCompile(`Planning Time:\s*([0-9.]+)\s*ms`)
	executionTimeRe = regexp.MustCompile(`Execution Time:\s*([0-9.]+)\s*ms`)
	totalRuntimeRe  = regexp.MustCompile(`Total runtime:\s*([0-9.]+)\s*ms`)
	rowCountFooter  = regexp.MustCompile(`^\(\d+ rows?\)$`)
)

// summaryMarkers start the trailing sections emitted after the plan tree.
// They are consumed by the timing extractor, not by the tree builder.
var summaryMarkers = []string{
	"Planning Time:",
	"Execution Time:",
	"Total runtime:",
	"Planning:",
	"JIT:",
	"Trigger ",
	"Settings:",
	"Query Identifier:",
}

// splitLines breaks raw text into indentation-tagged lines, dropping blanks,
// psql chrome, and trailing summary lines. Empty input yields an empty slice.
func splitLines(text string) []Line {
	var out []Line
	for _, raw := range strings.Split(text, "\n") {
		content := strings.TrimSpace(raw)
		if content == "" {
			continue
		}
		if isChrome(content) || isSummary(content) {
			continue
		}
		out = append(out, Line{
			Indent:  indentDepth(raw),
			Content: content,
			Raw:     raw,
		})
	}
	return out
}

func indentDepth(raw string) int {
	depth := 0
	for _, r := range raw {
		switch r {
		case ' ':
			depth++
		case '\t':
			depth += tabWidth
		default:
			return depth
		}
	}
	return depth
}

// isChrome matches the decoration psql wraps around EXPLAIN output.
func isChrome(content string) bool {
	if content == "QUERY PLAN" {
		return true
	}
	if strings.Trim(content, "-") == "" {
		return true
	}
	return rowCountFooter.MatchString(content)
}

func isSummary(content string) bool {
	for _, marker := range summaryMarkers {
		if strings.HasPrefix(content, marker) {
			return true
		}
	}
	return false
}

// planningTime pulls "Planning Time: N ms" out of the raw text, independent
// of tree structure.
func planningTime(text string) *float64 {
	return firstMillis(planningTimeRe, text)
}

// executionTime pulls "Execution Time: N ms", falling back to the
// "Total runtime" banner older server versions print.
func executionTime(text string) *float64 {
	if ms := firstMillis(executionTimeRe, text); ms != nil {
		return ms
	}
	return firstMillis(totalRuntimeRe, text)
}

func firstMillis(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}
