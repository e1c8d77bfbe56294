package translate_test

import (
	"strings"
	"testing"

	"github.com/plantell/plantell/internal/translate"
	"github.com/plantell/plantell/test"
)

func TestTranslateSampleAnalyzePlan(t *testing.T) {
	plan := test.LoadSamplePlan(t, "analyze_orders.txt")
	result := translate.Translate(plan.Root)

	if len(result.Steps) != 6 {
		t.Fatalf("steps = %d, want 6:\n%s", len(result.Steps), strings.Join(result.Steps, "\n"))
	}
	if !strings.HasPrefix(result.Steps[0], "1. Read every row in table orders") {
		t.Fatalf("step 1 = %q", result.Steps[0])
	}
	if !strings.Contains(result.Steps[5], "first rows") {
		t.Fatalf("last step = %q", result.Steps[5])
	}

	diskWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "disk") {
			diskWarning = true
		}
	}
	if !diskWarning {
		t.Fatalf("warnings = %v, want disk spill", result.Warnings)
	}

	found := false
	for _, rec := range result.Recommendations {
		if strings.Contains(rec, "work_mem") {
			found = true
		}
	}
	if !found {
		t.Fatalf("recommendations = %v, want work_mem", result.Recommendations)
	}
}

func TestTranslateSampleEstimatePlan(t *testing.T) {
	plan := test.LoadSamplePlan(t, "estimate_users.txt")
	result := translate.Translate(plan.Root)

	if len(result.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(result.Steps))
	}
	if !strings.Contains(result.Summary, "users via index") {
		t.Fatalf("summary = %q", result.Summary)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", result.Warnings)
	}
}
