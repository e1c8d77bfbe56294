package html

import (
	"strings"
	"testing"

	"github.com/plantell/plantell/internal/model"
	"github.com/plantell/plantell/internal/translate"
	"github.com/plantell/plantell/test"
)

func TestRenderSampleReport(t *testing.T) {
	plan := test.LoadSamplePlan(t, "analyze_orders.txt")
	result := translate.Translate(plan.Root)

	var b strings.Builder
	if err := Render(&b, plan, result, Options{Title: "orders report", IncludeStyles: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"<title>orders report</title>",
		"<style>",
		"Seq Scan on orders (o)",
		"89.108 ms",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q", want)
		}
	}
}

func TestRenderWithoutStyles(t *testing.T) {
	plan := test.LoadSamplePlan(t, "estimate_users.txt")
	result := translate.Translate(plan.Root)

	var b strings.Builder
	if err := Render(&b, plan, result, Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if strings.Contains(out, "<style>") {
		t.Fatalf("styles included without opting in")
	}
	if !strings.Contains(out, "<title>plan report</title>") {
		t.Fatalf("default title missing:\n%s", out)
	}
}

func TestRenderEscapesPlanText(t *testing.T) {
	root := &model.PlanNode{
		Kind:   model.OpSeqScan,
		Table:  "orders",
		Filter: `(note < '<script>alert(1)</script>')`,
	}
	plan := &model.Plan{Root: root}

	var b strings.Builder
	if err := Render(&b, plan, translate.Translate(root), Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Fatalf("plan text not escaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("escaped filter missing:\n%s", out)
	}
}

func TestRenderEmptyPlan(t *testing.T) {
	var b strings.Builder
	if err := Render(&b, &model.Plan{}, model.TranslationResult{}, Options{}); err == nil {
		t.Fatalf("expected error for plan without root")
	}
}
