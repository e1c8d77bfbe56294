package tui

import (
	"strings"
	"testing"

	"github.com/plantell/plantell/internal/model"
	"github.com/plantell/plantell/internal/translate"
	"github.com/plantell/plantell/test"
)

func TestRenderSamplePlan(t *testing.T) {
	plan := test.LoadSamplePlan(t, "analyze_orders.txt")
	result := translate.Translate(plan.Root)

	var b strings.Builder
	if err := Render(&b, plan, result, Options{ShowWarnings: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"Execution time 89.108 ms (planning 0.412 ms)",
		"Steps:",
		"Warnings:",
		"Recommendations:",
		"Limit",
		"`-- Sort",
		"Hash Join",
		"Seq Scan on orders (o)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderMaxDepth(t *testing.T) {
	plan := test.LoadSamplePlan(t, "analyze_orders.txt")
	result := translate.Translate(plan.Root)

	var b strings.Builder
	if err := Render(&b, plan, result, Options{MaxDepth: 1}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	if !strings.Contains(out, "more nodes)") {
		t.Fatalf("deep tree not elided:\n%s", out)
	}
	if strings.Contains(out, "Seq Scan on customers") {
		t.Fatalf("node below depth limit rendered:\n%s", out)
	}
}

func TestRenderWarningsHidden(t *testing.T) {
	plan := test.LoadSamplePlan(t, "analyze_orders.txt")
	result := translate.Translate(plan.Root)

	var b strings.Builder
	if err := Render(&b, plan, result, Options{ShowWarnings: false}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(b.String(), "Warnings:") {
		t.Fatalf("warnings shown despite being disabled")
	}
}

func TestRenderColor(t *testing.T) {
	plan := test.LoadSamplePlan(t, "analyze_orders.txt")
	result := translate.Translate(plan.Root)

	var plain, colored strings.Builder
	if err := Render(&plain, plan, result, Options{ShowWarnings: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := Render(&colored, plan, result, Options{ShowWarnings: true, EnableColor: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(plain.String(), "\033[") {
		t.Fatalf("escape codes without color enabled")
	}
	if !strings.Contains(colored.String(), "\033[33m") {
		t.Fatalf("no escape codes with color enabled")
	}
}

func TestRenderEmptyPlan(t *testing.T) {
	var b strings.Builder
	if err := Render(&b, nil, model.TranslationResult{}, Options{}); err == nil {
		t.Fatalf("expected error for nil plan")
	}
	if err := Render(&b, &model.Plan{}, model.TranslationResult{}, Options{}); err == nil {
		t.Fatalf("expected error for plan without root")
	}
}
