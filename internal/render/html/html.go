package html

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/plantell/plantell/internal/model"
)

// Options configures the HTML renderer.
type Options struct {
	Title         string
	IncludeStyles bool
}

// Render writes an HTML report containing the narrative summary, the
// ordered steps, and the annotated plan tree. All plan-derived text passes
// through html/template and is escaped on output.
func Render(w io.Writer, plan *model.Plan, result model.TranslationResult, opts Options) error {
	if plan == nil || plan.Root == nil {
		return fmt.Errorf("html render: empty plan")
	}
	if opts.Title == "" {
		opts.Title = "plan report"
	}
	data := buildTemplateData(plan, result, opts)
	tpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("html render: compile template: %w", err)
	}
	if err := tpl.Execute(w, data); err != nil {
		return fmt.Errorf("html render: execute template: %w", err)
	}
	return nil
}

type templateData struct {
	Title           string
	IncludeStyles   bool
	Summary         string
	PlanningTime    string
	ExecutionTime   string
	StepCount       int
	Steps           []string
	Warnings        []string
	Recommendations []string
	Root            *nodeView
}

type nodeView struct {
	Label    string
	Cost     string
	Rows     string
	Actual   string
	Details  []string
	Children []*nodeView
}

func buildTemplateData(plan *model.Plan, result model.TranslationResult, opts Options) templateData {
	return templateData{
		Title:           opts.Title,
		IncludeStyles:   opts.IncludeStyles,
		Summary:         result.Summary,
		PlanningTime:    formatMs(plan.PlanningTimeMs),
		ExecutionTime:   formatMs(plan.ExecutionTimeMs),
		StepCount:       len(result.Steps),
		Steps:           result.Steps,
		Warnings:        result.Warnings,
		Recommendations: result.Recommendations,
		Root:            buildNodeView(plan.Root),
	}
}

func buildNodeView(node *model.PlanNode) *nodeView {
	view := &nodeView{Label: label(node)}
	if node.Cost != nil {
		view.Cost = fmt.Sprintf("cost %.2f..%.2f", node.Cost.Startup, node.Cost.Total)
	}
	if node.PlanRows != nil {
		view.Rows = fmt.Sprintf("~%.0f rows", *node.PlanRows)
	}
	if node.Actual != nil {
		view.Actual = fmt.Sprintf("actual %.3f ms, %.0f rows", node.Actual.TotalMs, node.Actual.Rows)
	}
	for _, detail := range []struct{ name, value string }{
		{"Filter", node.Filter},
		{"Index Cond", node.IndexCond},
		{"Hash Cond", node.HashCond},
		{"Merge Cond", node.MergeCond},
		{"Join Filter", node.JoinFilter},
	} {
		if detail.value != "" {
			view.Details = append(view.Details, fmt.Sprintf("%s: %s", detail.name, detail.value))
		}
	}
	if len(node.SortKeys) > 0 {
		view.Details = append(view.Details, "Sort Key: "+strings.Join(node.SortKeys, ", "))
	}
	for _, child := range node.Children {
		view.Children = append(view.Children, buildNodeView(child))
	}
	return view
}

func label(node *model.PlanNode) string {
	l := string(node.Kind)
	if node.Parallel {
		l = "Parallel " + l
	}
	if node.Table != "" {
		l += " on " + node.Table
		if node.Alias != "" && node.Alias != node.Table {
			l += fmt.Sprintf(" (%s)", node.Alias)
		}
	}
	if node.Index != "" {
		l += " using " + node.Index
	}
	return l
}

func formatMs(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.3f ms", *v)
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>{{.Title}}</title>
	{{- if .IncludeStyles }}
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; margin: 0; padding: 0; background: #f7f7f8; color: #202124; }
		main { max-width: 880px; margin: 0 auto; padding: 32px 24px 48px; }
		header { background: #212a3b; color: #f7f7f8; padding: 32px 24px; }
		header h1 { margin: 0 0 8px; font-size: 28px; }
		header p { margin: 4px 0; opacity: 0.85; }
		section { margin-top: 32px; }
		section h2 { margin-bottom: 12px; font-size: 20px; }
		.summary { background: #fff; border-radius: 10px; padding: 18px; box-shadow: 0 6px 18px rgba(13,28,39,0.12); font-size: 15px; }
		.steps { list-style: none; margin: 0; padding: 0; counter-reset: step; }
		.steps li { background: #fff; border-radius: 10px; padding: 12px 16px; margin-bottom: 8px; box-shadow: 0 4px 12px rgba(13,28,39,0.10); font-size: 14px; }
		.callouts { list-style: none; margin: 0; padding: 0; }
		.callouts li { background: #fff; border-radius: 10px; padding: 12px 16px; margin-bottom: 8px; font-size: 14px; }
		.callouts.warnings li { border-left: 4px solid #faae32; }
		.callouts.recommendations li { border-left: 4px solid #3178c6; }
		.plan-tree { list-style: none; margin: 0; padding: 0; }
		.node-card { background: #fff; border-radius: 10px; margin-bottom: 10px; padding: 12px 16px; box-shadow: 0 4px 12px rgba(16,37,58,0.10); }
		.node-label { font-weight: 600; font-size: 15px; }
		.node-metrics { font-size: 13px; color: #5b7083; margin-left: 8px; }
		.node-details { margin-top: 6px; font-size: 13px; color: #364a63; }
		.node-children { margin-left: 22px; border-left: 1px dashed rgba(33,42,59,0.2); padding-left: 18px; list-style: none; }
	</style>
	{{- end }}
</head>
<body>
	<header>
		<h1>{{.Title}}</h1>
		<p>{{if .ExecutionTime}}Execution {{.ExecutionTime}}{{end}}{{if .PlanningTime}} · Planning {{.PlanningTime}}{{end}}</p>
		<p>{{.StepCount}} steps</p>
	</header>
	<main>
		<section>
			<h2>Summary</h2>
			<div class="summary">{{.Summary}}</div>
		</section>

		<section>
			<h2>Execution steps</h2>
			<ul class="steps">
				{{- range .Steps }}
				<li>{{.}}</li>
				{{- end }}
			</ul>
		</section>

		{{- if .Warnings }}
		<section>
			<h2>Warnings</h2>
			<ul class="callouts warnings">
				{{- range .Warnings }}
				<li>{{.}}</li>
				{{- end }}
			</ul>
		</section>
		{{- end }}

		{{- if .Recommendations }}
		<section>
			<h2>Recommendations</h2>
			<ul class="callouts recommendations">
				{{- range .Recommendations }}
				<li>{{.}}</li>
				{{- end }}
			</ul>
		</section>
		{{- end }}

		<section>
			<h2>Plan tree</h2>
			<ul class="plan-tree">
				{{ template "node" .Root }}
			</ul>
		</section>
	</main>

	{{ define "node" }}
	<li>
		<div class="node-card">
			<span class="node-label">{{.Label}}</span>
			<span class="node-metrics">{{.Cost}}{{if .Rows}} · {{.Rows}}{{end}}{{if .Actual}} · {{.Actual}}{{end}}</span>
			{{- if .Details }}
			<div class="node-details">
				{{- range .Details }}
				<div>{{.}}</div>
				{{- end }}
			</div>
			{{- end }}
		</div>
		{{- if .Children }}
		<ul class="node-children">
			{{- range .Children }}
				{{ template "node" . }}
			{{- end }}
		</ul>
		{{- end }}
	</li>
	{{ end }}
</body>
</html>
`
