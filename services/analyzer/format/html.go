// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package format

import (
	"html/template"
	"io"
	"strings"

	"github.com/AleutianAI/ppscope/services/analyzer"
)

// HTMLFormatter formats results as a standalone HTML page.
type HTMLFormatter struct {
	tmpl *template.Template
}

// NewHTMLFormatter creates a new HTML formatter.
func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{
		tmpl: template.Must(template.New("report").Parse(htmlReport)),
	}
}

// Format converts the result to an HTML string.
func (f *HTMLFormatter) Format(result *analyzer.Result) (string, error) {
	var sb strings.Builder
	if err := f.FormatStreaming(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Name returns the format name.
func (f *HTMLFormatter) Name() FormatType {
	return FormatHTML
}

// htmlReportData is the template payload. The template works on
// pre-sorted slices so the page is deterministic.
type htmlReportData struct {
	TotalFiles      int
	TotalDirectives int
	TotalDefines    int
	Critical        int
	Errors          int
	Warnings        int
	Files           []htmlFileRow
	Contexts        []htmlContextGroup
	Conditions      []conditionCount
	Cycles          []string
	Findings        []analyzer.ValidationError
}

type htmlFileRow struct {
	Path       string
	Directives int
	Defines    int
	MaxDepth   int
	Findings   int
}

type htmlContextGroup struct {
	Context string
	Defines []analyzer.DefineRecord
}

// FormatStreaming writes the HTML report to a writer.
func (f *HTMLFormatter) FormatStreaming(result *analyzer.Result, w io.Writer) error {
	critical, errs, warnings := severityCounts(result.Errors)

	data := htmlReportData{
		TotalFiles:      result.TotalFiles,
		TotalDirectives: result.TotalDirectives,
		TotalDefines:    result.TotalDefines,
		Critical:        critical,
		Errors:          errs,
		Warnings:        warnings,
		Conditions:      sortedConditions(result.ConditionUsage),
		Findings:        result.Errors,
	}

	for _, p := range result.Paths() {
		fr := result.Files[p]
		data.Files = append(data.Files, htmlFileRow{
			Path:       p,
			Directives: fr.DirectiveCount,
			Defines:    len(fr.Defines),
			MaxDepth:   fr.MaxDepth,
			Findings:   len(fr.Errors),
		})
	}

	grouped := result.DefinesByContext()
	for _, ctx := range sortedContexts(grouped) {
		data.Contexts = append(data.Contexts, htmlContextGroup{
			Context: ctx,
			Defines: grouped[ctx],
		})
	}

	for _, cycle := range result.Cycles {
		data.Cycles = append(data.Cycles, strings.Join(cycle, " -> ")+" -> "+cycle[0])
	}

	return f.tmpl.Execute(w, data)
}

const htmlReport = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Preprocessor Conditional Analysis</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
code { background: #f6f6f6; padding: 1px 4px; }
.sev-critical { color: #a00; font-weight: bold; }
.sev-error { color: #c60; }
.sev-warning { color: #777; }
</style>
</head>
<body>
<h1>Preprocessor Conditional Analysis</h1>
<p>
Files: {{.TotalFiles}} &middot;
Directives: {{.TotalDirectives}} &middot;
Defines: {{.TotalDefines}} &middot;
Findings: {{.Critical}} critical, {{.Errors}} error, {{.Warnings}} warning
</p>

{{if .Files}}
<h2>Files</h2>
<table>
<tr><th>File</th><th>Directives</th><th>Defines</th><th>Max Depth</th><th>Findings</th></tr>
{{range .Files}}
<tr><td><code>{{.Path}}</code></td><td>{{.Directives}}</td><td>{{.Defines}}</td><td>{{.MaxDepth}}</td><td>{{.Findings}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Contexts}}
<h2>Definitions by Context</h2>
{{range .Contexts}}
<h3><code>{{.Context}}</code></h3>
<ul>
{{range .Defines}}
<li><code>{{.Symbol}}</code>{{if .Body}} = <code>{{.Body}}</code>{{end}} ({{.FilePath}}:{{.Line}})</li>
{{end}}
</ul>
{{end}}
{{end}}

{{if .Conditions}}
<h2>Condition Usage</h2>
<table>
<tr><th>Condition</th><th>Count</th></tr>
{{range .Conditions}}
<tr><td><code>{{.Condition}}</code></td><td>{{.Count}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Cycles}}
<h2>Dependency Cycles</h2>
<ul>
{{range .Cycles}}
<li><code>{{.}}</code></li>
{{end}}
</ul>
{{end}}

{{if .Findings}}
<h2>Findings</h2>
<table>
<tr><th>Severity</th><th>Kind</th><th>Location</th><th>Message</th></tr>
{{range .Findings}}
<tr>
<td class="sev-{{.Severity}}">{{.Severity}}</td>
<td>{{.Kind}}</td>
<td><code>{{.FilePath}}:{{.Line}}</code></td>
<td>{{.Message}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No findings.</p>
{{end}}
</body>
</html>
`
