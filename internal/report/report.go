// Package report renders missingness inspection results as markdown and
// HTML documents. It consumes only the inspector's data tables.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"tabguard/domain/core"
	"tabguard/domain/missing"
)

// Report is a rendered inspection document
type Report struct {
	ID        core.ReportID
	Dataset   core.DatasetHash
	Markdown  string
	CreatedAt core.Timestamp
}

// Builder assembles a markdown report section by section
type Builder struct {
	dataset  core.DatasetHash
	sections []string
}

// NewBuilder creates a report builder for a dataset fingerprint
func NewBuilder(dataset core.DatasetHash) *Builder {
	return &Builder{dataset: dataset}
}

// AddGlimpse appends a column overview section
func (b *Builder) AddGlimpse(profiles []missing.ColumnProfile) *Builder {
	var sb strings.Builder
	sb.WriteString("## Column overview\n\n")
	sb.WriteString("| Column | Kind | Missing | Missing % | Detail |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, p := range profiles {
		detail := ""
		switch {
		case len(p.Levels) > 0:
			detail = strings.Join(p.Levels, ", ")
		case p.RowCount > p.MissingCount:
			detail = fmt.Sprintf("mean %.3g, median %.3g", p.Mean, p.Median)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.1f%% | %s |\n",
			p.Label, p.Kind, p.MissingCount, p.MissingPercent, detail))
	}
	b.sections = append(b.sections, sb.String())
	return b
}

// AddPattern appends a missingness pattern section
func (b *Builder) AddPattern(pt *missing.PatternTable) *Builder {
	var sb strings.Builder
	sb.WriteString("## Missingness patterns\n\n")
	sb.WriteString(fmt.Sprintf("%d distinct patterns across %d rows.\n\n",
		pt.PatternCount(), pt.RowCount))
	sb.WriteString("| Pattern | Missing columns | Rows |\n")
	sb.WriteString("|---|---|---|\n")
	for _, pattern := range pt.Patterns {
		var missingCols []string
		for i, flag := range pattern.MissingFlags {
			if flag {
				missingCols = append(missingCols, pt.Columns[i])
			}
		}
		names := strings.Join(missingCols, ", ")
		if names == "" {
			names = "(complete)"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n",
			pattern.BitKey(), names, pattern.RowCount))
	}
	b.sections = append(b.sections, sb.String())
	return b
}

// AddComparison appends a missingness association section
func (b *Builder) AddComparison(ct *missing.ComparisonTable) *Builder {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Associations with missingness of `%s`\n\n", ct.Target))
	sb.WriteString("| Column | Test | Statistic | p-value | Excluded | Note |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, row := range ct.Rows {
		stat, p := "-", "-"
		if !math.IsNaN(row.Statistic) {
			stat = fmt.Sprintf("%.3f", row.Statistic)
		}
		if !math.IsNaN(row.PValue) {
			p = fmt.Sprintf("%.4f", row.PValue)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
			row.Column, row.TestUsed, stat, p, row.Excluded, row.Note))
	}
	b.sections = append(b.sections, sb.String())
	return b
}

// Build finalizes the report
func (b *Builder) Build() *Report {
	doc := fmt.Sprintf("# Missingness report\n\nDataset fingerprint: `%s`\n\n%s",
		b.dataset, strings.Join(b.sections, "\n"))
	return &Report{
		ID:        core.ReportID(core.NewID()),
		Dataset:   b.dataset,
		Markdown:  doc,
		CreatedAt: core.Now(),
	}
}

// RenderHTML converts the report's markdown to HTML
func (r *Report) RenderHTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(r.Markdown), p, renderer)
}
