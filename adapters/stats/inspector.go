// Package stats implements the missingness inspector: per-column profiling,
// canonical missingness pattern tables, and association tests between a
// column's missingness and the observed values of other columns.
package stats

import (
	mstats "github.com/montanaflynn/stats"

	"tabguard/domain/missing"
	"tabguard/domain/table"
)

// Inspector quantifies and characterizes missing values across a table.
// All operations are side-effect free: indicators and summaries are
// computed fresh from the table on every call.
type Inspector struct {
	dist *Distributions
}

// NewInspector creates a new missingness inspector
func NewInspector() *Inspector {
	return &Inspector{dist: NewDistributions()}
}

// Glimpse reports, for each named column, the inferred value kind, missing
// count and percentage, distinct levels for categorical columns, and summary
// statistics for numeric columns. Unknown columns fail before any work.
func (in *Inspector) Glimpse(t *table.Table, columns []string) ([]missing.ColumnProfile, error) {
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}

	profiles := make([]missing.ColumnProfile, 0, len(columns))
	for _, name := range columns {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, in.profileColumn(col, t.RowCount()))
	}
	return profiles, nil
}

func (in *Inspector) profileColumn(col *table.Column, rowCount int) missing.ColumnProfile {
	profile := missing.ColumnProfile{
		Name:         col.Name,
		Label:        col.DisplayLabel(),
		Kind:         col.DominantKind(),
		RowCount:     rowCount,
		MissingCount: col.MissingCount(),
	}
	if rowCount > 0 {
		profile.MissingPercent = 100 * float64(profile.MissingCount) / float64(rowCount)
	}

	switch profile.Kind {
	case table.KindCategorical:
		profile.Levels = col.Levels()
	case table.KindNumeric:
		values := observedNumeric(col)
		if len(values) > 0 {
			profile.Mean, _ = mstats.Mean(values)
			profile.Median, _ = mstats.Median(values)
			profile.StdDev, _ = mstats.StandardDeviation(values)
			profile.Min, _ = mstats.Min(values)
			profile.Max, _ = mstats.Max(values)
		}
	}
	return profile
}

// observedNumeric extracts the non-missing numeric payloads of a column
func observedNumeric(col *table.Column) []float64 {
	values := make([]float64, 0, len(col.Cells))
	for _, cell := range col.Cells {
		if cell.Kind == table.KindNumeric {
			values = append(values, cell.Num)
		}
	}
	return values
}

// analysisColumns builds the {dependent} ∪ explanatory column set in a
// stable order, validating existence up front.
func analysisColumns(t *table.Table, dependent string, explanatory []string) ([]string, error) {
	columns := make([]string, 0, len(explanatory)+1)
	seen := make(map[string]struct{}, len(explanatory)+1)
	for _, name := range append([]string{dependent}, explanatory...) {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
	}
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}
	return columns, nil
}
