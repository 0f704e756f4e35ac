// Package missing holds the result types produced by the missingness
// inspector. These are plain data tables: rendering and reporting are the
// responsibility of external collaborators.
package missing

import (
	"encoding/json"
	"math"

	"tabguard/domain/table"
)

// ColumnProfile summarizes one column for a glimpse-style overview
type ColumnProfile struct {
	Name           string         `json:"name"`
	Label          string         `json:"label"`
	Kind           table.CellKind `json:"kind"`
	RowCount       int            `json:"row_count"`
	MissingCount   int            `json:"missing_count"`
	MissingPercent float64        `json:"missing_percent"`
	Levels         []string       `json:"levels,omitempty"` // categorical only
	Mean           float64        `json:"mean,omitempty"`   // numeric only
	Median         float64        `json:"median,omitempty"` // numeric only
	StdDev         float64        `json:"std_dev,omitempty"`
	Min            float64        `json:"min,omitempty"`
	Max            float64        `json:"max,omitempty"`
}

// Pattern is one row of a missingness pattern table: a unique combination
// of per-column missing flags and the number of rows exhibiting it.
type Pattern struct {
	// MissingFlags is ordered to match PatternTable.Columns; true means
	// the column is missing in every row counted by this pattern.
	MissingFlags []bool `json:"missing_flags"`
	MissingTotal int    `json:"missing_total"`
	RowCount     int    `json:"row_count"`
}

// BitKey renders the flag combination as a stable string key ("0110...")
func (p Pattern) BitKey() string {
	key := make([]byte, len(p.MissingFlags))
	for i, flag := range p.MissingFlags {
		if flag {
			key[i] = '1'
		} else {
			key[i] = '0'
		}
	}
	return string(key)
}

// PatternTable maps flag combinations to row counts across a column set
type PatternTable struct {
	Columns  []string  `json:"columns"`
	Patterns []Pattern `json:"patterns"`
	RowCount int       `json:"row_count"`
}

// PatternCount returns the number of distinct patterns
func (pt *PatternTable) PatternCount() int {
	return len(pt.Patterns)
}

// GroupSummary describes an explanatory column within one comparison group
// (target observed vs target missing).
type GroupSummary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean,omitempty"`   // numeric columns
	Median float64 `json:"median,omitempty"` // numeric columns
	// Counts holds per-level frequencies for categorical columns.
	Counts map[string]int `json:"counts,omitempty"`
}

// ComparisonRow is one explanatory column's association with the target
// column's missingness.
type ComparisonRow struct {
	Column     string         `json:"column"`
	Kind       table.CellKind `json:"kind"`
	TestUsed   string         `json:"test_used"`
	Observed   GroupSummary   `json:"observed"`
	Missing    GroupSummary   `json:"missing"`
	Statistic  float64        `json:"statistic"` // NaN when degenerate
	PValue     float64        `json:"p_value"`   // NaN when degenerate
	Degenerate bool           `json:"degenerate"`
	// Excluded counts rows dropped because the explanatory column itself
	// was missing. Documented policy: those rows cannot inform the test.
	Excluded int    `json:"excluded"`
	Note     string `json:"note,omitempty"`
}

// MarshalJSON renders the NaN statistic and p-value of a degenerate row as
// null; encoding/json rejects NaN outright, and a flagged row must still
// serialize inside an otherwise-complete table.
func (r ComparisonRow) MarshalJSON() ([]byte, error) {
	type plain ComparisonRow
	out := struct {
		plain
		Statistic *float64 `json:"statistic"`
		PValue    *float64 `json:"p_value"`
	}{plain: plain(r)}
	if !math.IsNaN(r.Statistic) {
		out.Statistic = &r.Statistic
	}
	if !math.IsNaN(r.PValue) {
		out.PValue = &r.PValue
	}
	return json.Marshal(out)
}

// ComparisonTable is the full output of a missingness comparison
type ComparisonTable struct {
	Target string          `json:"target"`
	Rows   []ComparisonRow `json:"rows"`
}

// FillMode selects between raw counts and row proportions in cross-tabs
type FillMode string

const (
	FillCount      FillMode = "count"
	FillProportion FillMode = "proportion"
)

// FiveNumber is a box-plot-style summary of a numeric split
type FiveNumber struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// PairSummary describes one ordered column pair: how the first column's
// values distribute when split by the second column's missingness.
type PairSummary struct {
	ColumnX string         `json:"column_x"`
	ColumnY string         `json:"column_y"`
	KindX   table.CellKind `json:"kind_x"`
	KindY   table.CellKind `json:"kind_y"`

	// Numeric X: distribution of X split by Y's missingness.
	ObservedSummary *FiveNumber `json:"observed_summary,omitempty"`
	MissingSummary  *FiveNumber `json:"missing_summary,omitempty"`

	// Categorical X: cross-tabulation of X levels against Y missingness.
	// Values are counts or proportions depending on FillMode.
	CrossTab map[string]map[string]float64 `json:"cross_tab,omitempty"`
}

// PairGrid is the full pairwise output across a column set
type PairGrid struct {
	Columns  []string      `json:"columns"`
	FillMode FillMode      `json:"fill_mode"`
	Pairs    []PairSummary `json:"pairs"`
}
