package table

import (
	"fmt"
	"sort"

	"tabguard/domain/core"
)

// Role tags a column's position in a missingness analysis
type Role string

const (
	RoleNone        Role = ""
	RoleDependent   Role = "dependent"
	RoleExplanatory Role = "explanatory"
)

// OnMissing is the explicit policy for rows with missing values in
// downstream consumers. Regression-style tooling silently drops incomplete
// rows; here the choice is always recorded on the call.
type OnMissing string

const (
	DropRows         OnMissing = "drop_rows"
	RequireComplete  OnMissing = "require_complete"
	ImputeExternally OnMissing = "impute_externally"
)

// Column is an ordered sequence of typed cells with a stable identifier
// and an optional human-readable label.
type Column struct {
	Name  string
	Label string
	Role  Role
	Cells []Cell
}

// DisplayLabel returns the label, falling back to the column name
func (c *Column) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// MissingCount returns the number of missing cells
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.IsMissing() {
			n++
		}
	}
	return n
}

// Levels returns the sorted distinct categorical levels among observed cells
func (c *Column) Levels() []string {
	seen := make(map[string]struct{})
	for _, cell := range c.Cells {
		if cell.Kind == KindCategorical {
			seen[cell.Level] = struct{}{}
		}
	}
	levels := make([]string, 0, len(seen))
	for level := range seen {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// DominantKind infers the column's value kind from its observed cells.
// Missing markers do not vote; a fully missing column reports KindMissing.
func (c *Column) DominantKind() CellKind {
	counts := make(map[CellKind]int)
	for _, cell := range c.Cells {
		if !cell.IsMissing() {
			counts[cell.Kind]++
		}
	}
	if len(counts) == 0 {
		return KindMissing
	}
	best, bestCount := KindText, -1
	for _, kind := range []CellKind{KindNumeric, KindCategorical, KindDate, KindText} {
		if counts[kind] > bestCount {
			best, bestCount = kind, counts[kind]
		}
	}
	return best
}

// Table is an ordered sequence of equal-length named columns
type Table struct {
	columns []*Column
	byName  map[string]int
}

// New creates a table from columns, validating equal lengths and unique names
func New(columns ...*Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(columns))}
	for _, col := range columns {
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column, enforcing the equal-length invariant
func (t *Table) AddColumn(col *Column) error {
	if _, exists := t.byName[col.Name]; exists {
		return fmt.Errorf("duplicate column name: %s", col.Name)
	}
	if len(t.columns) > 0 && len(col.Cells) != t.RowCount() {
		return fmt.Errorf("%w: %s has %d cells, table has %d rows",
			core.ErrRaggedColumns, col.Name, len(col.Cells), t.RowCount())
	}
	t.byName[col.Name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0].Cells)
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// ColumnNames returns the names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the named column or a ColumnNotFound error
func (t *Table) Column(name string) (*Column, error) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	return t.columns[idx], nil
}

// RequireColumns validates that every named column exists. It is called
// before any computation so failures never leave partial results.
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if _, ok := t.byName[name]; !ok {
			return core.NewColumnNotFoundError(name)
		}
	}
	return nil
}

// MissingIndicator derives the boolean missingness projection for a column.
// It is recomputed on every call and never cached, so it cannot diverge
// from the table contents.
func (t *Table) MissingIndicator(name string) ([]bool, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	indicator := make([]bool, len(col.Cells))
	for i, cell := range col.Cells {
		indicator[i] = cell.IsMissing()
	}
	return indicator, nil
}

// ReplaceColumn swaps the cells of an existing column in place
func (t *Table) ReplaceColumn(name string, cells []Cell) error {
	col, err := t.Column(name)
	if err != nil {
		return err
	}
	if len(cells) != t.RowCount() {
		return fmt.Errorf("%w: replacement for %s has %d cells, table has %d rows",
			core.ErrRaggedColumns, name, len(cells), t.RowCount())
	}
	col.Cells = cells
	return nil
}

// DropColumns removes the named columns, preserving the order of the rest
func (t *Table) DropColumns(names ...string) error {
	if err := t.RequireColumns(names...); err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
	}
	kept := make([]*Column, 0, len(t.columns))
	for _, col := range t.columns {
		if _, gone := drop[col.Name]; !gone {
			kept = append(kept, col)
		}
	}
	t.columns = kept
	t.byName = make(map[string]int, len(kept))
	for i, col := range kept {
		t.byName[col.Name] = i
	}
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	clone := &Table{byName: make(map[string]int, len(t.columns))}
	for _, col := range t.columns {
		cells := make([]Cell, len(col.Cells))
		copy(cells, col.Cells)
		clone.byName[col.Name] = len(clone.columns)
		clone.columns = append(clone.columns, &Column{
			Name:  col.Name,
			Label: col.Label,
			Role:  col.Role,
			Cells: cells,
		})
	}
	return clone
}

// Fingerprint hashes every cell in column-major order so identical contents
// always produce the same dataset hash.
func (t *Table) Fingerprint() core.DatasetHash {
	var buf []byte
	for _, col := range t.columns {
		buf = append(buf, col.Name...)
		buf = append(buf, 0)
		for _, cell := range col.Cells {
			buf = append(buf, string(cell.Kind)...)
			buf = append(buf, '=')
			buf = append(buf, cell.String()...)
			buf = append(buf, 0)
		}
	}
	return core.DatasetHash(core.NewHash(buf))
}
