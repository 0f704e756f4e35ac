package stats

import (
	"reflect"
	"testing"

	"tabguard/domain/core"
	"tabguard/domain/table"
	"tabguard/internal/testkit"
)

// TestMissingPattern_CountsSumToRowCount verifies the core pattern invariant
func TestMissingPattern_CountsSumToRowCount(t *testing.T) {
	gen := testkit.NewGenerator(7)
	tbl := gen.ClinicalTable(200, 30, testkit.MCAR)

	inspector := NewInspector()
	patterns, err := inspector.MissingPattern(tbl, "sbp", []string{"age", "sex", "smoking"})
	if err != nil {
		t.Fatalf("MissingPattern failed: %v", err)
	}

	sum := 0
	for _, pattern := range patterns.Patterns {
		sum += pattern.RowCount
	}
	if sum != 200 {
		t.Errorf("Pattern counts sum to %d, want 200", sum)
	}
	if patterns.RowCount != 200 {
		t.Errorf("RowCount = %d, want 200", patterns.RowCount)
	}
}

// TestMissingPattern_CanonicalOrdering verifies fewer-missing-first, then
// frequency, then bit-pattern ordering.
func TestMissingPattern_CanonicalOrdering(t *testing.T) {
	tbl := patternFixture(t)

	inspector := NewInspector()
	patterns, err := inspector.MissingPattern(tbl, "a", []string{"b"})
	if err != nil {
		t.Fatalf("MissingPattern failed: %v", err)
	}

	for i := 1; i < len(patterns.Patterns); i++ {
		prev, cur := patterns.Patterns[i-1], patterns.Patterns[i]
		if prev.MissingTotal > cur.MissingTotal {
			t.Errorf("Pattern %d has fewer missing columns than pattern %d", i, i-1)
		}
		if prev.MissingTotal == cur.MissingTotal && prev.RowCount < cur.RowCount {
			t.Errorf("Equal-missing patterns not sorted by descending frequency at %d", i)
		}
	}
}

// TestMissingPattern_Deterministic verifies repeated calls are identical
func TestMissingPattern_Deterministic(t *testing.T) {
	gen := testkit.NewGenerator(11)
	tbl := gen.ClinicalTable(150, 40, testkit.MCAR)

	inspector := NewInspector()
	first, err := inspector.MissingPattern(tbl, "sbp", []string{"age", "sex", "smoking"})
	if err != nil {
		t.Fatalf("MissingPattern failed: %v", err)
	}
	second, err := inspector.MissingPattern(tbl, "sbp", []string{"age", "sex", "smoking"})
	if err != nil {
		t.Fatalf("MissingPattern failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated MissingPattern calls produced different output")
	}
}

// TestMissingPattern_UnknownColumnFailsFast verifies validation precedes work
func TestMissingPattern_UnknownColumnFailsFast(t *testing.T) {
	gen := testkit.NewGenerator(3)
	tbl := gen.ClinicalTable(10, 0, testkit.MCAR)

	inspector := NewInspector()
	_, err := inspector.MissingPattern(tbl, "sbp", []string{"age", "no_such_column"})
	if !core.IsColumnNotFound(err) {
		t.Errorf("Expected ColumnNotFound, got %v", err)
	}
}

// patternFixture builds a small table with three distinct patterns
func patternFixture(t *testing.T) *table.Table {
	t.Helper()
	a := []table.Cell{
		table.Numeric(1), table.Numeric(2), table.Missing(),
		table.Numeric(4), table.Missing(), table.Numeric(6),
	}
	b := []table.Cell{
		table.Categorical("x"), table.Missing(), table.Missing(),
		table.Categorical("y"), table.Missing(), table.Categorical("x"),
	}
	tbl, err := table.New(
		&table.Column{Name: "a", Cells: a},
		&table.Column{Name: "b", Cells: b},
	)
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	return tbl
}
