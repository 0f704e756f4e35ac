package table

import (
	"errors"
	"testing"
	"time"

	"tabguard/domain/core"
)

func twoColumnTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(
		&Column{Name: "age", Label: "Age (years)", Cells: []Cell{
			Numeric(42), Missing(), Numeric(57),
		}},
		&Column{Name: "sex", Cells: []Cell{
			Categorical("Female"), Categorical("Male"), Categorical("Female"),
		}},
	)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return tbl
}

func TestNew_RejectsRaggedColumns(t *testing.T) {
	_, err := New(
		&Column{Name: "a", Cells: []Cell{Numeric(1), Numeric(2)}},
		&Column{Name: "b", Cells: []Cell{Numeric(3)}},
	)
	if !errors.Is(err, core.ErrRaggedColumns) {
		t.Errorf("got %v, want RaggedColumns", err)
	}
}

func TestNew_RejectsDuplicateNames(t *testing.T) {
	_, err := New(
		&Column{Name: "a", Cells: []Cell{Numeric(1)}},
		&Column{Name: "a", Cells: []Cell{Numeric(2)}},
	)
	if err == nil {
		t.Fatal("expected duplicate-name rejection")
	}
}

func TestMissingIndicator_TracksTableContents(t *testing.T) {
	tbl := twoColumnTable(t)

	indicator, err := tbl.MissingIndicator("age")
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, true, false}
	for i := range want {
		if indicator[i] != want[i] {
			t.Errorf("indicator[%d] = %v, want %v", i, indicator[i], want[i])
		}
	}

	// The indicator is derived, not stored: replacing the column changes it.
	if err := tbl.ReplaceColumn("age", []Cell{Missing(), Missing(), Numeric(1)}); err != nil {
		t.Fatal(err)
	}
	indicator, err = tbl.MissingIndicator("age")
	if err != nil {
		t.Fatal(err)
	}
	if !indicator[0] || !indicator[1] || indicator[2] {
		t.Errorf("indicator did not follow replacement: %v", indicator)
	}
}

func TestDropColumns_PreservesOrder(t *testing.T) {
	tbl, err := New(
		&Column{Name: "a", Cells: []Cell{Numeric(1)}},
		&Column{Name: "b", Cells: []Cell{Numeric(2)}},
		&Column{Name: "c", Cells: []Cell{Numeric(3)}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.DropColumns("b"); err != nil {
		t.Fatal(err)
	}

	names := tbl.ColumnNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Errorf("column names after drop = %v, want [a c]", names)
	}
	if _, err := tbl.Column("b"); !core.IsColumnNotFound(err) {
		t.Errorf("dropped column lookup: got %v, want ColumnNotFound", err)
	}
	// Index map must be rebuilt, not just shifted.
	if col, err := tbl.Column("c"); err != nil || col.Cells[0].Num != 3 {
		t.Errorf("column c lookup broken after drop: %v", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	tbl := twoColumnTable(t)
	clone := tbl.Clone()

	if err := clone.ReplaceColumn("age", []Cell{Numeric(0), Numeric(0), Numeric(0)}); err != nil {
		t.Fatal(err)
	}
	original, _ := tbl.Column("age")
	if original.Cells[0].Num != 42 {
		t.Error("mutating the clone changed the original")
	}
}

func TestFingerprint_TracksContent(t *testing.T) {
	a := twoColumnTable(t)
	b := twoColumnTable(t)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical tables should share a fingerprint")
	}
	if err := b.ReplaceColumn("age", []Cell{Numeric(1), Numeric(2), Numeric(3)}); err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different contents should produce different fingerprints")
	}
}

func TestCell_StringAndEqual(t *testing.T) {
	date := Date(time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC))
	cases := []struct {
		cell Cell
		want string
	}{
		{Numeric(42), "42"},
		{Numeric(3.14), "3.14"},
		{Categorical("Smoker"), "Smoker"},
		{date, "2021-05-01"},
		{Text("free text"), "free text"},
		{Missing(), ""},
	}
	for _, tc := range cases {
		if got := tc.cell.String(); got != tc.want {
			t.Errorf("%s cell String() = %q, want %q", tc.cell.Kind, got, tc.want)
		}
	}

	if !Missing().Equal(Missing()) {
		t.Error("missing cells should compare equal")
	}
	if Numeric(1).Equal(Categorical("1")) {
		t.Error("cells of different kinds should not compare equal")
	}
}

func TestDominantKind_IgnoresMissing(t *testing.T) {
	col := &Column{Name: "x", Cells: []Cell{
		Missing(), Missing(), Missing(), Numeric(1),
	}}
	if kind := col.DominantKind(); kind != KindNumeric {
		t.Errorf("kind = %s, want numeric despite majority missing", kind)
	}

	empty := &Column{Name: "y", Cells: []Cell{Missing(), Missing()}}
	if kind := empty.DominantKind(); kind != KindMissing {
		t.Errorf("fully missing column kind = %s, want missing", kind)
	}
}
