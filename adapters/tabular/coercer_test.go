package tabular

import (
	"testing"
	"time"

	"tabguard/domain/table"
)

func TestCoerceColumn_Numeric(t *testing.T) {
	coercer := NewCellCoercer(DefaultCoercionConfig())
	cells := coercer.CoerceColumn([]string{"42", "3.14", "1,200", "NA", "oops", "-7"})

	wantKinds := []table.CellKind{
		table.KindNumeric, table.KindNumeric, table.KindNumeric,
		table.KindMissing, table.KindMissing, table.KindNumeric,
	}
	for i, want := range wantKinds {
		if cells[i].Kind != want {
			t.Errorf("cell %d kind = %s, want %s", i, cells[i].Kind, want)
		}
	}
	if cells[2].Num != 1200 {
		t.Errorf("thousands separator: got %f, want 1200", cells[2].Num)
	}
}

func TestCoerceColumn_MissingTokens(t *testing.T) {
	coercer := NewCellCoercer(DefaultCoercionConfig())
	cells := coercer.CoerceColumn([]string{"", "NA", "n/a", "NULL", ".", "NaN", " na "})

	for i, cell := range cells {
		if !cell.IsMissing() {
			t.Errorf("cell %d should be missing, got kind %s", i, cell.Kind)
		}
	}
}

func TestCoerceColumn_Dates(t *testing.T) {
	coercer := NewCellCoercer(DefaultCoercionConfig())
	cells := coercer.CoerceColumn([]string{"2021-05-01", "2021/06/15", "NA", "1999-12-31"})

	if cells[0].Kind != table.KindDate {
		t.Fatalf("kind = %s, want date", cells[0].Kind)
	}
	want := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	if !cells[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v", cells[0].Date, want)
	}
	if !cells[2].IsMissing() {
		t.Error("NA in date column should be missing")
	}
}

func TestCoerceColumn_TimestampsTruncateToCalendarDates(t *testing.T) {
	coercer := NewCellCoercer(DefaultCoercionConfig())
	cells := coercer.CoerceColumn([]string{
		"2021-05-01T14:30:59Z",
		"2021-06-15T23:59:59+02:00",
		"2021-07-01T00:00:00Z",
	})

	if cells[0].Kind != table.KindDate {
		t.Fatalf("kind = %s, want date", cells[0].Kind)
	}
	wants := []time.Time{
		time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range wants {
		if !cells[i].Date.Equal(want) {
			t.Errorf("cell %d date = %v, want %v", i, cells[i].Date, want)
		}
		// A coerced date must survive its own serialized form.
		reparsed, err := time.Parse("2006-01-02", cells[i].String())
		if err != nil {
			t.Fatalf("cell %d string %q does not reparse: %v", i, cells[i].String(), err)
		}
		if !reparsed.Equal(cells[i].Date) {
			t.Errorf("cell %d loses information across serialization: %v vs %v",
				i, cells[i].Date, reparsed)
		}
	}
}

func TestCoerceColumn_CategoricalVsText(t *testing.T) {
	coercer := NewCellCoercer(DefaultCoercionConfig())

	// Few distinct values stay categorical.
	repeated := make([]string, 100)
	for i := range repeated {
		repeated[i] = []string{"Smoker", "Non-smoker"}[i%2]
	}
	cells := coercer.CoerceColumn(repeated)
	if cells[0].Kind != table.KindCategorical {
		t.Errorf("low-cardinality column kind = %s, want categorical", cells[0].Kind)
	}

	// One distinct value per row blows past the level cap and becomes text.
	unique := make([]string, 100)
	for i := range unique {
		unique[i] = "note " + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	cells = coercer.CoerceColumn(unique)
	if cells[0].Kind != table.KindText {
		t.Errorf("high-cardinality column kind = %s, want text", cells[0].Kind)
	}
}

func TestCoerceColumn_MostlyNumericWins(t *testing.T) {
	coercer := NewCellCoercer(DefaultCoercionConfig())

	// Nine numbers and one stray word: the column is numeric and the stray
	// value becomes missing rather than flipping the whole column to text.
	raw := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "unknown"}
	cells := coercer.CoerceColumn(raw)
	if cells[0].Kind != table.KindNumeric {
		t.Fatalf("kind = %s, want numeric", cells[0].Kind)
	}
	if !cells[9].IsMissing() {
		t.Error("non-parsing value in numeric column should be missing")
	}
}
