package stats

import (
	"math"
	"reflect"
	"testing"

	"tabguard/domain/table"
	"tabguard/internal/testkit"
)

// TestMissingCompare_DetectsMARBySex verifies that smoking missingness
// concentrated in one sex yields a significant contingency test, while
// perfectly balanced missingness does not.
func TestMissingCompare_DetectsMARBySex(t *testing.T) {
	inspector := NewInspector()

	// 100 rows, smoking missing in 10 rows, all of them Female.
	mar := sexSmokingTable(t, 10, 0)
	result, err := inspector.MissingCompare(mar, "smoking", []string{"sex"})
	if err != nil {
		t.Fatalf("MissingCompare failed: %v", err)
	}
	row := result.Rows[0]
	if row.TestUsed != "chi_squared" {
		t.Errorf("TestUsed = %s, want chi_squared", row.TestUsed)
	}
	if row.Degenerate {
		t.Fatal("MAR comparison unexpectedly degenerate")
	}
	if row.PValue >= 0.05 {
		t.Errorf("MAR-by-sex p-value = %f, want < 0.05", row.PValue)
	}

	// Same table but missingness split evenly across the sexes.
	balanced := sexSmokingTable(t, 5, 5)
	result, err = inspector.MissingCompare(balanced, "smoking", []string{"sex"})
	if err != nil {
		t.Fatalf("MissingCompare failed: %v", err)
	}
	if p := result.Rows[0].PValue; p < 0.05 {
		t.Errorf("Balanced missingness p-value = %f, want >= 0.05", p)
	}
}

// TestMissingCompare_NumericRankSum verifies the rank-sum path detects
// missingness concentrated at high ages.
func TestMissingCompare_NumericRankSum(t *testing.T) {
	n := 100
	ages := make([]table.Cell, n)
	smoking := make([]table.Cell, n)
	for i := 0; i < n; i++ {
		ages[i] = table.Numeric(float64(20 + i))
		// Smoking is unrecorded for the 20 oldest subjects.
		if i >= n-20 {
			smoking[i] = table.Missing()
		} else {
			smoking[i] = table.Categorical("Non-smoker")
		}
	}
	tbl, err := table.New(
		&table.Column{Name: "age", Cells: ages},
		&table.Column{Name: "smoking", Cells: smoking},
	)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	result, err := NewInspector().MissingCompare(tbl, "smoking", []string{"age"})
	if err != nil {
		t.Fatalf("MissingCompare failed: %v", err)
	}
	row := result.Rows[0]
	if row.TestUsed != "mann_whitney_u" {
		t.Errorf("TestUsed = %s, want mann_whitney_u", row.TestUsed)
	}
	if row.PValue >= 0.001 {
		t.Errorf("Extreme separation p-value = %f, want < 0.001", row.PValue)
	}
	if row.Missing.Median <= row.Observed.Median {
		t.Errorf("Missing-group median %f should exceed observed-group median %f",
			row.Missing.Median, row.Observed.Median)
	}
}

// TestMissingCompare_DegenerateIsReportedNotFatal verifies zero-variance
// and empty groups surface as flagged rows.
func TestMissingCompare_DegenerateIsReportedNotFatal(t *testing.T) {
	constant := make([]table.Cell, 10)
	target := make([]table.Cell, 10)
	for i := range constant {
		constant[i] = table.Numeric(5)
		target[i] = table.Categorical("x")
	}
	target[3] = table.Missing()
	target[7] = table.Missing()

	tbl, err := table.New(
		&table.Column{Name: "flat", Cells: constant},
		&table.Column{Name: "target", Cells: target},
	)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}

	result, err := NewInspector().MissingCompare(tbl, "target", []string{"flat"})
	if err != nil {
		t.Fatalf("MissingCompare failed: %v", err)
	}
	row := result.Rows[0]
	if !row.Degenerate {
		t.Fatal("Zero-variance comparison should be degenerate")
	}
	if !math.IsNaN(row.Statistic) || !math.IsNaN(row.PValue) {
		t.Error("Degenerate comparison should report NaN statistic and p-value")
	}
}

// TestMissingCompare_ExclusionIsDeterministic verifies the explanatory-side
// exclusion policy is symmetric and stable across repeated calls.
func TestMissingCompare_ExclusionIsDeterministic(t *testing.T) {
	gen := testkit.NewGenerator(19)
	tbl := gen.ClinicalTable(120, 25, testkit.MARBySex)

	inspector := NewInspector()
	first, err := inspector.MissingCompare(tbl, "smoking", []string{"age", "sex"})
	if err != nil {
		t.Fatalf("MissingCompare failed: %v", err)
	}
	second, err := inspector.MissingCompare(tbl, "smoking", []string{"age", "sex"})
	if err != nil {
		t.Fatalf("MissingCompare failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated MissingCompare calls produced different output")
	}
	for _, row := range first.Rows {
		if row.Excluded != 0 {
			t.Errorf("Column %s excluded %d rows; fixture has complete explanatory columns",
				row.Column, row.Excluded)
		}
	}
}

// sexSmokingTable builds 100 rows: 50 Female then 50 Male, with smoking
// missing in the first femaleMissing female rows and maleMissing male rows.
func sexSmokingTable(t *testing.T, femaleMissing, maleMissing int) *table.Table {
	t.Helper()
	sexes := make([]table.Cell, 100)
	smoking := make([]table.Cell, 100)
	for i := 0; i < 100; i++ {
		sex := "Female"
		if i >= 50 {
			sex = "Male"
		}
		sexes[i] = table.Categorical(sex)

		value := table.Categorical("Non-smoker")
		if i%3 == 0 {
			value = table.Categorical("Smoker")
		}
		smoking[i] = value
	}
	for i := 0; i < femaleMissing; i++ {
		smoking[i] = table.Missing()
	}
	for i := 0; i < maleMissing; i++ {
		smoking[50+i] = table.Missing()
	}

	tbl, err := table.New(
		&table.Column{Name: "sex", Cells: sexes},
		&table.Column{Name: "smoking", Cells: smoking},
	)
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	return tbl
}
