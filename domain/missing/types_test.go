package missing

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestComparisonRow_DegenerateMarshalsAsNull(t *testing.T) {
	row := ComparisonRow{
		Column:     "flat",
		TestUsed:   "mann_whitney_u",
		Statistic:  math.NaN(),
		PValue:     math.NaN(),
		Degenerate: true,
		Note:       "zero variance across both groups",
	}

	out, err := json.Marshal(ComparisonTable{Target: "smoking", Rows: []ComparisonRow{row}})
	if err != nil {
		t.Fatalf("marshaling degenerate row: %v", err)
	}
	body := string(out)
	if !strings.Contains(body, `"statistic":null`) {
		t.Errorf("statistic not rendered as null: %s", body)
	}
	if !strings.Contains(body, `"p_value":null`) {
		t.Errorf("p-value not rendered as null: %s", body)
	}
	if !strings.Contains(body, `"degenerate":true`) {
		t.Errorf("degenerate flag missing: %s", body)
	}
}

func TestComparisonRow_FiniteValuesSurvive(t *testing.T) {
	row := ComparisonRow{
		Column:    "age",
		TestUsed:  "mann_whitney_u",
		Statistic: 123.5,
		PValue:    0.0375,
	}

	out, err := json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["statistic"] != 123.5 {
		t.Errorf("statistic = %v, want 123.5", decoded["statistic"])
	}
	if decoded["p_value"] != 0.0375 {
		t.Errorf("p_value = %v, want 0.0375", decoded["p_value"])
	}
}
