package stats

import (
	mstats "github.com/montanaflynn/stats"

	"tabguard/domain/missing"
	"tabguard/domain/table"
)

// MissingPairs produces, for every ordered pair among {dependent} ∪
// explanatory, a summary of the first column's values split by the second
// column's missingness: five-number summaries for numeric columns,
// count or proportion cross-tabs for categorical ones. The output is
// summary data only; rendering belongs to external collaborators.
func (in *Inspector) MissingPairs(t *table.Table, dependent string, explanatory []string, fillMode missing.FillMode) (*missing.PairGrid, error) {
	columns, err := analysisColumns(t, dependent, explanatory)
	if err != nil {
		return nil, err
	}
	if fillMode == "" {
		fillMode = missing.FillCount
	}

	grid := &missing.PairGrid{Columns: columns, FillMode: fillMode}
	for _, x := range columns {
		for _, y := range columns {
			if x == y {
				continue
			}
			pair, err := in.summarizePair(t, x, y, fillMode)
			if err != nil {
				return nil, err
			}
			grid.Pairs = append(grid.Pairs, pair)
		}
	}
	return grid, nil
}

func (in *Inspector) summarizePair(t *table.Table, x, y string, fillMode missing.FillMode) (missing.PairSummary, error) {
	colX, err := t.Column(x)
	if err != nil {
		return missing.PairSummary{}, err
	}
	yMissing, err := t.MissingIndicator(y)
	if err != nil {
		return missing.PairSummary{}, err
	}

	pair := missing.PairSummary{
		ColumnX: x,
		ColumnY: y,
		KindX:   colX.DominantKind(),
	}
	colY, err := t.Column(y)
	if err != nil {
		return missing.PairSummary{}, err
	}
	pair.KindY = colY.DominantKind()

	switch pair.KindX {
	case table.KindNumeric, table.KindDate:
		var observed, missingSide []float64
		for i, cell := range colX.Cells {
			v, ok := numericValue(cell)
			if !ok {
				continue
			}
			if yMissing[i] {
				missingSide = append(missingSide, v)
			} else {
				observed = append(observed, v)
			}
		}
		pair.ObservedSummary = fiveNumber(observed)
		pair.MissingSummary = fiveNumber(missingSide)

	case table.KindCategorical:
		crossTab := make(map[string]map[string]float64)
		groupTotals := map[string]float64{"observed": 0, "missing": 0}
		for i, cell := range colX.Cells {
			if cell.Kind != table.KindCategorical {
				continue
			}
			group := "observed"
			if yMissing[i] {
				group = "missing"
			}
			if crossTab[cell.Level] == nil {
				crossTab[cell.Level] = map[string]float64{"observed": 0, "missing": 0}
			}
			crossTab[cell.Level][group]++
			groupTotals[group]++
		}
		if fillMode == missing.FillProportion {
			for _, byGroup := range crossTab {
				for group, count := range byGroup {
					if groupTotals[group] > 0 {
						byGroup[group] = count / groupTotals[group]
					}
				}
			}
		}
		pair.CrossTab = crossTab
	}

	return pair, nil
}

// fiveNumber builds a box-plot-style summary, or nil for an empty split
func fiveNumber(values []float64) *missing.FiveNumber {
	if len(values) == 0 {
		return nil
	}
	summary := &missing.FiveNumber{N: len(values)}
	summary.Min, _ = mstats.Min(values)
	summary.Max, _ = mstats.Max(values)
	summary.Median, _ = mstats.Median(values)
	if quartiles, err := mstats.Quartile(values); err == nil {
		summary.Q1 = quartiles.Q1
		summary.Q3 = quartiles.Q3
	} else {
		summary.Q1, summary.Q3 = summary.Median, summary.Median
	}
	return summary
}
