package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"tabguard/domain/missing"
	"tabguard/domain/table"
)

// MissingCompare splits rows into "target observed" and "target missing"
// groups, then tests each explanatory column for an association with that
// split. Numeric columns use a Mann-Whitney rank-sum test, categorical
// columns a chi-squared contingency test. Rows where the explanatory column
// is itself missing are excluded from that column's comparison; the excluded
// count is reported. Degenerate comparisons (empty group, zero variance,
// single level) are flagged rather than fatal.
func (in *Inspector) MissingCompare(t *table.Table, target string, explanatory []string) (*missing.ComparisonTable, error) {
	if err := t.RequireColumns(append([]string{target}, explanatory...)...); err != nil {
		return nil, err
	}

	targetMissing, err := t.MissingIndicator(target)
	if err != nil {
		return nil, err
	}

	result := &missing.ComparisonTable{Target: target}
	for _, name := range explanatory {
		if name == target {
			continue
		}
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, in.compareColumn(col, targetMissing))
	}
	return result, nil
}

func (in *Inspector) compareColumn(col *table.Column, targetMissing []bool) missing.ComparisonRow {
	row := missing.ComparisonRow{
		Column:    col.Name,
		Kind:      col.DominantKind(),
		Statistic: math.NaN(),
		PValue:    math.NaN(),
	}

	switch row.Kind {
	case table.KindNumeric, table.KindDate:
		in.compareNumeric(col, targetMissing, &row)
	case table.KindCategorical:
		in.compareCategorical(col, targetMissing, &row)
	default:
		row.Degenerate = true
		row.Note = "no test defined for " + string(row.Kind) + " columns"
	}
	return row
}

// numericValue projects a cell onto the real line for ranking. Dates rank
// by epoch seconds.
func numericValue(cell table.Cell) (float64, bool) {
	switch cell.Kind {
	case table.KindNumeric:
		return cell.Num, true
	case table.KindDate:
		return float64(cell.Date.Unix()), true
	default:
		return 0, false
	}
}

func (in *Inspector) compareNumeric(col *table.Column, targetMissing []bool, row *missing.ComparisonRow) {
	var observed, missingGroup []float64
	for i, cell := range col.Cells {
		v, ok := numericValue(cell)
		if !ok {
			row.Excluded++
			continue
		}
		if targetMissing[i] {
			missingGroup = append(missingGroup, v)
		} else {
			observed = append(observed, v)
		}
	}

	row.TestUsed = "mann_whitney_u"
	row.Observed = numericSummary(observed)
	row.Missing = numericSummary(missingGroup)

	if len(observed) == 0 || len(missingGroup) == 0 {
		row.Degenerate = true
		row.Note = "empty comparison group"
		return
	}
	if isConstant(observed) && isConstant(missingGroup) && observed[0] == missingGroup[0] {
		row.Degenerate = true
		row.Note = "zero variance across both groups"
		return
	}

	u, tieTerm := mannWhitneyU(observed, missingGroup)
	row.Statistic = u
	row.PValue = in.dist.MannWhitneyPValue(u, len(observed), len(missingGroup), tieTerm)
}

func (in *Inspector) compareCategorical(col *table.Column, targetMissing []bool, row *missing.ComparisonRow) {
	observedCounts := make(map[string]int)
	missingCounts := make(map[string]int)
	nObserved, nMissing := 0, 0
	for i, cell := range col.Cells {
		if cell.Kind != table.KindCategorical {
			row.Excluded++
			continue
		}
		if targetMissing[i] {
			missingCounts[cell.Level]++
			nMissing++
		} else {
			observedCounts[cell.Level]++
			nObserved++
		}
	}

	row.TestUsed = "chi_squared"
	row.Observed = missing.GroupSummary{N: nObserved, Counts: observedCounts}
	row.Missing = missing.GroupSummary{N: nMissing, Counts: missingCounts}

	levels := unionLevels(observedCounts, missingCounts)
	if nObserved == 0 || nMissing == 0 {
		row.Degenerate = true
		row.Note = "empty comparison group"
		return
	}
	if len(levels) < 2 {
		row.Degenerate = true
		row.Note = "fewer than two levels"
		return
	}

	chiSq := pearsonChiSquare(levels, observedCounts, missingCounts, nObserved, nMissing)
	row.Statistic = chiSq
	row.PValue = in.dist.ChiSquarePValue(chiSq, len(levels)-1)
}

func numericSummary(values []float64) missing.GroupSummary {
	summary := missing.GroupSummary{N: len(values)}
	if len(values) > 0 {
		summary.Mean, _ = mstats.Mean(values)
		summary.Median, _ = mstats.Median(values)
	}
	return summary
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func unionLevels(a, b map[string]int) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for level := range a {
		seen[level] = struct{}{}
	}
	for level := range b {
		seen[level] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for level := range seen {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// mannWhitneyU computes the U statistic for group a against group b using
// midranks for ties, and the tie-correction term sum(t^3 - t).
func mannWhitneyU(a, b []float64) (u float64, tieTerm float64) {
	type sample struct {
		value float64
		inA   bool
	}
	pooled := make([]sample, 0, len(a)+len(b))
	for _, v := range a {
		pooled = append(pooled, sample{value: v, inA: true})
	}
	for _, v := range b {
		pooled = append(pooled, sample{value: v})
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].value < pooled[j].value })

	// Assign midranks, walking tie groups.
	ranks := make([]float64, len(pooled))
	for i := 0; i < len(pooled); {
		j := i
		for j < len(pooled) && pooled[j].value == pooled[i].value {
			j++
		}
		midrank := float64(i+j+1) / 2.0 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[k] = midrank
		}
		if size := float64(j - i); size > 1 {
			tieTerm += size*size*size - size
		}
		i = j
	}

	rankSumA := 0.0
	for i, s := range pooled {
		if s.inA {
			rankSumA += ranks[i]
		}
	}

	nA := float64(len(a))
	u = rankSumA - nA*(nA+1)/2.0
	return u, tieTerm
}

// pearsonChiSquare computes the chi-square statistic of a levels x 2
// contingency table (observed vs missing), without continuity correction.
func pearsonChiSquare(levels []string, observedCounts, missingCounts map[string]int, nObserved, nMissing int) float64 {
	total := float64(nObserved + nMissing)
	chiSq := 0.0
	for _, level := range levels {
		rowTotal := float64(observedCounts[level] + missingCounts[level])

		expectedObserved := rowTotal * float64(nObserved) / total
		if expectedObserved > 0 {
			diff := float64(observedCounts[level]) - expectedObserved
			chiSq += diff * diff / expectedObserved
		}

		expectedMissing := rowTotal * float64(nMissing) / total
		if expectedMissing > 0 {
			diff := float64(missingCounts[level]) - expectedMissing
			chiSq += diff * diff / expectedMissing
		}
	}
	return chiSq
}
