package stats

import (
	"sort"

	"tabguard/domain/missing"
	"tabguard/domain/table"
)

// MissingPattern groups rows by which subset of the analysis columns is
// missing. One pass builds a per-row bit-vector of missing flags, a second
// groups by that key, so the whole enumeration is O(rows x columns).
func (in *Inspector) MissingPattern(t *table.Table, dependent string, explanatory []string) (*missing.PatternTable, error) {
	columns, err := analysisColumns(t, dependent, explanatory)
	if err != nil {
		return nil, err
	}

	indicators := make([][]bool, len(columns))
	for i, name := range columns {
		indicator, err := t.MissingIndicator(name)
		if err != nil {
			return nil, err
		}
		indicators[i] = indicator
	}

	counts := make(map[string]int)
	rowCount := t.RowCount()
	key := make([]byte, len(columns))
	for row := 0; row < rowCount; row++ {
		for i := range columns {
			if indicators[i][row] {
				key[i] = '1'
			} else {
				key[i] = '0'
			}
		}
		counts[string(key)]++
	}

	patterns := make([]missing.Pattern, 0, len(counts))
	for bitKey, n := range counts {
		flags := make([]bool, len(columns))
		total := 0
		for i := range bitKey {
			if bitKey[i] == '1' {
				flags[i] = true
				total++
			}
		}
		patterns = append(patterns, missing.Pattern{
			MissingFlags: flags,
			MissingTotal: total,
			RowCount:     n,
		})
	}

	// Canonical display order: fewer missing columns first, then more
	// frequent patterns, then the bit pattern itself so repeated runs are
	// byte-identical.
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].MissingTotal != patterns[j].MissingTotal {
			return patterns[i].MissingTotal < patterns[j].MissingTotal
		}
		if patterns[i].RowCount != patterns[j].RowCount {
			return patterns[i].RowCount > patterns[j].RowCount
		}
		return patterns[i].BitKey() < patterns[j].BitKey()
	})

	return &missing.PatternTable{
		Columns:  columns,
		Patterns: patterns,
		RowCount: rowCount,
	}, nil
}
