// Package tabular loads delimited and spreadsheet files into tables and
// persists lookup tables. The analysis and encryption cores never touch
// files or schemas themselves; this package is their loading collaborator.
package tabular

import (
	"math"
	"strconv"
	"strings"
	"time"

	"tabguard/domain/table"
)

// CoercionConfig defines thresholds for inferring a column's cell kind
type CoercionConfig struct {
	// NumericThreshold is the fraction of observed values that must parse
	// as numbers for the column to be coerced numeric.
	NumericThreshold float64
	// DateThreshold is the fraction that must parse as dates.
	DateThreshold float64
	// MaxLevels caps the distinct values a text column may have and still
	// be treated as categorical.
	MaxLevels int
	// MissingTokens are raw values treated as the explicit missing marker.
	MissingTokens []string
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 0.8,
		DateThreshold:    0.8,
		MaxLevels:        30,
		MissingTokens:    []string{"", "NA", "N/A", "NaN", "NULL", "."},
	}
}

// CellCoercer converts raw string values into typed cells, one column at a
// time, so a column's kind is decided by its whole content rather than cell
// by cell.
type CellCoercer struct {
	config  CoercionConfig
	missing map[string]struct{}
}

// NewCellCoercer creates a coercer with the given config
func NewCellCoercer(config CoercionConfig) *CellCoercer {
	missing := make(map[string]struct{}, len(config.MissingTokens))
	for _, token := range config.MissingTokens {
		missing[strings.ToUpper(token)] = struct{}{}
	}
	return &CellCoercer{config: config, missing: missing}
}

// dateFormats are tried in order when parsing date cells
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	time.RFC3339,
}

// CoerceColumn converts one column of raw values into typed cells
func (c *CellCoercer) CoerceColumn(raw []string) []table.Cell {
	observed := 0
	numericCount, dateCount := 0, 0
	distinct := make(map[string]struct{})

	for _, value := range raw {
		if c.isMissing(value) {
			continue
		}
		observed++
		trimmed := strings.TrimSpace(value)
		if _, ok := c.tryNumeric(trimmed); ok {
			numericCount++
		}
		if _, ok := c.tryDate(trimmed); ok {
			dateCount++
		}
		distinct[trimmed] = struct{}{}
	}

	kind := table.KindText
	switch {
	case observed == 0:
		kind = table.KindMissing
	case float64(numericCount)/float64(observed) >= c.config.NumericThreshold:
		kind = table.KindNumeric
	case float64(dateCount)/float64(observed) >= c.config.DateThreshold:
		kind = table.KindDate
	case len(distinct) <= c.config.MaxLevels:
		kind = table.KindCategorical
	}

	cells := make([]table.Cell, len(raw))
	for i, value := range raw {
		cells[i] = c.coerceCell(value, kind)
	}
	return cells
}

func (c *CellCoercer) coerceCell(value string, kind table.CellKind) table.Cell {
	if c.isMissing(value) {
		return table.Missing()
	}
	trimmed := strings.TrimSpace(value)

	switch kind {
	case table.KindNumeric:
		if v, ok := c.tryNumeric(trimmed); ok {
			return table.Numeric(v)
		}
		// A non-parsing value in a numeric column is missing, not text:
		// mixing kinds inside one column would break exhaustive matching.
		return table.Missing()
	case table.KindDate:
		if t, ok := c.tryDate(trimmed); ok {
			return table.Date(t)
		}
		return table.Missing()
	case table.KindCategorical:
		return table.Categorical(trimmed)
	default:
		return table.Text(trimmed)
	}
}

func (c *CellCoercer) isMissing(value string) bool {
	_, ok := c.missing[strings.ToUpper(strings.TrimSpace(value))]
	return ok
}

func (c *CellCoercer) tryNumeric(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	cleaned := strings.ReplaceAll(value, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func (c *CellCoercer) tryDate(value string) (time.Time, bool) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			// Date cells hold calendar dates only. Timestamped inputs
			// (RFC3339) drop their time-of-day here so every date survives
			// serialization round trips unchanged.
			year, month, day := t.Date()
			return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
