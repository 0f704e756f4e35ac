package table

import (
	"fmt"
	"strconv"
	"time"
)

// CellKind enumerates the value kinds a cell can hold
type CellKind string

const (
	KindNumeric     CellKind = "numeric"
	KindCategorical CellKind = "categorical"
	KindDate        CellKind = "date"
	KindText        CellKind = "text"
	KindMissing     CellKind = "missing"
)

// Cell is a tagged-variant value. Exactly one payload field is meaningful,
// selected by Kind. Missing cells carry no payload.
type Cell struct {
	Kind  CellKind
	Num   float64
	Level string
	Date  time.Time
	Text  string
}

// Constructors

func Numeric(v float64) Cell {
	return Cell{Kind: KindNumeric, Num: v}
}

func Categorical(level string) Cell {
	return Cell{Kind: KindCategorical, Level: level}
}

func Date(t time.Time) Cell {
	return Cell{Kind: KindDate, Date: t}
}

func Text(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

func Missing() Cell {
	return Cell{Kind: KindMissing}
}

// IsMissing reports whether the cell holds the explicit missing marker
func (c Cell) IsMissing() bool {
	return c.Kind == KindMissing
}

// String renders the cell payload for display and serialization
func (c Cell) String() string {
	switch c.Kind {
	case KindNumeric:
		return strconv.FormatFloat(c.Num, 'g', -1, 64)
	case KindCategorical:
		return c.Level
	case KindDate:
		return c.Date.Format("2006-01-02")
	case KindText:
		return c.Text
	case KindMissing:
		return ""
	default:
		return fmt.Sprintf("<unknown kind %s>", c.Kind)
	}
}

// Equal compares two cells by kind and payload
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case KindNumeric:
		return c.Num == other.Num
	case KindCategorical:
		return c.Level == other.Level
	case KindDate:
		return c.Date.Equal(other.Date)
	case KindText:
		return c.Text == other.Text
	case KindMissing:
		return true
	default:
		return false
	}
}
