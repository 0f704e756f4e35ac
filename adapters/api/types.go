package api

import (
	"tabguard/adapters/tabular"
	"tabguard/domain/table"

	apperrors "tabguard/internal/errors"
)

// ColumnPayload is one raw column in an inline dataset. Values are
// untyped strings; kind inference is delegated to the cell coercer, the
// same path file ingestion takes.
type ColumnPayload struct {
	Name   string   `json:"name"`
	Label  string   `json:"label,omitempty"`
	Values []string `json:"values"`
}

// DatasetPayload is an inline dataset plus the analysis column roles
type DatasetPayload struct {
	Columns     []ColumnPayload `json:"columns"`
	Dependent   string          `json:"dependent,omitempty"`
	Explanatory []string        `json:"explanatory,omitempty"`
	Target      string          `json:"target,omitempty"`
	FillMode    string          `json:"fill_mode,omitempty"`
}

// toTable converts the payload into a typed table
func (p *DatasetPayload) toTable(coercer *tabular.CellCoercer) (*table.Table, error) {
	if len(p.Columns) == 0 {
		return nil, apperrors.InvalidInput("dataset has no columns")
	}
	columns := make([]*table.Column, 0, len(p.Columns))
	for _, col := range p.Columns {
		columns = append(columns, &table.Column{
			Name:  col.Name,
			Label: col.Label,
			Cells: coercer.CoerceColumn(col.Values),
		})
	}
	t, err := table.New(columns...)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, err)
	}
	return t, nil
}

// errorResponse is the JSON error envelope
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
