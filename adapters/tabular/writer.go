package tabular

import (
	"encoding/csv"
	"fmt"
	"os"

	"tabguard/domain/table"
)

// WriteTableCSV persists a table as a delimited file with a header row.
// Missing cells serialize as empty fields.
func WriteTableCSV(t *table.Table, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := csv.NewWriter(f)
	names := t.ColumnNames()
	if err := w.Write(names); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	columns := make([]*table.Column, len(names))
	for i, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return err
		}
		columns[i] = col
	}

	record := make([]string, len(columns))
	for row := 0; row < t.RowCount(); row++ {
		for i, col := range columns {
			record[i] = col.Cells[row].String()
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
	}
	w.Flush()
	return w.Error()
}
