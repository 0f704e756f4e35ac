package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"tabguard/adapters/crypto"
)

// WriteLookupCSV persists a lookup table as a delimited file: the row key
// followed by one ciphertext column per externalized column.
func WriteLookupCSV(side *crypto.LookupTable, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating lookup file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := csv.NewWriter(f)
	header := append([]string{crypto.RowKeyColumn}, side.Columns...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing lookup header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range side.Rows {
		record[0] = strconv.FormatInt(row.Key, 10)
		for i, name := range side.Columns {
			record[i+1] = row.Ciphertexts[name]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing lookup row %d: %w", row.Key, err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadLookupCSV loads a lookup table written by WriteLookupCSV
func ReadLookupCSV(path string) (*crypto.LookupTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lookup file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing lookup file: %w", err)
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != crypto.RowKeyColumn {
		return nil, fmt.Errorf("file %s is not a lookup table", path)
	}

	side := &crypto.LookupTable{Columns: records[0][1:]}
	for lineNo, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, fmt.Errorf("lookup row %d has %d fields, expected %d",
				lineNo+2, len(record), len(records[0]))
		}
		key, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("lookup row %d has invalid key %q", lineNo+2, record[0])
		}
		ciphertexts := make(map[string]string, len(side.Columns))
		for i, name := range side.Columns {
			ciphertexts[name] = record[i+1]
		}
		side.Rows = append(side.Rows, crypto.LookupRow{Key: key, Ciphertexts: ciphertexts})
	}
	return side, nil
}
