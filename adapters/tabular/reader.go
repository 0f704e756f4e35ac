package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"tabguard/domain/table"
)

// DataReader loads CSV and XLSX files into tables
type DataReader struct {
	filePath string
	fileType string // "csv" or "xlsx"
	coercer  *CellCoercer
}

// NewDataReader creates a reader for the given path, inferring the file
// type from its extension.
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		coercer:  NewCellCoercer(DefaultCoercionConfig()),
	}
}

// ReadTable loads the file into a typed table. The first row is the header.
func (r *DataReader) ReadTable() (*table.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("data file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	case "xlsx":
		rows, err = r.readXLSX()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	return r.buildTable(rows)
}

func (r *DataReader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV file: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readXLSX() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets: %s", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func (r *DataReader) buildTable(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file %s has no header row", r.filePath)
	}
	header := rows[0]
	body := rows[1:]

	columns := make([]*table.Column, 0, len(header))
	for colIdx, name := range header {
		raw := make([]string, len(body))
		for rowIdx, row := range body {
			// Trailing cells may be absent in ragged CSV/XLSX rows.
			if colIdx < len(row) {
				raw[rowIdx] = row[colIdx]
			}
		}
		columns = append(columns, &table.Column{
			Name:  strings.TrimSpace(name),
			Cells: r.coercer.CoerceColumn(raw),
		})
	}
	return table.New(columns...)
}
