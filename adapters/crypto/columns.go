package crypto

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"tabguard/domain/core"
	"tabguard/domain/table"
)

// RowKeyColumn is the name of the generated key column when ciphertext is
// externalized into a lookup table.
const RowKeyColumn = "row_key"

// LookupRow maps one generated row key to the ciphertexts of the
// externalized columns for that row.
type LookupRow struct {
	Key         int64
	Ciphertexts map[string]string
}

// LookupTable is the side table produced by EncryptColumns with
// lookup=true. Rows are kept in original table order.
type LookupTable struct {
	Columns []string
	Rows    []LookupRow
}

// EncryptColumns encrypts every cell of the named columns with the public
// key. All ciphertext is produced before the table is touched, so a failure
// never leaves a partially encrypted table. Columns are encrypted in
// parallel; row order within each column is preserved.
//
// With lookup=false the ciphertexts replace the plaintext columns in
// place. With lookup=true the named columns are replaced by a single
// generated integer row-key column and the ciphertexts are returned in a
// separate LookupTable keyed by that row key.
func EncryptColumns(t *table.Table, columns []string, pub *PublicKey, lookup bool) (*LookupTable, error) {
	if pub == nil || pub.rsa == nil {
		return nil, core.ErrInvalidKey
	}
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}

	names := dedupe(columns)
	if lookup {
		// The generated key column must not collide with an existing one;
		// detecting this after DropColumns would leave the table mutated.
		if _, err := t.Column(RowKeyColumn); err == nil && !containsName(names, RowKeyColumn) {
			return nil, fmt.Errorf("table already has a %s column; rename it before externalizing", RowKeyColumn)
		}
	}
	encrypted := make(map[string][]string, len(names))
	var mu sync.Mutex
	var g errgroup.Group

	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cells := col.Cells
		colName := col.Name
		g.Go(func() error {
			ciphertexts := make([]string, len(cells))
			for i, cell := range cells {
				ct, err := EncryptCell(pub, cell)
				if err != nil {
					return fmt.Errorf("encrypting %s row %d: %w", colName, i, err)
				}
				ciphertexts[i] = ct
			}
			mu.Lock()
			encrypted[colName] = ciphertexts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !lookup {
		for _, name := range names {
			cells := make([]table.Cell, t.RowCount())
			for i, ct := range encrypted[name] {
				cells[i] = table.Text(ct)
			}
			if err := t.ReplaceColumn(name, cells); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	// Externalize: build the side table first, then swap the columns for a
	// generated integer key. Row keys count from 1 in row order.
	side := &LookupTable{Columns: names}
	for row := 0; row < t.RowCount(); row++ {
		ciphertexts := make(map[string]string, len(names))
		for _, name := range names {
			ciphertexts[name] = encrypted[name][row]
		}
		side.Rows = append(side.Rows, LookupRow{Key: int64(row + 1), Ciphertexts: ciphertexts})
	}

	keyCells := make([]table.Cell, t.RowCount())
	for i := range keyCells {
		keyCells[i] = table.Numeric(float64(i + 1))
	}
	if err := t.DropColumns(names...); err != nil {
		return nil, err
	}
	if err := t.AddColumn(&table.Column{Name: RowKeyColumn, Cells: keyCells}); err != nil {
		return nil, err
	}
	return side, nil
}

// DecryptColumns reverses EncryptColumns for inline ciphertext, restoring
// the original cell variants. The private key is unlocked once and not
// retained beyond this call.
func DecryptColumns(t *table.Table, columns []string, priv *PrivateKey, passphrase string) error {
	if err := t.RequireColumns(columns...); err != nil {
		return err
	}
	rsaKey, err := priv.Unlock(passphrase)
	if err != nil {
		return err
	}

	names := dedupe(columns)
	decrypted := make(map[string][]table.Cell, len(names))
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return err
		}
		cells := make([]table.Cell, len(col.Cells))
		for i, cell := range col.Cells {
			ct, ok := cellCiphertext(cell)
			if !ok {
				return core.NewCorruptCiphertextError(
					fmt.Sprintf("%s row %d does not hold ciphertext", name, i))
			}
			plain, err := DecryptCell(rsaKey, ct)
			if err != nil {
				return fmt.Errorf("decrypting %s row %d: %w", name, i, err)
			}
			cells[i] = plain
		}
		decrypted[name] = cells
	}

	// All cells decrypted successfully; now mutate.
	for _, name := range names {
		if err := t.ReplaceColumn(name, decrypted[name]); err != nil {
			return err
		}
	}
	return nil
}

// DecryptRows decrypts only the given row indices, returning plaintext
// cells keyed by column name in the order of rows. Ciphertext in other rows
// is neither read nor affected: each cell's envelope is independent, so a
// subset decryption leaks nothing about any other cell.
func DecryptRows(t *table.Table, columns []string, rows []int, priv *PrivateKey, passphrase string) (map[string][]table.Cell, error) {
	if err := t.RequireColumns(columns...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row < 0 || row >= t.RowCount() {
			return nil, fmt.Errorf("row index %d out of range [0,%d)", row, t.RowCount())
		}
	}
	rsaKey, err := priv.Unlock(passphrase)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]table.Cell, len(columns))
	for _, name := range dedupe(columns) {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cells := make([]table.Cell, 0, len(rows))
		for _, row := range rows {
			ct, ok := cellCiphertext(col.Cells[row])
			if !ok {
				return nil, core.NewCorruptCiphertextError(
					fmt.Sprintf("%s row %d does not hold ciphertext", name, row))
			}
			plain, err := DecryptCell(rsaKey, ct)
			if err != nil {
				return nil, fmt.Errorf("decrypting %s row %d: %w", name, row, err)
			}
			cells = append(cells, plain)
		}
		out[name] = cells
	}
	return out, nil
}

// DecryptLookup decrypts selected rows of a lookup table. rowKeys may be a
// subset; unknown keys fail fast before any decryption.
func DecryptLookup(side *LookupTable, rowKeys []int64, priv *PrivateKey, passphrase string) (map[int64]map[string]table.Cell, error) {
	byKey := make(map[int64]LookupRow, len(side.Rows))
	for _, row := range side.Rows {
		byKey[row.Key] = row
	}
	for _, key := range rowKeys {
		if _, ok := byKey[key]; !ok {
			return nil, fmt.Errorf("row key %d not present in lookup table", key)
		}
	}

	rsaKey, err := priv.Unlock(passphrase)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]map[string]table.Cell, len(rowKeys))
	for _, key := range rowKeys {
		row := byKey[key]
		cells := make(map[string]table.Cell, len(row.Ciphertexts))
		for name, ct := range row.Ciphertexts {
			plain, err := DecryptCell(rsaKey, ct)
			if err != nil {
				return nil, fmt.Errorf("decrypting %s for row key %d: %w", name, key, err)
			}
			cells[name] = plain
		}
		out[key] = cells
	}
	return out, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// cellCiphertext extracts the ciphertext string from a cell. Ciphertext
// reloaded from a delimited file may have been coerced categorical rather
// than text, so both string-bearing kinds are accepted.
func cellCiphertext(cell table.Cell) (string, bool) {
	switch cell.Kind {
	case table.KindText:
		return cell.Text, true
	case table.KindCategorical:
		return cell.Level, true
	default:
		return "", false
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
