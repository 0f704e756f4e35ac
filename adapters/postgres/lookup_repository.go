// Package postgres persists externalized ciphertext lookup tables when a
// delimited file is not enough, keyed by dataset name.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tabguard/adapters/crypto"
)

// LookupRepository stores and retrieves ciphertext lookup tables
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository creates a new lookup repository
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// EnsureSchema creates the backing tables if they do not exist
func (r *LookupRepository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS lookup_tables (
		dataset_name TEXT PRIMARY KEY,
		columns      JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS lookup_rows (
		dataset_name TEXT   NOT NULL REFERENCES lookup_tables(dataset_name) ON DELETE CASCADE,
		row_key      BIGINT NOT NULL,
		ciphertexts  JSONB  NOT NULL,
		PRIMARY KEY (dataset_name, row_key)
	);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure lookup schema: %w", err)
	}
	return nil
}

// Save stores a lookup table, replacing any previous table for the dataset
func (r *LookupRepository) Save(ctx context.Context, datasetName string, side *crypto.LookupTable) error {
	columnsJSON, err := json.Marshal(side.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal column list: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lookup_tables WHERE dataset_name = $1`, datasetName); err != nil {
		return fmt.Errorf("failed to clear previous lookup table: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO lookup_tables (dataset_name, columns) VALUES ($1, $2)`,
		datasetName, columnsJSON); err != nil {
		return fmt.Errorf("failed to insert lookup table: %w", err)
	}

	for _, row := range side.Rows {
		ciphertextsJSON, err := json.Marshal(row.Ciphertexts)
		if err != nil {
			return fmt.Errorf("failed to marshal ciphertexts for row %d: %w", row.Key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lookup_rows (dataset_name, row_key, ciphertexts) VALUES ($1, $2, $3)`,
			datasetName, row.Key, ciphertextsJSON); err != nil {
			return fmt.Errorf("failed to insert lookup row %d: %w", row.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lookup table: %w", err)
	}
	return nil
}

// Load retrieves a lookup table by dataset name, rows in key order
func (r *LookupRepository) Load(ctx context.Context, datasetName string) (*crypto.LookupTable, error) {
	var columnsJSON []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT columns FROM lookup_tables WHERE dataset_name = $1`, datasetName,
	).Scan(&columnsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("lookup table not found: %s", datasetName)
		}
		return nil, fmt.Errorf("failed to load lookup table: %w", err)
	}

	side := &crypto.LookupTable{}
	if err := json.Unmarshal(columnsJSON, &side.Columns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal column list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT row_key, ciphertexts FROM lookup_rows WHERE dataset_name = $1 ORDER BY row_key`,
		datasetName)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key int64
		var ciphertextsJSON []byte
		if err := rows.Scan(&key, &ciphertextsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan lookup row: %w", err)
		}
		ciphertexts := make(map[string]string)
		if err := json.Unmarshal(ciphertextsJSON, &ciphertexts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ciphertexts for row %d: %w", key, err)
		}
		side.Rows = append(side.Rows, crypto.LookupRow{Key: key, Ciphertexts: ciphertexts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lookup rows: %w", err)
	}
	return side, nil
}

// Delete removes a lookup table and its rows
func (r *LookupRepository) Delete(ctx context.Context, datasetName string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM lookup_tables WHERE dataset_name = $1`, datasetName); err != nil {
		return fmt.Errorf("failed to delete lookup table: %w", err)
	}
	return nil
}
