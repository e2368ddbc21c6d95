package erp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"expense-sync/core/reconcile"
	"expense-sync/core/utils"
)

// Loader extracts source datasets from the ERP database. Queries live in
// standalone SQL files so the extraction logic can change without a rebuild.
type Loader struct {
	db     *gorm.DB
	sqlDir string
	log    *zap.Logger
}

// NewLoader creates a loader reading query files from sqlDir.
func NewLoader(db *gorm.DB, sqlDir string, log *zap.Logger) *Loader {
	return &Loader{db: db, sqlDir: sqlDir, log: log}
}

// Load executes the query in filename and returns every row as a record.
// Column values arrive as driver types; []byte is converted to string so the
// records are directly usable for payloads and comparison.
func (l *Loader) Load(ctx context.Context, filename string) ([]reconcile.Record, error) {
	query, err := os.ReadFile(filepath.Join(l.sqlDir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read query file %s: %w", filename, err)
	}

	rows, err := l.db.WithContext(ctx).Raw(string(query)).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", filename, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var records []reconcile.Record
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec := make(reconcile.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	l.log.Debug("Source dataset loaded",
		zap.String("file", filename), zap.Int("rows", len(records)))
	return records, nil
}

// FilterByColumn keeps the records whose column equals value.
func FilterByColumn(records []reconcile.Record, column, value string) []reconcile.Record {
	var filtered []reconcile.Record
	for _, rec := range records {
		if utils.ToString(rec[column]) == value {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
