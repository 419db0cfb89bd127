// Package warehouse exposes inspection and maintenance operations over the
// dimensional store.
package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// ErrUnknownTable is returned when a requested table is not part of the
// warehouse schema.
var ErrUnknownTable = errors.New("unknown warehouse table")

// tables is the allowlist of inspectable warehouse tables. Table names are
// interpolated into queries, so only names from this list are ever used.
var tables = []string{
	models.DimensionCustomer.Table(),
	models.DimensionManager.Table(),
	models.DimensionProduct.Table(),
	"fact_sales",
}

// Repository implements warehouse inspection operations.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new warehouse repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Tables lists the inspectable warehouse tables.
func (r *Repository) Tables() []string {
	out := make([]string, len(tables))
	copy(out, tables)
	return out
}

// Rows returns every row of one warehouse table as generic maps.
func (r *Repository) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "WarehouseRepository.Rows")
	defer span.End()

	if !r.isKnown(table) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY 1 ASC", table))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to read warehouse table %s", table)
		return nil, fmt.Errorf("failed to read warehouse table %s: %w", table, err)
	}
	defer rows.Close()

	results := []map[string]any{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read warehouse table %s: %w", table, err)
	}

	return results, nil
}

// Reset truncates every warehouse table and restarts their key sequences.
// Destructive; intended for test and development environments.
func (r *Repository) Reset(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "WarehouseRepository.Reset")
	defer span.End()

	for _, table := range tables {
		query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			r.logger.WithContext(ctx).WithError(err).Errorf("failed to truncate %s", table)
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	r.logger.WithContext(ctx).Warn("warehouse reset")

	return nil
}

func (r *Repository) isKnown(table string) bool {
	for _, t := range tables {
		if t == table {
			return true
		}
	}
	return false
}
