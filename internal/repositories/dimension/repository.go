// Package dimension persists warehouse dimension rows.
package dimension

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/database"
	etldimension "github.com/Ramsey-B/aster/pkg/etl/dimension"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Repository implements etldimension.TxStore over the warehouse database.
type Repository struct {
	db     database.DB
	ext    database.Ext
	logger ectologger.Logger
}

// NewRepository creates a new dimension repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		ext:    db,
		logger: logger,
	}
}

// withExt returns a copy bound to a different query surface, used to run the
// same queries inside a transaction.
func (r *Repository) withExt(ext database.Ext) *Repository {
	return &Repository{
		db:     r.db,
		ext:    ext,
		logger: r.logger,
	}
}

// InTx runs fn inside one transaction, committed on success. Inserts made
// through the transaction-bound store are visible to later lookups in the
// same transaction.
func (r *Repository) InTx(ctx context.Context, fn func(etldimension.Store) error) error {
	tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(r.withExt(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// BulkLookup reads the full natural name to surrogate key mapping for one
// dimension type.
func (r *Repository) BulkLookup(ctx context.Context, dt models.DimensionType) (map[string]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "DimensionRepository.BulkLookup")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(
		fmt.Sprintf("%s AS key", dt.KeyColumn()),
		fmt.Sprintf("%s AS name", dt.NameColumn()),
	)
	sb.From(dt.Table())

	query, args := sb.Build()

	var rows []models.DimensionRow
	err := r.ext.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to load %s dimension", dt)
		return nil, fmt.Errorf("failed to load %s dimension: %w", dt, err)
	}

	mapping := make(map[string]int64, len(rows))
	for _, row := range rows {
		mapping[row.Name] = row.Key
	}

	return mapping, nil
}

// Insert creates a dimension row and returns its assigned surrogate key.
func (r *Repository) Insert(ctx context.Context, dt models.DimensionType, name string, loadID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "DimensionRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(dt.Table())
	ib.Cols(dt.NameColumn(), "load_id")
	ib.Values(name, loadID)
	ib.Returning(dt.KeyColumn())

	query, args := ib.Build()

	var key int64
	if err := r.ext.GetContext(ctx, &key, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to insert %s dimension row", dt)
		return 0, fmt.Errorf("failed to insert %s dimension row: %w", dt, err)
	}

	return key, nil
}
