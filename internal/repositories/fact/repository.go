// Package fact persists warehouse fact rows.
package fact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/database"
	etlfact "github.com/Ramsey-B/aster/pkg/etl/fact"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// deleteExactDuplicatesQuery removes rows that duplicate another row on every
// versioned column, keeping the lowest sale_id of each duplicate group.
// order_id and status are part of the equality so distinct versions of the
// same order are never touched.
const deleteExactDuplicatesQuery = `
	DELETE FROM fact_sales a
	USING fact_sales b
	WHERE a.sale_id > b.sale_id
	AND a.order_id = b.order_id
	AND a.customer_key = b.customer_key
	AND a.manager_key = b.manager_key
	AND a.product_key = b.product_key
	AND a.quantity = b.quantity
	AND a.total_price = b.total_price
	AND a.status = b.status
`

// Repository implements etlfact.TxStore over the warehouse database.
type Repository struct {
	db     database.DB
	ext    database.Ext
	logger ectologger.Logger
}

// NewRepository creates a new fact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		ext:    db,
		logger: logger,
	}
}

func (r *Repository) withExt(ext database.Ext) *Repository {
	return &Repository{
		db:     r.db,
		ext:    ext,
		logger: r.logger,
	}
}

// InTx runs fn inside one transaction, committed on success.
func (r *Repository) InTx(ctx context.Context, fn func(etlfact.Store) error) error {
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

// NextLoadID computes the epoch for a new cycle: one past the greatest
// load_id already recorded, or 1 for an empty warehouse.
func (r *Repository) NextLoadID(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "FactRepository.NextLoadID")
	defer span.End()

	var loadID int64
	err := r.ext.GetContext(ctx, &loadID, "SELECT COALESCE(MAX(load_id), 0) + 1 FROM fact_sales")
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to compute next load_id")
		return 0, fmt.Errorf("failed to compute next load_id: %w", err)
	}

	return loadID, nil
}

// LatestByOrder returns the fact version with the greatest load_id for an
// order, or nil when the order has no versions.
func (r *Repository) LatestByOrder(ctx context.Context, orderID int64) (*models.FactVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "FactRepository.LatestByOrder")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("sale_id", "status", "load_id")
	sb.From("fact_sales")
	sb.Where(sb.Equal("order_id", orderID))
	sb.OrderBy("load_id DESC")
	sb.Limit(1)

	query, args := sb.Build()

	var version models.FactVersion
	err := r.ext.GetContext(ctx, &version, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get latest fact version")
		return nil, fmt.Errorf("failed to get latest fact version: %w", err)
	}

	return &version, nil
}

// Insert appends a fact row. sale_id is assigned by the database.
func (r *Repository) Insert(ctx context.Context, sale models.FactSale) error {
	ctx, span := tracing.StartSpan(ctx, "FactRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("fact_sales")
	ib.Cols("order_id", "customer_key", "manager_key", "product_key", "quantity", "total_price", "status", "load_id")
	ib.Values(sale.OrderID, sale.CustomerKey, sale.ManagerKey, sale.ProductKey, sale.Quantity, sale.TotalPrice, sale.Status, sale.LoadID)

	query, args := ib.Build()

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert fact row")
		return fmt.Errorf("failed to insert fact row: %w", err)
	}

	return nil
}

// DeleteExactDuplicates removes duplicated fact rows and returns how many
// were deleted.
func (r *Repository) DeleteExactDuplicates(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "FactRepository.DeleteExactDuplicates")
	defer span.End()

	result, err := r.ext.ExecContext(ctx, deleteExactDuplicatesQuery)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete duplicate fact rows")
		return 0, fmt.Errorf("failed to delete duplicate fact rows: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted fact rows: %w", err)
	}

	return removed, nil
}
