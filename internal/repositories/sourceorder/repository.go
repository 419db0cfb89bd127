// Package sourceorder reads and writes the transactional order store.
package sourceorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// OrderRepository defines the interface for transactional order operations
type OrderRepository interface {
	Extract(ctx context.Context) ([]models.ExtractedOrder, error)
	Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error)
	List(ctx context.Context) ([]models.ExtractedOrder, error)
}

// Repository implements OrderRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new source order repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Extract produces the denormalized row set for a load cycle: one row per
// order, joined with its customer, manager and product, with the line total
// computed in the query. Read-only.
func (r *Repository) Extract(ctx context.Context) ([]models.ExtractedOrder, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.Extract")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(
		"o.id AS order_id",
		"c.name AS customer_name",
		"m.name AS manager_name",
		"p.name AS product_name",
		"o.quantity",
		"p.unit_price",
		"o.quantity * p.unit_price AS total_price",
		"o.status",
	)
	sb.From("orders o")
	sb.Join("customers c", "c.id = o.customer_id")
	sb.Join("managers m", "m.id = o.manager_id")
	sb.Join("products p", "p.id = o.product_id")
	sb.OrderBy("o.id ASC")

	query, args := sb.Build()

	var rows []models.ExtractedOrder
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to extract orders")
		return nil, fmt.Errorf("failed to extract orders: %w", err)
	}

	return rows, nil
}

// List returns all orders in extract form.
func (r *Repository) List(ctx context.Context) ([]models.ExtractedOrder, error) {
	return r.Extract(ctx)
}

// Create inserts a new order, creating its customer, manager and product on
// first sight of their names.
func (r *Repository) Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.Create")
	defer span.End()

	customerID, err := r.upsertParty(ctx, "customers", req.CustomerName)
	if err != nil {
		return nil, err
	}
	managerID, err := r.upsertParty(ctx, "managers", req.ManagerName)
	if err != nil {
		return nil, err
	}
	productID, err := r.upsertProduct(ctx, req.ProductName, req.UnitPrice)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	ib := database.NewInsertBuilder()
	ib.InsertInto("orders")
	ib.Cols("customer_id", "manager_id", "product_id", "quantity", "status", "created_at", "updated_at")
	ib.Values(customerID, managerID, productID, req.Quantity, req.Status, now, now)
	ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"order_id": id,
		"status":   req.Status,
	}).Info("created order")

	return r.GetByID(ctx, id)
}

// GetByID gets an order by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "customer_id", "manager_id", "product_id", "quantity", "status", "created_at", "updated_at")
	sb.From("orders")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var order models.Order
	err := r.db.GetContext(ctx, &order, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get order by ID")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

// UpdateStatus transitions an order's status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.UpdateStatus")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("orders")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("updated_at", time.Now()),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, nil
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"order_id": id,
		"status":   status,
	}).Info("updated order status")

	return r.GetByID(ctx, id)
}

// upsertParty resolves a customer or manager id by name, inserting on first
// sight. The no-op update makes RETURNING yield the id on conflict too.
func (r *Repository) upsertParty(ctx context.Context, table string, name string) (int64, error) {
	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("name")
	ib.Values(name)
	ib.SQL("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name")
	ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to upsert %s row", table)
		return 0, fmt.Errorf("failed to upsert %s row: %w", table, err)
	}

	return id, nil
}

func (r *Repository) upsertProduct(ctx context.Context, name string, unitPrice float64) (int64, error) {
	ib := database.NewInsertBuilder()
	ib.InsertInto("products")
	ib.Cols("name", "unit_price")
	ib.Values(name, unitPrice)
	ib.SQL("ON CONFLICT (name) DO UPDATE SET unit_price = EXCLUDED.unit_price")
	ib.Returning("id")

	query, args := ib.Build()

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to upsert product row")
		return 0, fmt.Errorf("failed to upsert product row: %w", err)
	}

	return id, nil
}
