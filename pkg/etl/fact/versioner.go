// Package fact decides, per order, whether the warehouse needs a new fact
// version.
package fact

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Store is the warehouse fact surface the versioner needs.
type Store interface {
	// LatestByOrder returns the fact version with the greatest load_id for an
	// order, or nil when the order has no versions yet.
	LatestByOrder(ctx context.Context, orderID int64) (*models.FactVersion, error)
	Insert(ctx context.Context, sale models.FactSale) error
}

// TxStore is a Store that can run a unit of work inside one transaction and
// exposes the cycle-level fact operations.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
	NextLoadID(ctx context.Context) (int64, error)
	DeleteExactDuplicates(ctx context.Context) (int64, error)
}

// Versioner appends fact versions for a single load cycle. A new version is
// written only when the order has no recorded version, or when its status
// changed since the latest one. Quantity or amount drift without a status
// change does not produce a version.
type Versioner struct {
	store    Store
	logger   ectologger.Logger
	loadID   int64
	appended int
}

func NewVersioner(store Store, logger ectologger.Logger, loadID int64) *Versioner {
	return &Versioner{
		store:  store,
		logger: logger,
		loadID: loadID,
	}
}

// Apply reconciles one extracted row against warehouse state. It returns
// true when a new fact version was appended.
func (v *Versioner) Apply(ctx context.Context, row models.ExtractedOrder, keys models.DimensionKeys) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "fact.Versioner.Apply")
	defer span.End()

	latest, err := v.store.LatestByOrder(ctx, row.OrderID)
	if err != nil {
		v.logger.WithContext(ctx).WithError(err).Errorf("failed to look up latest fact for order %d", row.OrderID)
		return false, fmt.Errorf("failed to look up latest fact for order %d: %w", row.OrderID, err)
	}

	if latest != nil && latest.Status == row.Status {
		return false, nil
	}

	sale := models.FactSale{
		OrderID:     row.OrderID,
		CustomerKey: keys.CustomerKey,
		ManagerKey:  keys.ManagerKey,
		ProductKey:  keys.ProductKey,
		Quantity:    row.Quantity,
		TotalPrice:  row.TotalPrice,
		Status:      row.Status,
		LoadID:      v.loadID,
	}

	if err := v.store.Insert(ctx, sale); err != nil {
		v.logger.WithContext(ctx).WithError(err).Errorf("failed to insert fact for order %d", row.OrderID)
		return false, fmt.Errorf("failed to insert fact for order %d: %w", row.OrderID, err)
	}

	v.appended++

	log := v.logger.WithContext(ctx).WithFields(map[string]any{
		"order_id": row.OrderID,
		"status":   row.Status,
		"load_id":  v.loadID,
	})
	if latest == nil {
		log.Debug("recorded first fact version")
	} else {
		log.WithField("previous_status", latest.Status).Debug("recorded fact version for status change")
	}

	return true, nil
}

// Appended returns the number of fact versions written by this versioner.
func (v *Versioner) Appended() int {
	return v.appended
}
