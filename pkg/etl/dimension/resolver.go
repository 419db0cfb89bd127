package dimension

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Store is the warehouse surface the resolver needs.
type Store interface {
	// BulkLookup returns the full natural name to surrogate key mapping for
	// one dimension type.
	BulkLookup(ctx context.Context, dt models.DimensionType) (map[string]int64, error)
	// Insert creates a dimension row and returns its assigned surrogate key.
	Insert(ctx context.Context, dt models.DimensionType, name string, loadID int64) (int64, error)
}

// TxStore is a Store that can run a unit of work inside one transaction.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}

// Resolver maps natural names to surrogate keys for a single load cycle.
// Lookups hit the per-cycle cache first; on a miss the dimension row is
// inserted and the new key written through, so duplicate names within a
// cycle always resolve to the same key.
type Resolver struct {
	store   Store
	cache   *Cache
	logger  ectologger.Logger
	loadID  int64
	created int
}

func NewResolver(store Store, logger ectologger.Logger, loadID int64) *Resolver {
	return &Resolver{
		store:  store,
		cache:  NewCache(),
		logger: logger,
		loadID: loadID,
	}
}

// Seed bulk-loads the current warehouse dimension contents into the cache,
// once per dimension type.
func (r *Resolver) Seed(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "dimension.Resolver.Seed")
	defer span.End()

	for _, dt := range models.DimensionTypes {
		mapping, err := r.store.BulkLookup(ctx, dt)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Errorf("failed to seed %s dimension cache", dt)
			return fmt.Errorf("failed to seed %s dimension cache: %w", dt, err)
		}
		r.cache.Seed(dt, mapping)

		r.logger.WithContext(ctx).WithFields(map[string]any{
			"dimension": dt.String(),
			"entries":   r.cache.Len(dt),
		}).Debug("seeded dimension cache")
	}

	return nil
}

// Resolve returns the surrogate key for a natural name, inserting the
// dimension row on first sight.
func (r *Resolver) Resolve(ctx context.Context, dt models.DimensionType, name string) (int64, error) {
	if key, ok := r.cache.Get(dt, name); ok {
		return key, nil
	}

	key, err := r.store.Insert(ctx, dt, name, r.loadID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to insert %s dimension row", dt)
		return 0, fmt.Errorf("failed to insert %s dimension row: %w", dt, err)
	}

	r.cache.Put(dt, name, key)
	r.created++

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"dimension": dt.String(),
		"name":      name,
		"key":       key,
	}).Debug("created dimension row")

	return key, nil
}

// ResolveOrder resolves all three dimension references of one extracted row.
func (r *Resolver) ResolveOrder(ctx context.Context, row models.ExtractedOrder) (models.DimensionKeys, error) {
	var keys models.DimensionKeys
	var err error

	if keys.CustomerKey, err = r.Resolve(ctx, models.DimensionCustomer, row.CustomerName); err != nil {
		return keys, err
	}
	if keys.ManagerKey, err = r.Resolve(ctx, models.DimensionManager, row.ManagerName); err != nil {
		return keys, err
	}
	if keys.ProductKey, err = r.Resolve(ctx, models.DimensionProduct, row.ProductName); err != nil {
		return keys, err
	}

	return keys, nil
}

// Created returns the number of dimension rows inserted by this resolver.
func (r *Resolver) Created() int {
	return r.created
}
