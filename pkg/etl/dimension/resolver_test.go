package dimension

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

// fakeStore is an in-memory dimension store. Keys are assigned sequentially
// per dimension type.
type fakeStore struct {
	rows      map[models.DimensionType]map[string]int64
	nextKey   map[models.DimensionType]int64
	lookups   int
	inserts   int
	insertErr error
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		rows:    make(map[models.DimensionType]map[string]int64),
		nextKey: make(map[models.DimensionType]int64),
	}
	for _, dt := range models.DimensionTypes {
		s.rows[dt] = make(map[string]int64)
		s.nextKey[dt] = 1
	}
	return s
}

func (s *fakeStore) BulkLookup(ctx context.Context, dt models.DimensionType) (map[string]int64, error) {
	s.lookups++
	out := make(map[string]int64, len(s.rows[dt]))
	for name, key := range s.rows[dt] {
		out[name] = key
	}
	return out, nil
}

func (s *fakeStore) Insert(ctx context.Context, dt models.DimensionType, name string, loadID int64) (int64, error) {
	s.inserts++
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	key := s.nextKey[dt]
	s.nextKey[dt]++
	s.rows[dt][name] = key
	return key, nil
}

func TestResolver_Seed(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.rows[models.DimensionCustomer]["Alice"] = 7

	resolver := NewResolver(store, testLogger(), 1)
	require.NoError(t, resolver.Seed(ctx))

	t.Run("seeds once per dimension type", func(t *testing.T) {
		assert.Equal(t, len(models.DimensionTypes), store.lookups)
	})

	t.Run("seeded names resolve without inserting", func(t *testing.T) {
		key, err := resolver.Resolve(ctx, models.DimensionCustomer, "Alice")
		require.NoError(t, err)
		assert.Equal(t, int64(7), key)
		assert.Zero(t, store.inserts)
		assert.Zero(t, resolver.Created())
	})
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("insert on miss with write-through", func(t *testing.T) {
		store := newFakeStore()
		resolver := NewResolver(store, testLogger(), 3)
		require.NoError(t, resolver.Seed(ctx))

		key, err := resolver.Resolve(ctx, models.DimensionProduct, "Widget")
		require.NoError(t, err)
		assert.Equal(t, int64(1), key)
		assert.Equal(t, 1, resolver.Created())

		// second resolution hits the cache, not the store
		again, err := resolver.Resolve(ctx, models.DimensionProduct, "Widget")
		require.NoError(t, err)
		assert.Equal(t, key, again)
		assert.Equal(t, 1, store.inserts)
		assert.Equal(t, 1, resolver.Created())
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		store := newFakeStore()
		store.rows[models.DimensionCustomer]["Alice"] = 1
		store.nextKey[models.DimensionCustomer] = 2

		resolver := NewResolver(store, testLogger(), 1)
		require.NoError(t, resolver.Seed(ctx))

		key, err := resolver.Resolve(ctx, models.DimensionCustomer, "alice")
		require.NoError(t, err)
		assert.NotEqual(t, int64(1), key)
		assert.Equal(t, 1, store.inserts)
	})

	t.Run("same name in different dimensions gets distinct rows", func(t *testing.T) {
		store := newFakeStore()
		resolver := NewResolver(store, testLogger(), 1)
		require.NoError(t, resolver.Seed(ctx))

		_, err := resolver.Resolve(ctx, models.DimensionCustomer, "Smith")
		require.NoError(t, err)
		_, err = resolver.Resolve(ctx, models.DimensionManager, "Smith")
		require.NoError(t, err)
		assert.Equal(t, 2, resolver.Created())
	})

	t.Run("insert failure propagates", func(t *testing.T) {
		store := newFakeStore()
		store.insertErr = errors.New("connection refused")

		resolver := NewResolver(store, testLogger(), 1)
		require.NoError(t, resolver.Seed(ctx))

		_, err := resolver.Resolve(ctx, models.DimensionManager, "Bob")
		assert.Error(t, err)
		assert.Zero(t, resolver.Created())
	})
}

func TestResolver_ResolveOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	resolver := NewResolver(store, testLogger(), 1)
	require.NoError(t, resolver.Seed(ctx))

	row := models.ExtractedOrder{
		OrderID:      1,
		CustomerName: "Alice",
		ManagerName:  "Bob",
		ProductName:  "Widget",
	}

	keys, err := resolver.ResolveOrder(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, int64(1), keys.CustomerKey)
	assert.Equal(t, int64(1), keys.ManagerKey)
	assert.Equal(t, int64(1), keys.ProductKey)
	assert.Equal(t, 3, resolver.Created())

	// a second order reusing the same names creates nothing new
	keys2, err := resolver.ResolveOrder(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, keys, keys2)
	assert.Equal(t, 3, resolver.Created())
}

func TestCache(t *testing.T) {
	cache := NewCache()

	t.Run("empty cache misses", func(t *testing.T) {
		_, ok := cache.Get(models.DimensionCustomer, "Alice")
		assert.False(t, ok)
	})

	t.Run("seed replaces the mapping", func(t *testing.T) {
		cache.Put(models.DimensionCustomer, "Old", 1)
		cache.Seed(models.DimensionCustomer, map[string]int64{"Alice": 2})

		_, ok := cache.Get(models.DimensionCustomer, "Old")
		assert.False(t, ok)

		key, ok := cache.Get(models.DimensionCustomer, "Alice")
		assert.True(t, ok)
		assert.Equal(t, int64(2), key)
		assert.Equal(t, 1, cache.Len(models.DimensionCustomer))
	})

	t.Run("seed copies the source map", func(t *testing.T) {
		source := map[string]int64{"Alice": 1}
		cache.Seed(models.DimensionManager, source)
		source["Mallory"] = 2

		_, ok := cache.Get(models.DimensionManager, "Mallory")
		assert.False(t, ok)
	})
}
