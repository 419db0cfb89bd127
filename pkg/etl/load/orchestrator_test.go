package load

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/aster/pkg/etl/dimension"
	"github.com/Ramsey-B/aster/pkg/etl/fact"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

// fakeWarehouse is an in-memory warehouse backing both the dimension and the
// fact store. Transactions are modeled as plain function calls; rollback is
// not simulated because the orchestrator's failure tests fail the whole run.
type fakeWarehouse struct {
	dims    map[models.DimensionType]map[string]int64
	nextKey int64
	facts   []models.FactSale
	nextID  int64

	bulkLookupErr error
	dimInsertErr  error
	factInsertErr error
	nextLoadIDErr error
	reconcileErr  error
}

func newFakeWarehouse() *fakeWarehouse {
	w := &fakeWarehouse{
		dims:    make(map[models.DimensionType]map[string]int64),
		nextKey: 1,
		nextID:  1,
	}
	for _, dt := range models.DimensionTypes {
		w.dims[dt] = make(map[string]int64)
	}
	return w
}

func (w *fakeWarehouse) BulkLookup(ctx context.Context, dt models.DimensionType) (map[string]int64, error) {
	if w.bulkLookupErr != nil {
		return nil, w.bulkLookupErr
	}
	out := make(map[string]int64, len(w.dims[dt]))
	for name, key := range w.dims[dt] {
		out[name] = key
	}
	return out, nil
}

func (w *fakeWarehouse) Insert(ctx context.Context, dt models.DimensionType, name string, loadID int64) (int64, error) {
	if w.dimInsertErr != nil {
		return 0, w.dimInsertErr
	}
	key := w.nextKey
	w.nextKey++
	w.dims[dt][name] = key
	return key, nil
}

func (w *fakeWarehouse) InTx(ctx context.Context, fn func(dimension.Store) error) error {
	return fn(w)
}

// factStore adapts the warehouse to the fact.TxStore interface.
type factStore struct {
	w *fakeWarehouse
}

func (s *factStore) LatestByOrder(ctx context.Context, orderID int64) (*models.FactVersion, error) {
	var latest *models.FactVersion
	for _, row := range s.w.facts {
		if row.OrderID != orderID {
			continue
		}
		if latest == nil || row.LoadID >= latest.LoadID {
			latest = &models.FactVersion{SaleID: row.SaleID, Status: row.Status, LoadID: row.LoadID}
		}
	}
	return latest, nil
}

func (s *factStore) Insert(ctx context.Context, sale models.FactSale) error {
	if s.w.factInsertErr != nil {
		return s.w.factInsertErr
	}
	sale.SaleID = s.w.nextID
	s.w.nextID++
	s.w.facts = append(s.w.facts, sale)
	return nil
}

func (s *factStore) InTx(ctx context.Context, fn func(fact.Store) error) error {
	return fn(s)
}

func (s *factStore) NextLoadID(ctx context.Context) (int64, error) {
	if s.w.nextLoadIDErr != nil {
		return 0, s.w.nextLoadIDErr
	}
	var max int64
	for _, row := range s.w.facts {
		if row.LoadID > max {
			max = row.LoadID
		}
	}
	return max + 1, nil
}

func (s *factStore) DeleteExactDuplicates(ctx context.Context) (int64, error) {
	if s.w.reconcileErr != nil {
		return 0, s.w.reconcileErr
	}

	var removed int64
	kept := s.w.facts[:0]
	for _, a := range s.w.facts {
		dup := false
		for _, b := range kept {
			if a.SaleID > b.SaleID &&
				a.OrderID == b.OrderID &&
				a.CustomerKey == b.CustomerKey &&
				a.ManagerKey == b.ManagerKey &&
				a.ProductKey == b.ProductKey &&
				a.Quantity == b.Quantity &&
				a.TotalPrice == b.TotalPrice &&
				a.Status == b.Status {
				dup = true
				break
			}
		}
		if dup {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.w.facts = kept
	return removed, nil
}

// fakeExtractor returns a fixed row set or an error.
type fakeExtractor struct {
	rows []models.ExtractedOrder
	err  error
}

func (e *fakeExtractor) Extract(ctx context.Context) ([]models.ExtractedOrder, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.rows, nil
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	completed []*models.LoadResult
	aborted   []string
}

func (e *recordingEmitter) LoadCompleted(ctx context.Context, result *models.LoadResult) {
	e.completed = append(e.completed, result)
}

func (e *recordingEmitter) LoadAborted(ctx context.Context, phase string, cause error) {
	e.aborted = append(e.aborted, phase)
}

func row(orderID int64, customer, manager, product string, quantity int, total float64, status string) models.ExtractedOrder {
	return models.ExtractedOrder{
		OrderID:      orderID,
		CustomerName: customer,
		ManagerName:  manager,
		ProductName:  product,
		Quantity:     quantity,
		UnitPrice:    total / float64(quantity),
		TotalPrice:   total,
		Status:       status,
	}
}

func newTestOrchestrator(extractor Extractor, w *fakeWarehouse, emitter Emitter) *Orchestrator {
	return NewOrchestrator(extractor, w, &factStore{w: w}, emitter, testLogger(), 5*time.Second)
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("initial load populates dimensions and facts", func(t *testing.T) {
		w := newFakeWarehouse()
		emitter := &recordingEmitter{}
		extractor := &fakeExtractor{rows: []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "new"),
			row(2, "Carol", "Bob", "Widget", 1, 20, "new"),
		}}

		result, err := newTestOrchestrator(extractor, w, emitter).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1), result.LoadID)
		assert.Equal(t, PhaseComplete.String(), result.Phase)
		assert.Equal(t, 2, result.RowsExtracted)
		assert.Zero(t, result.RowsSkipped)
		// Alice, Carol, Bob, Widget
		assert.Equal(t, 4, result.DimensionsCreated)
		assert.Equal(t, 2, result.FactsAppended)
		assert.Zero(t, result.DuplicatesRemoved)

		assert.Len(t, w.facts, 2)
		assert.Len(t, emitter.completed, 1)
		assert.Empty(t, emitter.aborted)
	})

	t.Run("rerun on unchanged source appends nothing", func(t *testing.T) {
		w := newFakeWarehouse()
		extractor := &fakeExtractor{rows: []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "new"),
		}}
		orchestrator := newTestOrchestrator(extractor, w, nil)

		first, err := orchestrator.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), first.LoadID)

		second, err := orchestrator.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), second.LoadID)
		assert.Zero(t, second.DimensionsCreated)
		assert.Zero(t, second.FactsAppended)
		assert.Len(t, w.facts, 1)
	})

	t.Run("status change produces a new version under the new epoch", func(t *testing.T) {
		w := newFakeWarehouse()
		extractor := &fakeExtractor{rows: []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "new"),
		}}
		orchestrator := newTestOrchestrator(extractor, w, nil)

		_, err := orchestrator.Run(ctx)
		require.NoError(t, err)

		extractor.rows = []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "shipped"),
		}
		result, err := orchestrator.Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), result.LoadID)
		assert.Equal(t, 1, result.FactsAppended)
		require.Len(t, w.facts, 2)
		assert.Equal(t, "new", w.facts[0].Status)
		assert.Equal(t, "shipped", w.facts[1].Status)
		assert.Equal(t, int64(2), w.facts[1].LoadID)
		// both versions reuse the same surrogate keys
		assert.Equal(t, w.facts[0].CustomerKey, w.facts[1].CustomerKey)
	})

	t.Run("quantity drift without status change appends nothing", func(t *testing.T) {
		w := newFakeWarehouse()
		extractor := &fakeExtractor{rows: []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "new"),
		}}
		orchestrator := newTestOrchestrator(extractor, w, nil)

		_, err := orchestrator.Run(ctx)
		require.NoError(t, err)

		extractor.rows = []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 9, 180, "new"),
		}
		result, err := orchestrator.Run(ctx)
		require.NoError(t, err)

		assert.Zero(t, result.FactsAppended)
		assert.Len(t, w.facts, 1)
	})

	t.Run("malformed rows are skipped and counted", func(t *testing.T) {
		w := newFakeWarehouse()
		extractor := &fakeExtractor{rows: []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "new"),
			{OrderID: 2, CustomerName: "", ManagerName: "Bob", ProductName: "Widget", Quantity: 1, Status: "new"},
			{OrderID: 3, CustomerName: "Carol", ManagerName: "Bob", ProductName: "Widget", Quantity: 0, Status: "new"},
		}}

		result, err := newTestOrchestrator(extractor, w, nil).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, result.RowsExtracted)
		assert.Equal(t, 2, result.RowsSkipped)
		assert.Equal(t, 1, result.FactsAppended)
	})

	t.Run("reconciliation removes exact duplicates keeping the lowest id", func(t *testing.T) {
		w := newFakeWarehouse()
		w.facts = []models.FactSale{
			{SaleID: 1, OrderID: 1, CustomerKey: 1, ManagerKey: 2, ProductKey: 3, Quantity: 2, TotalPrice: 40, Status: "new", LoadID: 1},
			{SaleID: 2, OrderID: 1, CustomerKey: 1, ManagerKey: 2, ProductKey: 3, Quantity: 2, TotalPrice: 40, Status: "new", LoadID: 1},
			{SaleID: 3, OrderID: 1, CustomerKey: 1, ManagerKey: 2, ProductKey: 3, Quantity: 2, TotalPrice: 40, Status: "shipped", LoadID: 2},
		}
		w.nextID = 4
		w.dims[models.DimensionCustomer]["Alice"] = 1
		w.dims[models.DimensionManager]["Bob"] = 2
		w.dims[models.DimensionProduct]["Widget"] = 3

		extractor := &fakeExtractor{rows: []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "shipped"),
		}}

		result, err := newTestOrchestrator(extractor, w, nil).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1), result.DuplicatesRemoved)
		require.Len(t, w.facts, 2)
		// the lowest sale_id survives; the distinct status version is untouched
		assert.Equal(t, int64(1), w.facts[0].SaleID)
		assert.Equal(t, "shipped", w.facts[1].Status)
	})

	t.Run("empty source completes with zero counts", func(t *testing.T) {
		w := newFakeWarehouse()
		emitter := &recordingEmitter{}

		result, err := newTestOrchestrator(&fakeExtractor{}, w, emitter).Run(ctx)
		require.NoError(t, err)

		assert.Equal(t, PhaseComplete.String(), result.Phase)
		assert.Equal(t, int64(1), result.LoadID)
		assert.Zero(t, result.RowsExtracted)
		assert.Len(t, emitter.completed, 1)
	})

	t.Run("source failure aborts before any warehouse mutation", func(t *testing.T) {
		w := newFakeWarehouse()
		emitter := &recordingEmitter{}
		extractor := &fakeExtractor{err: errors.New("connection refused")}

		result, err := newTestOrchestrator(extractor, w, emitter).Run(ctx)
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.Equal(t, PhaseAborted.String(), result.Phase)
		assert.Empty(t, w.facts)
		assert.Empty(t, emitter.completed)
		require.Len(t, emitter.aborted, 1)
		assert.Equal(t, PhaseExtracting.String(), emitter.aborted[0])
	})

	t.Run("warehouse failure during dimension resolution aborts", func(t *testing.T) {
		w := newFakeWarehouse()
		w.dimInsertErr = errors.New("connection refused")
		emitter := &recordingEmitter{}
		extractor := &fakeExtractor{rows: []models.ExtractedOrder{
			row(1, "Alice", "Bob", "Widget", 2, 40, "new"),
		}}

		result, err := newTestOrchestrator(extractor, w, emitter).Run(ctx)
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrWarehouseUnavailable)
		assert.Equal(t, PhaseAborted.String(), result.Phase)
		assert.Empty(t, w.facts)
		require.Len(t, emitter.aborted, 1)
		assert.Equal(t, PhaseResolvingDimensions.String(), emitter.aborted[0])
	})

	t.Run("epoch computation failure aborts as warehouse unavailable", func(t *testing.T) {
		w := newFakeWarehouse()
		w.nextLoadIDErr = errors.New("connection refused")

		result, err := newTestOrchestrator(&fakeExtractor{}, w, nil).Run(ctx)
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrWarehouseUnavailable)
		assert.Equal(t, PhaseAborted.String(), result.Phase)
	})
}

func TestValidateRow(t *testing.T) {
	valid := row(1, "Alice", "Bob", "Widget", 2, 40, "new")
	assert.NoError(t, validateRow(valid))

	cases := map[string]func(*models.ExtractedOrder){
		"missing customer name": func(r *models.ExtractedOrder) { r.CustomerName = "" },
		"missing manager name":  func(r *models.ExtractedOrder) { r.ManagerName = "" },
		"missing product name":  func(r *models.ExtractedOrder) { r.ProductName = "" },
		"missing status":        func(r *models.ExtractedOrder) { r.Status = "" },
		"zero quantity":         func(r *models.ExtractedOrder) { r.Quantity = 0 },
		"negative quantity":     func(r *models.ExtractedOrder) { r.Quantity = -1 },
		"negative unit price":   func(r *models.ExtractedOrder) { r.UnitPrice = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			assert.Error(t, validateRow(r))
		})
	}
}
