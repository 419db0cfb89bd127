// Package load sequences extraction, dimension resolution, fact versioning
// and reconciliation into one warehouse load cycle.
package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/etl/dimension"
	"github.com/Ramsey-B/aster/pkg/etl/fact"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Extractor produces the denormalized row set from the transactional store.
type Extractor interface {
	Extract(ctx context.Context) ([]models.ExtractedOrder, error)
}

// Emitter publishes load cycle lifecycle events. Implementations must not
// fail the cycle; errors are logged by the emitter itself.
type Emitter interface {
	LoadCompleted(ctx context.Context, result *models.LoadResult)
	LoadAborted(ctx context.Context, phase string, cause error)
}

// Orchestrator runs one load cycle at a time. Concurrent runs against the
// same warehouse are not safe; callers serialize through Service.
type Orchestrator struct {
	extractor    Extractor
	dimensions   dimension.TxStore
	facts        fact.TxStore
	emitter      Emitter
	logger       ectologger.Logger
	queryTimeout time.Duration
}

func NewOrchestrator(
	extractor Extractor,
	dimensions dimension.TxStore,
	facts fact.TxStore,
	emitter Emitter,
	logger ectologger.Logger,
	queryTimeout time.Duration,
) *Orchestrator {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &Orchestrator{
		extractor:    extractor,
		dimensions:   dimensions,
		facts:        facts,
		emitter:      emitter,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// Run executes one full load cycle and returns its summary. Re-running
// against unchanged source data appends no dimension and no fact rows.
func (o *Orchestrator) Run(ctx context.Context) (*models.LoadResult, error) {
	ctx, span := tracing.StartSpan(ctx, "load.Orchestrator.Run")
	defer span.End()

	phase := PhaseIdle
	result := &models.LoadResult{StartedAt: time.Now().UTC()}

	abort := func(err error) (*models.LoadResult, error) {
		result.Phase = PhaseAborted.String()
		result.CompletedAt = time.Now().UTC()
		o.logger.WithContext(ctx).WithError(err).WithField("phase", phase.String()).Error("load cycle aborted")
		if o.emitter != nil {
			o.emitter.LoadAborted(ctx, phase.String(), err)
		}
		return result, err
	}

	loadID, err := o.nextLoadID(ctx)
	if err != nil {
		return abort(err)
	}
	result.LoadID = loadID

	log := o.logger.WithContext(ctx).WithField("load_id", loadID)
	log.Info("starting load cycle")

	phase = PhaseExtracting
	rows, err := o.extract(ctx)
	if err != nil {
		return abort(err)
	}
	result.RowsExtracted = len(rows)

	valid := make([]models.ExtractedOrder, 0, len(rows))
	for _, row := range rows {
		if err := validateRow(row); err != nil {
			result.RowsSkipped++
			log.WithError(err).WithField("order_id", row.OrderID).Warn("skipping malformed row")
			continue
		}
		valid = append(valid, row)
	}

	phase = PhaseResolvingDimensions
	keys, created, err := o.resolveDimensions(ctx, loadID, valid)
	if err != nil {
		return abort(fmt.Errorf("%w: %s", ErrWarehouseUnavailable, err))
	}
	result.DimensionsCreated = created

	phase = PhaseVersioningFacts
	appended, err := o.versionFacts(ctx, loadID, valid, keys)
	result.FactsAppended = appended
	if err != nil {
		return abort(fmt.Errorf("%w: %s", ErrWarehouseUnavailable, err))
	}

	phase = PhaseReconciling
	removed, err := o.reconcile(ctx)
	if err != nil {
		return abort(fmt.Errorf("%w: %s", ErrWarehouseUnavailable, err))
	}
	result.DuplicatesRemoved = removed

	phase = PhaseComplete
	result.Phase = phase.String()
	result.CompletedAt = time.Now().UTC()

	log.WithFields(map[string]any{
		"rows_extracted":     result.RowsExtracted,
		"rows_skipped":       result.RowsSkipped,
		"dimensions_created": result.DimensionsCreated,
		"facts_appended":     result.FactsAppended,
		"duplicates_removed": result.DuplicatesRemoved,
	}).Info("load cycle complete")

	if o.emitter != nil {
		o.emitter.LoadCompleted(ctx, result)
	}

	return result, nil
}

func (o *Orchestrator) nextLoadID(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, o.queryTimeout)
	defer cancel()

	loadID, err := o.facts.NextLoadID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrWarehouseUnavailable, err)
	}
	return loadID, nil
}

func (o *Orchestrator) extract(ctx context.Context) ([]models.ExtractedOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, o.queryTimeout)
	defer cancel()

	rows, err := o.extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, err)
	}
	return rows, nil
}

// resolveDimensions runs the full dimension phase in one transaction,
// committed before fact versioning begins so every surrogate key referenced
// by the fact phase is durable.
func (o *Orchestrator) resolveDimensions(ctx context.Context, loadID int64, rows []models.ExtractedOrder) ([]models.DimensionKeys, int, error) {
	ctx, cancel := context.WithTimeout(ctx, o.queryTimeout)
	defer cancel()

	keys := make([]models.DimensionKeys, len(rows))
	created := 0

	err := o.dimensions.InTx(ctx, func(s dimension.Store) error {
		resolver := dimension.NewResolver(s, o.logger, loadID)
		if err := resolver.Seed(ctx); err != nil {
			return err
		}

		for i, row := range rows {
			k, err := resolver.ResolveOrder(ctx, row)
			if err != nil {
				return err
			}
			keys[i] = k
		}

		created = resolver.Created()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return keys, created, nil
}

func (o *Orchestrator) versionFacts(ctx context.Context, loadID int64, rows []models.ExtractedOrder, keys []models.DimensionKeys) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, o.queryTimeout)
	defer cancel()

	appended := 0
	err := o.facts.InTx(ctx, func(s fact.Store) error {
		versioner := fact.NewVersioner(s, o.logger, loadID)
		for i, row := range rows {
			if _, err := versioner.Apply(ctx, row, keys[i]); err != nil {
				return err
			}
		}
		appended = versioner.Appended()
		return nil
	})

	return appended, err
}

func (o *Orchestrator) reconcile(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, o.queryTimeout)
	defer cancel()

	return o.facts.DeleteExactDuplicates(ctx)
}

// validateRow rejects rows that cannot be loaded: missing natural keys or
// unusable measures. Such rows are skipped and counted, never fatal.
func validateRow(row models.ExtractedOrder) error {
	switch {
	case row.CustomerName == "":
		return errors.New("missing customer name")
	case row.ManagerName == "":
		return errors.New("missing manager name")
	case row.ProductName == "":
		return errors.New("missing product name")
	case row.Status == "":
		return errors.New("missing status")
	case row.Quantity <= 0:
		return errors.New("non-positive quantity")
	case row.UnitPrice < 0:
		return errors.New("negative unit price")
	}
	return nil
}
