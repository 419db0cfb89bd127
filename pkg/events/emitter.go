// Package events handles event emission for load cycle outcomes.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/kafka"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Emitter publishes load lifecycle events to Kafka. Emission is best-effort:
// a publish failure is logged and never fails the cycle that produced it.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// LoadCompleted emits a load.completed event
func (e *Emitter) LoadCompleted(ctx context.Context, result *models.LoadResult) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.LoadCompleted")
	defer span.End()

	event := &kafka.LoadEvent{
		EventType:         "load.completed",
		LoadID:            result.LoadID,
		Phase:             result.Phase,
		RowsExtracted:     result.RowsExtracted,
		RowsSkipped:       result.RowsSkipped,
		DimensionsCreated: result.DimensionsCreated,
		FactsAppended:     result.FactsAppended,
		DuplicatesRemoved: result.DuplicatesRemoved,
	}

	if err := e.producer.PublishLoadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit load.completed event")
	}
}

// LoadAborted emits a load.aborted event
func (e *Emitter) LoadAborted(ctx context.Context, phase string, cause error) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.LoadAborted")
	defer span.End()

	event := &kafka.LoadEvent{
		EventType: "load.aborted",
		Phase:     phase,
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	if err := e.producer.PublishLoadEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit load.aborted event")
	}
}
