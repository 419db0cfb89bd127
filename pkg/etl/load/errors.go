package load

import "errors"

var (
	// ErrSourceUnavailable is returned when the transactional database cannot
	// be reached or the extract query fails. The cycle aborts before any
	// warehouse mutation.
	ErrSourceUnavailable = errors.New("source database unavailable")

	// ErrWarehouseUnavailable is returned when the warehouse fails during any
	// phase. Phases committed before the failure remain.
	ErrWarehouseUnavailable = errors.New("warehouse database unavailable")

	// ErrLoadInProgress is returned when another load cycle holds the lock.
	ErrLoadInProgress = errors.New("load cycle already in progress")
)
