package models

import "time"

// LoadResult summarizes one load cycle.
type LoadResult struct {
	LoadID            int64     `json:"load_id"`
	Phase             string    `json:"phase"`
	RowsExtracted     int       `json:"rows_extracted"`
	RowsSkipped       int       `json:"rows_skipped"`
	DimensionsCreated int       `json:"dimensions_created"`
	FactsAppended     int       `json:"facts_appended"`
	DuplicatesRemoved int64     `json:"duplicates_removed"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
}
