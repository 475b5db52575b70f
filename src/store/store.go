// Package store defines the interface for persistent report storage.
package store

import (
	"context"
	"fmt"

	"xcreport/src/contracts"
)

// Store persists build reports keyed by run ID.
type Store interface {
	// SaveReport inserts or replaces the report of report.RunID.
	SaveReport(ctx context.Context, report contracts.BuildReport) error

	// GetReport returns the report of a run, or ErrNotFound.
	GetReport(ctx context.Context, runID string) (*contracts.BuildReport, error)

	// ListReports returns the most recently saved reports first. limit <= 0 means all.
	ListReports(ctx context.Context, limit int) ([]contracts.BuildReport, error)

	// Close closes the store connection
	Close() error
}

// ErrNotFound is returned when no report exists for a run.
type ErrNotFound struct {
	RunID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("report not found: %s", e.RunID)
}
