package store

import (
	"context"
	"fmt"
	"sync"

	"xcreport/src/contracts"
)

// InMemoryStore is a thread-safe in-memory implementation of Store.
// Used for local mode and the MCP server.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string]contracts.BuildReport
	order   []string // run IDs, oldest save first
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[string]contracts.BuildReport),
	}
}

// SaveReport stores a copy of report. Saving a run again moves it to the front of
// ListReports.
func (s *InMemoryStore) SaveReport(ctx context.Context, report contracts.BuildReport) error {
	if report.RunID == "" {
		return fmt.Errorf("report has no run ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.RunID]; exists {
		for i, id := range s.order {
			if id == report.RunID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.reports[report.RunID] = copyReport(report)
	s.order = append(s.order, report.RunID)
	return nil
}

// GetReport retrieves the report of a run.
func (s *InMemoryStore) GetReport(ctx context.Context, runID string) (*contracts.BuildReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[runID]
	if !ok {
		return nil, ErrNotFound{RunID: runID}
	}
	out := copyReport(report)
	return &out, nil
}

// ListReports returns reports newest first.
func (s *InMemoryStore) ListReports(ctx context.Context, limit int) ([]contracts.BuildReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]contracts.BuildReport, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, copyReport(s.reports[s.order[i]]))
	}
	return out, nil
}

// Close is a no-op for in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// copyReport copies the slices callers could otherwise mutate.
func copyReport(r contracts.BuildReport) contracts.BuildReport {
	if r.Actions == nil {
		return r
	}
	actions := make([]contracts.ActionReport, len(r.Actions))
	for i, a := range r.Actions {
		a.Arguments = cloneSlice(a.Arguments)
		a.Diagnostics = cloneSlice(a.Diagnostics)
		actions[i] = a
	}
	r.Actions = actions
	return r
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
