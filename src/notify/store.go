package notify

import (
	"context"
	"fmt"
	"sync"

	"xcreport/src/logger"
	"xcreport/src/report"
	"xcreport/src/store"
)

// StoreDelegate saves the report of a run when its build finishes.
type StoreDelegate struct {
	ctx    context.Context
	store  store.Store
	runID  string
	source string
	log    logger.Logger

	mu  sync.Mutex
	err error
}

// NewStoreDelegate saves the report of runID to st. ctx bounds the save.
func NewStoreDelegate(ctx context.Context, st store.Store, runID, source string, log logger.Logger) *StoreDelegate {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &StoreDelegate{ctx: ctx, store: st, runID: runID, source: source, log: log}
}

func (d *StoreDelegate) BuildStarted(*report.Build) {}

func (d *StoreDelegate) BuildFinished(b *report.Build) {
	if err := d.store.SaveReport(d.ctx, b.Report(d.runID, d.source)); err != nil {
		d.log.Error("[StoreDelegate] failed to save report %s: %v", d.runID, err)
		d.mu.Lock()
		d.err = fmt.Errorf("save report %s: %w", d.runID, err)
		d.mu.Unlock()
		return
	}
	d.log.Debug("[StoreDelegate] saved report %s", d.runID)
}

// Err returns the error of the last failed save, if any.
func (d *StoreDelegate) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
