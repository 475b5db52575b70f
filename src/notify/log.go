// Package notify provides report.Delegate implementations that carry reporter
// notifications to logs, storage, the broker and metrics.
package notify

import (
	"xcreport/src/logger"
	"xcreport/src/report"
)

// LogDelegate logs every reporter notification.
type LogDelegate struct {
	log   logger.Logger
	runID string
}

// NewLogDelegate logs notifications of runID to log.
func NewLogDelegate(log logger.Logger, runID string) *LogDelegate {
	return &LogDelegate{log: log, runID: runID}
}

func (d *LogDelegate) BuildStarted(b *report.Build) {
	d.log.Info("[Reporter] %s: build of %s (%s, %s) started", d.runID, b.Target, b.ProjectName, b.Configuration)
}

func (d *LogDelegate) BuildFinished(b *report.Build) {
	d.log.Info("[Reporter] %s: build %s: %d actions, %d failed, %d errors, %d warnings",
		d.runID, b.Status, len(b.ActionsCompleted()), len(b.FailedActions()), b.ErrorCount(), b.WarningCount())
}

func (d *LogDelegate) BuildActionStarted(a *report.BuildAction) {
	d.log.Debug("[Reporter] %s: started %s", d.runID, a)
}

func (d *LogDelegate) BuildActionFinished(a *report.BuildAction) {
	if a.Failed() {
		d.log.Info("[Reporter] %s: %s finished with %d errors, %d warnings", d.runID, a.Type, len(a.Errors()), len(a.Warnings()))
		return
	}
	d.log.Debug("[Reporter] %s: finished %s", d.runID, a.Type)
}

func (d *LogDelegate) EnvVariableDetected(name, value string) {
	d.log.Debug("[Reporter] %s: setenv %s=%s", d.runID, name, value)
}

func (d *LogDelegate) BuildActionFailed(a *report.BuildAction) {
	d.log.Error("[Reporter] %s: %s reported as failed", d.runID, a)
}
