package notify

import (
	"xcreport/src/metrics"
	"xcreport/src/report"
)

// MetricsDelegate counts build outcomes, completed actions and their diagnostics.
// Diagnostics are counted when their action closes, since closed actions never change.
type MetricsDelegate struct {
	rec metrics.Recorder
}

// NewMetricsDelegate records on rec. A nil rec records nothing.
func NewMetricsDelegate(rec metrics.Recorder) *MetricsDelegate {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &MetricsDelegate{rec: rec}
}

func (d *MetricsDelegate) BuildStarted(*report.Build) {}

func (d *MetricsDelegate) BuildFinished(b *report.Build) {
	d.rec.IncBuildOutcome(b.Status.String())
}

func (d *MetricsDelegate) BuildActionFinished(a *report.BuildAction) {
	d.rec.IncActionsCompleted()
	for _, diag := range a.Diagnostics {
		d.rec.IncDiagnostic(string(diag.Severity))
	}
}
