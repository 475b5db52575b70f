package notify

import "xcreport/src/report"

type multi []report.FullDelegate

// Multi forwards every notification to each delegate in order. Partial delegates are
// adapted, nil ones skipped.
func Multi(delegates ...report.Delegate) report.FullDelegate {
	m := make(multi, 0, len(delegates))
	for _, d := range delegates {
		if d != nil {
			m = append(m, report.Adapt(d))
		}
	}
	return m
}

func (m multi) BuildStarted(b *report.Build) {
	for _, d := range m {
		d.BuildStarted(b)
	}
}

func (m multi) BuildFinished(b *report.Build) {
	for _, d := range m {
		d.BuildFinished(b)
	}
}

func (m multi) BuildActionStarted(a *report.BuildAction) {
	for _, d := range m {
		d.BuildActionStarted(a)
	}
}

func (m multi) BuildActionFinished(a *report.BuildAction) {
	for _, d := range m {
		d.BuildActionFinished(a)
	}
}

func (m multi) EnvVariableDetected(name, value string) {
	for _, d := range m {
		d.EnvVariableDetected(name, value)
	}
}

func (m multi) BuildActionFailed(a *report.BuildAction) {
	for _, d := range m {
		d.BuildActionFailed(a)
	}
}
