package report

import (
	"strings"
	"time"

	"xcreport/src/contracts"
)

// Reporter applies events, in arrival order, to a single Build.
//
// Events that arrive before BuildStarted or after the build reached a terminal status
// are ignored. A Reporter is not safe for concurrent use.
type Reporter struct {
	build    *Build
	delegate FullDelegate
	now      func() time.Time
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithClock sets the clock used to stamp the finish time.
func WithClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReporter returns a Reporter notifying d. Pass NopDelegate{} when nothing listens;
// a nil d panics.
func NewReporter(d Delegate, opts ...ReporterOption) *Reporter {
	if d == nil {
		panic("report: NewReporter called with a nil Delegate; use NopDelegate{}")
	}
	r := &Reporter{
		build:    &Build{},
		delegate: Adapt(d),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build returns the reporter's build. Callers must treat it as read-only; use Clone to
// keep a snapshot.
func (r *Reporter) Build() *Build {
	return r.build
}

// Apply dispatches ev to the matching handler.
func (r *Reporter) Apply(ev contracts.Event) {
	switch e := ev.(type) {
	case contracts.BuildStarted:
		r.BuildStarted(e)
	case contracts.BuildActionStarted:
		r.BuildActionStarted(e)
	case contracts.DiagnosticDetected:
		r.DiagnosticDetected(e)
	case contracts.EnvVarDetected:
		r.EnvVarDetected(e)
	case contracts.CommandFailed:
		r.CommandFailed(e)
	case contracts.BuildActionStepFailed:
		r.BuildActionStepFailed(e)
	case contracts.BuildActionFailed:
		r.BuildActionFailed(e)
	case contracts.BuildSucceeded:
		r.BuildSucceeded(e)
	case contracts.BuildFailed:
		r.BuildFailed(e)
	}
}

// BuildStarted initializes the build. Only the first one is honored.
func (r *Reporter) BuildStarted(ev contracts.BuildStarted) {
	if r.build.Status != StatusNotStarted {
		return
	}
	r.build.Target = ev.Target
	r.build.ProjectName = ev.Project
	r.build.Configuration = ev.Configuration
	r.build.DefaultConfiguration = ev.IsDefault
	r.build.Status = StatusRunning
	r.delegate.BuildStarted(r.build)
}

// BuildActionStarted closes the open action, if any, and opens a new one.
func (r *Reporter) BuildActionStarted(ev contracts.BuildActionStarted) {
	if !r.build.IsRunning() {
		return
	}
	r.closeOpenAction()

	action := &BuildAction{
		Type:      ev.Type,
		Arguments: cloneStrings(ev.Arguments),
		Open:      true,
	}
	r.build.Actions = append(r.build.Actions, action)
	r.delegate.BuildActionStarted(action)
}

// DiagnosticDetected attaches a compiler diagnostic to the open action.
func (r *Reporter) DiagnosticDetected(ev contracts.DiagnosticDetected) {
	r.attach(Diagnostic{
		Kind:     DiagnosticCompiler,
		Severity: ev.Severity,
		File:     ev.File,
		Line:     ev.Line,
		Char:     ev.Column,
		Message:  ev.Message,
	})
}

// EnvVarDetected forwards the variable to the delegate. The build is not modified.
func (r *Reporter) EnvVarDetected(ev contracts.EnvVarDetected) {
	if !r.build.IsRunning() {
		return
	}
	r.delegate.EnvVariableDetected(ev.Name, ev.Value)
}

// CommandFailed records the failed command as an error on the open action.
func (r *Reporter) CommandFailed(ev contracts.CommandFailed) {
	r.attach(Diagnostic{
		Kind:     DiagnosticCommand,
		Severity: contracts.SeverityError,
		Message:  "command failed: " + ev.Command,
		Command:  ev.Command,
		ExitCode: ev.ExitCode,
	})
}

// BuildActionStepFailed records an entry of the failed commands report as an error on
// the open action.
func (r *Reporter) BuildActionStepFailed(ev contracts.BuildActionStepFailed) {
	parts := append([]string{ev.Type}, ev.Arguments...)
	r.attach(Diagnostic{
		Kind:          DiagnosticStep,
		Severity:      contracts.SeverityError,
		Message:       strings.Join(parts, " "),
		StepType:      ev.Type,
		StepArguments: cloneStrings(ev.Arguments),
	})
}

// BuildActionFailed flags the most recent action with the same type and arguments.
// It adds no diagnostic and does not close the action.
func (r *Reporter) BuildActionFailed(ev contracts.BuildActionFailed) {
	if !r.build.IsRunning() {
		return
	}
	for i := len(r.build.Actions) - 1; i >= 0; i-- {
		action := r.build.Actions[i]
		if action.matches(ev.Type, ev.Arguments) {
			action.FailureReported = true
			r.delegate.BuildActionFailed(action)
			return
		}
	}
}

// BuildSucceeded finishes the build successfully.
func (r *Reporter) BuildSucceeded(ev contracts.BuildSucceeded) {
	r.finish(StatusSucceeded, ev.Mode)
}

// BuildFailed finishes the build as failed.
func (r *Reporter) BuildFailed(ev contracts.BuildFailed) {
	r.finish(StatusFailed, ev.Mode)
}

func (r *Reporter) finish(status Status, mode string) {
	if !r.build.IsRunning() {
		return
	}
	r.closeOpenAction()
	r.build.Mode = mode
	r.build.Status = status
	r.build.FinishedAt = r.now().UTC()
	r.delegate.BuildFinished(r.build)
}

// attach appends d to the open action. Diagnostics with no open action are dropped.
func (r *Reporter) attach(d Diagnostic) {
	if !r.build.IsRunning() {
		return
	}
	action := r.build.OpenAction()
	if action == nil {
		return
	}
	action.Diagnostics = append(action.Diagnostics, d)
}

func (r *Reporter) closeOpenAction() {
	action := r.build.OpenAction()
	if action == nil {
		return
	}
	action.Open = false
	r.delegate.BuildActionFinished(action)
}
