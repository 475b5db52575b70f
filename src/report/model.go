// Package report folds translated events into a Build and notifies a delegate of every
// lifecycle transition.
package report

import (
	"fmt"
	"strings"
	"time"

	"xcreport/src/contracts"
)

// Status of a build run.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "not_started":
		*s = StatusNotStarted
	case "running":
		*s = StatusRunning
	case "succeeded":
		*s = StatusSucceeded
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown build status %q", text)
	}
	return nil
}

// IsTerminal reports whether s is Succeeded or Failed.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// DiagnosticKind says which console construct produced a diagnostic.
type DiagnosticKind string

const (
	// DiagnosticCompiler is a file:line:col diagnostic.
	DiagnosticCompiler DiagnosticKind = "compiler"
	// DiagnosticCommand is a "Command ... failed with exit code N" line.
	DiagnosticCommand DiagnosticKind = "command"
	// DiagnosticStep is an entry of the failed build commands report.
	DiagnosticStep DiagnosticKind = "step"
)

// Diagnostic is an error or warning attributed to the action open when it was seen.
type Diagnostic struct {
	Kind     DiagnosticKind
	Severity contracts.Severity
	File     string
	Line     uint
	Char     uint
	Message  string

	// Command and ExitCode are set for DiagnosticCommand.
	Command  string
	ExitCode uint

	// StepType and StepArguments are set for DiagnosticStep.
	StepType      string
	StepArguments []string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagnosticCommand:
		return fmt.Sprintf("%s: command %s failed with exit code %d", d.Severity, d.Command, d.ExitCode)
	case DiagnosticStep:
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	default:
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Char, d.Severity, d.Message)
	}
}

// BuildAction is one unit of work reported by the build tool (CompileC, Ld, CpResource...).
type BuildAction struct {
	Type        string
	Arguments   []string
	Diagnostics []Diagnostic
	// Open is true between the action's start and the event that closes it.
	Open bool
	// FailureReported is set by a BuildActionFailed event naming this action.
	FailureReported bool
}

// Failed reports whether any diagnostic was attached to the action.
func (a *BuildAction) Failed() bool {
	return len(a.Diagnostics) > 0
}

// Errors returns the error-severity diagnostics.
func (a *BuildAction) Errors() []Diagnostic {
	return a.filter(contracts.SeverityError)
}

// Warnings returns the warning-severity diagnostics.
func (a *BuildAction) Warnings() []Diagnostic {
	return a.filter(contracts.SeverityWarning)
}

func (a *BuildAction) filter(sev contracts.Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range a.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

func (a *BuildAction) String() string {
	if len(a.Arguments) == 0 {
		return a.Type
	}
	return a.Type + " " + strings.Join(a.Arguments, " ")
}

func (a *BuildAction) matches(typ string, args []string) bool {
	if a.Type != typ || len(a.Arguments) != len(args) {
		return false
	}
	for i := range args {
		if a.Arguments[i] != args[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of a.
func (a *BuildAction) Clone() *BuildAction {
	c := *a
	c.Arguments = cloneStrings(a.Arguments)
	if a.Diagnostics != nil {
		c.Diagnostics = make([]Diagnostic, len(a.Diagnostics))
		for i, d := range a.Diagnostics {
			d.StepArguments = cloneStrings(d.StepArguments)
			c.Diagnostics[i] = d
		}
	}
	return &c
}

// Build is one run of the build tool from its start banner to its result banner.
type Build struct {
	Target               string
	ProjectName          string
	Configuration        string
	DefaultConfiguration bool
	// Mode is "BUILD" or "ARCHIVE", taken from the result banner.
	Mode    string
	Status  Status
	Actions []*BuildAction
	// FinishedAt is when the terminal event was applied; zero while running.
	FinishedAt time.Time
}

func (b *Build) IsRunning() bool    { return b.Status == StatusRunning }
func (b *Build) IsFinished() bool   { return b.Status.IsTerminal() }
func (b *Build) IsSuccessful() bool { return b.Status == StatusSucceeded }
func (b *Build) IsFailed() bool     { return b.Status == StatusFailed }

// FailedActions returns the actions with at least one diagnostic, in order.
func (b *Build) FailedActions() []*BuildAction {
	var out []*BuildAction
	for _, a := range b.Actions {
		if a.Failed() {
			out = append(out, a)
		}
	}
	return out
}

// ActionsCompleted returns the closed actions, in order.
func (b *Build) ActionsCompleted() []*BuildAction {
	var out []*BuildAction
	for _, a := range b.Actions {
		if !a.Open {
			out = append(out, a)
		}
	}
	return out
}

// OpenAction returns the action currently open, or nil.
func (b *Build) OpenAction() *BuildAction {
	if a := b.LastAction(); a != nil && a.Open {
		return a
	}
	return nil
}

// LastAction returns the most recently started action, or nil.
func (b *Build) LastAction() *BuildAction {
	if len(b.Actions) == 0 {
		return nil
	}
	return b.Actions[len(b.Actions)-1]
}

// ErrorCount counts error diagnostics across all actions.
func (b *Build) ErrorCount() int {
	n := 0
	for _, a := range b.Actions {
		n += len(a.Errors())
	}
	return n
}

// WarningCount counts warning diagnostics across all actions.
func (b *Build) WarningCount() int {
	n := 0
	for _, a := range b.Actions {
		n += len(a.Warnings())
	}
	return n
}

// Clone returns a deep copy that shares no memory with b.
func (b *Build) Clone() *Build {
	c := *b
	if b.Actions != nil {
		c.Actions = make([]*BuildAction, len(b.Actions))
		for i, a := range b.Actions {
			c.Actions[i] = a.Clone()
		}
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
