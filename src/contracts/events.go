// Package contracts defines the events and messages exchanged between xcreport components.
//
// Events are produced by the translator (one per recognized console line) and consumed by
// the build reporter. Messages wrap events and reports for transport over a broker.
package contracts

import (
	"errors"
	"fmt"
)

// EventKind names an event for logging, metrics labels and broker envelopes.
type EventKind string

const (
	KindBuildStarted          EventKind = "build_started"
	KindBuildActionStarted    EventKind = "build_action_started"
	KindDiagnosticDetected    EventKind = "diagnostic_detected"
	KindEnvVarDetected        EventKind = "env_var_detected"
	KindCommandFailed         EventKind = "command_failed"
	KindBuildActionStepFailed EventKind = "build_action_step_failed"
	KindBuildActionFailed     EventKind = "build_action_failed"
	KindBuildSucceeded        EventKind = "build_succeeded"
	KindBuildFailed           EventKind = "build_failed"
)

// ErrUnknownEvent is returned when an envelope names a kind this package does not know.
var ErrUnknownEvent = errors.New("unknown event kind")

// Severity of a compiler diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Event is one classified console line. The set of implementations is closed.
type Event interface {
	Kind() EventKind
	event()
}

// BuildStarted is emitted for the "=== BUILD ... ===" banner.
type BuildStarted struct {
	Target        string `json:"target"`
	Project       string `json:"project"`
	Configuration string `json:"configuration"`
	// IsDefault is set when the banner read "DEFAULT CONFIGURATION (<name>)".
	IsDefault bool `json:"is_default"`
}

// BuildActionStarted is emitted for the first non-blank line after a blank line.
type BuildActionStarted struct {
	Type      string   `json:"type"`
	Arguments []string `json:"arguments"`
}

// DiagnosticDetected is a column diagnostic: file:line:col: error|warning: message.
type DiagnosticDetected struct {
	Severity Severity `json:"severity"`
	File     string   `json:"file"`
	Line     uint     `json:"line"`
	Column   uint     `json:"column"`
	Message  string   `json:"message"`
}

// EnvVarDetected is a "setenv NAME VALUE" line from a build step's environment dump.
type EnvVarDetected struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CommandFailed is a "Command <path> failed with exit code <N>" line.
type CommandFailed struct {
	Command  string `json:"command"`
	ExitCode uint   `json:"exit_code"`
}

// BuildActionStepFailed is one entry of the "The following build commands failed:" report.
type BuildActionStepFailed struct {
	Type      string   `json:"type"`
	Arguments []string `json:"arguments"`
}

// BuildActionFailed marks a previously started action as failed. The translator never
// emits it; callers that synthesize events may.
type BuildActionFailed struct {
	Type      string   `json:"type"`
	Arguments []string `json:"arguments"`
}

// BuildSucceeded is emitted for "** BUILD SUCCEEDED **" or "** ARCHIVE SUCCEEDED **".
type BuildSucceeded struct {
	// Mode is "BUILD" or "ARCHIVE".
	Mode string `json:"mode,omitempty"`
}

// BuildFailed is emitted for any other "** BUILD <RESULT> **" banner.
type BuildFailed struct {
	Mode string `json:"mode,omitempty"`
}

func (BuildStarted) Kind() EventKind          { return KindBuildStarted }
func (BuildActionStarted) Kind() EventKind    { return KindBuildActionStarted }
func (DiagnosticDetected) Kind() EventKind    { return KindDiagnosticDetected }
func (EnvVarDetected) Kind() EventKind        { return KindEnvVarDetected }
func (CommandFailed) Kind() EventKind         { return KindCommandFailed }
func (BuildActionStepFailed) Kind() EventKind { return KindBuildActionStepFailed }
func (BuildActionFailed) Kind() EventKind     { return KindBuildActionFailed }
func (BuildSucceeded) Kind() EventKind        { return KindBuildSucceeded }
func (BuildFailed) Kind() EventKind           { return KindBuildFailed }

func (BuildStarted) event()          {}
func (BuildActionStarted) event()    {}
func (DiagnosticDetected) event()    {}
func (EnvVarDetected) event()        {}
func (CommandFailed) event()         {}
func (BuildActionStepFailed) event() {}
func (BuildActionFailed) event()     {}
func (BuildSucceeded) event()        {}
func (BuildFailed) event()           {}

// EventEnvelope carries a single event over a broker. Exactly one payload field is set,
// matching Kind.
type EventEnvelope struct {
	RunID string    `json:"run_id"`
	Seq   int       `json:"seq"`
	Kind  EventKind `json:"kind"`

	BuildStarted          *BuildStarted          `json:"build_started,omitempty" msgpack:",omitempty"`
	BuildActionStarted    *BuildActionStarted    `json:"build_action_started,omitempty" msgpack:",omitempty"`
	DiagnosticDetected    *DiagnosticDetected    `json:"diagnostic_detected,omitempty" msgpack:",omitempty"`
	EnvVarDetected        *EnvVarDetected        `json:"env_var_detected,omitempty" msgpack:",omitempty"`
	CommandFailed         *CommandFailed         `json:"command_failed,omitempty" msgpack:",omitempty"`
	BuildActionStepFailed *BuildActionStepFailed `json:"build_action_step_failed,omitempty" msgpack:",omitempty"`
	BuildActionFailed     *BuildActionFailed     `json:"build_action_failed,omitempty" msgpack:",omitempty"`
	BuildSucceeded        *BuildSucceeded        `json:"build_succeeded,omitempty" msgpack:",omitempty"`
	BuildFailed           *BuildFailed           `json:"build_failed,omitempty" msgpack:",omitempty"`
}

// Wrap places ev into an envelope for the given run.
func Wrap(runID string, seq int, ev Event) EventEnvelope {
	env := EventEnvelope{RunID: runID, Seq: seq, Kind: ev.Kind()}
	switch e := ev.(type) {
	case BuildStarted:
		env.BuildStarted = &e
	case BuildActionStarted:
		env.BuildActionStarted = &e
	case DiagnosticDetected:
		env.DiagnosticDetected = &e
	case EnvVarDetected:
		env.EnvVarDetected = &e
	case CommandFailed:
		env.CommandFailed = &e
	case BuildActionStepFailed:
		env.BuildActionStepFailed = &e
	case BuildActionFailed:
		env.BuildActionFailed = &e
	case BuildSucceeded:
		env.BuildSucceeded = &e
	case BuildFailed:
		env.BuildFailed = &e
	}
	return env
}

// Event returns the payload matching Kind.
func (env EventEnvelope) Event() (Event, error) {
	var ev Event
	switch env.Kind {
	case KindBuildStarted:
		if env.BuildStarted != nil {
			ev = *env.BuildStarted
		}
	case KindBuildActionStarted:
		if env.BuildActionStarted != nil {
			ev = *env.BuildActionStarted
		}
	case KindDiagnosticDetected:
		if env.DiagnosticDetected != nil {
			ev = *env.DiagnosticDetected
		}
	case KindEnvVarDetected:
		if env.EnvVarDetected != nil {
			ev = *env.EnvVarDetected
		}
	case KindCommandFailed:
		if env.CommandFailed != nil {
			ev = *env.CommandFailed
		}
	case KindBuildActionStepFailed:
		if env.BuildActionStepFailed != nil {
			ev = *env.BuildActionStepFailed
		}
	case KindBuildActionFailed:
		if env.BuildActionFailed != nil {
			ev = *env.BuildActionFailed
		}
	case KindBuildSucceeded:
		if env.BuildSucceeded != nil {
			ev = *env.BuildSucceeded
		}
	case KindBuildFailed:
		if env.BuildFailed != nil {
			ev = *env.BuildFailed
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Kind)
	}
	if ev == nil {
		return nil, fmt.Errorf("envelope %s/%d: missing %s payload", env.RunID, env.Seq, env.Kind)
	}
	return ev, nil
}
