package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"xcreport/src/report"
)

// BuildStartedMsg carries a snapshot of the build right after its start banner.
type BuildStartedMsg struct{ Build *report.Build }

// BuildFinishedMsg carries a snapshot of the finished build.
type BuildFinishedMsg struct{ Build *report.Build }

// ActionStartedMsg reports a newly opened action.
type ActionStartedMsg struct{ Action *report.BuildAction }

// ActionFinishedMsg reports a closed action with its diagnostics.
type ActionFinishedMsg struct{ Action *report.BuildAction }

// ActionFailedMsg reports an action flagged as failed after the fact.
type ActionFailedMsg struct{ Action *report.BuildAction }

// EnvVarMsg reports a setenv line.
type EnvVarMsg struct{ Name, Value string }

// LogDoneMsg is sent once the whole log has been read.
type LogDoneMsg struct {
	Lines int
	Err   error
}

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramDelegate forwards reporter notifications to a Bubble Tea program. Builds
// and actions are cloned before they cross to the UI goroutine.
type ProgramDelegate struct {
	to Sender
}

// NewProgramDelegate returns a delegate sending to s.
func NewProgramDelegate(s Sender) *ProgramDelegate {
	return &ProgramDelegate{to: s}
}

func (d *ProgramDelegate) BuildStarted(b *report.Build) {
	d.to.Send(BuildStartedMsg{Build: b.Clone()})
}

func (d *ProgramDelegate) BuildFinished(b *report.Build) {
	d.to.Send(BuildFinishedMsg{Build: b.Clone()})
}

func (d *ProgramDelegate) BuildActionStarted(a *report.BuildAction) {
	d.to.Send(ActionStartedMsg{Action: a.Clone()})
}

func (d *ProgramDelegate) BuildActionFinished(a *report.BuildAction) {
	d.to.Send(ActionFinishedMsg{Action: a.Clone()})
}

func (d *ProgramDelegate) BuildActionFailed(a *report.BuildAction) {
	d.to.Send(ActionFailedMsg{Action: a.Clone()})
}

func (d *ProgramDelegate) EnvVariableDetected(name, value string) {
	d.to.Send(EnvVarMsg{Name: name, Value: value})
}
