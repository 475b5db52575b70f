// Package tui renders a live view of an xcodebuild log as it is translated.
//
// The reporter runs on its own goroutine and reaches the UI through ProgramDelegate;
// LiveModel only ever sees cloned snapshots.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"xcreport/src/contracts"
	"xcreport/src/patterns"
	"xcreport/src/report"
)

type rowState int

const (
	rowRunning rowState = iota
	rowDone
	rowWarned
	rowFailed
)

type actionRow struct {
	label string
	state rowState
	diags []string
}

// LiveModel is the Bubble Tea model of the live build view.
type LiveModel struct {
	header   Header
	spinner  spinner.Model
	viewport viewport.Model
	styles   *StyleConfig

	rows       []actionRow
	envVars    int
	errors     int
	warnings   int
	status     report.Status
	mode       string
	done       bool
	lines      int
	err        error
	failedOnly bool

	width  int
	height int
}

// NewLiveModel creates an empty live view.
func NewLiveModel() LiveModel {
	styles := DefaultStyles()
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.Spinner)

	return LiveModel{
		header:   NewHeaderWithStyles(styles),
		spinner:  sp,
		viewport: viewport.New(80, 20),
		styles:   styles,
		width:    80,
		height:   24,
	}
}

// Init starts the spinner.
func (m LiveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update folds reporter messages into the view and handles keys.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = m.bodyHeight()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "e":
			m.failedOnly = !m.failedOnly
			m.header.SetFailedOnly(m.failedOnly)
		}

	case spinner.TickMsg:
		if m.done {
			break
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case BuildStartedMsg:
		b := msg.Build
		m.header.SetBuild(b.Target, b.ProjectName, b.Configuration, b.DefaultConfiguration)
		m.status = b.Status
		m.header.SetStatus(b.Status.String())

	case ActionStartedMsg:
		m.rows = append(m.rows, actionRow{label: actionLabel(msg.Action)})

	case ActionFinishedMsg:
		if i := m.findRow(msg.Action, true); i >= 0 {
			m.rows[i] = m.finishedRow(msg.Action)
			m.errors += len(msg.Action.Errors())
			m.warnings += len(msg.Action.Warnings())
		}

	case ActionFailedMsg:
		// An open action is marked when it finishes, from FailureReported.
		if i := m.findRow(msg.Action, false); i >= 0 && m.rows[i].state != rowRunning {
			m.rows[i].state = rowFailed
		}

	case EnvVarMsg:
		m.envVars++

	case BuildFinishedMsg:
		m.status = msg.Build.Status
		m.mode = msg.Build.Mode
		m.header.SetStatus(msg.Build.Status.String())

	case LogDoneMsg:
		m.done = true
		m.lines = msg.Lines
		m.err = msg.Err
	}

	m.viewport.SetContent(m.body())

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders header, status line, action list and help.
func (m LiveModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.Render(m.width),
		m.statusLine(),
		m.viewport.View(),
		m.styles.HelpStyle().Render("↑/↓ scroll • e failed only • q quit"),
	)
}

// Done reports whether the whole log has been read.
func (m LiveModel) Done() bool {
	return m.done
}

func (m LiveModel) bodyHeight() int {
	// header (2) + status (1) + help (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m LiveModel) statusLine() string {
	counts := fmt.Sprintf("%d actions · %d errors · %d warnings · %d env vars",
		len(m.rows), m.errors, m.warnings, m.envVars)

	var prefix string
	switch {
	case m.err != nil:
		prefix = m.styles.FailureStyle().Render("✗ " + m.err.Error())
	case m.status == report.StatusSucceeded:
		prefix = m.styles.SuccessStyle().Render("✓ " + m.modeLabel() + " SUCCEEDED")
	case m.status == report.StatusFailed:
		prefix = m.styles.FailureStyle().Render("✗ " + m.modeLabel() + " FAILED")
	case m.done && m.status == report.StatusNotStarted:
		prefix = m.styles.WarningStyle().Render(fmt.Sprintf("No build found in %d lines", m.lines))
	case m.done:
		prefix = m.styles.WarningStyle().Render("Log ended before the build finished")
	default:
		prefix = m.spinner.View() + " Building"
	}
	return Fit(" "+prefix+"  "+m.styles.DimStyle().Render(counts), m.width)
}

func (m LiveModel) modeLabel() string {
	if m.mode == "" {
		return "BUILD"
	}
	return m.mode
}

func (m LiveModel) body() string {
	var sb strings.Builder
	width := m.width - 2
	for _, row := range m.rows {
		if m.failedOnly && row.state != rowFailed && row.state != rowWarned {
			continue
		}
		sb.WriteString(Fit(" "+m.icon(row.state)+" "+Truncate(row.label, width-2), m.width))
		sb.WriteByte('\n')

		style := m.styles.WarningStyle()
		if row.state == rowFailed {
			style = m.styles.FailureStyle().Bold(false)
		}
		for _, d := range row.diags {
			for _, line := range WrapIndent(d, m.width, "     ") {
				sb.WriteString(style.Render(line))
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m LiveModel) icon(s rowState) string {
	switch s {
	case rowDone:
		return m.styles.SuccessStyle().Render("✓")
	case rowWarned:
		return m.styles.WarningStyle().Render("!")
	case rowFailed:
		return m.styles.FailureStyle().Render("✗")
	default:
		return m.spinner.View()
	}
}

func (m LiveModel) finishedRow(a *report.BuildAction) actionRow {
	row := actionRow{label: actionLabel(a), state: rowDone}
	for _, d := range a.Diagnostics {
		row.diags = append(row.diags, patterns.Normalize(d.String(), patterns.MaskPresentation))
		if d.Severity == contracts.SeverityError {
			row.state = rowFailed
		} else if row.state != rowFailed {
			row.state = rowWarned
		}
	}
	if a.FailureReported {
		row.state = rowFailed
	}
	return row
}

// findRow returns the index of the newest row for a, or -1. With running set only
// rows still in progress match.
func (m LiveModel) findRow(a *report.BuildAction, running bool) int {
	label := actionLabel(a)
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].label != label {
			continue
		}
		if running && m.rows[i].state != rowRunning {
			continue
		}
		return i
	}
	return -1
}

func actionLabel(a *report.BuildAction) string {
	return patterns.Normalize(a.String(), patterns.MaskPresentation)
}
