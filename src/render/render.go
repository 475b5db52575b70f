// Package render writes build reports for humans and for tools.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"xcreport/src/contracts"
	"xcreport/src/patterns"
	"xcreport/src/report"
)

// Options controls Summary output.
type Options struct {
	// NoColor disables ANSI colors even on a terminal.
	NoColor bool
	// ForceColor enables colors even when stdout is not a terminal.
	ForceColor bool
	// MaxDiagnostics caps the diagnostics listed per action. Zero lists all.
	MaxDiagnostics int
	// AllActions lists successful actions too.
	AllActions bool
}

type palette struct {
	title, ok, fail, warn, dim *color.Color
}

func newPalette(opts Options) palette {
	p := palette{
		title: color.New(color.Bold),
		ok:    color.New(color.FgGreen, color.Bold),
		fail:  color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.title, p.ok, p.fail, p.warn, p.dim} {
		switch {
		case opts.NoColor:
			c.DisableColor()
		case opts.ForceColor:
			c.EnableColor()
		}
	}
	return p
}

// Summary writes a human-readable summary of b.
func Summary(w io.Writer, b *report.Build, opts Options) error {
	p := newPalette(opts)
	var sb strings.Builder

	if b.Status == report.StatusNotStarted {
		sb.WriteString(p.warn.Sprint("No build found in log") + "\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}

	conf := b.Configuration
	if b.DefaultConfiguration {
		conf += ", default"
	}
	fmt.Fprintf(&sb, "%s %s %s\n", p.title.Sprint(b.Target), p.dim.Sprintf("(%s, %s)", b.ProjectName, conf), statusLabel(p, b))
	fmt.Fprintf(&sb, "  %d actions completed, %d failed, %s, %s\n",
		len(b.ActionsCompleted()),
		len(b.FailedActions()),
		plural(b.ErrorCount(), "error"),
		plural(b.WarningCount(), "warning"))

	for _, a := range b.Actions {
		if !a.Failed() && !a.FailureReported && !opts.AllActions {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(actionLine(p, a) + "\n")

		diags := a.Diagnostics
		if opts.MaxDiagnostics > 0 && len(diags) > opts.MaxDiagnostics {
			diags = diags[:opts.MaxDiagnostics]
		}
		for _, d := range diags {
			line := patterns.Normalize(d.String(), patterns.MaskPresentation)
			if d.Severity == contracts.SeverityError {
				sb.WriteString("    " + p.fail.Sprint(line) + "\n")
			} else {
				sb.WriteString("    " + p.warn.Sprint(line) + "\n")
			}
		}
		if hidden := len(a.Diagnostics) - len(diags); hidden > 0 {
			sb.WriteString("    " + p.dim.Sprintf("... %d more", hidden) + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func statusLabel(p palette, b *report.Build) string {
	mode := b.Mode
	if mode == "" {
		mode = "BUILD"
	}
	switch b.Status {
	case report.StatusSucceeded:
		return p.ok.Sprint(mode + " SUCCEEDED")
	case report.StatusFailed:
		return p.fail.Sprint(mode + " FAILED")
	default:
		return p.warn.Sprint("RUNNING")
	}
}

func actionLine(p palette, a *report.BuildAction) string {
	text := patterns.Normalize(a.String(), patterns.MaskPresentation)
	switch {
	case len(a.Errors()) > 0 || a.FailureReported:
		return p.fail.Sprint("✗ ") + text
	case a.Failed():
		return p.warn.Sprint("! ") + text
	case a.Open:
		return p.dim.Sprint("… ") + text
	default:
		return p.ok.Sprint("✓ ") + text
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// JSON writes r as indented JSON.
func JSON(w io.Writer, r contracts.BuildReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
