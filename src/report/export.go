package report

import (
	"fmt"
	"strings"
	"time"

	"xcreport/src/contracts"
	"xcreport/src/patterns"
)

// Report converts b into its serializable summary. The same build always yields the
// same summary.
func (b *Build) Report(runID, source string) contracts.BuildReport {
	r := contracts.BuildReport{
		RunID:                runID,
		Source:               source,
		Target:               b.Target,
		Project:              b.ProjectName,
		Configuration:        b.Configuration,
		DefaultConfiguration: b.DefaultConfiguration,
		Mode:                 b.Mode,
		Status:               b.Status.String(),
		Actions:              make([]contracts.ActionReport, 0, len(b.Actions)),
		ActionsCompleted:     len(b.ActionsCompleted()),
		FailedActions:        len(b.FailedActions()),
		ErrorCount:           b.ErrorCount(),
		WarningCount:         b.WarningCount(),
	}
	if !b.FinishedAt.IsZero() {
		r.FinishedAt = b.FinishedAt.UTC().Format(time.RFC3339)
	}

	for _, a := range b.Actions {
		ar := contracts.ActionReport{
			Type:            a.Type,
			Arguments:       cloneStrings(a.Arguments),
			Open:            a.Open,
			FailureReported: a.FailureReported,
		}
		for _, d := range a.Diagnostics {
			ar.Diagnostics = append(ar.Diagnostics, contracts.DiagnosticReport{
				Kind:        string(d.Kind),
				Severity:    string(d.Severity),
				File:        d.File,
				Line:        d.Line,
				Char:        d.Char,
				Message:     d.Message,
				Command:     d.Command,
				ExitCode:    d.ExitCode,
				Fingerprint: patterns.Fingerprint(d.File, d.Message),
			})
		}
		r.Actions = append(r.Actions, ar)
	}
	return r
}

// FromReport rebuilds a Build from its summary, for rendering stored reports.
// Fingerprints are not part of the model and are dropped; FinishedAt keeps second
// precision.
func FromReport(r contracts.BuildReport) (*Build, error) {
	b := &Build{
		Target:               r.Target,
		ProjectName:          r.Project,
		Configuration:        r.Configuration,
		DefaultConfiguration: r.DefaultConfiguration,
		Mode:                 r.Mode,
	}
	if err := b.Status.UnmarshalText([]byte(r.Status)); err != nil {
		return nil, err
	}
	if r.FinishedAt != "" {
		at, err := time.Parse(time.RFC3339, r.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("finished_at: %w", err)
		}
		b.FinishedAt = at
	}

	for _, ar := range r.Actions {
		a := &BuildAction{
			Type:            ar.Type,
			Arguments:       cloneStrings(ar.Arguments),
			Open:            ar.Open,
			FailureReported: ar.FailureReported,
		}
		for _, dr := range ar.Diagnostics {
			d := Diagnostic{
				Kind:     DiagnosticKind(dr.Kind),
				Severity: contracts.Severity(dr.Severity),
				File:     dr.File,
				Line:     dr.Line,
				Char:     dr.Char,
				Message:  dr.Message,
				Command:  dr.Command,
				ExitCode: dr.ExitCode,
			}
			if d.Kind == DiagnosticStep {
				if fields := strings.Fields(dr.Message); len(fields) > 0 {
					d.StepType = fields[0]
					d.StepArguments = fields[1:]
				}
			}
			a.Diagnostics = append(a.Diagnostics, d)
		}
		b.Actions = append(b.Actions, a)
	}
	return b, nil
}
