package mcp

import (
	"fmt"
	"sort"
	"strings"

	"xcreport/src/contracts"
)

// Default group limits. Errors are the likely root causes and get the larger share.
const (
	DefaultErrorLimit   = 15
	DefaultWarningLimit = 5

	// maxLocations caps the locations listed per group.
	maxLocations = 10
)

// ToManifest groups the diagnostics of r by fingerprint.
func ToManifest(r contracts.BuildReport, errorLimit, warningLimit int) Manifest {
	m := Manifest{
		RunID:            r.RunID,
		Source:           r.Source,
		Target:           r.Target,
		Project:          r.Project,
		Configuration:    r.Configuration,
		Status:           r.Status,
		Mode:             r.Mode,
		ActionsCompleted: r.ActionsCompleted,
		FailedActions:    r.FailedActions,
		ErrorCount:       r.ErrorCount,
		WarningCount:     r.WarningCount,
		Errors:           []DiagnosticGroup{},
		Warnings:         []DiagnosticGroup{},
	}

	errs, warns := groupDiagnostics(r)
	m.Errors, m.OmittedGroups = limitGroups(errs, errorLimit)
	var omitted int
	m.Warnings, omitted = limitGroups(warns, warningLimit)
	m.OmittedGroups += omitted
	return m
}

// FindDiagnostic returns the unlimited group with the given severity and fingerprint.
// Groups are keyed by both, so one fingerprint may exist as an error and a warning;
// an empty severity matches either and prefers the error.
func FindDiagnostic(r contracts.BuildReport, severity, fingerprint string) (DiagnosticGroup, bool) {
	errs, warns := groupDiagnostics(r)
	for _, g := range append(errs, warns...) {
		if g.Fingerprint == fingerprint && (severity == "" || g.Severity == severity) {
			return g, true
		}
	}
	return DiagnosticGroup{}, false
}

// groupDiagnostics returns error and warning groups, each sorted by occurrences and then
// by first appearance.
func groupDiagnostics(r contracts.BuildReport) (errs, warns []DiagnosticGroup) {
	index := make(map[string]int)
	var groups []DiagnosticGroup

	for _, a := range r.Actions {
		action := compressMessage(a.Type + " " + strings.Join(a.Arguments, " "))
		for _, d := range a.Diagnostics {
			key := d.Severity + "\x00" + d.Fingerprint
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, DiagnosticGroup{
					Fingerprint: d.Fingerprint,
					Severity:    d.Severity,
					Message:     compressMessage(d.Message),
				})
			}
			g := &groups[i]
			g.Occurrences++
			if loc := location(d); loc != "" && len(g.Locations) < maxLocations {
				g.Locations = append(g.Locations, loc)
			}
			if len(g.Actions) == 0 || g.Actions[len(g.Actions)-1] != action {
				g.Actions = append(g.Actions, action)
			}
		}
	}

	for i := range groups {
		groups[i].Locations = removeCommonPrefix(groups[i].Locations)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Occurrences > groups[j].Occurrences
	})

	for _, g := range groups {
		if g.Severity == string(contracts.SeverityError) {
			errs = append(errs, g)
		} else {
			warns = append(warns, g)
		}
	}
	return errs, warns
}

func limitGroups(groups []DiagnosticGroup, limit int) ([]DiagnosticGroup, int) {
	if limit <= 0 || len(groups) <= limit {
		if groups == nil {
			groups = []DiagnosticGroup{}
		}
		return groups, 0
	}
	return groups[:limit], len(groups) - limit
}

func location(d contracts.DiagnosticReport) string {
	if d.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Char)
}
