package translate

import (
	"regexp"

	"xcreport/src/contracts"
)

// rule is one entry of the ordered pattern table evaluated while building.
// apply reports whether the line matched; a matched rule may still emit no event
// when it only changes scan state.
type rule struct {
	name    string
	pattern *regexp.Regexp
	apply   func(state *ScanState, m []string) (contracts.Event, bool)
}

// Rule names, in evaluation order.
const (
	RuleDiagnosticWithCompiler = "diagnostic_with_compiler"
	RuleDiagnostic             = "diagnostic"
	RuleEnvVar                 = "env_var"
	RuleCommandFailed          = "command_failed"
	RuleErrorReportBanner      = "error_report_banner"
	RuleBlankLine              = "blank_line"
)

func defaultRules() []rule {
	return []rule{
		{
			// Xcode 4.3.2 and later: path:line:col:{compiler}: error: message
			name:    RuleDiagnosticWithCompiler,
			pattern: regexp.MustCompile(`^(.*):(\d+):(\d+):(.*): (error|warning): (.*)$`),
			apply: func(_ *ScanState, m []string) (contracts.Event, bool) {
				return diagnostic(m[5], m[1], m[2], m[3], m[6])
			},
		},
		{
			// Older Xcode releases: path:line:col: error: message
			name:    RuleDiagnostic,
			pattern: regexp.MustCompile(`^(.*):(\d+):(\d+): (error|warning): (.*)$`),
			apply: func(_ *ScanState, m []string) (contracts.Event, bool) {
				return diagnostic(m[4], m[1], m[2], m[3], m[5])
			},
		},
		{
			name:    RuleEnvVar,
			pattern: regexp.MustCompile(`^\s+setenv (\w+) (.*)`),
			apply: func(_ *ScanState, m []string) (contracts.Event, bool) {
				return contracts.EnvVarDetected{Name: m[1], Value: m[2]}, true
			},
		},
		{
			name:    RuleCommandFailed,
			pattern: regexp.MustCompile(`^Command (.*) failed with exit code (\d+)`),
			apply: func(_ *ScanState, m []string) (contracts.Event, bool) {
				code, ok := parseUint(m[2])
				if !ok {
					return nil, false
				}
				return contracts.CommandFailed{Command: m[1], ExitCode: code}, true
			},
		},
		{
			name:    RuleErrorReportBanner,
			pattern: regexp.MustCompile(`^The following build commands failed:`),
			apply: func(state *ScanState, _ []string) (contracts.Event, bool) {
				state.InErrorReportSection = true
				return nil, true
			},
		},
		{
			name:    RuleBlankLine,
			pattern: regexp.MustCompile(`^\s*$`),
			apply: func(state *ScanState, _ []string) (contracts.Event, bool) {
				state.AwaitingStepDescription = true
				return nil, true
			},
		},
	}
}

func diagnostic(severity, file, line, col, message string) (contracts.Event, bool) {
	ln, ok := parseUint(line)
	if !ok {
		return nil, false
	}
	c, ok := parseUint(col)
	if !ok {
		return nil, false
	}
	return contracts.DiagnosticDetected{
		Severity: contracts.Severity(severity),
		File:     file,
		Line:     ln,
		Column:   c,
		Message:  message,
	}, true
}
