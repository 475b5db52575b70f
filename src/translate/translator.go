// Package translate classifies xcodebuild console lines into contracts events.
//
// A Translator is a single-pass scanner: it sees each line exactly once, in order, with no
// lookahead, and emits at most one event per line. Lines it does not recognize produce no
// event; malformed or unknown tool output never causes an error.
package translate

import (
	"regexp"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"xcreport/src/contracts"
)

// ScanState is the Translator's mutable scan state. It is a plain value so it can be
// copied, compared and inspected in tests.
type ScanState struct {
	// Building is set once the build banner has been seen.
	Building bool
	// AwaitingStepDescription is set by a blank line; the next non-blank line starts an action.
	AwaitingStepDescription bool
	// InErrorReportSection is set by "The following build commands failed:".
	InErrorReportSection bool
}

var (
	buildStartedPattern = regexp.MustCompile(`=== (BUILD|ARCHIVE)\b`)
	targetPattern       = regexp.MustCompile(`TARGET ([\w\-\.]+)`)
	projectPattern      = regexp.MustCompile(`PROJECT ([\w\-\.]+)`)
	defaultConfPattern  = regexp.MustCompile(`DEFAULT CONFIGURATION \((\w+)\)`)
	configPattern       = regexp.MustCompile(`CONFIGURATION (\w+)`)

	buildEndedPattern   = regexp.MustCompile(`^\*\* (BUILD|ARCHIVE) (\w+) \*\*`)
	failureCountPattern = regexp.MustCompile(`^\(\d+ failures?\)`)
)

// Translator turns console lines into events. The zero value is not usable; call New.
type Translator struct {
	state ScanState
	rules []rule
}

// New returns a Translator in the not-building state.
func New() *Translator {
	return &Translator{rules: defaultRules()}
}

// State returns a copy of the current scan state.
func (t *Translator) State() ScanState {
	return t.state
}

// Rules returns the names of the pattern rules in the order they are evaluated.
func (t *Translator) Rules() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.name
	}
	return names
}

// Feed classifies one console line. It returns the event the line produced, if any.
func (t *Translator) Feed(line string) (contracts.Event, bool) {
	line = strings.TrimRight(line, "\r\n")

	if !t.state.Building {
		ev, ok := parseBuildStarted(line)
		if ok {
			t.state.Building = true
		}
		return ev, ok
	}

	if ev, ok := parseBuildEnded(line); ok {
		return ev, true
	}

	if t.state.AwaitingStepDescription {
		t.state.AwaitingStepDescription = false
		typ, args, ok := splitStep(line)
		if !ok {
			return nil, false
		}
		return contracts.BuildActionStarted{Type: typ, Arguments: args}, true
	}

	if t.state.InErrorReportSection {
		if failureCountPattern.MatchString(line) {
			t.state.InErrorReportSection = false
			return nil, false
		}
		typ, args, ok := splitStep(line)
		if !ok {
			return nil, false
		}
		return contracts.BuildActionStepFailed{Type: typ, Arguments: args}, true
	}

	for _, r := range t.rules {
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ev, matched := r.apply(&t.state, m)
		if !matched {
			continue
		}
		return ev, ev != nil
	}
	return nil, false
}

// parseBuildStarted extracts target, project and configuration from the build banner.
// A banner missing any of the three is not treated as a build start.
func parseBuildStarted(line string) (contracts.Event, bool) {
	if !buildStartedPattern.MatchString(line) {
		return nil, false
	}
	target := targetPattern.FindStringSubmatch(line)
	project := projectPattern.FindStringSubmatch(line)
	if target == nil || project == nil {
		return nil, false
	}

	ev := contracts.BuildStarted{Target: target[1], Project: project[1]}
	if m := defaultConfPattern.FindStringSubmatch(line); m != nil {
		ev.Configuration = m[1]
		ev.IsDefault = true
	} else if m := configPattern.FindStringSubmatch(line); m != nil {
		ev.Configuration = m[1]
	} else {
		return nil, false
	}
	return ev, true
}

func parseBuildEnded(line string) (contracts.Event, bool) {
	m := buildEndedPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	if strings.Contains(m[2], "SUCCEEDED") {
		return contracts.BuildSucceeded{Mode: m[1]}, true
	}
	return contracts.BuildFailed{Mode: m[1]}, true
}

// splitStep tokenizes a step line on whitespace: the first token is the action type.
func splitStep(line string) (string, []string, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

// parseUint parses a non-negative decimal field.
func parseUint(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	v, err := safecast.Conv[uint](n)
	if err != nil {
		return 0, false
	}
	return v, true
}
