// Package sanitize cleans raw console lines before they reach the translator.
//
// xcodebuild output captured through CI runners or wrapper scripts often carries color
// escapes, erase-line sequences and CRLF endings. None of them are part of the text the
// translator matches on.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// CSI escape sequences: \x1b[...m (SGR), \x1b[K (erase line), cursor movement.
	csiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

	// Buildkite timestamp markers: \x1b_bk;t=...\x07
	buildkiteTimestamp = regexp.MustCompile(`\x1b_bk;t=[0-9]+\x07`)

	// GitHub Actions prefixes every line with an RFC 3339 time. The first line may carry a BOM.
	lineTimestamp = regexp.MustCompile(`(?m)^\x{FEFF}?\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z ?`)
)

// StripANSI removes ANSI escape sequences and Buildkite timestamp markers.
func StripANSI(s string) string {
	s = buildkiteTimestamp.ReplaceAllString(s, "")
	return csiPattern.ReplaceAllString(s, "")
}

// CleanLine prepares a single console line: escapes are stripped and the trailing
// line terminator is dropped. Leading whitespace is kept since setenv lines depend on it.
func CleanLine(line string) string {
	return strings.TrimRight(StripANSI(line), "\r\n")
}

// Clean prepares a multi-line block for display, normalizing CRLF to LF.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimRight(strings.ReplaceAll(s, "\r", ""), "\n")
}

// StripTimestamps removes the per-line time prefix GitHub Actions adds to job logs.
func StripTimestamps(s string) string {
	return lineTimestamp.ReplaceAllString(s, "")
}
