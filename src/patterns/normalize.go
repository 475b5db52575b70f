// Package patterns normalizes xcodebuild diagnostic text for display and for grouping.
//
// The same patterns are applied at two masking levels:
//   - MaskPresentation: shortens paths for display but keeps line numbers
//   - MaskRecurrence: masks paths and numbers so the same diagnostic from two builds
//     (different checkouts, DerivedData folders or line offsets) normalizes identically
package patterns

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// MaskingLevel controls how aggressively text is normalized.
type MaskingLevel int

const (
	// MaskPresentation preserves line numbers.
	// Example: /Users/ci/src/App/Sources/main.m:16 → .../main.m:16
	MaskPresentation MaskingLevel = iota

	// MaskRecurrence normalizes for grouping.
	// Example: expected ';' after expression [1] at line 16 → expected ';' after expression [NUM] at line [NUM]
	MaskRecurrence
)

// Compiled once at package init.
var (
	// derivedDataPattern matches the hashed DerivedData folder Xcode creates per project.
	// Matches: DerivedData/ExampleProject-bqzhmnhdcxwyjfcfkewvfqmgzvph
	derivedDataPattern = regexp.MustCompile(`DerivedData/([^/\s]+)-[a-z]{28}`)

	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`)
	uuidPattern      = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	hexPattern       = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)
	numberPattern    = regexp.MustCompile(`\b\d+\b`)

	// longPathPattern matches absolute paths with 3+ directories and captures the file name.
	longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize applies the transforms for level to a single line.
func Normalize(line string, level MaskingLevel) string {
	line = derivedDataPattern.ReplaceAllString(line, "DerivedData/$1")

	switch level {
	case MaskPresentation:
		line = longPathPattern.ReplaceAllString(line, ".../$1")
	case MaskRecurrence:
		line = timestampPattern.ReplaceAllString(line, "[TIMESTAMP]")
		line = uuidPattern.ReplaceAllString(line, "[UUID]")
		line = hexPattern.ReplaceAllString(line, "[HEX]")
		line = longPathPattern.ReplaceAllString(line, "[PATH]")
		line = numberPattern.ReplaceAllString(line, "[NUM]")
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// Fingerprint hashes the recurrence-normalized parts of a diagnostic. The file name is
// kept (directories are not) so the same message in two files stays distinct.
func Fingerprint(file, message string) string {
	base := file
	if i := strings.LastIndex(file, "/"); i >= 0 {
		base = file[i+1:]
	}
	key := base + "::" + Normalize(message, MaskRecurrence)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
