package mcp

import (
	"strings"

	"xcreport/src/patterns"
)

// minPrefixLength is the shortest common prefix worth replacing with "...".
const minPrefixLength = 20

// compressMessage shortens paths and collapses whitespace so a diagnostic costs fewer
// tokens. Line numbers are kept.
func compressMessage(line string) string {
	return patterns.Normalize(line, patterns.MaskPresentation)
}

// findCommonPrefix finds the longest common prefix across lines, cut back to a path
// separator. Returns "" when fewer than two lines share at least minPrefixLength bytes.
func findCommonPrefix(lines []string) string {
	if len(lines) < 2 {
		return ""
	}

	prefix := lines[0]
	for _, line := range lines[1:] {
		for len(prefix) > 0 && !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			break
		}
	}

	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		prefix = prefix[:i+1]
	} else {
		prefix = ""
	}
	if len(prefix) < minPrefixLength {
		return ""
	}
	return prefix
}

// removeCommonPrefix replaces the shared directory prefix of lines with ".../".
func removeCommonPrefix(lines []string) []string {
	prefix := findCommonPrefix(lines)
	if prefix == "" {
		return lines
	}

	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = ".../" + line[len(prefix):]
	}
	return result
}
