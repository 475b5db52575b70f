package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// VisualWidth returns the display width of plain text.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens plain text to width columns, ending in an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if VisualWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}

// Pad truncates plain text and pads it with spaces to exactly width columns.
func Pad(s string, width int) string {
	s = Truncate(s, width)
	if w := VisualWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Fit truncates an already styled line to width columns. Escape sequences are kept.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, ellipsis)
}

// WrapIndent wraps plain text at width columns and prefixes every line with indent.
// Words longer than a line are split.
func WrapIndent(text string, width int, indent string) []string {
	avail := width - VisualWidth(indent)
	if avail <= 0 {
		return []string{indent + text}
	}

	var lines []string
	var cur strings.Builder
	curWidth := 0
	flush := func() {
		lines = append(lines, indent+cur.String())
		cur.Reset()
		curWidth = 0
	}

	for _, word := range strings.Fields(text) {
		for VisualWidth(word) > avail {
			if curWidth > 0 {
				flush()
			}
			head := runewidth.Truncate(word, avail, "")
			cur.WriteString(head)
			curWidth = VisualWidth(head)
			flush()
			word = word[len(head):]
		}
		w := VisualWidth(word)
		switch {
		case w == 0:
		case curWidth == 0:
			cur.WriteString(word)
			curWidth = w
		case curWidth+1+w <= avail:
			cur.WriteByte(' ')
			cur.WriteString(word)
			curWidth += 1 + w
		default:
			flush()
			cur.WriteString(word)
			curWidth = w
		}
	}
	if curWidth > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}
