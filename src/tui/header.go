package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Header is the top status bar: target, project, configuration and result.
type Header struct {
	target        string
	project       string
	configuration string
	status        string
	failedOnly    bool
	styles        *StyleConfig
}

// NewHeader creates a header with default styles and no build yet.
func NewHeader() Header {
	return NewHeaderWithStyles(DefaultStyles())
}

// NewHeaderWithStyles creates a header with custom styles
func NewHeaderWithStyles(styles *StyleConfig) Header {
	return Header{status: "waiting", styles: styles}
}

// SetBuild records the values of the start banner.
func (h *Header) SetBuild(target, project, configuration string, isDefault bool) {
	h.target = target
	h.project = project
	h.configuration = configuration
	if isDefault {
		h.configuration += " (default)"
	}
}

// SetStatus sets the status label shown on the right.
func (h *Header) SetStatus(status string) {
	h.status = status
}

// SetFailedOnly toggles the filter indicator.
func (h *Header) SetFailedOnly(on bool) {
	h.failedOnly = on
}

// Render renders the header
func (h Header) Render(width int) string {
	titleStyle := h.styles.TitleStyle()
	dim := h.styles.DimStyle().Padding(0, 1)

	target := h.target
	if target == "" {
		target = "xcodebuild"
	}
	left := titleStyle.Render("🔨 " + target)
	if h.project != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Left, left,
			dim.Render(fmt.Sprintf("%s · %s", h.project, h.configuration)))
	}

	filter := "all actions"
	if h.failedOnly {
		filter = "failed only"
	}
	right := lipgloss.JoinHorizontal(lipgloss.Left,
		dim.Render(filter),
		h.statusStyle().Padding(0, 1).Render(h.status))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	content := left + lipgloss.NewStyle().Width(gap).Render("") + right

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor)

	return headerStyle.Render(Fit(content, width))
}

func (h Header) statusStyle() lipgloss.Style {
	switch h.status {
	case "succeeded":
		return h.styles.SuccessStyle()
	case "failed":
		return h.styles.FailureStyle()
	default:
		return h.styles.WarningStyle()
	}
}
