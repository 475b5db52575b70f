package tui

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds the colors of the live build view.
type StyleConfig struct {
	PrimaryBlue    lipgloss.Color
	DarkBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Failure lipgloss.Color
	Spinner lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#8AB4F8"),
		DarkBackground: lipgloss.Color("#1E1E1E"),
		TextPrimary:    lipgloss.Color("#E8EAED"),
		TextSecondary:  lipgloss.Color("#9AA0A6"),
		BorderColor:    lipgloss.Color("#5F6368"),
		Success:        lipgloss.Color("#34A853"),
		Warning:        lipgloss.Color("#FBBC04"),
		Failure:        lipgloss.Color("#EA4335"),
		Spinner:        lipgloss.Color("#FFD700"),
	}
}

func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 1)
}

func (s *StyleConfig) DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.TextSecondary)
}

func (s *StyleConfig) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.Success).Bold(true)
}

func (s *StyleConfig) WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.Warning)
}

func (s *StyleConfig) FailureStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.Failure).Bold(true)
}
