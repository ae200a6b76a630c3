// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the review screen.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Marked highlights documents kept for selection.
	Marked lipgloss.Color

	// Warning indicates caution.
	Warning lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#F97316"), // Safety orange
		Foreground: lipgloss.Color("#E2E8F0"), // Light gray
		Muted:      lipgloss.Color("#64748B"), // Medium gray
		Marked:     lipgloss.Color("#4ADE80"), // Green
		Warning:    lipgloss.Color("#FACC15"), // Yellow
		Border:     lipgloss.Color("#334155"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	// Title style for headers.
	Title lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Selected style for the cursor row.
	Selected lipgloss.Style

	// Marked style for documents kept in a partial selection.
	Marked lipgloss.Style

	// Help style for the key hint bar.
	Help lipgloss.Style
}

// DefaultStyles builds the styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// NewStyles builds styles from a theme.
func NewStyles(t *Theme) *Styles {
	return &Styles{
		Title:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Normal:   lipgloss.NewStyle().Foreground(t.Foreground),
		Muted:    lipgloss.NewStyle().Foreground(t.Muted),
		Selected: lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Marked:   lipgloss.NewStyle().Foreground(t.Marked),
		Help:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}
