package tui

import "github.com/charmbracelet/lipgloss"

// Colors - using a professional dark theme
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	bgColor        = lipgloss.Color("#1F2937") // Dark gray
)

// Styles groups every style the renderer uses.
type Styles struct {
	Border        lipgloss.TerminalColor
	FocusedBorder lipgloss.TerminalColor

	Title        lipgloss.Style
	FocusedTitle lipgloss.Style

	Item         lipgloss.Style
	SelectedItem lipgloss.Style
	Dim          lipgloss.Style

	Header lipgloss.Style
	Cell   lipgloss.Style
	Error  lipgloss.Style

	Input  lipgloss.Style
	Cursor lipgloss.Style

	StatusBar   lipgloss.Style
	StatusTitle lipgloss.Style
	StatusValue lipgloss.Style
	HelpKey     lipgloss.Style
	HelpDesc    lipgloss.Style
}

// DefaultStyles returns the dark theme.
func DefaultStyles() Styles {
	return Styles{
		Border:        mutedColor,
		FocusedBorder: primaryColor,

		Title: lipgloss.NewStyle().
			Foreground(mutedColor),
		FocusedTitle: lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true),

		Item: lipgloss.NewStyle().
			Foreground(textColor),
		SelectedItem: lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true),
		Dim: lipgloss.NewStyle().
			Foreground(mutedColor),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor),
		Cell: lipgloss.NewStyle().
			Foreground(textColor),
		Error: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),

		Input: lipgloss.NewStyle().
			Foreground(textColor),
		Cursor: lipgloss.NewStyle().
			Foreground(accentColor),

		StatusBar: lipgloss.NewStyle().
			Background(bgColor).
			Foreground(textColor).
			Padding(0, 1),
		StatusTitle: lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true),
		StatusValue: lipgloss.NewStyle().
			Foreground(accentColor),
		HelpKey: lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true),
		HelpDesc: lipgloss.NewStyle().
			Foreground(mutedColor),
	}
}

// PlainStyles renders without any colour or emphasis, for tests and dumb
// terminals.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Border:        lipgloss.NoColor{},
		FocusedBorder: lipgloss.NoColor{},
		Title:         plain,
		FocusedTitle:  plain,
		Item:          plain,
		SelectedItem:  plain,
		Dim:           plain,
		Header:        plain,
		Cell:          plain,
		Error:         plain,
		Input:         plain,
		Cursor:        plain,
		StatusBar:     plain,
		StatusTitle:   plain,
		StatusValue:   plain,
		HelpKey:       plain,
		HelpDesc:      plain,
	}
}
