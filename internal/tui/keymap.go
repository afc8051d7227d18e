package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Focus
	FocusDatabases key.Binding
	FocusTables    key.Binding
	FocusResults   key.Binding
	FocusQuery     key.Binding

	// Navigation
	Up   key.Binding
	Down key.Binding

	// Query editor
	Execute   key.Binding
	Backspace key.Binding

	// General
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FocusDatabases: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("^h", "databases"),
		),
		FocusTables: key.NewBinding(
			key.WithKeys("ctrl+j"),
			key.WithHelp("^j", "tables"),
		),
		FocusResults: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("^k", "results"),
		),
		FocusQuery: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("^l", "query"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Execute: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "delete"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^c", "quit"),
		),
	}
}

// ShortHelp returns the focus bindings, shown in every pane.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusDatabases, k.FocusTables, k.FocusResults, k.FocusQuery}
}
