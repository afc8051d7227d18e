package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/johan-st/dbpane/internal/session"
)

// ActionKind is the state transition a key press maps to.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionQuit
	ActionFocus
	ActionNextDatabase
	ActionPreviousDatabase
	ActionNextTable
	ActionPreviousTable
	ActionInsertText
	ActionDeleteChar
	ActionExecute
)

var actionNames = map[ActionKind]string{
	ActionNone:             "none",
	ActionQuit:             "quit",
	ActionFocus:            "focus",
	ActionNextDatabase:     "next-database",
	ActionPreviousDatabase: "previous-database",
	ActionNextTable:        "next-table",
	ActionPreviousTable:    "previous-table",
	ActionInsertText:       "insert-text",
	ActionDeleteChar:       "delete-char",
	ActionExecute:          "execute",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is the result of dispatching one key.
type Action struct {
	Kind ActionKind
	Pane session.Pane // ActionFocus
	Text string       // ActionInsertText
}

// Dispatch maps a key press to an action for the given focus. Rules are
// tried in order and the first match wins:
//
//  1. ctrl+h/j/k/l move focus, from any pane
//  2. ctrl+c quits; q quits unless the query editor has focus
//  3. database list: j/k and arrows move the selection
//  4. table list: j/k and arrows move the selection
//  5. query editor: unmodified characters are text, backspace deletes, enter runs
//
// Anything else is ActionNone.
func Dispatch(keys KeyMap, focus session.Pane, msg tea.KeyMsg) Action {
	switch {
	case key.Matches(msg, keys.FocusDatabases):
		return Action{Kind: ActionFocus, Pane: session.DatabaseList}
	case key.Matches(msg, keys.FocusTables):
		return Action{Kind: ActionFocus, Pane: session.TableList}
	case key.Matches(msg, keys.FocusResults):
		return Action{Kind: ActionFocus, Pane: session.ResultView}
	case key.Matches(msg, keys.FocusQuery):
		return Action{Kind: ActionFocus, Pane: session.QueryEditor}
	}

	if key.Matches(msg, keys.ForceQuit) {
		return Action{Kind: ActionQuit}
	}
	if focus != session.QueryEditor && key.Matches(msg, keys.Quit) {
		return Action{Kind: ActionQuit}
	}

	switch focus {
	case session.DatabaseList:
		switch {
		case key.Matches(msg, keys.Down):
			return Action{Kind: ActionNextDatabase}
		case key.Matches(msg, keys.Up):
			return Action{Kind: ActionPreviousDatabase}
		}

	case session.TableList:
		switch {
		case key.Matches(msg, keys.Down):
			return Action{Kind: ActionNextTable}
		case key.Matches(msg, keys.Up):
			return Action{Kind: ActionPreviousTable}
		}

	case session.QueryEditor:
		return dispatchEditor(keys, msg)
	}

	return Action{}
}

func dispatchEditor(keys KeyMap, msg tea.KeyMsg) Action {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return Action{}
		}
		return Action{Kind: ActionInsertText, Text: string(msg.Runes)}
	case tea.KeySpace:
		if msg.Alt {
			return Action{}
		}
		return Action{Kind: ActionInsertText, Text: " "}
	}

	switch {
	case key.Matches(msg, keys.Backspace):
		return Action{Kind: ActionDeleteChar}
	case key.Matches(msg, keys.Execute):
		return Action{Kind: ActionExecute}
	}
	return Action{}
}
