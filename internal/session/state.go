// Package session holds the state of one interactive browsing session.
//
// A State is owned by a single goroutine for its whole lifetime. Its methods
// only mutate memory; fetching tables or running queries is the caller's job.
package session

import (
	"unicode/utf8"
)

// Pane identifies one of the focusable regions of the UI.
type Pane int

const (
	DatabaseList Pane = iota
	TableList
	ResultView
	QueryEditor
)

// String returns the pane name.
func (p Pane) String() string {
	switch p {
	case DatabaseList:
		return "databases"
	case TableList:
		return "tables"
	case ResultView:
		return "results"
	case QueryEditor:
		return "query"
	default:
		return "unknown"
	}
}

// none marks an empty selection.
const none = -1

// State is the mutable state of a session.
type State struct {
	databases     []string
	selectedDB    int
	tables        []string
	selectedTable int
	query         string
	result        Result
	focus         Pane
}

// New creates a session for the given database list. The first database is
// selected when the list is not empty.
func New(databases []string) *State {
	s := &State{
		databases:     append([]string(nil), databases...),
		selectedDB:    none,
		selectedTable: none,
		focus:         DatabaseList,
	}
	if len(s.databases) > 0 {
		s.selectedDB = 0
	}
	return s
}

// Databases returns a copy of the database names.
func (s *State) Databases() []string {
	return append([]string(nil), s.databases...)
}

// SelectedDatabase returns the selected database index.
func (s *State) SelectedDatabase() (int, bool) {
	if s.selectedDB == none {
		return 0, false
	}
	return s.selectedDB, true
}

// SelectedDatabaseName returns the name of the selected database.
func (s *State) SelectedDatabaseName() (string, bool) {
	if s.selectedDB == none {
		return "", false
	}
	return s.databases[s.selectedDB], true
}

// Tables returns a copy of the table names of the selected database.
func (s *State) Tables() []string {
	return append([]string(nil), s.tables...)
}

// SelectedTable returns the selected table index.
func (s *State) SelectedTable() (int, bool) {
	if s.selectedTable == none {
		return 0, false
	}
	return s.selectedTable, true
}

// SelectedTableName returns the name of the selected table.
func (s *State) SelectedTableName() (string, bool) {
	if s.selectedTable == none {
		return "", false
	}
	return s.tables[s.selectedTable], true
}

// Query returns the query buffer.
func (s *State) Query() string {
	return s.query
}

// Result returns the last query result.
func (s *State) Result() Result {
	return s.result
}

// Focus returns the focused pane.
func (s *State) Focus() Pane {
	return s.focus
}

// SelectNextDatabase moves the database selection down by one. It reports
// whether the selection changed; the caller must then refetch the tables.
func (s *State) SelectNextDatabase() bool {
	next, ok := step(s.selectedDB, len(s.databases), 1)
	if ok {
		s.selectedDB = next
	}
	return ok
}

// SelectPreviousDatabase moves the database selection up by one.
func (s *State) SelectPreviousDatabase() bool {
	prev, ok := step(s.selectedDB, len(s.databases), -1)
	if ok {
		s.selectedDB = prev
	}
	return ok
}

// SelectNextTable moves the table selection down by one.
func (s *State) SelectNextTable() bool {
	next, ok := step(s.selectedTable, len(s.tables), 1)
	if ok {
		s.selectedTable = next
	}
	return ok
}

// SelectPreviousTable moves the table selection up by one.
func (s *State) SelectPreviousTable() bool {
	prev, ok := step(s.selectedTable, len(s.tables), -1)
	if ok {
		s.selectedTable = prev
	}
	return ok
}

// step moves idx by delta within [0, n). Movement past either end is refused.
func step(idx, n, delta int) (int, bool) {
	if idx == none {
		return idx, false
	}
	next := idx + delta
	if next < 0 || next >= n {
		return idx, false
	}
	return next, true
}

// ReplaceTables swaps in the table list of a newly selected database and
// resets the table selection to the first entry.
func (s *State) ReplaceTables(tables []string) {
	s.tables = append([]string(nil), tables...)
	if len(s.tables) > 0 {
		s.selectedTable = 0
	} else {
		s.selectedTable = none
	}
}

// PushQueryChar appends one character to the query buffer.
func (s *State) PushQueryChar(r rune) {
	s.query += string(r)
}

// PushQueryText appends every character of text, as pasted input.
func (s *State) PushQueryText(text string) {
	for _, r := range text {
		s.PushQueryChar(r)
	}
}

// PopQueryChar removes the last character of the query buffer. It does
// nothing when the buffer is empty.
func (s *State) PopQueryChar() {
	if s.query == "" {
		return
	}
	_, size := utf8.DecodeLastRuneInString(s.query)
	s.query = s.query[:len(s.query)-size]
}

// SetResult replaces the last result.
func (s *State) SetResult(r Result) {
	s.result = r
}

// SetFocus moves keyboard focus to p.
func (s *State) SetFocus(p Pane) {
	s.focus = p
}
