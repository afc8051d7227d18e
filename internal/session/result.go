package session

import "time"

// ErrorPrefix starts the text of every error result so it can't be mistaken
// for tabular output.
const ErrorPrefix = "Error: "

// ResultKind tells which variant a Result holds.
type ResultKind int

const (
	ResultEmpty ResultKind = iota
	ResultTable
	ResultError
)

// Result is the outcome of the last query: nothing yet, a table of string
// cells, or an error message.
type Result struct {
	Kind     ResultKind
	Columns  []string   // optional column names, not part of Rows
	Rows     [][]string // column count is implied by the first row
	Message  string     // error text, ErrorPrefix included
	Duration time.Duration
}

// EmptyResult returns the result shown before any query ran.
func EmptyResult() Result {
	return Result{Kind: ResultEmpty}
}

// TableResult wraps the rows of a successful query. Zero rows is a valid,
// empty table.
func TableResult(columns []string, rows [][]string, took time.Duration) Result {
	if rows == nil {
		rows = [][]string{}
	}
	return Result{
		Kind:     ResultTable,
		Columns:  columns,
		Rows:     rows,
		Duration: took,
	}
}

// ErrorResult formats err for display in the result view.
func ErrorResult(err error) Result {
	return Result{
		Kind:    ResultError,
		Message: ErrorPrefix + err.Error(),
	}
}

// ColumnCount returns the number of columns of a table result.
func (r Result) ColumnCount() int {
	if r.Kind != ResultTable {
		return 0
	}
	if len(r.Rows) > 0 {
		return len(r.Rows[0])
	}
	return len(r.Columns)
}
