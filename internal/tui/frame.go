package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/johan-st/dbpane/internal/session"
)

const (
	minWidth       = 40
	minHeight      = 10
	minColumnWidth = 10
	statusHeight   = 1
)

// Rect is a cell-aligned region of the terminal.
type Rect struct {
	X, Y          int
	Width, Height int
}

// ContentWidth is the width left inside the border and the one-cell left padding.
func (r Rect) ContentWidth() int {
	return max(r.Width-3, 0)
}

// ContentHeight is the height left inside the border.
func (r Rect) ContentHeight() int {
	return max(r.Height-2, 0)
}

// Panel describes one bordered region of the frame.
type Panel struct {
	Title   string
	Rect    Rect
	Focused bool

	// Items is the visible window of a list, already truncated to fit.
	Items []string
	// Highlight indexes Items; -1 when nothing visible is selected.
	Highlight int

	Grid *Grid

	Text  string
	Error bool
}

// Grid is a tabular result laid out for a panel.
type Grid struct {
	Header []string // nil when the result carries no column names
	Widths []int
	Rows   [][]string
	// Hidden counts rows that didn't fit.
	Hidden int
}

// Status is the one-line bar under the panels.
type Status struct {
	Left  string
	Right string
	Help  string
}

// Frame is everything needed to draw one screen.
type Frame struct {
	Width, Height int
	TooSmall      bool

	Databases Panel
	Tables    Panel
	Result    Panel
	Gap       Rect
	Query     Panel

	Status Status
}

// ComposeOptions carries the parts of the frame that don't live in the session.
type ComposeOptions struct {
	Title string
	Help  string
	Note  string
}

// Compose lays out st on a width x height terminal. It reads st only and has
// no other inputs, so equal arguments give equal frames.
func Compose(st *session.State, width, height int, opts ComposeOptions) Frame {
	f := Frame{Width: width, Height: height}
	if width < minWidth || height < minHeight {
		f.TooSmall = true
		return f
	}

	bodyH := height - statusHeight
	leftW := width * 20 / 100
	rightW := width - leftW

	dbH := bodyH / 2
	resultH := bodyH * 70 / 100
	queryH := max(bodyH*10/100, 3)
	gapH := bodyH - resultH - queryH
	if gapH < 0 {
		resultH += gapH
		gapH = 0
	}

	focus := st.Focus()

	dbIdx, dbOK := st.SelectedDatabase()
	f.Databases = listPanel("Databases", Rect{0, 0, leftW, dbH}, st.Databases(), dbIdx, dbOK)
	f.Databases.Focused = focus == session.DatabaseList

	tIdx, tOK := st.SelectedTable()
	f.Tables = listPanel("Tables", Rect{0, dbH, leftW, bodyH - dbH}, st.Tables(), tIdx, tOK)
	f.Tables.Focused = focus == session.TableList

	f.Result = resultPanel(Rect{leftW, 0, rightW, resultH}, st.Result())
	f.Result.Focused = focus == session.ResultView

	f.Gap = Rect{leftW, resultH, rightW, gapH}

	f.Query = Panel{
		Title:     "Query",
		Rect:      Rect{leftW, resultH + gapH, rightW, queryH},
		Focused:   focus == session.QueryEditor,
		Highlight: -1,
		Text:      st.Query(),
	}

	f.Status = composeStatus(st, opts)
	return f
}

func listPanel(title string, r Rect, items []string, selected int, ok bool) Panel {
	p := Panel{Title: title, Rect: r, Highlight: -1}

	visible := r.ContentHeight()
	if visible <= 0 || len(items) == 0 {
		p.Items = []string{}
		return p
	}

	offset := 0
	if ok && selected >= visible {
		offset = selected - visible + 1
	}
	end := min(offset+visible, len(items))

	itemW := r.ContentWidth() - 2 // "> " marker
	p.Items = make([]string, 0, end-offset)
	for _, it := range items[offset:end] {
		p.Items = append(p.Items, truncate(it, itemW))
	}
	if ok {
		p.Highlight = selected - offset
	}
	if len(items) > visible {
		pos := 0
		if ok {
			pos = selected + 1
		}
		p.Title = fmt.Sprintf("%s %d/%d", title, pos, len(items))
	}
	return p
}

func resultPanel(r Rect, res session.Result) Panel {
	p := Panel{Title: "Results", Rect: r, Highlight: -1}

	switch res.Kind {
	case session.ResultError:
		p.Text = res.Message
		p.Error = true
	case session.ResultTable:
		p.Grid = layoutGrid(res, r.ContentWidth(), r.ContentHeight())
	}
	return p
}

// layoutGrid sizes each column to its widest cell, never below
// minColumnWidth and never beyond the panel.
func layoutGrid(res session.Result, width, height int) *Grid {
	cols := res.ColumnCount()
	g := &Grid{Widths: make([]int, cols), Rows: [][]string{}}

	if len(res.Columns) == cols && cols > 0 {
		g.Header = res.Columns
	}

	for i := range g.Widths {
		w := minColumnWidth
		if g.Header != nil {
			w = max(w, runewidth.StringWidth(g.Header[i]))
		}
		for _, row := range res.Rows {
			if i < len(row) {
				w = max(w, runewidth.StringWidth(row[i]))
			}
		}
		g.Widths[i] = min(w, max(width, 1))
	}

	if g.Header != nil {
		hdr := make([]string, cols)
		for i, h := range g.Header {
			hdr[i] = truncate(h, g.Widths[i])
		}
		g.Header = hdr
		height -= 2 // header and rule
	}

	visible := min(max(height, 0), len(res.Rows))
	for _, row := range res.Rows[:visible] {
		cells := make([]string, cols)
		for i := 0; i < cols && i < len(row); i++ {
			cells[i] = truncate(row[i], g.Widths[i])
		}
		g.Rows = append(g.Rows, cells)
	}
	g.Hidden = len(res.Rows) - visible
	return g
}

func composeStatus(st *session.State, opts ComposeOptions) Status {
	s := Status{Left: opts.Title, Help: opts.Help}

	right := ""
	if db, ok := st.SelectedDatabaseName(); ok {
		right = db
		if t, ok := st.SelectedTableName(); ok {
			right += " > " + t
		}
	}

	parts := []string{}
	if right != "" {
		parts = append(parts, right)
	}
	if res := st.Result(); res.Kind == session.ResultTable {
		parts = append(parts, fmt.Sprintf("%s in %s", rowCount(len(res.Rows)), res.Duration.Round(time.Microsecond)))
	}
	if opts.Note != "" {
		parts = append(parts, opts.Note)
	}
	s.Right = strings.Join(parts, " | ")
	return s
}

func rowCount(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
