package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Render draws a composed frame as a string for the terminal.
func Render(f Frame, st Styles) string {
	if f.TooSmall {
		return lipgloss.Place(f.Width, f.Height, lipgloss.Center, lipgloss.Center,
			st.Error.Render("Terminal too small\nMin: 40x10"))
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		renderList(f.Databases, st, "No databases"),
		renderList(f.Tables, st, "No tables"),
	)

	rightParts := []string{renderResult(f.Result, st)}
	if f.Gap.Height > 0 {
		rightParts = append(rightParts, blank(f.Gap.Width, f.Gap.Height))
	}
	rightParts = append(rightParts, renderQuery(f.Query, st))
	right := lipgloss.JoinVertical(lipgloss.Left, rightParts...)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return body + "\n" + renderStatus(f.Status, f.Width, st)
}

func renderList(p Panel, st Styles, emptyText string) string {
	var lines []string
	if len(p.Items) == 0 {
		lines = append(lines, st.Dim.Render(emptyText))
	}
	for i, item := range p.Items {
		if i == p.Highlight {
			lines = append(lines, st.SelectedItem.Render("> "+item))
		} else {
			lines = append(lines, st.Item.Render("  "+item))
		}
	}
	return renderPane(strings.Join(lines, "\n"), p, st)
}

func renderResult(p Panel, st Styles) string {
	var content string
	switch {
	case p.Error:
		content = st.Error.Render(wrap(p.Text, p.Rect.ContentWidth()))
	case p.Grid != nil:
		content = renderGrid(p.Grid, p.Rect.ContentWidth(), st)
	default:
		content = st.Dim.Render("Write a query (^l) and press enter")
	}
	return renderPane(content, p, st)
}

func renderGrid(g *Grid, width int, st Styles) string {
	var lines []string

	if g.Header != nil {
		lines = append(lines, st.Header.Render(clip(joinCells(g.Header, g.Widths), width)))
		total := 0
		for i, w := range g.Widths {
			if i > 0 {
				total++
			}
			total += w
		}
		lines = append(lines, st.Dim.Render(strings.Repeat("─", min(total, width))))
	}
	for _, row := range g.Rows {
		lines = append(lines, st.Cell.Render(clip(joinCells(row, g.Widths), width)))
	}
	if len(g.Rows) == 0 && g.Header == nil {
		lines = append(lines, st.Dim.Render("(no rows)"))
	}
	if g.Hidden > 0 && len(lines) > 0 {
		lines[len(lines)-1] = st.Dim.Render(clip(runewidth.FillRight("… more rows", width), width))
	}
	return strings.Join(lines, "\n")
}

func joinCells(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = runewidth.FillRight(cell, w)
	}
	return strings.Join(parts, " ")
}

func renderQuery(p Panel, st Styles) string {
	width := p.Rect.ContentWidth()
	text := p.Text
	cursor := ""
	if p.Focused {
		cursor = st.Cursor.Render("█")
		width--
	}
	// Long queries scroll: keep the tail visible.
	text = strings.ReplaceAll(text, "\n", " ")
	if runewidth.StringWidth(text) > width {
		text = tail(text, width)
	}
	return renderPane(st.Input.Render(text)+cursor, p, st)
}

func renderStatus(s Status, width int, st Styles) string {
	left := st.StatusTitle.Render(s.Left)
	if s.Help != "" {
		left += " " + renderHelp(s.Help, st)
	}
	right := st.StatusValue.Render(s.Right)

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2 // statusBar padding
	if padding < 1 {
		padding = 1
	}
	return st.StatusBar.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", padding) + right)
}

// renderHelp styles a "key:desc key:desc" help line.
func renderHelp(help string, st Styles) string {
	entries := strings.Fields(help)
	for i, e := range entries {
		k, desc, ok := strings.Cut(e, ":")
		if !ok {
			entries[i] = st.HelpDesc.Render(e)
			continue
		}
		entries[i] = st.HelpKey.Render(k) + st.HelpDesc.Render(":"+desc)
	}
	return strings.Join(entries, " ")
}

// buildBorderTitle builds a top border line with an embedded title:
// ╭─ Title ─────╮
func buildBorderTitle(width int, title string, focused bool, st Styles) string {
	border := lipgloss.RoundedBorder()
	color, titleStyle := st.Border, st.Title
	if focused {
		color, titleStyle = st.FocusedBorder, st.FocusedTitle
	}
	borderStyle := lipgloss.NewStyle().Foreground(color)

	title = truncate(title, width-5)
	titleRendered := titleStyle.Render(title)

	// corner, bar, space, title, space, corner
	remaining := max(width-5-lipgloss.Width(titleRendered), 0)

	var b strings.Builder
	b.WriteString(borderStyle.Render(border.TopLeft + border.Top))
	b.WriteString(" ")
	b.WriteString(titleRendered)
	b.WriteString(" ")
	b.WriteString(borderStyle.Render(strings.Repeat(border.Top, remaining) + border.TopRight))
	return b.String()
}

// renderPane renders content in a pane of exactly p.Rect's size with the
// title in the top border.
func renderPane(content string, p Panel, st Styles) string {
	border := lipgloss.RoundedBorder()
	color := st.Border
	if p.Focused {
		color = st.FocusedBorder
	}
	borderStyle := lipgloss.NewStyle().Foreground(color)

	innerWidth := max(p.Rect.Width-2, 1)
	innerHeight := p.Rect.ContentHeight()

	lines := strings.Split(content, "\n")
	for len(lines) < innerHeight {
		lines = append(lines, "")
	}
	lines = lines[:innerHeight]

	var b strings.Builder
	b.WriteString(buildBorderTitle(p.Rect.Width, p.Title, p.Focused, st))
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(borderStyle.Render(border.Left))
		padded := lipgloss.NewStyle().MaxWidth(innerWidth).Render(" " + line)
		if w := lipgloss.Width(padded); w < innerWidth {
			padded += strings.Repeat(" ", innerWidth-w)
		}
		b.WriteString(padded)
		b.WriteString(borderStyle.Render(border.Right))
	}
	b.WriteString("\n")
	b.WriteString(borderStyle.Render(border.BottomLeft + strings.Repeat(border.Bottom, innerWidth) + border.BottomRight))
	return b.String()
}

func blank(width, height int) string {
	line := strings.Repeat(" ", width)
	lines := make([]string, height)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// clip cuts s to width cells without an ellipsis.
func clip(s string, width int) string {
	return runewidth.Truncate(s, max(width, 0), "")
}

// tail returns the rightmost part of s that fits in width cells.
func tail(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	w := 0
	i := len(runes)
	for i > 0 {
		rw := runewidth.RuneWidth(runes[i-1])
		if w+rw > width {
			break
		}
		w += rw
		i--
	}
	return string(runes[i:])
}

// wrap breaks s into lines of at most width cells.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		for runewidth.StringWidth(para) > width {
			head := runewidth.Truncate(para, width, "")
			if head == "" {
				break
			}
			out = append(out, head)
			para = para[len(head):]
		}
		out = append(out, para)
	}
	return strings.Join(out, "\n")
}
