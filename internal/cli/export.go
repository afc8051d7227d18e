package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/johan-st/dbpane/internal/database"
)

// Output formats.
const (
	formatTable = "table"
	formatPlain = "plain"
	formatCSV   = "csv"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatCSV, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want table, csv or json)", format)
}

// writeResult prints a query result in the given format.
func writeResult(w io.Writer, result *database.QueryResult, format string) error {
	switch format {
	case formatJSON:
		rows := make([]map[string]string, 0, len(result.Rows))
		for _, row := range result.Rows {
			m := make(map[string]string, len(result.Columns))
			for i, col := range result.Columns {
				if i < len(row) {
					m[col] = row[i]
				}
			}
			rows = append(rows, m)
		}
		if len(result.Columns) == 0 {
			return printJSON(w, map[string]int64{"rows_affected": result.RowsAffected})
		}
		return printJSON(w, rows)

	case formatCSV:
		cw := csv.NewWriter(w)
		if len(result.Columns) > 0 {
			if err := cw.Write(result.Columns); err != nil {
				return err
			}
		}
		if err := cw.WriteAll(result.Rows); err != nil {
			return err
		}
		return cw.Error()
	}

	if len(result.Columns) == 0 {
		fmt.Fprintf(w, "%s rows affected (%s)\n", humanize.Comma(result.RowsAffected), result.Duration)
		return nil
	}

	t := newTable(w)
	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range result.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	t.Render()
	fmt.Fprintf(w, "(%d rows in %s)\n", len(result.Rows), result.Duration)
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
