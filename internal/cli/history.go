package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/johan-st/dbpane/internal/history"
)

const maxQueryWidth = 60

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		limit    int
		dbName   string
		session  string
		since    time.Duration
		format   string
		failures bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show executed queries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return err
			}

			store, err := history.NewStore(cfg.GetDataDir())
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer store.Close()

			filter := history.ListFilter{SessionID: session, Database: dbName, Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			records, err := store.ListQueries(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if failures {
				kept := records[:0]
				for _, r := range records {
					if r.Failed() {
						kept = append(kept, r)
					}
				}
				records = kept
			}

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return printJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No query history")
				return nil
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"When", "Database", "Took", "Rows", "Query", "Error"})
			for _, r := range records {
				t.AppendRow(table.Row{
					humanize.Time(r.CreatedAt),
					r.Database,
					formatDuration(r.Duration),
					r.Rows,
					shorten(r.Query, maxQueryWidth),
					shorten(r.Error, maxQueryWidth),
				})
			}
			t.Render()
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&limit, "limit", 50, "maximum number of entries")
	flags.StringVar(&dbName, "database", "", "only queries run against this database")
	flags.StringVar(&session, "session", "", "only queries from this session id")
	flags.DurationVar(&since, "since", 0, "only queries newer than this (e.g. 24h)")
	flags.BoolVar(&failures, "failed", false, "only failed queries")
	flags.StringVar(&format, "format", formatTable, "output format (table|json)")
	return cmd
}

// formatDuration formats a query duration for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// shorten flattens s to one line of at most n runes.
func shorten(s string, n int) string {
	flat := []rune(strings.Join(strings.Fields(s), " "))
	if len(flat) <= n {
		return string(flat)
	}
	return string(flat[:n-3]) + "..."
}
