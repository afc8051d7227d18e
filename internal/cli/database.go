package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newDatabasesCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "databases",
		Aliases: []string{"ls", "list"},
		Short:   "List databases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(cmd.Context(), cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			infos, err := e.manager.DescribeDatabases(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list databases: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return printJSON(out, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(out, "No databases found.")
				return nil
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"Name", "Size", "Modified", "Path"})
			for _, db := range infos {
				modified := ""
				if db.ModTime > 0 {
					modified = humanize.Time(time.Unix(db.ModTime, 0))
				}
				t.AppendRow(table.Row{db.Name, humanize.Bytes(uint64(max(db.Size, 0))), modified, db.Path})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatTable, "output format (table|json)")
	return cmd
}

func newTablesCmd(opts *options) *cobra.Command {
	var (
		format string
		count  bool
	)

	cmd := &cobra.Command{
		Use:   "tables <database>",
		Short: "List the tables of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbName := args[0]
			e, err := opts.setup(cmd.Context(), cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer e.Close()

			tables, err := e.manager.ListTables(cmd.Context(), dbName)
			if err != nil {
				return fmt.Errorf("failed to list tables of %s: %w", dbName, err)
			}

			counts := make(map[string]int64, len(tables))
			if count {
				for _, name := range tables {
					n, err := e.manager.CountRows(cmd.Context(), dbName, name)
					if err != nil {
						return fmt.Errorf("failed to count rows in %s: %w", name, err)
					}
					counts[name] = n
				}
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				if count {
					return printJSON(out, counts)
				}
				return printJSON(out, tables)
			case formatPlain:
				for _, name := range tables {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			if len(tables) == 0 {
				fmt.Fprintf(out, "No tables in %s.\n", dbName)
				return nil
			}
			t := newTable(out)
			if count {
				t.AppendHeader(table.Row{"Table", "Rows"})
				for _, name := range tables {
					t.AppendRow(table.Row{name, humanize.Comma(counts[name])})
				}
			} else {
				t.AppendHeader(table.Row{"Table"})
				for _, name := range tables {
					t.AppendRow(table.Row{name})
				}
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatTable, "output format (table|plain|json)")
	cmd.Flags().BoolVar(&count, "count", false, "include row counts")
	return cmd
}
