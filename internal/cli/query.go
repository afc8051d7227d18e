package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newQueryCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "query <database> <sql>",
		Short: "Execute a SQL statement and print the result",
		Example: `  dbpane query app "SELECT * FROM users"
  dbpane -p ./shop.db query shop "SELECT count(*) FROM orders" --format csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbName, sql := args[0], args[1]
			if err := checkFormat(format); err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := opts.setup(ctx, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer e.Close()
			rec := e.recorder(ctx, e.target())

			start := time.Now()
			result, err := e.manager.ExecuteQuery(ctx, dbName, sql)
			if rec != nil {
				var rows int64
				took := time.Since(start)
				if result != nil {
					rows = result.RowsAffected
					took = result.Duration
				}
				rec.Record(dbName, sql, took, rows, err)
			}
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}

			return writeResult(cmd.OutOrStdout(), result, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatTable, "output format (table|csv|json)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{formatTable, formatCSV, formatJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
