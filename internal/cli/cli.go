// Package cli provides the dbpane command line: the root command opens the
// interactive browser, subcommands run one operation and exit.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/johan-st/dbpane/internal/config"
	"github.com/johan-st/dbpane/internal/database"
	"github.com/johan-st/dbpane/internal/history"
	"github.com/johan-st/dbpane/internal/logging"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	driver     string
	logLevel   string
	dataDir    string
	paths      []string
}

// NewRootCmd creates the dbpane command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dbpane [sqlite paths...]",
		Short: "Browse database schemas and run queries in the terminal",
		Long: `dbpane is a terminal schema browser and query runner.

Without arguments it connects to the PostgreSQL server described by the
config file and the POSTGRES_* environment variables. Paths to SQLite
files, directories or globs open those databases instead.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts, args)
		},
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config file")
	flags.StringVar(&opts.driver, "driver", "", "database driver (postgres|sqlite)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory for the query history and log file")
	flags.StringSliceVarP(&opts.paths, "path", "p", nil, "SQLite file, directory or glob (repeatable)")

	_ = root.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.DriverPostgres, config.DriverSQLite}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newDatabasesCmd(opts),
		newTablesCmd(opts),
		newQueryCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(version),
	)
	return root
}

// loadConfig reads the config file and applies the command line on top.
// Positional SQLite paths switch the driver to sqlite.
func (o *options) loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	paths := append(append([]string{}, o.paths...), args...)
	if len(paths) > 0 {
		if o.driver != "" && o.driver != config.DriverSQLite {
			return nil, fmt.Errorf("sqlite paths given with --driver %s", o.driver)
		}
		cfg.UseSQLitePaths(paths)
	} else if o.driver != "" {
		cfg.Driver = o.driver
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// env is what a subcommand needs to talk to the databases.
type env struct {
	cfg     *config.Config
	manager *database.Manager
	closers []io.Closer
}

// setup loads config, starts logging to logOut and opens the gateway.
// Callers must close the returned env.
func (o *options) setup(ctx context.Context, logOut io.Writer, args []string) (*env, error) {
	cfg, err := o.loadConfig(args)
	if err != nil {
		return nil, err
	}
	return openEnv(ctx, cfg, logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOut,
	}, false)
}

// openEnv initializes logging and starts the database manager. With watch
// set, SQLite directories are watched until ctx is done.
func openEnv(ctx context.Context, cfg *config.Config, logCfg logging.Config, watch bool) (*env, error) {
	logCloser, err := logging.Init(logCfg)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, closers: []io.Closer{logCloser}}

	manager, err := database.NewManager(cfg)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to initialize database manager: %w", err)
	}
	e.manager = manager
	e.closers = append(e.closers, manager)

	if err := manager.Start(ctx, watch); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to start database manager: %w", err)
	}
	return e, nil
}

// recorder opens the history store when history is enabled. It returns nil
// otherwise, or when the store can't be opened.
func (e *env) recorder(ctx context.Context, target string) *history.Recorder {
	if !e.cfg.History.Enabled {
		return nil
	}
	log := logging.Component("history")

	store, err := history.NewStore(e.cfg.GetDataDir())
	if err != nil {
		log.Warn().Err(err).Msg("history disabled")
		return nil
	}
	rec, err := history.NewRecorder(ctx, store, history.NewSession(e.cfg.Driver, target), log)
	if err != nil {
		store.Close()
		log.Warn().Err(err).Msg("history disabled")
		return nil
	}
	// closed in reverse: session end before the store
	e.closers = append(e.closers, store, rec)
	return rec
}

// target describes what the session is connected to, for the history log.
func (e *env) target() string {
	if e.cfg.Driver == config.DriverPostgres {
		pg := e.cfg.Postgres
		return fmt.Sprintf("%s@%s:%d", pg.User, pg.Host, pg.Port)
	}
	paths := make([]string, len(e.cfg.SQLite.Sources))
	for i, s := range e.cfg.SQLite.Sources {
		paths[i] = s.Path
	}
	return fmt.Sprint(paths)
}

// Close releases everything setup and recorder opened.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
