package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/johan-st/dbpane/internal/database"
	"github.com/johan-st/dbpane/internal/logging"
	"github.com/johan-st/dbpane/internal/tui"
)

// runTUI opens the interactive browser. The database list is fetched once
// before the UI starts; failing to get it aborts the run.
func runTUI(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := opts.loadConfig(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	e, err := openEnv(ctx, cfg, logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.GetLogFile(),
	}, true)
	if err != nil {
		cancel()
		return err
	}
	defer func() {
		cancel()
		e.Close()
	}()
	log := logging.Component("tui")

	databases, err := e.manager.ListDatabases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}
	log.Info().Str("driver", cfg.Driver).Int("databases", len(databases)).Msg("starting")
	logDiscoveryChanges(e.manager, log)

	var rec tui.Recorder
	if r := e.recorder(ctx, e.target()); r != nil {
		rec = r
	}

	interval, err := cfg.GetMonitorInterval()
	if err != nil {
		return err
	}
	go e.manager.Monitor(ctx, interval)

	width, height := terminalSize(cmd.OutOrStdout())
	app := tui.NewApp(ctx, e.manager, databases, rec, log, width, height)

	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// logDiscoveryChanges logs SQLite rescans that change the database set. The
// open session keeps its list; new names show up on the next launch.
func logDiscoveryChanges(m *database.Manager, log zerolog.Logger) {
	d := m.Discovery()
	if d == nil {
		return
	}
	d.OnChange(func(names []string) {
		log.Info().Strs("databases", names).Msg("databases changed (visible next launch)")
	})
}

// terminalSize returns the size of w when it is a terminal, 80x24 otherwise.
func terminalSize(w io.Writer) (int, int) {
	width, height := 80, 24
	f, ok := w.(*os.File)
	if !ok {
		return width, height
	}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			width, height = w, h
		}
	}
	return width, height
}
