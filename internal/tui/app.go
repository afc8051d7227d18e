// Package tui implements the interactive browser: key dispatch, the session
// update loop and frame rendering.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/johan-st/dbpane/internal/database"
	"github.com/johan-st/dbpane/internal/session"
)

// Gateway is the database backend the app talks to.
type Gateway interface {
	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, database string) ([]string, error)
	ExecuteQuery(ctx context.Context, database, query string) (*database.QueryResult, error)
}

// Recorder receives every executed query.
type Recorder interface {
	Record(database, query string, took time.Duration, rows int64, err error)
}

var errNoDatabase = errors.New("no database selected")

// App is the main TUI application model. Gateway calls run inside Update,
// so input and redraws wait for them to finish.
type App struct {
	// Dependencies
	ctx      context.Context
	gateway  Gateway
	recorder Recorder
	log      zerolog.Logger

	// Window size
	width, height int

	state *session.State
	note  string

	keys   KeyMap
	styles Styles
}

// NewApp creates the application for an already fetched database list and
// loads the tables of the first database. rec may be nil.
func NewApp(ctx context.Context, gw Gateway, databases []string, rec Recorder, log zerolog.Logger, width, height int) *App {
	a := &App{
		ctx:      ctx,
		gateway:  gw,
		recorder: rec,
		log:      log,
		width:    width,
		height:   height,
		state:    session.New(databases),
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
	}
	a.refreshTables()
	return a
}

// State returns the session state. The app owns it; callers must not mutate it.
func (a *App) State() *session.State {
	return a.state
}

// SetStyles replaces the render styles.
func (a *App) SetStyles(s Styles) {
	a.styles = s
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		action := Dispatch(a.keys, a.state.Focus(), msg)
		return a, a.apply(action)
	}
	return a, nil
}

func (a *App) apply(action Action) tea.Cmd {
	switch action.Kind {
	case ActionQuit:
		return tea.Quit

	case ActionFocus:
		a.state.SetFocus(action.Pane)

	case ActionNextDatabase:
		if a.state.SelectNextDatabase() {
			a.refreshTables()
		}

	case ActionPreviousDatabase:
		if a.state.SelectPreviousDatabase() {
			a.refreshTables()
		}

	case ActionNextTable:
		a.state.SelectNextTable()

	case ActionPreviousTable:
		a.state.SelectPreviousTable()

	case ActionInsertText:
		a.state.PushQueryText(action.Text)

	case ActionDeleteChar:
		a.state.PopQueryChar()

	case ActionExecute:
		a.execute()
	}
	return nil
}

// refreshTables replaces the table list with the selected database's tables.
// On failure the list is emptied and the error goes to the result view.
func (a *App) refreshTables() {
	name, ok := a.state.SelectedDatabaseName()
	if !ok {
		a.state.ReplaceTables(nil)
		return
	}

	tables, err := a.gateway.ListTables(a.ctx, name)
	if err != nil {
		a.log.Warn().Err(err).Str("database", name).Msg("table refresh failed")
		a.state.ReplaceTables(nil)
		a.state.SetResult(session.ErrorResult(err))
		return
	}
	a.log.Debug().Str("database", name).Int("tables", len(tables)).Msg("tables loaded")
	a.state.ReplaceTables(tables)
}

// execute runs the query text against the selected database.
func (a *App) execute() {
	a.note = ""
	name, ok := a.state.SelectedDatabaseName()
	if !ok {
		a.state.SetResult(session.ErrorResult(errNoDatabase))
		return
	}

	query := a.state.Query()
	start := time.Now()
	res, err := a.gateway.ExecuteQuery(a.ctx, name, query)
	took := time.Since(start)

	if err != nil {
		a.record(name, query, took, 0, err)
		a.state.SetResult(session.ErrorResult(err))
		return
	}

	if res.Duration > 0 {
		took = res.Duration
	}
	a.record(name, query, took, res.RowsAffected, nil)
	a.state.SetResult(session.TableResult(res.Columns, res.Rows, took))
	if !res.IsSelect && len(res.Columns) == 0 {
		a.note = fmt.Sprintf("%d rows affected", res.RowsAffected)
	}
}

func (a *App) record(db, query string, took time.Duration, rows int64, err error) {
	if a.recorder != nil {
		a.recorder.Record(db, query, took, rows, err)
	}
}

// Frame composes the current screen.
func (a *App) Frame() Frame {
	return Compose(a.state, a.width, a.height, ComposeOptions{
		Title: "dbpane",
		Help:  a.helpLine(),
		Note:  a.note,
	})
}

// View implements tea.Model.
func (a *App) View() string {
	return Render(a.Frame(), a.styles)
}

// helpLine lists the bindings that do something in the focused pane.
func (a *App) helpLine() string {
	bindings := a.keys.ShortHelp()
	switch a.state.Focus() {
	case session.DatabaseList, session.TableList:
		bindings = append(bindings, a.keys.Down, a.keys.Up, a.keys.Quit)
	case session.QueryEditor:
		bindings = append(bindings, a.keys.Execute, a.keys.ForceQuit)
	default:
		bindings = append(bindings, a.keys.Quit)
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, helpText(b))
	}
	return strings.Join(parts, " ")
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + ":" + h.Desc
}
