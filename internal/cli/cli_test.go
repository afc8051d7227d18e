package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johan-st/dbpane/internal/config"
	"github.com/johan-st/dbpane/internal/logging"
	"github.com/johan-st/dbpane/internal/testutil"
)

// testEnv runs commands against one SQLite fixture with a private data dir.
type testEnv struct {
	t       *testing.T
	dbPath  string
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		t:       t,
		dbPath:  testutil.ShopDB(t, "shop.db"),
		dataDir: t.TempDir(),
	}
}

func (e *testEnv) run(args ...string) (*testutil.OutputCapture, error) {
	e.t.Helper()
	var out testutil.OutputCapture

	cmd := NewRootCmd("test")
	cmd.SetOut(&out.Out)
	cmd.SetErr(&out.Err)
	cmd.SetArgs(append([]string{"--path", e.dbPath, "--data-dir", e.dataDir, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return &out, err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "stderr: %s", out.Stderr())
	return out.Stdout()
}

func TestDatabases(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("databases")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "shop")
	assert.Contains(t, out, env.dbPath)

	var infos []map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("ls", "--format", "json")), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "shop", infos[0]["name"])
	assert.Positive(t, infos[0]["size"])
}

func TestTables(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("tables", "shop")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "users")

	assert.Equal(t, "orders\nusers\n", env.mustRun("tables", "shop", "--format", "plain"))

	var counts map[string]int64
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("tables", "shop", "--count", "--format", "json")), &counts))
	assert.Equal(t, map[string]int64{"orders": 3, "users": 2}, counts)
}

func TestTables_UnknownDatabase(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("tables", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}

func TestTables_NeedsDatabaseArg(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("tables")
	assert.Error(t, err)
}

func TestQuery_Formats(t *testing.T) {
	env := newTestEnv(t)
	const sql = "SELECT id, name FROM users ORDER BY id"

	t.Run("csv", func(t *testing.T) {
		assert.Equal(t, "id,name\n1,Alice\n2,Bob\n", env.mustRun("query", "shop", sql, "--format", "csv"))
	})

	t.Run("json", func(t *testing.T) {
		var rows []map[string]string
		require.NoError(t, json.Unmarshal([]byte(env.mustRun("query", "shop", sql, "--format", "json")), &rows))
		assert.Equal(t, []map[string]string{
			{"id": "1", "name": "Alice"},
			{"id": "2", "name": "Bob"},
		}, rows)
	})

	t.Run("table", func(t *testing.T) {
		out := env.mustRun("query", "shop", sql)
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "Alice")
		assert.Contains(t, out, "(2 rows in")
	})

	t.Run("null", func(t *testing.T) {
		out := env.mustRun("query", "shop", "SELECT note FROM orders WHERE id = 2", "--format", "csv")
		assert.Equal(t, "note\nNULL\n", out)
	})
}

func TestQuery_Statement(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("query", "shop", "UPDATE users SET name = 'Carol' WHERE id = 1")
	assert.Contains(t, out, "1 rows affected")

	assert.Equal(t, "name\nCarol\n", env.mustRun("query", "shop", "SELECT name FROM users WHERE id = 1", "--format", "csv"))
}

func TestQuery_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("query", "shop", "SELEC nonsense")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query error")

	_, err = env.run("query", "shop", "SELECT 1", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, err = env.run("query", "shop")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	assert.Contains(t, env.mustRun("history"), "No query history")

	env.mustRun("query", "shop", "SELECT id, name FROM users")
	_, err := env.run("query", "shop", "SELECT * FROM missing")
	require.Error(t, err)

	out := env.mustRun("history")
	assert.Contains(t, out, "SELECT id, name FROM users")
	assert.Contains(t, out, "SELECT * FROM missing")
	assert.Contains(t, out, "no such table")

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("history", "--format", "json")), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "SELECT * FROM missing", records[0]["query"], "newest first")
	assert.Equal(t, float64(2), records[1]["rows"])

	records = nil
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("history", "--failed", "--format", "json")), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "shop", records[0]["database"])

	records = nil
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("history", "--limit", "1", "--format", "json")), &records))
	assert.Len(t, records, 1)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("version")
	assert.True(t, strings.HasPrefix(out, "dbpane test"), out)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("version", "--json")), &info))
	assert.Equal(t, "test", info["version"])
}

func TestLoadConfig(t *testing.T) {
	t.Run("paths switch to sqlite", func(t *testing.T) {
		opts := &options{dataDir: t.TempDir()}
		cfg, err := opts.loadConfig([]string{"a.db"})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Driver)
		assert.Equal(t, opts.dataDir, cfg.GetDataDir())
	})

	t.Run("paths conflict with postgres", func(t *testing.T) {
		opts := &options{driver: "postgres"}
		_, err := opts.loadConfig([]string{"a.db"})
		assert.ErrorContains(t, err, "sqlite paths given")
	})

	t.Run("sqlite driver without paths", func(t *testing.T) {
		opts := &options{driver: "sqlite"}
		_, err := opts.loadConfig(nil)
		assert.ErrorContains(t, err, "at least one source")
	})

	t.Run("log level override", func(t *testing.T) {
		opts := &options{logLevel: "debug"}
		cfg, err := opts.loadConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "postgres", cfg.Driver)
	})
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "SELECT * FROM users", shorten("SELECT *\n  FROM users", 40))
	assert.Equal(t, "abcdefg...", shorten(strings.Repeat("abcdefghij", 3), 10))
}

// lockedBuffer is written by the discovery goroutine and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogDiscoveryChanges(t *testing.T) {
	dir := t.TempDir()
	testutil.SQLiteDB(t, dir, "first.db")

	cfg := config.DefaultConfig()
	cfg.UseSQLitePaths([]string{dir})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var logs lockedBuffer
	e, err := openEnv(ctx, cfg, logging.Config{Level: "info", Format: "json", Output: &logs}, true)
	require.NoError(t, err)
	defer e.Close()

	logDiscoveryChanges(e.manager, logging.Component("tui"))
	testutil.SQLiteDB(t, dir, "second.db")

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "databases changed (visible next launch)")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, logs.String(), `"second"`)
}

func TestLogDiscoveryChanges_Postgres(t *testing.T) {
	cfg := config.DefaultConfig()
	e, err := openEnv(context.Background(), cfg, logging.Config{Level: "error", Output: &bytes.Buffer{}}, false)
	require.NoError(t, err)
	defer e.Close()

	assert.NotPanics(t, func() { logDiscoveryChanges(e.manager, logging.Component("tui")) })
}
