package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johan-st/dbpane/internal/config"
	"github.com/johan-st/dbpane/internal/testutil"
)

func sqliteManager(t *testing.T, sources ...config.DatabaseSource) *Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Driver = config.DriverSQLite
	cfg.SQLite.Sources = sources

	m, err := NewManager(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background(), false))
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSQLiteManager_Browse(t *testing.T) {
	dir := t.TempDir()
	testutil.SQLiteDB(t, dir, "shop.db", testutil.ShopSchema...)
	testutil.SQLiteDB(t, dir, "blank.sqlite")

	m := sqliteManager(t, config.DatabaseSource{Path: dir})
	ctx := context.Background()
	assert.Equal(t, SQLite, m.Dialect())

	names, err := m.ListDatabases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"blank", "shop"}, names)

	tables, err := m.ListTables(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)

	tables, err = m.ListTables(ctx, "blank")
	require.NoError(t, err)
	assert.Empty(t, tables)

	infos, err := m.DescribeDatabases(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "shop", infos[1].Name)
	assert.Positive(t, infos[1].Size)

	n, err := m.CountRows(ctx, "shop", "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = m.CountRows(ctx, "shop", "missing")
	assert.Error(t, err)
}

func TestSQLiteManager_ExecuteQuery(t *testing.T) {
	path := testutil.ShopDB(t, "shop.db")
	m := sqliteManager(t, config.DatabaseSource{Path: path})
	ctx := context.Background()

	res, err := m.ExecuteQuery(ctx, "shop", "SELECT id, total, note FROM orders ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "total", "note"}, res.Columns)
	assert.Equal(t, [][]string{
		{"1", "9.5", "first"},
		{"2", "20", "NULL"},
		{"3", "3.25", "gift"},
	}, res.Rows)

	res, err = m.ExecuteQuery(ctx, "shop", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}}, res.Rows)

	res, err = m.ExecuteQuery(ctx, "shop", "UPDATE users SET name = upper(name)")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)
	assert.Empty(t, res.Rows)

	res, err = m.ExecuteQuery(ctx, "shop", "SELECT name FROM users WHERE id = 99")
	require.NoError(t, err)
	assert.Empty(t, res.Rows, "zero rows is not an error")
	assert.Equal(t, []string{"name"}, res.Columns)
}

func TestSQLiteManager_Errors(t *testing.T) {
	path := testutil.ShopDB(t, "shop.db")
	m := sqliteManager(t, config.DatabaseSource{Path: path})
	ctx := context.Background()

	_, err := m.ExecuteQuery(ctx, "shop", "SELEC 1")
	require.Error(t, err)
	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Contains(t, err.Error(), "syntax error")

	_, err = m.ExecuteQuery(ctx, "shop", "SELECT * FROM missing")
	require.ErrorAs(t, err, &queryErr)
	assert.Contains(t, err.Error(), "no such table")

	_, err = m.ListTables(ctx, "nope")
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.ErrorIs(t, err, ErrUnknownDatabase)
}

func TestDiscovery_Sources(t *testing.T) {
	root := t.TempDir()
	testutil.SQLiteDB(t, root, "top.db")
	testutil.SQLiteDB(t, filepath.Join(root, "nested"), "deep.sqlite3")
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))

	tests := []struct {
		name   string
		source config.DatabaseSource
		want   []string
	}{
		{name: "directory", source: config.DatabaseSource{Path: root}, want: []string{"top"}},
		{name: "recursive", source: config.DatabaseSource{Path: root, Recursive: true}, want: []string{"deep", "top"}},
		{name: "glob", source: config.DatabaseSource{Path: filepath.Join(root, "**", "*.sqlite3")}, want: []string{"deep"}},
		{name: "alias wildcard", source: config.DatabaseSource{Path: filepath.Join(root, "*.db"), Alias: "prod-*"}, want: []string{"prod-top"}},
		{name: "fixed alias", source: config.DatabaseSource{Path: filepath.Join(root, "top.db"), Alias: "main"}, want: []string{"main"}},
		{name: "missing path", source: config.DatabaseSource{Path: filepath.Join(root, "gone")}, want: []string{}},
		{name: "not sqlite", source: config.DatabaseSource{Path: filepath.Join(root, "notes.txt")}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDiscovery([]config.DatabaseSource{tt.source}, zerolog.Nop())
			require.NoError(t, d.Scan())
			assert.Equal(t, tt.want, d.Names())
		})
	}
}

func TestDiscovery_DuplicateNames(t *testing.T) {
	a := testutil.SQLiteDB(t, filepath.Join(t.TempDir(), "a"), "shop.db")
	b := testutil.SQLiteDB(t, filepath.Join(t.TempDir(), "b"), "shop.db")

	d := NewDiscovery([]config.DatabaseSource{{Path: a}, {Path: b}, {Path: a}}, zerolog.Nop())
	require.NoError(t, d.Scan())
	assert.Equal(t, []string{"shop", "shop-2"}, d.Names())

	db, ok := d.Lookup("shop-2")
	require.True(t, ok)
	assert.Equal(t, b, db.Path)

	db, ok = d.Lookup(a)
	require.True(t, ok, "lookup by path")
	assert.Equal(t, "shop", db.Name)
}

func TestDiscovery_WatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.SQLiteDB(t, dir, "first.db")

	d := NewDiscovery([]config.DatabaseSource{{Path: dir}}, zerolog.Nop())
	changes := make(chan []string, 4)
	d.OnChange(func(names []string) { changes <- names })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Watch(ctx))
	assert.Equal(t, []string{"first"}, <-changes)

	testutil.SQLiteDB(t, dir, "second.db")

	require.Eventually(t, func() bool {
		return len(d.Names()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, d.Names())
}
