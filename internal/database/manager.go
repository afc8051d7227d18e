package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/johan-st/dbpane/internal/config"
	"github.com/johan-st/dbpane/internal/logging"
)

type opener func(ctx context.Context, database string) (*Connection, error)

// Manager is the gateway used by the UI and CLI: it lists databases and
// tables and runs queries, keeping one connection per database.
type Manager struct {
	dialect     Dialect
	maintenance string // postgres database used for server-wide listings
	discovery   *Discovery
	open        opener
	connections map[string]*Connection
	log         zerolog.Logger
	mu          sync.Mutex
}

// NewManager creates a manager for the configured driver.
func NewManager(cfg *config.Config) (*Manager, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	log := logging.Component("gateway")

	switch dialect {
	case Postgres:
		pg := cfg.Postgres
		m := newManager(Postgres, func(ctx context.Context, name string) (*Connection, error) {
			return Open(ctx, Postgres, name, PostgresDSN(pg, name), pg.MaxConns)
		}, log)
		m.maintenance = pg.Database
		return m, nil

	default:
		discovery := NewDiscovery(cfg.SQLite.Sources, log)
		m := newManager(SQLite, nil, log)
		m.discovery = discovery
		m.open = func(ctx context.Context, name string) (*Connection, error) {
			db, ok := discovery.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownDatabase, name)
			}
			return Open(ctx, SQLite, name, SQLiteDSN(db.Path), 1)
		}
		return m, nil
	}
}

func newManager(dialect Dialect, open opener, log zerolog.Logger) *Manager {
	return &Manager{
		dialect:     dialect,
		open:        open,
		connections: make(map[string]*Connection),
		log:         log,
	}
}

// Dialect returns the backend this manager talks to.
func (m *Manager) Dialect() Dialect {
	return m.dialect
}

// Start runs SQLite discovery. With watch set, directories are watched until
// ctx is done. It is a no-op for PostgreSQL.
func (m *Manager) Start(ctx context.Context, watch bool) error {
	if m.discovery == nil {
		return nil
	}
	if watch {
		return m.discovery.Watch(ctx)
	}
	return m.discovery.Scan()
}

// Discovery returns the SQLite discovery service, or nil for PostgreSQL.
func (m *Manager) Discovery() *Discovery {
	return m.discovery
}

func (m *Manager) conn(ctx context.Context, name string) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.connections[name]; ok {
		return conn, nil
	}

	start := time.Now()
	conn, err := m.open(ctx, name)
	if err != nil {
		m.log.Warn().Err(err).Str("database", name).Msg("connect failed")
		return nil, Classify(OpConnect, name, err)
	}
	m.log.Debug().Str("database", name).Dur("took", time.Since(start)).Msg("connected")

	m.connections[name] = conn
	return conn, nil
}

// ListDatabases returns the database names in display order.
func (m *Manager) ListDatabases(ctx context.Context) ([]string, error) {
	if m.dialect == SQLite {
		return m.discovery.Names(), nil
	}

	conn, err := m.conn(ctx, m.maintenance)
	if err != nil {
		return nil, err
	}
	names, err := ListDatabases(ctx, conn)
	if err != nil {
		return nil, Classify(OpListDatabases, m.maintenance, err)
	}
	m.log.Debug().Int("count", len(names)).Msg("databases listed")
	return names, nil
}

// DescribeDatabases returns the databases with size information.
func (m *Manager) DescribeDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	if m.dialect == SQLite {
		var infos []DatabaseInfo
		for _, db := range m.discovery.Databases() {
			infos = append(infos, DatabaseInfo{
				Name:        db.Name,
				Path:        db.Path,
				Size:        db.Size,
				ModTime:     db.ModTime,
				Description: db.Description,
			})
		}
		return infos, nil
	}

	conn, err := m.conn(ctx, m.maintenance)
	if err != nil {
		return nil, err
	}
	infos, err := DatabaseSizes(ctx, conn)
	if err != nil {
		return nil, Classify(OpListDatabases, m.maintenance, err)
	}
	return infos, nil
}

// ListTables returns the tables of one database.
func (m *Manager) ListTables(ctx context.Context, database string) ([]string, error) {
	conn, err := m.conn(ctx, database)
	if err != nil {
		return nil, err
	}
	tables, err := ListTables(ctx, conn)
	if err != nil {
		m.log.Warn().Err(err).Str("database", database).Msg("list tables failed")
		return nil, Classify(OpListTables, database, err)
	}
	return tables, nil
}

// CountRows returns the row count of one table.
func (m *Manager) CountRows(ctx context.Context, database, table string) (int64, error) {
	conn, err := m.conn(ctx, database)
	if err != nil {
		return 0, err
	}
	n, err := CountRows(ctx, conn, table)
	if err != nil {
		return 0, Classify(OpQuery, database, err)
	}
	return n, nil
}

// ExecuteQuery runs query against database.
func (m *Manager) ExecuteQuery(ctx context.Context, database, query string) (*QueryResult, error) {
	conn, err := m.conn(ctx, database)
	if err != nil {
		return nil, err
	}

	result, err := Query(ctx, conn, query)
	if err != nil {
		m.log.Info().Err(err).Str("database", database).Msg("query failed")
		return nil, Classify(OpQuery, database, err)
	}
	m.log.Info().
		Str("database", database).
		Int("rows", len(result.Rows)).
		Int64("affected", result.RowsAffected).
		Dur("took", result.Duration).
		Msg("query executed")
	return result, nil
}

// Monitor pings every open connection each interval until ctx is done.
// Failures are logged only.
func (m *Manager) Monitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pingAll(ctx)
		}
	}
}

// pingAll pings the cached connections and returns the failures by name.
func (m *Manager) pingAll(ctx context.Context) map[string]error {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, c := range m.connections {
		conns = append(conns, c)
	}
	m.mu.Unlock()
	sort.Slice(conns, func(i, j int) bool { return conns[i].Name < conns[j].Name })

	failed := make(map[string]error)
	for _, c := range conns {
		if err := c.Ping(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return failed
			}
			failed[c.Name] = Classify(OpPing, c.Name, err)
			m.log.Warn().Err(err).Str("database", c.Name).Msg("ping failed")
			continue
		}
		m.log.Trace().Str("database", c.Name).Msg("ping ok")
	}
	return failed
}

// Close closes every open connection.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, conn := range m.connections {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.connections = make(map[string]*Connection)
	return errors.Join(errs...)
}
