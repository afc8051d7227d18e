// Package config handles configuration file parsing and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Drivers understood by the database gateway.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	// Driver selects the database backend (postgres or sqlite).
	Driver string `yaml:"driver"`

	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`

	// DataDir holds the query log and the log file.
	DataDir string `yaml:"data_dir"`

	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`

	// MonitorInterval is how often the server connection is pinged in the
	// background. Zero disables the monitor.
	MonitorInterval string `yaml:"monitor_interval"`

	// Internal: path to the config file
	path string
}

// PostgresConfig contains PostgreSQL server connection parameters.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Database is the maintenance database used to list the others.
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// SQLiteConfig lists where SQLite database files are discovered.
type SQLiteConfig struct {
	Sources []DatabaseSource `yaml:"sources"`
}

// DatabaseSource defines a source of database files.
type DatabaseSource struct {
	Path        string `yaml:"path"`
	Alias       string `yaml:"alias"`
	Description string `yaml:"description"`
	Recursive   bool   `yaml:"recursive"`
}

// HistoryConfig controls the executed-query log.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File defaults to <data_dir>/dbpane.log.
	File string `yaml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverPostgres,
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "postgres",
			SSLMode:  "prefer",
			MaxConns: 2,
		},
		SQLite:  SQLiteConfig{Sources: []DatabaseSource{}},
		DataDir: defaultDataDir(),
		History: HistoryConfig{Enabled: true},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		MonitorInterval: "30s",
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dbpane")
	}
	return ".dbpane"
}

// Load reads and parses a configuration file, then applies environment
// overrides. An empty path yields the defaults plus the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.path = absPath
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides PostgreSQL settings from POSTGRES_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("POSTGRES_HOST"); ok && v != "" {
		c.Postgres.Host = v
	}
	if v, ok := lookup("POSTGRES_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid POSTGRES_PORT %q: %w", v, err)
		}
		c.Postgres.Port = port
	}
	if v, ok := lookup("POSTGRES_USER"); ok && v != "" {
		c.Postgres.User = v
	}
	if v, ok := lookup("POSTGRES_PASSWORD"); ok {
		c.Postgres.Password = v
	}
	if v, ok := lookup("POSTGRES_DB"); ok && v != "" {
		c.Postgres.Database = v
	}
	if v, ok := lookup("POSTGRES_SSLMODE"); ok && v != "" {
		c.Postgres.SSLMode = v
	}
	return nil
}

// Validate checks the configuration for values the gateway can't work with.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			return fmt.Errorf("invalid postgres port %d", c.Postgres.Port)
		}
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	case DriverSQLite:
		if len(c.SQLite.Sources) == 0 {
			return fmt.Errorf("sqlite driver needs at least one source path")
		}
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverPostgres, DriverSQLite)
	}
	if _, err := c.GetMonitorInterval(); err != nil {
		return err
	}
	return nil
}

// Path returns the path to the config file, if one was loaded.
func (c *Config) Path() string {
	return c.path
}

// GetMonitorInterval parses MonitorInterval. An empty value disables it.
func (c *Config) GetMonitorInterval() (time.Duration, error) {
	if c.MonitorInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.MonitorInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid monitor_interval %q: %w", c.MonitorInterval, err)
	}
	return d, nil
}

// GetDataDir returns the data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return ".dbpane"
	}
	return c.DataDir
}

// GetLogFile returns the log file path.
func (c *Config) GetLogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.GetDataDir(), "dbpane.log")
}

// UseSQLitePaths switches to the sqlite driver with the given paths as sources.
func (c *Config) UseSQLitePaths(paths []string) {
	c.Driver = DriverSQLite
	c.SQLite.Sources = make([]DatabaseSource, len(paths))
	for i, p := range paths {
		c.SQLite.Sources[i] = DatabaseSource{Path: p, Description: "Local database"}
	}
}
