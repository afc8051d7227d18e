package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/johan-st/dbpane/internal/config"
)

// DiscoveredDatabase is a SQLite file found under one of the configured sources.
type DiscoveredDatabase struct {
	Name        string
	Path        string
	Description string
	Size        int64
	ModTime     int64
}

// Discovery finds SQLite files from file, directory and glob sources and
// keeps the set current while watched directories change.
type Discovery struct {
	sources   []config.DatabaseSource
	databases map[string]*DiscoveredDatabase // by name
	watcher   *fsnotify.Watcher
	onChange  func(names []string)
	log       zerolog.Logger
	mu        sync.RWMutex
}

// NewDiscovery creates a discovery service for the given sources.
func NewDiscovery(sources []config.DatabaseSource, log zerolog.Logger) *Discovery {
	return &Discovery{
		sources:   sources,
		databases: make(map[string]*DiscoveredDatabase),
		log:       log,
	}
}

// OnChange registers a callback invoked with the new name list after a rescan
// changed the set.
func (d *Discovery) OnChange(fn func(names []string)) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

// Scan rescans every source once.
func (d *Discovery) Scan() error {
	_, err := d.scan()
	return err
}

// Watch scans, then rescans whenever a watched directory gains or loses a
// database file, until ctx is done.
func (d *Discovery) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	d.mu.Lock()
	d.watcher = watcher
	d.mu.Unlock()

	if _, err := d.scan(); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSQLiteFile(event.Name) {
					continue
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					d.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("database file changed")
					if _, err := d.scan(); err != nil {
						d.log.Warn().Err(err).Msg("rescan failed")
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.log.Warn().Err(err).Msg("discovery watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Names returns the discovered database names, sorted.
func (d *Discovery) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.namesLocked()
}

func (d *Discovery) namesLocked() []string {
	names := make([]string, 0, len(d.databases))
	for name := range d.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Databases returns the discovered databases ordered by name.
func (d *Discovery) Databases() []*DiscoveredDatabase {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*DiscoveredDatabase, 0, len(d.databases))
	for _, name := range d.namesLocked() {
		result = append(result, d.databases[name])
	}
	return result
}

// Lookup finds a database by name, falling back to its absolute path.
func (d *Discovery) Lookup(nameOrPath string) (*DiscoveredDatabase, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if db, ok := d.databases[nameOrPath]; ok {
		return db, true
	}
	for _, db := range d.databases {
		if db.Path == nameOrPath {
			return db, true
		}
	}
	return nil, false
}

func (d *Discovery) scan() (bool, error) {
	found := make(map[string]*DiscoveredDatabase)
	byPath := make(map[string]bool)
	var watchDirs []string

	for i := range d.sources {
		source := &d.sources[i]
		dbs, dirs, err := discoverSource(source)
		if err != nil {
			d.log.Warn().Err(err).Str("source", source.Path).Msg("failed to discover databases")
			continue
		}
		for _, db := range dbs {
			if byPath[db.Path] {
				continue
			}
			byPath[db.Path] = true
			db.Name = uniqueName(found, db.Name)
			found[db.Name] = db
		}
		watchDirs = append(watchDirs, dirs...)
	}

	d.mu.Lock()
	changed := !sameKeys(d.databases, found)
	d.databases = found
	watcher := d.watcher
	onChange := d.onChange
	names := d.namesLocked()
	d.mu.Unlock()

	if watcher != nil {
		for _, dir := range watchDirs {
			if err := watcher.Add(dir); err != nil {
				d.log.Debug().Err(err).Str("dir", dir).Msg("cannot watch directory")
			}
		}
	}

	d.log.Debug().Int("databases", len(names)).Msg("discovery scan complete")
	if changed && onChange != nil {
		onChange(names)
	}
	return changed, nil
}

// discoverSource expands one source into database files and the directories
// worth watching for it.
func discoverSource(source *config.DatabaseSource) ([]*DiscoveredDatabase, []string, error) {
	path := source.Path

	if strings.ContainsAny(path, "*?[") {
		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return nil, nil, err
		}
		var dbs []*DiscoveredDatabase
		for _, match := range matches {
			if !isSQLiteFile(match) {
				continue
			}
			if db, err := newDiscovered(match, source); err == nil {
				dbs = append(dbs, db)
			}
		}
		base, _ := doublestar.SplitPattern(filepath.ToSlash(path))
		return dbs, []string{filepath.FromSlash(base)}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}

	if !info.IsDir() {
		if !isSQLiteFile(path) {
			return nil, nil, fmt.Errorf("%s does not look like a SQLite database", path)
		}
		db, err := newDiscovered(path, source)
		if err != nil {
			return nil, nil, err
		}
		return []*DiscoveredDatabase{db}, []string{filepath.Dir(db.Path)}, nil
	}

	var dbs []*DiscoveredDatabase
	dirs := []string{path}
	err = filepath.WalkDir(path, func(p string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if p == path {
				return nil
			}
			if !source.Recursive {
				return filepath.SkipDir
			}
			dirs = append(dirs, p)
			return nil
		}
		if isSQLiteFile(p) {
			if db, err := newDiscovered(p, source); err == nil {
				dbs = append(dbs, db)
			}
		}
		return nil
	})
	return dbs, dirs, err
}

func newDiscovered(path string, source *config.DatabaseSource) (*DiscoveredDatabase, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	name := stem
	switch {
	case strings.Contains(source.Alias, "*"):
		name = strings.ReplaceAll(source.Alias, "*", stem)
	case source.Alias != "":
		name = source.Alias
	}

	return &DiscoveredDatabase{
		Name:        name,
		Path:        absPath,
		Description: source.Description,
		Size:        info.Size(),
		ModTime:     info.ModTime().Unix(),
	}, nil
}

// uniqueName appends -2, -3, ... until name is free in taken.
func uniqueName(taken map[string]*DiscoveredDatabase, name string) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

func sameKeys(a, b map[string]*DiscoveredDatabase) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || w.Path != v.Path {
			return false
		}
	}
	return true
}

func isSQLiteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3", ".db3":
		return true
	}
	return false
}
