package dataset

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tabulario/datalens/internal/domain/errs"
)

// Store resolves dataset names inside a designated data directory and
// caches loaded tables in a thread-safe way. Cache entries are keyed
// by absolute path + modification time and replaced atomically, so a
// reader never observes a partially updated Table.
type Store struct {
	mu      sync.RWMutex
	dataDir string
	cache   map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	table   *Table
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		cache:   make(map[string]cacheEntry),
	}
}

// DataDir returns the store's root directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Resolve maps a dataset name to a path inside the data directory.
// Names that would escape the directory are rejected as NotFound.
func (s *Store) Resolve(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(cleaned) {
		return "", errs.NewNotFound(name)
	}
	return filepath.Join(s.dataDir, cleaned), nil
}

// Get loads a dataset (or returns the cached table). A changed
// modification time invalidates the cached entry.
func (s *Store) Get(name string) (*Table, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	info, statErr := os.Stat(path)
	if statErr != nil || info.IsDir() {
		return nil, errs.NewNotFound(name)
	}

	s.mu.RLock()
	entry, ok := s.cache[path]
	s.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) {
		return entry.table, nil
	}

	table, err := Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("dataset loaded",
		"name", name,
		"rows", table.RowCount(),
		"columns", len(table.Columns),
	)

	s.mu.Lock()
	s.cache[path] = cacheEntry{modTime: info.ModTime(), table: table}
	s.mu.Unlock()
	return table, nil
}

// List returns the CSV files available in the data directory, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, errs.NewNotFound(s.dataDir)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
