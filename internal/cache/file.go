package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spiffcs/gitgazer/internal/log"
	"github.com/spiffcs/gitgazer/internal/model"
)

const fileSuffix = ".json"

// FileStore writes one JSON file per user so entries survive between CLI
// invocations.
type FileStore struct {
	mu  sync.RWMutex
	dir string
	ttl time.Duration
	now Clock
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir. If dir is empty it
// defaults to <user cache dir>/gitgazer/profiles.
func NewFileStore(dir string, ttl time.Duration, clock Clock) (*FileStore, error) {
	if dir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate user cache dir: %w", err)
		}
		dir = filepath.Join(cacheDir, "gitgazer", "profiles")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}
	return &FileStore{dir: dir, ttl: ttl, now: clock}, nil
}

// Dir returns the directory holding cache files.
func (s *FileStore) Dir() string {
	return s.dir
}

// path maps a key to a file name. Logins only contain alphanumerics and
// hyphens, but separators are replaced anyway so a key never escapes dir.
func (s *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(Key(key))
	return filepath.Join(s.dir, safe+fileSuffix)
}

func (s *FileStore) Get(_ context.Context, key string) (*model.SuccessResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, err := readEntry(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug("ignoring unreadable cache entry", "key", Key(key), "error", err)
		}
		return nil, false
	}

	if entry.Version != Version {
		log.Debug("cache version mismatch", "cached", entry.Version, "current", Version, "key", Key(key))
		return nil, false
	}
	if !entry.Valid(s.now()) {
		return nil, false
	}
	return &entry.Result, true
}

func (s *FileStore) Set(_ context.Context, key string, result *model.SuccessResult) error {
	if result == nil {
		return nil
	}

	data, err := json.Marshal(newEntry(result, s.now(), s.ttl))
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(key), data, 0600); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Clear removes all cached entries
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileSuffix {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Stats{}, fmt.Errorf("read cache dir: %w", err)
	}

	stats := Stats{Backend: BackendFile, Location: s.dir}
	now := s.now()

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileSuffix {
			continue
		}
		stats.Total++

		e, err := readEntry(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		if e.Valid(now) {
			stats.Valid++
		}
	}

	return stats, nil
}

func readEntry(path string) (Entry, error) {
	var entry Entry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, fmt.Errorf("parse cache entry: %w", err)
	}
	return entry, nil
}
