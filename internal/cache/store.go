package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"

	"github.com/panbanda/shed/pkg/models"
)

const storeExt = ".msgpack"

// Store persists extracted symbol tables on disk so that separate
// invocations can skip re-parsing unchanged files.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Load returns the stored symbols for path if they were recorded for mtime.
// A stale or unreadable entry is removed and reported as absent.
func (s *Store) Load(path string, mtime time.Time) (models.FileSymbols, bool) {
	keyPath := s.keyPath(path)
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return models.FileSymbols{}, false
	}

	var syms models.FileSymbols
	if err := msgpack.Unmarshal(data, &syms); err != nil {
		os.Remove(keyPath)
		return models.FileSymbols{}, false
	}

	if syms.Path != path || !syms.ModTime.Equal(mtime) {
		os.Remove(keyPath)
		return models.FileSymbols{}, false
	}

	return syms, true
}

// Save writes the symbols of one file.
func (s *Store) Save(syms models.FileSymbols) error {
	data, err := msgpack.Marshal(&syms)
	if err != nil {
		return fmt.Errorf("encoding cache entry for %s: %w", syms.Path, err)
	}

	keyPath := s.keyPath(syms.Path)
	tmp := keyPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, keyPath)
}

// Invalidate removes the entry for path.
func (s *Store) Invalidate(path string) error {
	err := os.Remove(s.keyPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all entries.
func (s *Store) Clear() error {
	return os.RemoveAll(s.dir)
}

// keyPath converts a source path to an entry filename.
func (s *Store) keyPath(path string) string {
	return filepath.Join(s.dir, HashBytes([]byte(path))+storeExt)
}

// StoreStats describes the on-disk store.
type StoreStats struct {
	Dir       string        `json:"dir"`
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the store.
func (s *Store) GetStats() (*StoreStats, error) {
	stats := &StoreStats{Dir: s.dir}
	var oldest, newest time.Time

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() || filepath.Ext(path) != storeExt {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
