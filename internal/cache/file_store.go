package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FileStore is the local disk tier: one JSON file per key under the cache
// directory. It is always available and serves as the durable fallback when
// the remote tier is unreachable, and as the sole backend in local
// development. Reads of expired entries are misses; the file is left in
// place for the next writer to overwrite.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// path maps a cache key to a file name. Keys contain colons as namespace
// separators, which are not safe on every filesystem.
func (s *FileStore) path(key string) string {
	name := strings.ReplaceAll(key, ":", "_") + ".json"
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Get(_ context.Context, key string) (Entry, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("corrupt local cache file, treating as miss")
		return Entry{}, false
	}
	if entry.Expired(time.Now()) {
		return Entry{}, false
	}
	return entry, true
}

func (s *FileStore) Set(_ context.Context, key string, entry Entry, _ time.Duration) bool {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logrus.WithError(err).Error("failed to create local cache directory")
		return false
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to serialize cache entry")
		return false
	}

	// Write-then-rename so a concurrent reader never sees a torn file.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logrus.WithError(err).WithField("key", key).Error("local cache write failed")
		return false
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		logrus.WithError(err).WithField("key", key).Error("local cache rename failed")
		return false
	}
	return true
}

func (s *FileStore) Exists(ctx context.Context, key string) bool {
	_, found := s.Get(ctx, key)
	return found
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
