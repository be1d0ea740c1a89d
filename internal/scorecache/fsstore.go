package scorecache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/oj"
)

// FileStore is a Store persisted as a single JSON object ({key: score}) on a
// billy filesystem. All reads and writes go through an in-memory map; Flush
// writes the map back out. Tests run it on memfs, the CLI on osfs.
//
// Per the cache contract, a corrupt or unreadable file degrades to an empty
// cache and a failed flush is reported but never turned into a sampling
// failure by callers.
type FileStore struct {
	fs   billy.Filesystem
	path string

	mu    sync.RWMutex
	m     map[string]float64
	dirty bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens (or initializes) a file-backed score cache at path.
func NewFileStore(fs billy.Filesystem, path string) *FileStore {
	s := &FileStore{fs: fs, path: path, m: make(map[string]float64)}
	s.load()
	return s
}

// NewOSFileStore opens a score cache on the host filesystem. A relative path
// resolves against the working directory, so the osfs root is anchored at the
// cache file's own directory rather than /.
func NewOSFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve score cache path %s: %w", path, err)
	}
	return NewFileStore(osfs.New(filepath.Dir(abs)), filepath.Base(abs)), nil
}

// load reads any existing cache file. Every failure mode is a cache miss.
func (s *FileStore) load() {
	data, err := util.ReadFile(s.fs, s.path)
	if err != nil {
		return
	}
	var parsed any
	if err := oj.Unmarshal(data, &parsed); err != nil {
		return
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return
	}
	for k, v := range obj {
		switch n := v.(type) {
		case float64:
			s.m[k] = n
		case int64:
			s.m[k] = float64(n)
		}
	}
}

// Get looks a score up.
func (s *FileStore) Get(key string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Put stores a score in memory; Flush persists it.
func (s *FileStore) Put(key string, score float64) {
	s.mu.Lock()
	s.m[key] = score
	s.dirty = true
	s.mu.Unlock()
}

// Len reports the number of cached entries.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Flush writes the cache file if anything changed since the last flush.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	data, err := oj.Marshal(s.m)
	if err != nil {
		return fmt.Errorf("encode score cache: %w", err)
	}
	if err := util.WriteFile(s.fs, s.path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("write score cache %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}
