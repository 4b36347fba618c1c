package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoState is returned by a Store that has nothing saved yet.
var ErrNoState = errors.New("no saved quote")

// Store loads and saves quote snapshots at the process boundary.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// Pinger is implemented by stores that can report their availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MemoryStore keeps the last saved snapshot in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saved bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return Snapshot{}, ErrNoState
	}
	var s Snapshot
	if err := json.Unmarshal(m.data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Save implements Store. The snapshot is stored serialised so later edits by the caller
// cannot leak into it.
func (m *MemoryStore) Save(_ context.Context, s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.saved = true
	m.mu.Unlock()
	return nil
}

// FileStore keeps the snapshot in a JSON file, replaced atomically on save.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load implements Store.
func (f *FileStore) Load(_ context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNoState
		}
		return Snapshot{}, fmt.Errorf("open quote file: %w", err)
	}
	defer file.Close()
	return DecodeSnapshot(file)
}

// Save implements Store.
func (f *FileStore) Save(_ context.Context, s Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create quote dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".quote-*.json")
	if err != nil {
		return fmt.Errorf("create temp quote file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write quote file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close quote file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace quote file: %w", err)
	}
	return nil
}

// Ping reports whether the directory holding the quote file is usable.
func (f *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(f.Path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(f.Path))
	}
	return nil
}
