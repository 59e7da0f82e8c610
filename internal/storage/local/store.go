package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store provides thread-safe JSON file storage under a base directory.
// Player save files live here; a collection is a subdirectory, a record
// is one pretty-printed JSON file.
type Store struct {
	basePath string
	mu       sync.RWMutex
}

// NewStore creates a local JSON store rooted at basePath
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save persists a record. The write goes through a temp file and rename so
// a crash mid-write never truncates an existing save.
func (s *Store) Save(collection, id string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.basePath, collection)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode json: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, id+".json")); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// Load reads a record into data
func (s *Store) Load(collection, id string, data interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.basePath, collection, id+".json")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

// Delete removes a record
func (s *Store) Delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.basePath, collection, id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}

	return nil
}

// List returns all record IDs in a collection
func (s *Store) List(collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := filepath.Join(s.basePath, collection)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) == ".json" {
			ids = append(ids, name[:len(name)-5]) // remove .json
		}
	}

	return ids, nil
}

// Exists checks if a record exists
func (s *Store) Exists(collection, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.basePath, collection, id+".json")
	_, err := os.Stat(path)
	return err == nil
}
