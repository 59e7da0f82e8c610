package local

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(tmpDir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if store == nil {
		t.Fatal("NewStore() returned nil")
	}

	if store.basePath != tmpDir {
		t.Errorf("basePath = %v, want %v", store.basePath, tmpDir)
	}
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	newDir := filepath.Join(tmpDir, "subdir", "nested")

	if _, err := NewStore(newDir); err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	info, err := os.Stat(newDir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestStore_Save_Load(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	type save struct {
		Name string `json:"name"`
		XP   int    `json:"xp"`
	}

	original := save{Name: "Casey", XP: 420}

	if err := store.Save("players", "player1", original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded save
	if err := store.Load("players", "player1", &loaded); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded != original {
		t.Errorf("loaded = %+v, want %+v", loaded, original)
	}
}

func TestStore_Load_NotFound(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	var data struct{}
	if err := store.Load("players", "nonexistent", &data); err != ErrNotFound {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	data := map[string]string{"key": "value"}
	store.Save("players", "to-delete", data)

	if err := store.Delete("players", "to-delete"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if err := store.Load("players", "to-delete", &data); err != ErrNotFound {
		t.Error("Load() should return ErrNotFound after deletion")
	}
}

func TestStore_Delete_NotFound(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	if err := store.Delete("players", "nonexistent"); err != ErrNotFound {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	data := map[string]string{"key": "value"}
	store.Save("players", "a", data)
	store.Save("players", "b", data)
	store.Save("players", "c", data)

	ids, err := store.List("players")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("List() returned %d items, want 3", len(ids))
	}

	found := make(map[string]bool)
	for _, id := range ids {
		found[id] = true
	}
	for _, expected := range []string{"a", "b", "c"} {
		if !found[expected] {
			t.Errorf("List() missing ID %q", expected)
		}
	}
}

func TestStore_List_EmptyCollection(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	ids, err := store.List("empty-collection")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("List() returned %d items, want 0", len(ids))
	}
}

func TestStore_Exists(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	data := map[string]string{"key": "value"}

	if store.Exists("players", "item") {
		t.Error("Exists() should return false before save")
	}

	store.Save("players", "item", data)
	if !store.Exists("players", "item") {
		t.Error("Exists() should return true after save")
	}

	store.Delete("players", "item")
	if store.Exists("players", "item") {
		t.Error("Exists() should return false after delete")
	}
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	tmpDir := t.TempDir()
	store, _ := NewStore(tmpDir)

	store.Save("players", "p", map[string]int{"xp": 1})
	store.Save("players", "p", map[string]int{"xp": 2})

	entries, err := os.ReadDir(filepath.Join(tmpDir, "players"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStore_Concurrency(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	var wg sync.WaitGroup
	iterations := 10

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data := map[string]int{"value": n}
			store.Save("concurrent", string(rune('a'+n)), data)
		}(i)
	}

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.List("concurrent")
		}()
	}

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Exists("concurrent", string(rune('a'+n)))
		}(i)
	}

	wg.Wait()
}

func TestStore_Overwrite(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	type data struct {
		Value int `json:"value"`
	}

	store.Save("players", "item", data{Value: 1})
	store.Save("players", "item", data{Value: 2})

	var loaded data
	store.Load("players", "item", &loaded)

	if loaded.Value != 2 {
		t.Errorf("Value = %v, want 2 (overwritten)", loaded.Value)
	}
}
