package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/panbanda/shed/pkg/models"
)

func sampleSymbols(path string, mtime time.Time) models.FileSymbols {
	return models.FileSymbols{
		Path:    path,
		ModTime: mtime,
		Exports: []models.ExportRecord{
			{File: path, Name: "helper", Kind: models.ExportFunction, Line: 3},
		},
		Imports: []models.ImportRecord{
			{File: path, ImportedName: "a", LocalName: "a", SourceSpecifier: "./a", Kind: models.ImportNamed, Line: 1, Referenced: true},
		},
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache", "dir")

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("NewStore() should create cache directory")
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
}

func TestNewStoreEmptyDir(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Error("NewStore(\"\") should return error")
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	mtime := time.Unix(1700000000, 123456789)
	want := sampleSymbols("/src/a.ts", mtime)
	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, ok := s.Load("/src/a.ts", mtime)
	if !ok {
		t.Fatal("Load() returned false for saved entry")
	}
	if len(got.Exports) != 1 || got.Exports[0].Name != "helper" || got.Exports[0].Line != 3 {
		t.Errorf("Load() exports = %+v", got.Exports)
	}
	if len(got.Imports) != 1 || !got.Imports[0].Referenced {
		t.Errorf("Load() imports = %+v", got.Imports)
	}
}

func TestStoreLoadStaleMtime(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	mtime := time.Unix(1700000000, 0)
	if err := s.Save(sampleSymbols("/src/a.ts", mtime)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if _, ok := s.Load("/src/a.ts", mtime.Add(time.Second)); ok {
		t.Error("Load() should miss when mtime changed")
	}
	// The stale entry is removed.
	if _, ok := s.Load("/src/a.ts", mtime); ok {
		t.Error("stale entry should have been removed")
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if err := os.WriteFile(s.keyPath("/src/a.ts"), []byte("not msgpack"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Load("/src/a.ts", time.Now()); ok {
		t.Error("Load() should miss on corrupt entry")
	}
}

func TestStoreInvalidate(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	mtime := time.Unix(1700000000, 0)
	if err := s.Save(sampleSymbols("/src/a.ts", mtime)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Invalidate("/src/a.ts"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, ok := s.Load("/src/a.ts", mtime); ok {
		t.Error("Load() should miss after Invalidate()")
	}
	if err := s.Invalidate("/src/missing.ts"); err != nil {
		t.Errorf("Invalidate() of missing entry error: %v", err)
	}
}

func TestStoreClearAndStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	mtime := time.Unix(1700000000, 0)
	for _, p := range []string{"/src/a.ts", "/src/b.ts", "/src/c.ts"} {
		if err := s.Save(sampleSymbols(p, mtime)); err != nil {
			t.Fatalf("Save(%s) error: %v", p, err)
		}
	}

	stats, err := s.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalSize <= 0 {
		t.Errorf("TotalSize = %d, want > 0", stats.TotalSize)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Clear() should remove cache directory")
	}

	stats, err = s.GetStats()
	if err != nil {
		t.Fatalf("GetStats() after Clear() error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries after Clear() = %d, want 0", stats.Entries)
	}
}

func TestKeyPathSpecialCharacters(t *testing.T) {
	s := &Store{dir: "/tmp/cache"}
	keys := []string{
		"/src/with spaces/a.ts",
		"C:\\windows\\path.ts",
		"/src/unicode/日本語.ts",
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		p := s.keyPath(k)
		if filepath.Dir(p) != "/tmp/cache" {
			t.Errorf("keyPath(%q) = %q escapes the cache dir", k, p)
		}
		if filepath.Ext(p) != ".msgpack" {
			t.Errorf("keyPath(%q) has extension %q", k, filepath.Ext(p))
		}
		if seen[p] {
			t.Errorf("keyPath collision for %q", k)
		}
		seen[p] = true
	}
}

func TestHashBytes(t *testing.T) {
	a := HashBytes([]byte("a"))
	if len(a) != 64 {
		t.Errorf("HashBytes() length = %d, want 64", len(a))
	}
	if a != HashBytes([]byte("a")) {
		t.Error("HashBytes() should be deterministic")
	}
	if a == HashBytes([]byte("b")) {
		t.Error("HashBytes() should differ for different input")
	}
}
