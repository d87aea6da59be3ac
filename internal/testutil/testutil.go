// Package testutil holds filesystem fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TempRoot returns a fresh temporary directory with symlinks resolved, so
// paths compare equal to what the scanner reports.
func TempRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks error: %v", err)
	}
	return dir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree creates multiple files from a map of relative path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
}

// Touch moves the modification time of path by d, which is needed when a
// rewrite lands within the filesystem's timestamp granularity.
func Touch(t *testing.T, path string, d time.Duration) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%s) error: %v", path, err)
	}
	mtime := info.ModTime().Add(d)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes(%s) error: %v", path, err)
	}
}

// SampleProject writes a two-module project in which src/app.ts consumes
// helper from src/utils.ts and nothing consumes other. It returns the root.
func SampleProject(t *testing.T) string {
	t.Helper()
	root := TempRoot(t)
	CreateFileTree(t, root, map[string]string{
		"src/utils.ts": "export function helper() {}\nexport function other() {}\n",
		"src/app.ts":   "import { helper } from './utils';\nhelper();\n",
	})
	return root
}
