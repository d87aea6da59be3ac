// Package scanner discovers the JavaScript and TypeScript modules to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/shed/pkg/config"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config     *config.Config
	extensions map[string]bool
	// gitignore patterns are matched relative to ignoreBase.
	gitignore  gitignore.Matcher
	ignoreBase string
	skipped    int
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Scanner{config: cfg, extensions: exts}
}

// Skipped returns the number of files dropped by the size limit during the
// last scan.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore below the repository root, or below
// root itself when it is not inside a repository.
func (s *Scanner) loadGitignore(root string) {
	s.gitignore = nil
	if !s.config.Gitignore {
		return
	}
	base := findGitRoot(root)
	if base == "" {
		base = root
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(base), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.gitignore = gitignore.NewMatcher(patterns)
	s.ignoreBase = base
}

// isIgnored checks a path against the configured ignore globs (relative to
// the scan root) and the loaded .gitignore rules.
func (s *Scanner) isIgnored(root, path string, isDir bool) bool {
	rel, err := filepath.Rel(root, path)
	if err == nil && rel != "." {
		rel = filepath.ToSlash(rel)
		for _, pattern := range s.config.IgnorePatterns {
			if matchIgnore(pattern, rel, isDir) {
				return true
			}
		}
	}

	if s.gitignore != nil {
		gitRel, err := filepath.Rel(s.ignoreBase, path)
		if err == nil && gitRel != "." && !strings.HasPrefix(gitRel, "..") {
			if s.gitignore.Match(strings.Split(gitRel, string(filepath.Separator)), isDir) {
				return true
			}
		}
	}
	return false
}

// matchIgnore matches a doublestar pattern. A directory also matches a
// pattern of the form "dir/**", so the whole subtree can be pruned.
func matchIgnore(pattern, rel string, isDir bool) bool {
	if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
		return true
	}
	if isDir {
		if prefix, found := strings.CutSuffix(pattern, "/**"); found {
			if ok, err := doublestar.Match(prefix, rel); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// hasExtension reports whether path has one of the configured extensions.
func (s *Scanner) hasExtension(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// withinSizeLimit reports whether a file of size bytes may be analyzed.
func (s *Scanner) withinSizeLimit(size int64) bool {
	limit := s.config.MaxFileSizeBytes()
	return limit <= 0 || size <= limit
}

// ScanDir recursively scans a directory for source files.
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	s.skipped = 0
	files := make([]string, 0, 1024)

	// Resolve root to absolute path for security validation
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks in the root path
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(absRoot)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if d.Name() == ".git" || s.isIgnored(absRoot, path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.hasExtension(path) || s.isIgnored(absRoot, path, false) {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil
		}
		if !s.withinSizeLimit(info.Size()) {
			s.skipped++
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// ScanPaths expands directory arguments with ScanDir and keeps file
// arguments that have a configured extension. Duplicates are removed and
// argument order is preserved.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	skipped := 0

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := s.ScanDir(p)
			if err != nil {
				return nil, err
			}
			skipped += s.skipped
			for _, f := range found {
				add(f)
			}
			continue
		}
		before := s.skipped
		ok, err := s.ScanFile(p)
		skipped += s.skipped - before
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		add(abs)
	}

	s.skipped = skipped
	return out, nil
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single, explicitly named file should be analyzed.
// Ignore patterns do not apply to explicit files.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() || !s.hasExtension(path) {
		return false, nil
	}
	if !s.withinSizeLimit(info.Size()) {
		s.skipped++
		return false, nil
	}
	return true, nil
}

// Prepare loads the .gitignore rules that apply to root without scanning.
// ScanDir does this itself; callers that only filter events need it.
func (s *Scanner) Prepare(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return err
	}
	s.loadGitignore(absRoot)
	return nil
}

// Accepts reports whether path, found under root, is a candidate source
// file. The file need not exist.
func (s *Scanner) Accepts(root, path string) bool {
	return s.hasExtension(path) && !s.isIgnored(root, path, false)
}

// SkipsDir reports whether the directory path under root is pruned.
func (s *Scanner) SkipsDir(root, path string) bool {
	return filepath.Base(path) == ".git" || s.isIgnored(root, path, true)
}
