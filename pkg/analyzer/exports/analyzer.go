// Package exports finds exports that no analyzed module imports and imports
// that their own module never references, and grades each finding by how
// safe it is to remove.
package exports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/panbanda/shed/internal/cache"
	"github.com/panbanda/shed/internal/fileproc"
	"github.com/panbanda/shed/pkg/analyzer"
	"github.com/panbanda/shed/pkg/extractor"
	"github.com/panbanda/shed/pkg/models"
)

// Analyzer runs dead-export analysis over a closed set of files.
type Analyzer struct {
	extractor   extractor.Extractor
	cache       *cache.Cache
	chunkSize   int
	workers     int
	checkpoint  func()
	progress    analyzer.ProgressFunc
	projectPath string
	rules       []Rule
	logger      *slog.Logger
}

// Compile-time check that Analyzer implements analyzer.FileAnalyzer[*models.AnalysisReport]
var _ analyzer.FileAnalyzer[*models.AnalysisReport] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithExtractor replaces the tree-sitter extractor.
func WithExtractor(e extractor.Extractor) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithCache memoizes extraction across runs. The cache may be shared by
// several analyzers.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithChunkSize sets the number of files processed between checkpoints.
func WithChunkSize(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// WithWorkers bounds extraction concurrency (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.workers = n
		}
	}
}

// WithCheckpoint replaces the between-chunk memory checkpoint.
func WithCheckpoint(fn func()) Option {
	return func(a *Analyzer) {
		a.checkpoint = fn
	}
}

// WithProgress reports (current, total, path) after each extracted file.
func WithProgress(fn analyzer.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.progress = fn
	}
}

// WithProjectPath sets the root that report paths are relative to.
// Defaults to the deepest directory containing every input file.
func WithProjectPath(path string) Option {
	return func(a *Analyzer) {
		a.projectPath = path
	}
}

// WithRules replaces the classifier rule table.
func WithRules(rules []Rule) Option {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates a new dead-export analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		extractor:  extractor.NewESModules(),
		chunkSize:  fileproc.DefaultChunkSize,
		checkpoint: runtime.GC,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze extracts every file, resolves cross-references and returns the
// graded report. Any error aborts the run and no partial report is returned.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*models.AnalysisReport, error) {
	if len(files) == 0 {
		return nil, &models.EmptyInputError{}
	}
	start := time.Now()

	files = dedupe(files)
	if len(files) == 0 {
		return nil, &models.EmptyInputError{}
	}

	projectPath := a.projectPath
	if projectPath == "" {
		projectPath = commonDir(files)
	}

	// Counted per run; a shared cache's own counters include other runs.
	var counts lookupCounts
	load := func(ctx context.Context, path string) (*models.FileSymbols, error) {
		return a.load(ctx, path, &counts)
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker == nil && a.progress != nil {
		tracker = analyzer.NewTracker(a.progress)
	}
	var onDone fileproc.DoneFunc
	if tracker != nil {
		tracker.SetTotal(len(files))
		tracker.Start(len(files))
		defer tracker.Stop()
		onDone = tracker.Tick
	}

	a.logger.Debug("analyzing files", "count", len(files), "chunk_size", a.chunkSize, "project", projectPath)

	tables, err := fileproc.MapChunked(ctx, files, fileproc.ChunkOptions{
		ChunkSize:  a.chunkSize,
		Workers:    a.workers,
		Checkpoint: a.checkpoint,
	}, load, onDone)
	if err != nil {
		return nil, err
	}

	tables = a.sanitize(tables)

	res := Resolve(tables)
	classifier := NewClassifier(a.rules...)

	dead := make([]models.DeadExport, 0, len(res.DeadExports))
	for _, e := range res.DeadExports {
		dead = append(dead, classifier.ClassifyExport(e))
	}
	unused := make([]models.UnusedImport, 0, len(res.UnusedImports))
	for _, i := range res.UnusedImports {
		unused = append(unused, classifier.ClassifyImport(i))
	}

	suggestions := GenerateSuggestions(dead, unused, projectPath)

	stats := cache.Stats{Hits: counts.hits.Load(), Misses: counts.misses.Load()}

	report := AssembleReport(projectPath, tables, dead, unused, suggestions, time.Since(start), stats)
	a.logger.Debug("analysis complete",
		"dead_exports", len(dead),
		"unused_imports", len(unused),
		"cache_hit_rate", stats.HitRate(),
		"elapsed", time.Since(start))
	return report, nil
}

type lookupCounts struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

// load produces the symbol table of one file, consulting the cache first.
func (a *Analyzer) load(_ context.Context, path string, counts *lookupCounts) (*models.FileSymbols, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &models.FileAccessError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &models.FileAccessError{Path: path, Err: errors.New("is a directory")}
	}
	mtime := info.ModTime()

	if a.cache != nil {
		if syms, ok := a.cache.Get(path, mtime); ok {
			counts.hits.Add(1)
			return &syms, nil
		}
		counts.misses.Add(1)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.FileAccessError{Path: path, Err: err}
	}

	syms, err := a.extractor.Extract(path, content)
	if err != nil {
		var perr *models.ParseError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, &models.ParseError{Path: path, Message: err.Error()}
	}
	if syms == nil {
		syms = &models.FileSymbols{}
	}
	syms.Path = path
	syms.ModTime = mtime
	for i := range syms.Exports {
		syms.Exports[i].File = path
	}
	for i := range syms.Imports {
		syms.Imports[i].File = path
	}

	if a.cache != nil {
		if err := a.cache.Put(path, mtime, syms.Exports, syms.Imports); err != nil {
			a.logger.Warn("cache write failed", "path", path, "error", err)
		}
	}
	return syms, nil
}

// sanitize drops records that carry no usable location.
func (a *Analyzer) sanitize(tables []*models.FileSymbols) []*models.FileSymbols {
	out := make([]*models.FileSymbols, len(tables))
	for i, t := range tables {
		clean := *t
		clean.Exports = nil
		clean.Imports = nil
		for _, e := range t.Exports {
			if e.Line <= 0 {
				a.logger.Warn("dropping export without line", "path", t.Path, "name", e.Name)
				continue
			}
			clean.Exports = append(clean.Exports, e)
		}
		for _, imp := range t.Imports {
			if imp.Line <= 0 {
				a.logger.Warn("dropping import without line", "path", t.Path, "source", imp.SourceSpecifier)
				continue
			}
			clean.Imports = append(clean.Imports, imp)
		}
		out[i] = &clean
	}
	return out
}

func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f == "" {
			continue
		}
		f = filepath.Clean(f)
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// commonDir returns the deepest directory containing every file.
func commonDir(files []string) string {
	dir := filepath.Dir(files[0])
	for _, f := range files[1:] {
		for !within(dir, filepath.Dir(f)) {
			parent := filepath.Dir(dir)
			if parent == dir {
				return dir
			}
			dir = parent
		}
	}
	return dir
}

func within(dir, path string) bool {
	if dir == path || dir == "." {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, strings.TrimSuffix(dir, sep)+sep)
}
