package exports

import (
	"path/filepath"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/shed/pkg/models"
)

// ResolveExtensions are probed, in order, when a relative specifier omits
// its file extension.
var ResolveExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// Compiled TypeScript sources are imported by their emitted JavaScript name.
var tsCounterparts = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// UsageIndex records which exports of each analyzed file are consumed.
// Files are interned to dense integer IDs in input order.
type UsageIndex struct {
	ids       map[string]uint32
	paths     []string
	fullyUsed *roaring.Bitmap
	names     []map[string]struct{}
}

func newUsageIndex(tables []*models.FileSymbols) *UsageIndex {
	u := &UsageIndex{
		ids:       make(map[string]uint32, len(tables)),
		paths:     make([]string, 0, len(tables)),
		fullyUsed: roaring.New(),
		names:     make([]map[string]struct{}, 0, len(tables)),
	}
	for _, t := range tables {
		path := filepath.Clean(t.Path)
		if _, ok := u.ids[path]; ok {
			continue
		}
		u.ids[path] = uint32(len(u.paths))
		u.paths = append(u.paths, path)
		u.names = append(u.names, make(map[string]struct{}))
	}
	return u
}

// ID returns the interned ID of an analyzed file.
func (u *UsageIndex) ID(path string) (uint32, bool) {
	id, ok := u.ids[filepath.Clean(path)]
	return id, ok
}

// Len returns the number of analyzed files.
func (u *UsageIndex) Len() int {
	return len(u.paths)
}

// FullyUsed reports whether a namespace import consumes every export of path.
func (u *UsageIndex) FullyUsed(path string) bool {
	id, ok := u.ID(path)
	return ok && u.fullyUsed.Contains(id)
}

// IsUsed reports whether the export name of path is consumed by any analyzed file.
func (u *UsageIndex) IsUsed(path, name string) bool {
	id, ok := u.ID(path)
	if !ok {
		return false
	}
	if u.fullyUsed.Contains(id) {
		return true
	}
	_, used := u.names[id][name]
	return used
}

// Resolve maps an import specifier written in from to an analyzed file.
// Bare package specifiers never resolve.
func (u *UsageIndex) Resolve(from, specifier string) (uint32, bool) {
	if !isLocalSpecifier(specifier) {
		return 0, false
	}
	base := specifier
	if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(from), filepath.FromSlash(specifier))
	}
	base = filepath.Clean(base)

	for _, candidate := range candidates(base) {
		if id, ok := u.ids[candidate]; ok {
			return id, true
		}
	}
	return 0, false
}

func isLocalSpecifier(s string) bool {
	return s == "." || s == ".." ||
		strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		strings.HasPrefix(s, "/")
}

func candidates(base string) []string {
	out := make([]string, 0, 2+2*len(ResolveExtensions))
	out = append(out, base)
	for _, ext := range ResolveExtensions {
		out = append(out, base+ext)
	}
	index := filepath.Join(base, "index")
	for _, ext := range ResolveExtensions {
		out = append(out, index+ext)
	}
	ext := filepath.Ext(base)
	if alts, ok := tsCounterparts[ext]; ok {
		stem := strings.TrimSuffix(base, ext)
		for _, alt := range alts {
			out = append(out, stem+alt)
		}
	}
	return out
}

// Resolution is the raw output of cross-reference resolution, before
// classification.
type Resolution struct {
	DeadExports   []models.ExportRecord
	UnusedImports []models.ImportRecord
	Usage         *UsageIndex
}

// Resolve builds the usage index over tables and partitions exports into
// dead ones and imports into unused ones. Tables are processed in the given
// order and records in source order, so output order is stable.
func Resolve(tables []*models.FileSymbols) *Resolution {
	usage := newUsageIndex(tables)

	// Duplicate paths: first occurrence wins.
	seen := roaring.New()
	unique := tables[:0:0]
	for _, t := range tables {
		id, _ := usage.ID(t.Path)
		if seen.CheckedAdd(id) {
			unique = append(unique, t)
		}
	}
	tables = unique

	for _, t := range tables {
		for _, imp := range t.Imports {
			id, ok := usage.Resolve(t.Path, imp.SourceSpecifier)
			if !ok {
				continue
			}
			switch imp.Kind {
			case models.ImportNamespace:
				usage.fullyUsed.Add(id)
			case models.ImportSideEffect:
				// Evaluates the module without consuming any export.
			default:
				if imp.ImportedName != "" {
					usage.names[id][imp.ImportedName] = struct{}{}
				}
			}
		}
	}

	res := &Resolution{Usage: usage}
	for _, t := range tables {
		id, _ := usage.ID(t.Path)
		if usage.fullyUsed.Contains(id) {
			continue
		}
		for _, exp := range t.Exports {
			if _, used := usage.names[id][exp.LookupName()]; !used {
				res.DeadExports = append(res.DeadExports, exp)
			}
		}
	}

	for _, t := range tables {
		for _, imp := range t.Imports {
			if isUnusedImport(imp) {
				res.UnusedImports = append(res.UnusedImports, imp)
			}
		}
	}
	return res
}

func isUnusedImport(imp models.ImportRecord) bool {
	if imp.Referenced || imp.ReExport {
		return false
	}
	return imp.Kind != models.ImportSideEffect
}
