package exports

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/panbanda/shed/pkg/models"
)

// Risk factor messages.
const (
	RiskPublicName = "Export name suggests it may be used by external packages"
	RiskPublicAPI  = "Appears to be public API - may have external consumers"
	RiskConfigFile = "Configuration file - may be loaded by tooling at runtime"
	RiskDefault    = "Default export - may be imported with different names"
	RiskTypeDef    = "Type definition - may be used in type annotations"
	RiskTestFile   = "Located in test file - may be used by test framework"
	RiskFramework  = "Framework import - may be used implicitly"
	RiskPolyfill   = "Appears to be polyfill or setup import"
	RiskSideEffect = "Import may have side effects on load"
)

const (
	deadExportReason   = "Not imported by any analyzed file"
	unusedImportReason = "Imported binding is never referenced in this file"
)

// Subject is the classifier's view of a dead export or unused import.
type Subject struct {
	// Path is the cleaned file path in slash form with a leading slash.
	Path       string
	Name       string
	IsImport   bool
	ExportKind models.ExportKind
	ImportKind models.ImportKind
	Source     string
	TypeOnly   bool
}

// Rule contributes Factor when Match holds.
type Rule struct {
	Name   string
	Match  func(Subject) bool
	Factor string
}

var publicNamePattern = regexp.MustCompile(`^(create|get|use|make)[A-Z]`)

var frameworkPackages = []string{"react", "react-dom", "preact", "vue", "svelte", "solid-js", "next"}

var polyfillMarkers = []string{"polyfill", "core-js", "regenerator-runtime", "shim", "setup", "register"}

var assetExtensions = map[string]bool{
	".css": true, ".scss": true, ".sass": true, ".less": true, ".styl": true, ".svg": true,
}

// DefaultRules is the ordered rule table. Order determines the order of
// risk factors in the output.
var DefaultRules = []Rule{
	{
		Name:   "public-name",
		Match:  func(s Subject) bool { return !s.IsImport && publicNamePattern.MatchString(s.Name) },
		Factor: RiskPublicName,
	},
	{
		Name:   "public-location",
		Match:  func(s Subject) bool { return isPublicLocation(s.Path) },
		Factor: RiskPublicAPI,
	},
	{
		Name:   "config-file",
		Match:  func(s Subject) bool { return isConfigFile(s.Path) },
		Factor: RiskConfigFile,
	},
	{
		Name:   "default-export",
		Match:  func(s Subject) bool { return !s.IsImport && s.ExportKind == models.ExportDefault },
		Factor: RiskDefault,
	},
	{
		Name: "type-definition",
		Match: func(s Subject) bool {
			if s.IsImport {
				return s.TypeOnly
			}
			return s.ExportKind == models.ExportInterface || s.ExportKind == models.ExportType
		},
		Factor: RiskTypeDef,
	},
	{
		Name:   "test-file",
		Match:  func(s Subject) bool { return isTestFile(s.Path) },
		Factor: RiskTestFile,
	},
	{
		Name:   "framework-import",
		Match:  func(s Subject) bool { return s.IsImport && isFrameworkPackage(s.Source) },
		Factor: RiskFramework,
	},
	{
		Name:   "polyfill-import",
		Match:  func(s Subject) bool { return s.IsImport && isPolyfill(s.Source) },
		Factor: RiskPolyfill,
	},
	{
		Name: "side-effect-import",
		Match: func(s Subject) bool {
			if !s.IsImport {
				return false
			}
			return s.ImportKind == models.ImportSideEffect || assetExtensions[strings.ToLower(path.Ext(s.Source))]
		},
		Factor: RiskSideEffect,
	},
}

// ConfidenceFor maps a risk factor count to a confidence tier.
func ConfidenceFor(factors int) models.Confidence {
	switch {
	case factors == 0:
		return models.ConfidenceHigh
	case factors >= 3:
		return models.ConfidenceLow
	default:
		return models.ConfidenceMedium
	}
}

// Classifier evaluates the rule table against dead symbols.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier. With no rules, DefaultRules is used.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Evaluate returns the risk factors of s in rule order. The result is never nil.
func (c *Classifier) Evaluate(s Subject) []string {
	factors := []string{}
	for _, r := range c.rules {
		if r.Match(s) {
			factors = append(factors, r.Factor)
		}
	}
	return factors
}

// ClassifyExport annotates a dead export.
func (c *Classifier) ClassifyExport(e models.ExportRecord) models.DeadExport {
	factors := c.Evaluate(Subject{
		Path:       subjectPath(e.File),
		Name:       e.Name,
		ExportKind: e.Kind,
	})
	return models.DeadExport{
		ExportRecord: e,
		Reason:       deadExportReason,
		Confidence:   ConfidenceFor(len(factors)),
		RiskFactors:  factors,
	}
}

// ClassifyImport annotates an unused import.
func (c *Classifier) ClassifyImport(i models.ImportRecord) models.UnusedImport {
	factors := c.Evaluate(Subject{
		Path:       subjectPath(i.File),
		Name:       i.DisplayName(),
		IsImport:   true,
		ImportKind: i.Kind,
		Source:     i.SourceSpecifier,
		TypeOnly:   i.TypeOnly,
	})
	return models.UnusedImport{
		ImportRecord: i,
		Reason:       unusedImportReason,
		Confidence:   ConfidenceFor(len(factors)),
		RiskFactors:  factors,
	}
}

// subjectPath is independent of the project root, so a file's location
// factors do not change with the directory being analyzed.
func subjectPath(file string) string {
	return "/" + strings.TrimPrefix(filepath.ToSlash(filepath.Clean(file)), "/")
}

// relativePath returns file relative to root in slash form, or file itself
// when it is not under root.
func relativePath(root, file string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(file)
}

// stem returns the base name up to its first dot, ignoring a leading dot.
func stem(p string) string {
	base := strings.TrimPrefix(path.Base(p), ".")
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

func isPublicLocation(p string) bool {
	for _, dir := range []string{"/lib/", "/public/", "/api/"} {
		if strings.Contains(p, dir) {
			return true
		}
	}
	return stem(p) == "index"
}

func isConfigFile(p string) bool {
	base := path.Base(p)
	name := strings.TrimSuffix(base, path.Ext(base))
	switch {
	case stem(p) == "config", stem(p) == "setup":
		return true
	case strings.HasSuffix(name, ".config"), strings.HasSuffix(name, ".setup"):
		return true
	case strings.HasPrefix(base, ".") && strings.HasSuffix(name, "rc"):
		return true
	}
	return false
}

func isTestFile(p string) bool {
	base := path.Base(p)
	for _, marker := range []string{".test.", ".spec.", ".e2e."} {
		if strings.Contains(base, marker) {
			return true
		}
	}
	for _, dir := range []string{"/__tests__/", "/__mocks__/", "/test/", "/tests/"} {
		if strings.Contains(p, dir) {
			return true
		}
	}
	return false
}

func isFrameworkPackage(source string) bool {
	if strings.HasPrefix(source, "@angular/") {
		return true
	}
	for _, pkg := range frameworkPackages {
		if source == pkg || strings.HasPrefix(source, pkg+"/") {
			return true
		}
	}
	return false
}

func isPolyfill(source string) bool {
	s := strings.ToLower(source)
	for _, marker := range polyfillMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
