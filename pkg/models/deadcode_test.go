package models

import (
	"errors"
	"io/fs"
	"testing"
)

func TestNewAnalysisMetrics(t *testing.T) {
	m := NewAnalysisMetrics()

	if m.ByConfidence == nil {
		t.Fatal("ByConfidence should be initialized")
	}
	for _, c := range []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow} {
		if n, ok := m.ByConfidence[c]; !ok || n != 0 {
			t.Errorf("ByConfidence[%s] = %d, %v; want 0, true", c, n, ok)
		}
	}
}

func TestAnalysisMetrics_Add(t *testing.T) {
	m := NewAnalysisMetrics()
	m.AddDeadExport(DeadExport{Confidence: ConfidenceHigh})
	m.AddDeadExport(DeadExport{Confidence: ConfidenceLow})
	m.AddUnusedImport(UnusedImport{Confidence: ConfidenceMedium})
	m.AddUnusedImport(UnusedImport{Confidence: ConfidenceHigh})

	if m.DeadExports != 2 {
		t.Errorf("DeadExports = %d, want 2", m.DeadExports)
	}
	if m.UnusedImports != 2 {
		t.Errorf("UnusedImports = %d, want 2", m.UnusedImports)
	}
	if m.ByConfidence[ConfidenceHigh] != 2 {
		t.Errorf("ByConfidence[high] = %d, want 2", m.ByConfidence[ConfidenceHigh])
	}
}

func sampleReport() *AnalysisReport {
	return &AnalysisReport{
		ProjectPath: "/repo",
		DeadExports: []DeadExport{{
			ExportRecord: ExportRecord{File: "/repo/src/utils.ts", Name: "helper", Kind: ExportFunction, Line: 1},
			Confidence:   ConfidenceHigh,
			RiskFactors:  []string{},
		}},
		UnusedImports: []UnusedImport{{
			ImportRecord: ImportRecord{File: "/repo/src/app.tsx", ImportedName: "default", LocalName: "React", SourceSpecifier: "react", Kind: ImportDefault, Line: 1},
			Confidence:   ConfidenceMedium,
			RiskFactors:  []string{"Framework import - may be used implicitly"},
		}},
		Suggestions: []RemovalSuggestion{{ID: "export-0", Safety: SafetySafe, File: "src/utils.ts", Line: 1}},
		Metrics:     AnalysisMetrics{AnalysisTimeMs: 12},
	}
}

func TestAnalysisReport_Fingerprint(t *testing.T) {
	a := sampleReport()
	b := sampleReport()
	b.Metrics.AnalysisTimeMs = 999
	b.Metrics.CacheHitRate = 1

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Fingerprint() should ignore timing and cache metrics")
	}

	b.UnusedImports[0].Line = 2
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("Fingerprint() should change when findings change")
	}

	empty := &AnalysisReport{}
	if empty.Fingerprint() == a.Fingerprint() {
		t.Error("empty report should not collide with a populated one")
	}
}

func TestErrors(t *testing.T) {
	var empty error = &EmptyInputError{}
	if !errors.Is(empty, ErrEmptyInput) {
		t.Error("EmptyInputError should match ErrEmptyInput")
	}

	access := &FileAccessError{Path: "/src/a.ts", Err: fs.ErrNotExist}
	if !errors.Is(access, fs.ErrNotExist) {
		t.Error("FileAccessError should unwrap to its cause")
	}
	if got := access.Error(); got != "cannot read /src/a.ts: file does not exist" {
		t.Errorf("FileAccessError.Error() = %q", got)
	}

	parse := &ParseError{Path: "/src/a.ts", Line: 3, Message: "unexpected \"}\""}
	if got := parse.Error(); got != "parse error in /src/a.ts:3: unexpected \"}\"" {
		t.Errorf("ParseError.Error() = %q", got)
	}
	if got := (&ParseError{Path: "/src/a.ts", Message: "boom"}).Error(); got != "parse error in /src/a.ts: boom" {
		t.Errorf("ParseError.Error() without line = %q", got)
	}

	cfg := &ConfigError{Path: "shed.toml", Err: errors.New("chunkSize must be >= 1")}
	if got := cfg.Error(); got != "invalid configuration in shed.toml: chunkSize must be >= 1" {
		t.Errorf("ConfigError.Error() = %q", got)
	}
}

func TestImportRecord_DisplayName(t *testing.T) {
	tests := []struct {
		rec  ImportRecord
		want string
	}{
		{ImportRecord{LocalName: "b", ImportedName: "a"}, "b"},
		{ImportRecord{ImportedName: "a"}, "a"},
		{ImportRecord{SourceSpecifier: "./polyfill"}, "./polyfill"},
	}
	for _, tt := range tests {
		if got := tt.rec.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

func TestExportRecord_LookupName(t *testing.T) {
	if got := (ExportRecord{Name: "main", IsDefault: true}).LookupName(); got != "default" {
		t.Errorf("LookupName() = %q, want default", got)
	}
	if got := (ExportRecord{Name: "helper"}).LookupName(); got != "helper" {
		t.Errorf("LookupName() = %q, want helper", got)
	}
}
