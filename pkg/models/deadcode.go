package models

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Confidence is the likelihood that removing a flagged symbol is safe.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Priority orders removal suggestions.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Safety says whether a suggestion can be applied without review.
type Safety string

const (
	SafetySafe         Safety = "safe"
	SafetyReviewNeeded Safety = "review-needed"
	SafetyRisky        Safety = "risky"
)

// SuggestionType is the kind of removal a suggestion proposes.
type SuggestionType string

const (
	SuggestRemoveExport SuggestionType = "remove-export"
	SuggestRemoveImport SuggestionType = "remove-import"
)

// DeadExport is an export no analyzed file consumes.
type DeadExport struct {
	ExportRecord
	Reason      string     `json:"reason" toon:"reason"`
	Confidence  Confidence `json:"confidence" toon:"confidence"`
	RiskFactors []string   `json:"riskFactors" toon:"riskFactors"`
}

// UnusedImport is an import binding never referenced in its own file.
type UnusedImport struct {
	ImportRecord
	Reason      string     `json:"reason" toon:"reason"`
	Confidence  Confidence `json:"confidence" toon:"confidence"`
	RiskFactors []string   `json:"riskFactors" toon:"riskFactors"`
}

// RemovalSuggestion is an actionable, safety-tiered removal hint.
// Command is set only when Safety is SafetySafe.
type RemovalSuggestion struct {
	ID       string         `json:"id" toon:"id"`
	Type     SuggestionType `json:"type" toon:"type"`
	Action   string         `json:"action" toon:"action"`
	File     string         `json:"file" toon:"file"`
	Line     int            `json:"line" toon:"line"`
	Impact   int            `json:"impact" toon:"impact"`
	Priority Priority       `json:"priority" toon:"priority"`
	Safety   Safety         `json:"safety" toon:"safety"`
	Command  string         `json:"command,omitempty" toon:"command,omitempty"`
	Warnings []string       `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// AnalysisMetrics provides aggregate statistics for one run.
type AnalysisMetrics struct {
	TotalFiles         int                `json:"totalFiles" toon:"totalFiles"`
	TotalExports       int                `json:"totalExports" toon:"totalExports"`
	TotalImports       int                `json:"totalImports" toon:"totalImports"`
	DeadExports        int                `json:"deadExports" toon:"deadExports"`
	UnusedImports      int                `json:"unusedImports" toon:"unusedImports"`
	AnalysisTimeMs     int64              `json:"analysisTimeMs" toon:"analysisTimeMs"`
	EstimatedSavingsKB float64            `json:"estimatedSavingsKB" toon:"estimatedSavingsKB"`
	CacheHitRate       float64            `json:"cacheHitRate" toon:"cacheHitRate"`
	CacheHits          uint64             `json:"cacheHits" toon:"cacheHits"`
	CacheMisses        uint64             `json:"cacheMisses" toon:"cacheMisses"`
	ByConfidence       map[Confidence]int `json:"byConfidence" toon:"byConfidence"`
}

// NewAnalysisMetrics creates an initialized metrics block.
func NewAnalysisMetrics() AnalysisMetrics {
	return AnalysisMetrics{
		ByConfidence: map[Confidence]int{
			ConfidenceHigh:   0,
			ConfidenceMedium: 0,
			ConfidenceLow:    0,
		},
	}
}

// AddDeadExport updates the metrics with a dead export.
func (m *AnalysisMetrics) AddDeadExport(d DeadExport) {
	m.DeadExports++
	m.ByConfidence[d.Confidence]++
}

// AddUnusedImport updates the metrics with an unused import.
func (m *AnalysisMetrics) AddUnusedImport(u UnusedImport) {
	m.UnusedImports++
	m.ByConfidence[u.Confidence]++
}

// AnalysisReport is the full result of one analysis run.
type AnalysisReport struct {
	ProjectPath   string              `json:"projectPath" toon:"projectPath"`
	DeadExports   []DeadExport        `json:"deadExports" toon:"deadExports"`
	UnusedImports []UnusedImport      `json:"unusedImports" toon:"unusedImports"`
	Suggestions   []RemovalSuggestion `json:"suggestions" toon:"suggestions"`
	Metrics       AnalysisMetrics     `json:"metrics" toon:"metrics"`
}

// Fingerprint digests the findings of the report, ignoring timing and cache
// metrics, so that two runs with identical findings compare equal.
func (r *AnalysisReport) Fingerprint() uint64 {
	d := xxhash.New()
	field := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}

	for _, e := range r.DeadExports {
		field("E")
		field(e.File)
		field(e.Name)
		field(strconv.Itoa(e.Line))
		field(string(e.Confidence))
		for _, f := range e.RiskFactors {
			field(f)
		}
	}
	for _, i := range r.UnusedImports {
		field("I")
		field(i.File)
		field(i.DisplayName())
		field(i.SourceSpecifier)
		field(strconv.Itoa(i.Line))
		field(string(i.Confidence))
		for _, f := range i.RiskFactors {
			field(f)
		}
	}
	for _, s := range r.Suggestions {
		field("S")
		field(s.ID)
		field(string(s.Safety))
		field(s.File)
		field(strconv.Itoa(s.Line))
	}
	return d.Sum64()
}
