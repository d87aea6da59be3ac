package watch

import (
	"context"
	"sync"

	"github.com/panbanda/shed/pkg/models"
)

// Analyzer produces a report for a set of files. Implementations typically
// share one cache across calls so unchanged files are not re-extracted.
type Analyzer interface {
	Analyze(ctx context.Context, files []string) (*models.AnalysisReport, error)
}

// Session re-runs analysis and renders the report only when its findings
// change.
type Session struct {
	scan     func() ([]string, error)
	analyzer Analyzer
	render   func(*models.AnalysisReport) error

	mu       sync.Mutex
	last     uint64
	rendered bool
	runs     int
}

// NewSession creates a session. scan lists the files to analyze on each run.
func NewSession(scan func() ([]string, error), a Analyzer, render func(*models.AnalysisReport) error) *Session {
	return &Session{scan: scan, analyzer: a, render: render}
}

// Run analyzes the current file set. It reports whether the report was
// rendered, which happens on the first successful run and whenever the
// report fingerprint differs from the last rendered one.
func (s *Session) Run(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.scan()
	if err != nil {
		return false, err
	}
	report, err := s.analyzer.Analyze(ctx, files)
	if err != nil {
		return false, err
	}
	s.runs++

	fp := report.Fingerprint()
	if s.rendered && fp == s.last {
		return false, nil
	}
	if err := s.render(report); err != nil {
		return false, err
	}
	s.last = fp
	s.rendered = true
	return true, nil
}

// Runs returns the number of successful analyses.
func (s *Session) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
