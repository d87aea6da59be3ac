package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/panbanda/shed/pkg/models"
)

// AnalysisView renders an AnalysisReport. JSON and TOON serialize the report
// itself; text and Markdown show a summary followed by one table per finding
// category.
type AnalysisView struct {
	Report *models.AnalysisReport
}

// NewAnalysisView wraps a report for rendering.
func NewAnalysisView(r *models.AnalysisReport) *AnalysisView {
	return &AnalysisView{Report: r}
}

func (v *AnalysisView) RenderData() any {
	return v.Report
}

func (v *AnalysisView) RenderText(w io.Writer, colored bool) error {
	return v.blocks(colored).RenderText(w, colored)
}

func (v *AnalysisView) RenderMarkdown(w io.Writer) error {
	return v.blocks(false).RenderMarkdown(w)
}

func (v *AnalysisView) blocks(colored bool) *Blocks {
	r := v.Report
	out := &Blocks{Items: []Renderable{v.summary()}, Data: r}

	paint := func(tier, text string) string {
		if colored {
			return ConfidenceColor(tier, text)
		}
		return text
	}

	if len(r.DeadExports) > 0 {
		rows := make([][]string, 0, len(r.DeadExports))
		for _, d := range r.DeadExports {
			rows = append(rows, []string{
				v.rel(d.File),
				strconv.Itoa(d.Line),
				d.Name,
				string(d.Kind),
				paint(string(d.Confidence), string(d.Confidence)),
				strings.Join(d.RiskFactors, "; "),
			})
		}
		out.Items = append(out.Items, NewTable("Dead Exports",
			[]string{"File", "Line", "Name", "Kind", "Confidence", "Risk Factors"}, rows, nil))
	}

	if len(r.UnusedImports) > 0 {
		rows := make([][]string, 0, len(r.UnusedImports))
		for _, u := range r.UnusedImports {
			rows = append(rows, []string{
				v.rel(u.File),
				strconv.Itoa(u.Line),
				u.DisplayName(),
				u.SourceSpecifier,
				paint(string(u.Confidence), string(u.Confidence)),
				strings.Join(u.RiskFactors, "; "),
			})
		}
		out.Items = append(out.Items, NewTable("Unused Imports",
			[]string{"File", "Line", "Name", "Source", "Confidence", "Risk Factors"}, rows, nil))
	}

	if len(r.Suggestions) > 0 {
		rows := make([][]string, 0, len(r.Suggestions))
		for _, s := range r.Suggestions {
			rows = append(rows, []string{
				s.ID,
				s.Action,
				fmt.Sprintf("%s:%d", v.rel(s.File), s.Line),
				paint(string(s.Safety), string(s.Safety)),
				string(s.Priority),
				strconv.Itoa(s.Impact),
			})
		}
		out.Items = append(out.Items, NewTable("Suggestions",
			[]string{"ID", "Action", "Location", "Safety", "Priority", "Impact"}, rows, nil))
	}
	return out
}

func (v *AnalysisView) summary() *Fields {
	r := v.Report
	m := r.Metrics
	f := &Fields{
		Title: "Dead Export Analysis",
		Fields: []Field{
			{"Project", r.ProjectPath},
			{"Files analyzed", strconv.Itoa(m.TotalFiles)},
			{"Exports", fmt.Sprintf("%d (%d dead)", m.TotalExports, m.DeadExports)},
			{"Imports", fmt.Sprintf("%d (%d unused)", m.TotalImports, m.UnusedImports)},
			{"Confidence", fmt.Sprintf("high %d, medium %d, low %d",
				m.ByConfidence[models.ConfidenceHigh],
				m.ByConfidence[models.ConfidenceMedium],
				m.ByConfidence[models.ConfidenceLow])},
			{"Estimated savings", fmt.Sprintf("%.2f KB", m.EstimatedSavingsKB)},
			{"Cache hit rate", fmt.Sprintf("%.1f%% (%d hits, %d misses)", m.CacheHitRate*100, m.CacheHits, m.CacheMisses)},
			{"Analysis time", fmt.Sprintf("%d ms", m.AnalysisTimeMs)},
		},
	}
	if m.DeadExports == 0 && m.UnusedImports == 0 {
		f.Note = "No dead exports or unused imports found."
	}
	return f
}

// rel shortens a path to be relative to the project root.
func (v *AnalysisView) rel(path string) string {
	if v.Report.ProjectPath == "" {
		return path
	}
	rel, err := filepath.Rel(v.Report.ProjectPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
