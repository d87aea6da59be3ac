package exports

import (
	"math"
	"time"

	"github.com/panbanda/shed/internal/cache"
	"github.com/panbanda/shed/pkg/models"
)

// BytesPerLine is the average source line size used to estimate savings.
const BytesPerLine = 40

// EstimatedSavingsKB converts summed suggestion impact to kilobytes,
// rounded to two decimals.
func EstimatedSavingsKB(suggestions []models.RemovalSuggestion) float64 {
	lines := 0
	for _, s := range suggestions {
		lines += s.Impact
	}
	kb := float64(lines*BytesPerLine) / 1024
	return math.Round(kb*100) / 100
}

// AssembleReport packages findings and metrics into the final report.
func AssembleReport(
	projectPath string,
	tables []*models.FileSymbols,
	dead []models.DeadExport,
	unused []models.UnusedImport,
	suggestions []models.RemovalSuggestion,
	elapsed time.Duration,
	stats cache.Stats,
) *models.AnalysisReport {
	metrics := models.NewAnalysisMetrics()
	metrics.TotalFiles = len(tables)
	for _, t := range tables {
		metrics.TotalExports += len(t.Exports)
		metrics.TotalImports += len(t.Imports)
	}
	for _, d := range dead {
		metrics.AddDeadExport(d)
	}
	for _, u := range unused {
		metrics.AddUnusedImport(u)
	}
	metrics.AnalysisTimeMs = elapsed.Milliseconds()
	metrics.EstimatedSavingsKB = EstimatedSavingsKB(suggestions)
	metrics.CacheHits = stats.Hits
	metrics.CacheMisses = stats.Misses
	metrics.CacheHitRate = stats.HitRate()

	if dead == nil {
		dead = []models.DeadExport{}
	}
	if unused == nil {
		unused = []models.UnusedImport{}
	}
	if suggestions == nil {
		suggestions = []models.RemovalSuggestion{}
	}

	return &models.AnalysisReport{
		ProjectPath:   projectPath,
		DeadExports:   dead,
		UnusedImports: unused,
		Suggestions:   suggestions,
		Metrics:       metrics,
	}
}
