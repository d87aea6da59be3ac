package exports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/shed/internal/cache"
	"github.com/panbanda/shed/pkg/models"
)

func TestEstimatedSavingsKB(t *testing.T) {
	tests := []struct {
		impacts []int
		want    float64
	}{
		{nil, 0},
		{[]int{10}, 0.39},       // 400 bytes
		{[]int{20, 10, 1}, 1.21}, // 1240 bytes
		{[]int{512}, 20},
	}
	for _, tt := range tests {
		var s []models.RemovalSuggestion
		for _, n := range tt.impacts {
			s = append(s, models.RemovalSuggestion{Impact: n})
		}
		assert.InDelta(t, tt.want, EstimatedSavingsKB(s), 1e-9, "impacts=%v", tt.impacts)
	}
}

func TestAssembleReport(t *testing.T) {
	tables := []*models.FileSymbols{
		{Path: "/r/a.ts", Exports: make([]models.ExportRecord, 3), Imports: make([]models.ImportRecord, 2)},
		{Path: "/r/b.ts", Exports: make([]models.ExportRecord, 1)},
	}
	dead := []models.DeadExport{
		deadExport("/r/a.ts", "x", models.ExportFunction, 1, models.ConfidenceHigh),
		deadExport("/r/a.ts", "y", models.ExportDefault, 2, models.ConfidenceLow, RiskDefault, RiskPublicAPI, RiskConfigFile),
	}
	unused := []models.UnusedImport{{ImportRecord: models.ImportRecord{File: "/r/a.ts", Line: 1}, Confidence: models.ConfidenceMedium, RiskFactors: []string{RiskFramework}}}
	suggestions := GenerateSuggestions(dead, unused, "/r")

	r := AssembleReport("/r", tables, dead, unused, suggestions, 1500*time.Millisecond, cache.Stats{Hits: 3, Misses: 1})

	m := r.Metrics
	assert.Equal(t, "/r", r.ProjectPath)
	assert.Equal(t, 2, m.TotalFiles)
	assert.Equal(t, 4, m.TotalExports)
	assert.Equal(t, 2, m.TotalImports)
	assert.Equal(t, 2, m.DeadExports)
	assert.Equal(t, 1, m.UnusedImports)
	assert.Equal(t, int64(1500), m.AnalysisTimeMs)
	assert.InDelta(t, 0.75, m.CacheHitRate, 1e-9)
	assert.Equal(t, uint64(3), m.CacheHits)
	assert.InDelta(t, 0.82, m.EstimatedSavingsKB, 1e-9) // (10+10+1)*40/1024
	assert.Equal(t, map[models.Confidence]int{
		models.ConfidenceHigh:   1,
		models.ConfidenceMedium: 1,
		models.ConfidenceLow:    1,
	}, m.ByConfidence)
}

func TestAssembleReport_EmptyFindingsSerializeAsArrays(t *testing.T) {
	r := AssembleReport("/r", nil, nil, nil, nil, 0, cache.Stats{})
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["deadExports"])
	assert.Equal(t, []any{}, raw["unusedImports"])
	assert.Equal(t, []any{}, raw["suggestions"])
	assert.Equal(t, 0.0, r.Metrics.CacheHitRate)
}
