package exports

import (
	"fmt"
	"sort"

	"github.com/panbanda/shed/pkg/models"
)

// Estimated lines removed per export kind.
var exportImpact = map[models.ExportKind]int{
	models.ExportVariable:  1,
	models.ExportFunction:  10,
	models.ExportInterface: 10,
	models.ExportType:      10,
	models.ExportDefault:   10,
	models.ExportClass:     20,
}

const importImpact = 1

var safetyRank = map[models.Safety]int{
	models.SafetySafe:         0,
	models.SafetyReviewNeeded: 1,
	models.SafetyRisky:        2,
}

// Impact estimates the number of lines removing an export affects.
func Impact(kind models.ExportKind) int {
	if n, ok := exportImpact[kind]; ok {
		return n
	}
	return 1
}

func tier(c models.Confidence) (models.Priority, models.Safety) {
	switch c {
	case models.ConfidenceHigh:
		return models.PriorityHigh, models.SafetySafe
	case models.ConfidenceMedium:
		return models.PriorityMedium, models.SafetyReviewNeeded
	default:
		return models.PriorityLow, models.SafetyRisky
	}
}

// GenerateSuggestions converts classified findings into removal suggestions.
// Safe suggestions come first, then review-needed, then risky; ties keep
// input order with exports before imports.
func GenerateSuggestions(dead []models.DeadExport, unused []models.UnusedImport, projectPath string) []models.RemovalSuggestion {
	out := make([]models.RemovalSuggestion, 0, len(dead)+len(unused))

	for i, d := range dead {
		file := relativePath(projectPath, d.File)
		s := newSuggestion(d.Confidence, d.RiskFactors)
		s.ID = fmt.Sprintf("export-%d", i)
		s.Type = models.SuggestRemoveExport
		s.Action = fmt.Sprintf("Remove unused export '%s'", d.Name)
		s.File = file
		s.Line = d.Line
		s.Impact = Impact(d.Kind)
		if s.Safety == models.SafetySafe {
			s.Command = fmt.Sprintf("%s:%d: remove export %s", file, d.Line, d.Name)
		}
		out = append(out, s)
	}

	for i, u := range unused {
		file := relativePath(projectPath, u.File)
		name := u.DisplayName()
		s := newSuggestion(u.Confidence, u.RiskFactors)
		s.ID = fmt.Sprintf("import-%d", i)
		s.Type = models.SuggestRemoveImport
		s.Action = fmt.Sprintf("Remove unused import '%s' from '%s'", name, u.SourceSpecifier)
		s.File = file
		s.Line = u.Line
		s.Impact = importImpact
		if s.Safety == models.SafetySafe {
			s.Command = fmt.Sprintf("%s:%d: remove import %s from '%s'", file, u.Line, name, u.SourceSpecifier)
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return safetyRank[out[i].Safety] < safetyRank[out[j].Safety]
	})
	return out
}

func newSuggestion(c models.Confidence, factors []string) models.RemovalSuggestion {
	priority, safety := tier(c)
	s := models.RemovalSuggestion{Priority: priority, Safety: safety}
	if safety != models.SafetySafe && len(factors) > 0 {
		s.Warnings = append([]string(nil), factors...)
	}
	return s
}
