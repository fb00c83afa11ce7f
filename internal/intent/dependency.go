package intent

import "github.com/promadgenius/qacanvas/control-plane/pkg/models"

// AnalyzeDependencies walks models.DependencyEdges from the sections a
// modify_canvas turn directly targets to the sections that must cascade:
// acceptance_criteria edits cascade to test_cases, ticket_summary edits
// cascade to both.
func AnalyzeDependencies(targets []models.CanvasSection) models.DependencyAnalysis {
	seen := make(map[models.CanvasSection]bool, len(targets)*2)
	var affected []models.CanvasSection

	var visit func(models.CanvasSection)
	visit = func(s models.CanvasSection) {
		if seen[s] {
			return
		}
		seen[s] = true
		affected = append(affected, s)
		for _, next := range models.DependencyEdges[s] {
			visit(next)
		}
	}
	for _, t := range targets {
		visit(t)
	}

	return models.DependencyAnalysis{
		AffectedSections: affected,
		CascadeRequired:  len(affected) > len(targets),
		ConflictRisk:     conflictRisk(affected),
	}
}

// conflictRisk is high whenever both acceptance_criteria and test_cases are
// affected together (the two sections whose content must stay mutually
// consistent), medium when exactly one of them is, low otherwise.
func conflictRisk(affected []models.CanvasSection) models.ConflictRisk {
	hasAC, hasTC := false, false
	for _, s := range affected {
		switch s {
		case models.SectionAcceptanceCriteria:
			hasAC = true
		case models.SectionTestCases:
			hasTC = true
		}
	}
	switch {
	case hasAC && hasTC:
		return models.ConflictRiskHigh
	case hasAC || hasTC:
		return models.ConflictRiskMedium
	default:
		return models.ConflictRiskLow
	}
}
