package suggest

import (
	"errors"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

var errNoSuggestions = errors.New("suggest: rule-based and AI generation both produced zero suggestions")

// typeWeight ranks how structurally important a suggestion type is to
// canvas completeness, feeding the relevance formula's type_score term.
var typeWeight = map[models.SuggestionType]float64{
	models.SuggestionCoverageGap:          1.0,
	models.SuggestionNegativeTest:         0.9,
	models.SuggestionSecurityTest:         0.9,
	models.SuggestionSecurity:             0.9,
	models.SuggestionEdgeCase:             0.7,
	models.SuggestionClarificationQuestion: 0.7,
	models.SuggestionDataValidation:       0.6,
	models.SuggestionFunctionalTest:       0.6,
	models.SuggestionIntegrationTest:      0.5,
	models.SuggestionAccessibilityTest:    0.5,
	models.SuggestionPerformanceTest:      0.5,
	models.SuggestionUIVerification:       0.4,
	models.SuggestionImprovement:          0.3,
}

// relevance scores a suggestion as
// 0.4*priority_score + 0.4*type_score + 0.2*tag_overlap_with_canvas_text.
func relevance(s models.Suggestion, canvasText string) float64 {
	priorityScore := float64(priorityWeight(s.Priority)) / 3.0
	typeScore := typeWeight[s.SuggestionType]
	tagOverlap := tagOverlapRatio(s.Tags, canvasText)
	return 0.4*priorityScore + 0.4*typeScore + 0.2*tagOverlap
}

func tagOverlapRatio(tags []string, canvasText string) float64 {
	if len(tags) == 0 {
		return 0
	}
	matched := 0
	for _, t := range tags {
		if strings.Contains(canvasText, strings.ToLower(t)) {
			matched++
		}
	}
	return float64(matched) / float64(len(tags))
}

// applyTypeFilters drops excluded types, then (if focus_areas is non-empty)
// keeps only suggestions whose type intersects it.
func applyTypeFilters(suggestions []models.Suggestion, focusAreas, excludeTypes []models.SuggestionType) []models.Suggestion {
	excluded := make(map[models.SuggestionType]bool, len(excludeTypes))
	for _, t := range excludeTypes {
		excluded[t] = true
	}
	var focus map[models.SuggestionType]bool
	if len(focusAreas) > 0 {
		focus = make(map[models.SuggestionType]bool, len(focusAreas))
		for _, t := range focusAreas {
			focus[t] = true
		}
	}

	out := make([]models.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if excluded[s.SuggestionType] {
			continue
		}
		if focus != nil && !focus[s.SuggestionType] {
			continue
		}
		out = append(out, s)
	}
	return out
}
