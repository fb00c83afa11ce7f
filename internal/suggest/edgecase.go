package suggest

import (
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// contentSignals map a family of keywords to the edge-case scenario
// suggestions they trigger.
var contentSignals = []struct {
	keywords  []string
	scenarios []string
}{
	{
		keywords:  []string{"input", "field", "form", "textbox", "enter"},
		scenarios: []string{"Empty input submission", "Maximum-length input submission", "Special-character input submission"},
	},
	{
		keywords:  []string{"save", "update", "state", "transaction", "concurrent"},
		scenarios: []string{"Concurrent operation on the same resource", "Operation interrupted mid-flight"},
	},
	{
		keywords:  []string{"login", "auth", "session", "permission", "role"},
		scenarios: []string{"Session timeout during the operation", "Action attempted across a permission boundary"},
	},
	{
		keywords:  []string{"mobile", "app", "device", "responsive"},
		scenarios: []string{"Orientation change mid-interaction", "Action attempted on a slow network"},
	},
}

// edgeCaseSuggestions scans the ticket summary and acceptance criteria for
// content signals and emits the matching scenario suggestions.
func edgeCaseSuggestions(c *models.QACanvasDocument) []models.Suggestion {
	text := strings.ToLower(c.TicketSummary.Problem + " " + c.TicketSummary.Solution + " " + acceptanceCriteriaText(c))

	var out []models.Suggestion
	for _, signal := range contentSignals {
		if !anyKeyword(text, signal.keywords) {
			continue
		}
		for _, scenario := range signal.scenarios {
			out = append(out, models.Suggestion{
				SuggestionType: models.SuggestionEdgeCase,
				Title:          scenario,
				Description:    "Content signals suggest this scenario is relevant: " + scenario + ".",
				TargetSection:  models.SectionTestCases,
				Priority:       models.Priority2Low,
				Reasoning:      "Ticket text matched a keyword associated with this edge-case family.",
				EstimatedEffort: models.EffortLow,
			})
		}
	}
	return out
}

func acceptanceCriteriaText(c *models.QACanvasDocument) string {
	var b strings.Builder
	for _, ac := range c.AcceptanceCriteria {
		b.WriteString(ac.Title)
		b.WriteString(" ")
		b.WriteString(ac.Description)
		b.WriteString(" ")
	}
	return b.String()
}

func anyKeyword(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// perspectivesByCategory gives 1-2 canonical perspectives for each QA
// category listed here; ux, api, database and mobile have no entry and
// seed no perspective suggestions.
var perspectivesByCategory = map[string][]string{
	"ui":            {"Visual consistency across breakpoints"},
	"accessibility": {"Keyboard-only navigation", "Screen-reader label correctness"},
	"security":      {"Input sanitization against injection"},
	"performance":   {"Initial load time under typical network conditions"},
	"functional":    {"State persistence across a page reload"},
	"negative":      {"Rejection of a malformed request payload"},
}

func perspectiveSuggestions(c *models.QACanvasDocument) []models.Suggestion {
	if c.Metadata.QAProfile == nil {
		return nil
	}
	var out []models.Suggestion
	for _, cat := range c.Metadata.QAProfile.ActiveCategories() {
		perspectives, ok := perspectivesByCategory[cat]
		if !ok {
			continue
		}
		for _, p := range perspectives {
			out = append(out, models.Suggestion{
				SuggestionType: models.SuggestionImprovement,
				Title:          p,
				Description:    "Canonical " + cat + " perspective: " + p + ".",
				TargetSection:  models.SectionTestCases,
				Priority:       models.Priority2Low,
				Reasoning:      "Category " + cat + " is active in the QA profile.",
				Tags:           []string{cat},
			})
		}
	}
	return out
}
