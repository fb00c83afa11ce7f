package suggest

import (
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/internal/lexicon"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// commonWords is stripped from acceptance-criteria titles before checking
// test-case coverage, so "the button works" doesn't match every test case
// that happens to mention "the".
var commonWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "to": true,
	"of": true, "and": true, "for": true, "on": true, "in": true, "with": true,
	"should": true, "must": true, "can": true, "will": true, "be": true,
}

var negativeTestPatterns = []string{"should not", "invalid", "reject", "no debe", "invalido", "rechazar"}

// coverageGapSuggestions flags coverage gaps: AC↔test-case keyword
// correspondence, per-category coverage, negative-test presence, and
// edge-case-pattern presence.
func coverageGapSuggestions(c *models.QACanvasDocument) []models.Suggestion {
	var out []models.Suggestion

	testText := strings.ToLower(joinTestCaseText(c.TestCases))

	for _, ac := range c.AcceptanceCriteria {
		keywords := significantWords(ac.Title)
		if len(keywords) == 0 {
			continue
		}
		covered := false
		for _, kw := range keywords {
			if strings.Contains(testText, kw) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		priority := models.Priority2Medium
		if ac.Priority == models.PriorityMust {
			priority = models.Priority2High
		}
		out = append(out, models.Suggestion{
			SuggestionType: models.SuggestionCoverageGap,
			Title:          "No test case covers: " + ac.Title,
			Description:    "Acceptance criterion \"" + ac.Title + "\" has no corresponding test case.",
			TargetSection:  models.SectionTestCases,
			Priority:       priority,
			Reasoning:      "Keyword overlap between this criterion's title and every test case is empty.",
			Tags:           keywords,
		})
	}

	categories := activeCategoriesWithoutCoverage(c)
	for _, cat := range categories {
		out = append(out, models.Suggestion{
			SuggestionType: models.SuggestionCoverageGap,
			Title:          "No test case exercises the " + cat + " category",
			Description:    "The QA profile enables \"" + cat + "\" but no test case addresses it.",
			TargetSection:  models.SectionTestCases,
			Priority:       models.Priority2Medium,
			Reasoning:      "Category " + cat + " has zero matching test cases.",
			Tags:           []string{cat},
		})
	}

	hasNegativeCase := false
	for _, tc := range c.TestCases {
		if tc.Category == "negative" {
			hasNegativeCase = true
		}
	}
	if !lexicon.ContainsAny(testText, negativeTestPatterns) && !hasNegativeCase {
		out = append(out, models.Suggestion{
			SuggestionType: models.SuggestionNegativeTest,
			Title:          "No negative test cases detected",
			Description:    "Add at least one test case exercising invalid input or a rejected action.",
			TargetSection:  models.SectionTestCases,
			Priority:       models.Priority2High,
			Reasoning:      "No test case text matches negative-test patterns (should not/invalid/reject).",
		})
	}

	if !lexicon.MatchesEdgeCasePattern(testText) {
		out = append(out, models.Suggestion{
			SuggestionType: models.SuggestionEdgeCase,
			Title:          "No edge-case test cases detected",
			Description:    "Consider boundary, maximum/minimum, empty, null, or special-character scenarios.",
			TargetSection:  models.SectionTestCases,
			Priority:       models.Priority2Medium,
			Reasoning:      "No test case text matches a recognized edge-case pattern.",
		})
	}

	return out
}

func significantWords(title string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,:;!?\"'")
		if w == "" || commonWords[w] || len(w) < 3 {
			continue
		}
		out = append(out, w)
	}
	return out
}

func joinTestCaseText(tcs []models.TestCase) string {
	var b strings.Builder
	for _, tc := range tcs {
		b.WriteString(tc.TextBlob())
		b.WriteString(" ")
	}
	return b.String()
}

func activeCategoriesWithoutCoverage(c *models.QACanvasDocument) []string {
	if c.Metadata.QAProfile == nil {
		return nil
	}
	testText := strings.ToLower(joinTestCaseText(c.TestCases))
	var missing []string
	for _, cat := range c.Metadata.QAProfile.ActiveCategories() {
		if !strings.Contains(testText, cat) {
			missing = append(missing, cat)
		}
	}
	return missing
}

func hasCategory(c *models.QACanvasDocument, name string) bool {
	if c.Metadata.QAProfile == nil {
		return false
	}
	for _, cat := range c.Metadata.QAProfile.ActiveCategories() {
		if cat == name {
			return true
		}
	}
	return false
}

// clarificationSuggestions flags canvas gaps that warrant asking the user
// a clarifying question rather than guessing.
func clarificationSuggestions(c *models.QACanvasDocument) []models.Suggestion {
	var out []models.Suggestion

	for _, ac := range c.AcceptanceCriteria {
		if vague := lexicon.MatchedPhrases(ac.Description, lexicon.VagueTerms); len(vague) > 0 {
			out = append(out, models.Suggestion{
				SuggestionType: models.SuggestionClarificationQuestion,
				Title:          "Vague wording in: " + ac.Title,
				Description:    "Replace vague terms (" + strings.Join(vague, ", ") + ") with a measurable, testable condition.",
				TargetSection:  models.SectionAcceptanceCriteria,
				Priority:       models.Priority2Medium,
				Reasoning:      "Description contains untestable qualifiers.",
				Tags:           vague,
			})
		}
	}

	problem := c.TicketSummary.Problem
	if isShortOrPronounDominated(problem) {
		out = append(out, models.Suggestion{
			SuggestionType: models.SuggestionClarificationQuestion,
			Title:          "Problem statement lacks detail",
			Description:    "The problem statement is short or relies on context-free pronouns (it/this/that) without stating what they refer to.",
			TargetSection:  models.SectionTicketSummary,
			Priority:       models.Priority2Medium,
			Reasoning:      "Problem statement word count is low or pronoun-dominated.",
		})
	}

	if overlap := keywordOverlapRatio(c.TicketSummary.Problem, c.TicketSummary.Solution); overlap >= 0 && overlap < 0.3 {
		out = append(out, models.Suggestion{
			SuggestionType: models.SuggestionClarificationQuestion,
			Title:          "Problem and solution may be disconnected",
			Description:    "The proposed solution shares little vocabulary with the stated problem; confirm they address the same issue.",
			TargetSection:  models.SectionTicketSummary,
			Priority:       models.Priority2Medium,
			Reasoning:      "Keyword overlap between problem and solution is below 30% of the smaller side.",
		})
	}

	out = append(out, conflictingPriorityCriteria(c.AcceptanceCriteria)...)

	return out
}

func isShortOrPronounDominated(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return true
	}
	if len(words) < 6 {
		return true
	}
	pronouns := 0
	for _, w := range words {
		lw := strings.ToLower(strings.Trim(w, ".,:;!?"))
		if lw == "it" || lw == "this" || lw == "that" || lw == "them" {
			pronouns++
		}
	}
	return float64(pronouns)/float64(len(words)) > 0.15
}

func keywordOverlapRatio(a, b string) float64 {
	wa := uniqueWords(a)
	wb := uniqueWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return -1
	}
	small := len(wa)
	if len(wb) < small {
		small = len(wb)
	}
	overlap := 0
	for w := range wa {
		if wb[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(small)
}

func uniqueWords(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:;!?\"'")
		if w == "" || commonWords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

// conflictingPriorityCriteria flags the first pair of criteria that share a
// significant keyword but carry different priorities; later pairs are not
// reported.
func conflictingPriorityCriteria(criteria []models.AcceptanceCriterion) []models.Suggestion {
	var out []models.Suggestion
	for i := 0; i < len(criteria); i++ {
		for j := i + 1; j < len(criteria); j++ {
			if criteria[i].Priority == criteria[j].Priority {
				continue
			}
			if shareKeyword(criteria[i].Title, criteria[j].Title) {
				out = append(out, models.Suggestion{
					SuggestionType: models.SuggestionClarificationQuestion,
					Title:          "Conflicting priorities: " + criteria[i].Title + " vs " + criteria[j].Title,
					Description:    "These criteria share subject matter but have different priorities; confirm which should take precedence.",
					TargetSection:  models.SectionAcceptanceCriteria,
					Priority:       models.Priority2Low,
					Reasoning:      "Shared keyword with differing priority values.",
				})
				return out // one conflict flagged is enough signal per pair-scan pass
			}
		}
	}
	return out
}

func shareKeyword(a, b string) bool {
	wa := significantWords(a)
	wbSet := make(map[string]bool)
	for _, w := range significantWords(b) {
		wbSet[w] = true
	}
	for _, w := range wa {
		if wbSet[w] {
			return true
		}
	}
	return false
}
