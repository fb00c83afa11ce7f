// Package uncertainty provides the try-verify-feedback helpers as free
// functions: DetectAssumptions, DetectUncertainty, and
// SynthesizePartialResult, which describes what completed when the primary
// pipeline fails outright. It does not wrap a pipeline itself, and nothing
// in it produces clarifying questions; the analyze-ticket handler attaches
// DetectAssumptions' output as metadata.assumptions.
//
// Detection uses the same closed-keyword-list style as the rest of the
// codebase's heuristic matching (hedge-phrase and vague-verb scanning via
// internal/lexicon), and degrades a failed call rather than discarding it
// outright: whatever the caller already attempted still contributes a
// partial description of the outcome.
package uncertainty

import (
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/internal/lexicon"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// vagueRequestVerbs trigger an ambiguous-request assumption when present in
// a user's modify_canvas/generate request.
var vagueRequestVerbs = []string{"improve", "enhance", "better", "fix", "update"}

// DetectAssumptions inspects the inbound request (profile + free-text
// instruction) for missing-test-format, vague-verb, and
// comprehensive-versus-simple conflict signals, returning the list to attach as
// metadata.assumptions.
func DetectAssumptions(profile models.QAProfile, requestText string) []models.Assumption {
	var assumptions []models.Assumption

	if profile.TestCaseFormat == "" {
		assumptions = append(assumptions, models.Assumption{
			Field:      "test_case_format",
			Assumption: "gherkin",
			Reason:     "qa_profile.test_case_format was not provided; gherkin is the default format.",
		})
	}

	lower := strings.ToLower(requestText)
	for _, verb := range vagueRequestVerbs {
		if strings.Contains(lower, verb) {
			assumptions = append(assumptions, models.Assumption{
				Field:      "request",
				Assumption: "ambiguous-request",
				Reason:     "The request uses a vague verb (\"" + verb + "\") without specifying what concretely should change.",
			})
			break
		}
	}

	if strings.Contains(lower, "comprehensive") && strings.Contains(lower, "simple") {
		assumptions = append(assumptions, models.Assumption{
			Field:      "request",
			Assumption: "conflict",
			Reason:     "The request asks for both \"comprehensive\" and \"simple\" output, which pull in opposite directions.",
		})
	}

	return assumptions
}

// briefWordThreshold calibrates the uncertainty detector's "extreme
// brevity" signal.
const briefWordThreshold = 4

// DetectUncertainty scans an AI response's text for hedge phrases, multiple
// question marks, and extreme brevity, returning an
// {uncertain, confidence_score, indicators} result.
func DetectUncertainty(text string) models.UncertaintyResult {
	var indicators []string

	if hedges := lexicon.MatchedPhrases(text, lexicon.HedgePhrases); len(hedges) > 0 {
		indicators = append(indicators, "hedge_phrase")
	}
	if strings.Count(text, "?") >= 2 {
		indicators = append(indicators, "multiple_question_marks")
	}
	if len(strings.Fields(text)) <= briefWordThreshold {
		indicators = append(indicators, "extreme_brevity")
	}

	uncertain := len(indicators) > 0
	confidence := 1.0 - 0.3*float64(len(indicators))
	if confidence < 0 {
		confidence = 0
	}
	return models.UncertaintyResult{Uncertain: uncertain, ConfidenceScore: confidence, Indicators: indicators}
}

// SynthesizePartialResult builds a fallback description for when the
// primary pipeline fails outright: which sections are known-complete
// (from a prior successful canvas, if any), which are not, and a minimal
// fallback skeleton to return instead of an error.
func SynthesizePartialResult(completed []models.CanvasSection, failed []models.CanvasSection, ticketID string, reason string) models.PartialResult {
	skeleton := &models.QACanvasDocument{
		Metadata: models.CanvasMetadata{
			TicketID:        ticketID,
			IsPartialResult: true,
		},
	}
	return models.PartialResult{
		CompletedSections: completed,
		FailedSections:    failed,
		FallbackSkeleton:  skeleton,
		Reason:            reason,
	}
}
