// Package lexicon holds the bilingual (English/Spanish) keyword and pattern
// banks shared by the Intent Engine, Suggestion Engine, and Uncertainty
// Layer, plus the small matching primitives built on top of them.
//
// Matching is closed-keyword-list based: case-insensitive substring and
// regex matching that evaluates every entry and accumulates matches
// rather than short-circuiting on the first miss.
package lexicon

import (
	"regexp"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// SectionKeywords maps each canvas section to the phrases (English and
// Spanish) that indicate a user message is talking about it.
var SectionKeywords = map[models.CanvasSection][]string{
	models.SectionTicketSummary: {
		"summary", "problem statement", "overview", "context",
		"resumen", "planteamiento del problema", "contexto",
	},
	models.SectionAcceptanceCriteria: {
		"acceptance criteria", "acceptance criterion", "requirement", "must have", "should have",
		"criterios de aceptacion", "criterio de aceptacion", "requisito",
	},
	models.SectionTestCases: {
		"test case", "test cases", "scenario", "gherkin", "given when then", "test step",
		"caso de prueba", "casos de prueba", "escenario", "paso de prueba",
	},
	models.SectionConfigurationWarnings: {
		"warning", "configuration", "incomplete ticket", "missing information",
		"advertencia", "configuracion", "informacion faltante",
	},
	models.SectionMetadata: {
		"version", "metadata", "generated at",
		"version", "metadatos",
	},
}

// VagueTerms are verbs/adjectives that make an acceptance-criterion
// description untestable on its own, used by the Suggestion Engine's
// clarification rule.
var VagueTerms = []string{
	"properly", "correctly", "appropriately", "as expected", "works well", "good",
	"fast enough", "user friendly", "intuitive", "robust", "seamless",
	"correctamente", "apropiadamente", "como se espera", "funciona bien",
	"suficientemente rapido", "intuitivo", "robusto",
}

// OffTopicKeywords flags a message as unrelated to QA/canvas work.
var OffTopicKeywords = []string{
	"weather", "joke", "recipe", "sports score", "who are you", "what model are you",
	"el clima", "chiste", "receta", "marcador",
}

// HedgePhrases are phrases an AI response uses to signal its own
// uncertainty, scanned by the Uncertainty Layer.
var HedgePhrases = []string{
	"i'm not sure", "i am not sure", "i think", "it's possible that", "might be",
	"i assumed", "assuming that", "without more information", "unclear whether",
	"no estoy seguro", "creo que", "es posible que", "podria ser", "supongo que",
	"sin mas informacion", "no esta claro si",
}

// ClarificationTriggers are phrases that typically precede a direct
// question back to the user.
var ClarificationTriggers = []string{
	"could you clarify", "can you confirm", "which ", "do you mean", "is it",
	"podrias aclarar", "puedes confirmar", "a que te refieres",
}

// MajorRevisionPhrases are phrases a user uses to explicitly ask for a
// ground-up rewrite rather than an incremental edit, distinguishing a
// major document_version bump from the default minor one.
var MajorRevisionPhrases = []string{
	"major revision", "major version", "start over", "from scratch",
	"rewrite the whole", "rewrite everything", "completely redo", "completely rewrite",
	"revision mayor", "version mayor", "empezar de nuevo", "desde cero", "reescribir todo",
}

var edgeCasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bempty\b`),
	regexp.MustCompile(`(?i)\bnull\b`),
	regexp.MustCompile(`(?i)\bzero\b`),
	regexp.MustCompile(`(?i)\bmax(imum)?\s+length\b`),
	regexp.MustCompile(`(?i)\bconcurren(t|cy)\b`),
	regexp.MustCompile(`(?i)\btimeout\b`),
	regexp.MustCompile(`(?i)\bboundary\b`),
	regexp.MustCompile(`(?i)\bvacio\b`),
	regexp.MustCompile(`(?i)\bnulo\b`),
	regexp.MustCompile(`(?i)\blimite\b`),
}

// MatchesEdgeCasePattern reports whether text names a classic edge-case
// concept (empty, null, boundary, timeout, concurrency) in either language.
func MatchesEdgeCasePattern(text string) bool {
	for _, re := range edgeCasePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether text contains any phrase from phrases,
// case-insensitively.
func ContainsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// MatchCount returns how many phrases from phrases occur in text.
func MatchCount(text string, phrases []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			n++
		}
	}
	return n
}

// MatchedPhrases returns the subset of phrases found in text, preserving
// phrases order, used when the caller needs to report *which* keywords
// triggered a classification (IntentClassification.Keywords).
func MatchedPhrases(text string, phrases []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			out = append(out, p)
		}
	}
	return out
}

// SectionScores returns, for every canvas section, the fraction of that
// section's keyword bank matched in text — the raw signal the Intent
// Engine's hybrid detector thresholds against (primary >=0.7, secondary
// 0.4-0.7; see DESIGN.md).
func SectionScores(text string) map[models.CanvasSection]float64 {
	scores := make(map[models.CanvasSection]float64, len(SectionKeywords))
	for section, keywords := range SectionKeywords {
		if len(keywords) == 0 {
			continue
		}
		matched := MatchCount(text, keywords)
		scores[section] = float64(matched) / float64(len(keywords))
	}
	return scores
}
