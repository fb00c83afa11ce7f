package intent

import (
	"context"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/lexicon"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// primaryThreshold and secondaryThreshold resolve the confidence bands a
// keyword score must clear to count as a primary or secondary target
// section.
const (
	primaryThreshold   = 0.7
	secondaryThreshold = 0.4
)

// DetectTargetSections runs a hybrid detector: score every canvas
// section's keyword overlap first, and only fall back to a secondary
// generative call when keyword matching is inconclusive (no section
// clears the primary threshold, or the classifier's confidence is below
// 0.6). Keyword matches are kept when that call fails or returns no
// sections.
func (e *Engine) DetectTargetSections(ctx context.Context, message string, classification models.IntentClassification) ([]models.CanvasSection, []string) {
	scores := lexicon.SectionScores(message)

	var primary, secondary []models.CanvasSection
	for _, section := range models.AllCanvasSections {
		switch {
		case scores[section] >= primaryThreshold:
			primary = append(primary, section)
		case scores[section] >= secondaryThreshold:
			secondary = append(secondary, section)
		}
	}

	keywords := matchedKeywordsAcrossSections(message)

	inconclusive := len(primary) == 0 || classification.Confidence < 0.6
	if inconclusive {
		if ai := e.detectSectionsViaModel(ctx, message); len(ai) > 0 {
			return ai, keywords
		}
	}

	if len(primary) > 0 {
		return primary, keywords
	}
	if len(secondary) > 0 {
		return secondary, keywords
	}
	return nil, keywords
}

func matchedKeywordsAcrossSections(message string) []string {
	var out []string
	for _, section := range models.AllCanvasSections {
		out = append(out, lexicon.MatchedPhrases(message, lexicon.SectionKeywords[section])...)
	}
	return out
}

// sectionsValidator wraps a JSON array of canvas-section strings,
// produced by the secondary generative call when keyword detection alone
// is inconclusive.
type sectionsValidator struct{}

func (sectionsValidator) Parse(raw string) (interface{}, []schema.Issue) {
	return schema.ParseSlice[models.CanvasSection](raw, func(s *models.CanvasSection) []schema.Issue {
		for _, known := range models.AllCanvasSections {
			if *s == known {
				return nil
			}
		}
		return []schema.Issue{{Path: "$", Code: schema.IssueInvalidEnum, Message: "unrecognized canvas section: " + string(*s)}}
	})
}

func (e *Engine) detectSectionsViaModel(ctx context.Context, message string) []models.CanvasSection {
	result, err := e.gw.GenerateObject(ctx, sectionsValidator{}, buildSectionPrompt(message), gateway.GenerationOptions{
		Temperature: 0.0,
		MaxTokens:   128,
	})
	if err != nil {
		return nil
	}
	sections, ok := result.([]models.CanvasSection)
	if !ok {
		return nil
	}
	return sections
}

func buildSectionPrompt(message string) string {
	return "Which canvas sections (ticket_summary, acceptance_criteria, test_cases, configuration_warnings, metadata) " +
		"does this message refer to? Respond with a JSON array of section names, or [] if none apply.\n\nMessage: " + message
}
