package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/lexicon"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// classificationValidator enforces the closed intent set and a confidence
// in [0,1], following the same schema.ParseStruct wiring pattern used by
// the Canvas Analyzer's sub-schema validators.
type classificationValidator struct{}

func (classificationValidator) Parse(raw string) (interface{}, []schema.Issue) {
	return schema.ParseStruct[models.IntentClassification](raw, func(c *models.IntentClassification) []schema.Issue {
		var issues []schema.Issue
		switch c.Intent {
		case models.IntentModifyCanvas, models.IntentProvideInformation,
			models.IntentAskClarification, models.IntentOffTopic, models.IntentFallback:
		default:
			issues = append(issues, schema.Issue{Path: "intent", Code: schema.IssueInvalidEnum, Message: "unrecognized intent: " + string(c.Intent)})
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			issues = append(issues, schema.Issue{Path: "confidence", Code: schema.IssueRange, Message: "confidence must be in [0,1]"})
		}
		return issues
	})
}

// Classify asks the gateway's generate_object verb to classify message into
// one of the five closed intents, seeding the prompt with keyword-bank
// hints from internal/lexicon so the model has a concrete signal to agree
// or disagree with rather than classifying cold.
func (e *Engine) Classify(ctx context.Context, message string, history []models.ChatMessage) (models.IntentClassification, error) {
	prompt := buildClassifyPrompt(message, history)

	result, err := e.gw.GenerateObject(ctx, classificationValidator{}, prompt, gateway.GenerationOptions{
		Temperature: 0.1,
		MaxTokens:   256,
	})
	if err != nil {
		return models.IntentClassification{}, err
	}
	c, ok := result.(*models.IntentClassification)
	if !ok {
		return models.IntentClassification{}, fmt.Errorf("intent: unexpected classification result type %T", result)
	}
	return *c, nil
}

func buildClassifyPrompt(message string, history []models.ChatMessage) string {
	var b strings.Builder
	b.WriteString("Classify the user's message into exactly one intent: ")
	b.WriteString("modify_canvas, provide_information, ask_clarification, off_topic, or fallback.\n")
	b.WriteString("Respond with a JSON object: {\"intent\":..., \"confidence\":0-1, \"target_sections\":[...], \"keywords\":[...], \"reasoning\":\"...\", \"should_modify_canvas\":bool, \"requires_clarification\":bool}\n\n")

	if lexicon.ContainsAny(message, lexicon.OffTopicKeywords) {
		b.WriteString("Signal: message contains off-topic phrasing.\n")
	}
	for section, score := range lexicon.SectionScores(message) {
		if score > 0 {
			fmt.Fprintf(&b, "Signal: keyword overlap with %s (%.2f)\n", section, score)
		}
	}

	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		start := 0
		if len(history) > 4 {
			start = len(history) - 4
		}
		for _, m := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}

	fmt.Fprintf(&b, "\nUser message: %q\n", message)
	return b.String()
}
