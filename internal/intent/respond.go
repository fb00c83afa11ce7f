package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

type clarificationListValidator struct{}

func (clarificationListValidator) Parse(raw string) (interface{}, []schema.Issue) {
	return schema.ParseSlice[models.ClarificationQuestion](raw, func(q *models.ClarificationQuestion) []schema.Issue {
		if q.Question == "" {
			return []schema.Issue{{Path: "question", Code: schema.IssueMissing, Message: "question is required"}}
		}
		if q.Priority == "" {
			q.Priority = models.Priority2Medium
		}
		return nil
	})
}

// generateClarificationQuestions asks the model for 1-3 targeted questions;
// on failure it falls back to a single generic question rather than
// surfacing an error, since ask_clarification must always be answerable.
func (e *Engine) generateClarificationQuestions(ctx context.Context, req promptctx.GenerationRequest, message string, c models.IntentClassification) []models.ClarificationQuestion {
	prompt := fmt.Sprintf(
		"The user said: %q\nThis is ambiguous or underspecified (reasoning: %s). "+
			"Write a JSON array of 1 to 3 clarification questions, each "+
			"{\"question\":string,\"category\":string,\"target_section\":string,\"priority\":\"high\"|\"medium\"|\"low\"}. "+
			"Respond with JSON only.", message, c.Reasoning)

	value, err := e.gw.GenerateObject(ctx, clarificationListValidator{}, prompt, gateway.GenerationOptions{Temperature: 0.2, MaxTokens: 400})
	if err != nil {
		return []models.ClarificationQuestion{{
			Question: "Could you clarify which part of the canvas you'd like me to change?",
			Category: "scope",
			Priority: models.Priority2Medium,
		}}
	}
	return value.([]models.ClarificationQuestion)
}

// generateInformationAnswer answers a provide_information turn in plain
// text, citing the canvas sections it drew on.
func (e *Engine) generateInformationAnswer(ctx context.Context, req promptctx.GenerationRequest, message string, c models.IntentClassification) (string, []string, error) {
	var b strings.Builder
	b.WriteString("Answer the user's question about this QA ticket and its canvas, concisely and factually. ")
	b.WriteString("Do not invent information that isn't in the context below.\n\n")
	b.WriteString(promptctx.BuildBaseContext(req.Ticket, req.Profile).Render())
	fmt.Fprintf(&b, "\nQuestion: %q\n", message)

	result, err := e.gw.GenerateText(ctx, b.String(), generationOptionsForInformation)
	if err != nil {
		return "", nil, err
	}

	citations := make([]string, 0, len(c.TargetSections))
	for _, s := range c.TargetSections {
		citations = append(citations, string(s))
	}
	return result.Text, citations, nil
}
