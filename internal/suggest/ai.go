package suggest

import (
	"context"
	"encoding/json"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// proposeSuggestionTool binds generate_text to a single callable tool
// instead of asking for free-form JSON, so the model's answer arrives as a
// structured tool call the same SuggestionValidator can parse.
var proposeSuggestionTool = gateway.ToolDescriptor{
	Name:        "propose_suggestion",
	Description: "Propose exactly one QA improvement the rule-based checks would miss",
	Parameters: map[string]interface{}{
		"suggestion_type": "string",
		"title":           "string",
		"description":     "string",
		"priority":        "one of: high, medium, low",
		"reasoning":       "string",
	},
}

// aiSuggestion asks the model for exactly one suggestion that complements
// the rule-based output. A model or validation failure, or a response
// that declines to call the tool, is swallowed — AI enhancement never
// fails the endpoint.
func (e *Engine) aiSuggestion(ctx context.Context, c *models.QACanvasDocument, userContext string) *models.Suggestion {
	prompt := "Suggest one additional QA improvement for this canvas that the rule-based checks below would miss, " +
		"using the propose_suggestion tool.\n\n" +
		"Problem: " + c.TicketSummary.Problem + "\nSolution: " + c.TicketSummary.Solution

	if userContext != "" {
		prompt += "\nAdditional context from the user: " + userContext
	}

	result, err := e.gw.GenerateText(ctx, prompt, gateway.GenerationOptions{
		Temperature: 0.4,
		MaxTokens:   300,
		Tools:       map[string]gateway.ToolDescriptor{proposeSuggestionTool.Name: proposeSuggestionTool},
	})
	if err != nil || len(result.ToolCalls) == 0 {
		return nil
	}

	args, err := json.Marshal(result.ToolCalls[0].Args)
	if err != nil {
		return nil
	}
	value, issues := schema.SuggestionValidator{}.Parse(string(args))
	if len(issues) > 0 {
		return nil
	}
	s, ok := value.(*models.Suggestion)
	if !ok {
		return nil
	}
	return s
}
