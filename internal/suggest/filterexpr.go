package suggest

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// applyFilterExpr evaluates filterExpr (e.g. `priority == "high" &&
// suggestion_type != "improvement"`) against every suggestion, keeping only
// the ones it evaluates true for — a caller-supplied predicate on top of
// the base ranking/filtering rules.
func applyFilterExpr(suggestions []models.Suggestion, filterExpr string) ([]models.Suggestion, error) {
	program, err := expr.Compile(filterExpr, expr.Env(suggestionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("suggest: invalid filter_expr: %w", err)
	}

	out := make([]models.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		env := suggestionEnv{
			SuggestionType: string(s.SuggestionType),
			Priority:       string(s.Priority),
			TargetSection:  string(s.TargetSection),
			Tags:           s.Tags,
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("suggest: filter_expr evaluation failed: %w", err)
		}
		if keep, ok := result.(bool); ok && keep {
			out = append(out, s)
		}
	}
	return out, nil
}

// suggestionEnv is the flat field set a filter_expr can reference.
type suggestionEnv struct {
	SuggestionType string   `expr:"suggestion_type"`
	Priority       string   `expr:"priority"`
	TargetSection  string   `expr:"target_section"`
	Tags           []string `expr:"tags"`
}
