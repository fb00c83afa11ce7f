package suggest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

type noopDriver struct{}

func (d *noopDriver) Kind() string { return "test" }

func (d *noopDriver) GenerateText(ctx context.Context, model, prompt string, opts gateway.GenerationOptions) (*gateway.TextResult, error) {
	if len(opts.Tools) > 0 {
		return &gateway.TextResult{Text: `{"tool_calls":[{"name":"propose_suggestion","args":{"suggestion_type":"improvement","title":"Consider a smoke test","description":"d","priority":"low","reasoning":"r"}}]}`}, nil
	}
	return &gateway.TextResult{Text: `[]`}, nil
}

func sampleCanvas() *models.QACanvasDocument {
	profile := models.QAProfile{QACategories: map[string]bool{"functional": true, "negative": true}}
	return &models.QACanvasDocument{
		TicketSummary: models.TicketSummary{Problem: "Users cannot reset their password from the login form", Solution: "Add a reset link that emails a token"},
		AcceptanceCriteria: []models.AcceptanceCriterion{
			{ID: "ac-1", Title: "Reset link sends an email", Priority: models.PriorityMust, Category: "functional"},
		},
		TestCases: []models.TestCase{
			{ID: "tc-1", Format: models.FormatSteps, Title: "Click reset link", Steps: []models.TestStep{{StepNumber: 1, Action: "click", ExpectedResult: "email sent"}}},
		},
		Metadata: models.CanvasMetadata{TicketID: "T-9", QAProfile: &profile},
	}
}

func TestGenerate_MaxSuggestionsZeroSkipsModelAndReturnsEmpty(t *testing.T) {
	gw := gateway.NewSingleDriver("primary", "m", &noopDriver{})
	e := New(gw)

	result, err := e.Generate(context.Background(), Request{Canvas: sampleCanvas(), MaxSuggestions: 0})
	require.NoError(t, err)
	assert.Empty(t, result.Suggestions)
	assert.Equal(t, 0, result.TotalCount)
}

func TestGenerate_FlagsCoverageGapForUncoveredCriterion(t *testing.T) {
	gw := gateway.NewSingleDriver("primary", "m", &noopDriver{})
	e := New(gw)

	canvas := sampleCanvas()
	canvas.AcceptanceCriteria = append(canvas.AcceptanceCriteria, models.AcceptanceCriterion{
		ID: "ac-2", Title: "Password strength indicator updates live", Priority: models.PriorityMust, Category: "functional",
	})

	result, err := e.Generate(context.Background(), Request{Canvas: canvas, MaxSuggestions: 10})
	require.NoError(t, err)

	found := false
	for _, s := range result.Suggestions {
		if s.SuggestionType == models.SuggestionCoverageGap && s.Priority == models.Priority2High {
			found = true
		}
	}
	assert.True(t, found, "expected a high-priority coverage gap for the uncovered must criterion")
}

func TestGenerate_ExcludeTypesFiltersOut(t *testing.T) {
	gw := gateway.NewSingleDriver("primary", "m", &noopDriver{})
	e := New(gw)

	result, err := e.Generate(context.Background(), Request{
		Canvas:         sampleCanvas(),
		MaxSuggestions: 10,
		ExcludeTypes:   []models.SuggestionType{models.SuggestionImprovement},
	})
	require.NoError(t, err)
	for _, s := range result.Suggestions {
		assert.NotEqual(t, models.SuggestionImprovement, s.SuggestionType)
	}
}

func TestGenerate_ResultsAreCappedAndSortedByPriorityThenRelevance(t *testing.T) {
	gw := gateway.NewSingleDriver("primary", "m", &noopDriver{})
	e := New(gw)

	result, err := e.Generate(context.Background(), Request{Canvas: sampleCanvas(), MaxSuggestions: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Suggestions), 2)
	for i := 1; i < len(result.Suggestions); i++ {
		pi := priorityWeight(result.Suggestions[i-1].Priority)
		pj := priorityWeight(result.Suggestions[i].Priority)
		assert.True(t, pi >= pj, "results must be sorted by priority descending")
	}
}

func TestGenerate_TotalCountMatchesReturnedSuggestionsEvenWhenCapped(t *testing.T) {
	gw := gateway.NewSingleDriver("primary", "m", &noopDriver{})
	e := New(gw)

	result, err := e.Generate(context.Background(), Request{Canvas: sampleCanvas(), MaxSuggestions: 1})
	require.NoError(t, err)
	assert.Equal(t, len(result.Suggestions), result.TotalCount)
}
