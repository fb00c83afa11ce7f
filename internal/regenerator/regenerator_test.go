package regenerator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

func baseCanvas() *models.QACanvasDocument {
	return &models.QACanvasDocument{
		TicketSummary: models.TicketSummary{Problem: "p", Solution: "s", Context: "c"},
		AcceptanceCriteria: []models.AcceptanceCriterion{
			{ID: "ac-1", Title: "Existing criterion", Priority: models.PriorityMust, Category: "functional", Testable: true},
		},
		TestCases: []models.TestCase{
			{ID: "tc-1", Format: models.FormatSteps, Title: "Existing test", Steps: []models.TestStep{{StepNumber: 1, Action: "a", ExpectedResult: "r"}}},
		},
		Metadata: models.CanvasMetadata{TicketID: "T-1", DocumentVersion: "1.0"},
	}
}

type scriptedDriver struct {
	response string
	err      error
}

func (d *scriptedDriver) Kind() string { return "test" }

func (d *scriptedDriver) GenerateText(ctx context.Context, model, prompt string, opts gateway.GenerationOptions) (*gateway.TextResult, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &gateway.TextResult{Text: d.response}, nil
}

func TestRegenerate_AddsAcceptanceCriterionAndBumpsMinorVersion(t *testing.T) {
	resp := `{"ticket_summary":{"problem":"p","solution":"s","context":"c"},` +
		`"acceptance_criteria":[{"id":"ac-1","title":"Existing criterion","priority":"must","category":"functional","testable":true},` +
		`{"id":"ac-2","title":"New criterion for invalid input","priority":"should","category":"negative","testable":true}],` +
		`"test_cases":[{"id":"tc-1","format":"steps","title":"Existing test","steps":[{"step_number":1,"action":"a","expected_result":"r"}]}],` +
		`"configuration_warnings":[],"metadata":{"ticket_id":"T-1","document_version":"1.0"}}`

	gw := gateway.NewSingleDriver("primary", "m", &scriptedDriver{response: resp})
	r := New(gw)

	canvas := baseCanvas()
	updated, changes, err := r.Regenerate(context.Background(), canvas, "add an acceptance criterion for invalid input", []models.CanvasSection{models.SectionAcceptanceCriteria}, false)
	require.NoError(t, err)
	assert.Equal(t, "1.1", updated.Metadata.DocumentVersion)
	assert.Equal(t, "1.0", updated.Metadata.PreviousVersion)
	assert.Equal(t, "Content addition", updated.Metadata.RegenerationReason)

	foundAdd := false
	for _, c := range changes {
		if c.ChangeType == models.ChangeAdded && c.Section == models.SectionAcceptanceCriteria {
			foundAdd = true
		}
	}
	assert.True(t, foundAdd, "expected an added acceptance_criteria change")
}

func TestRegenerate_FailureReturnsOriginalCanvasUnmodified(t *testing.T) {
	gw := gateway.NewSingleDriver("primary", "m", &scriptedDriver{err: errors.New("provider down")})
	r := New(gw)

	canvas := baseCanvas()
	updated, changes, err := r.Regenerate(context.Background(), canvas, "fix the wording", nil, false)
	require.Error(t, err)
	assert.Nil(t, changes)
	assert.Same(t, canvas, updated)
	assert.Equal(t, "1.0", canvas.Metadata.DocumentVersion, "original must be left untouched on failure")
}

func TestBumpVersion_Major(t *testing.T) {
	assert.Equal(t, "2.0", bumpVersion("1.4", true))
	assert.Equal(t, "1.5", bumpVersion("1.4", false))
}

func TestDeriveRegenerationReason(t *testing.T) {
	assert.Equal(t, "Content addition", deriveRegenerationReason("please add more detail"))
	assert.Equal(t, "Error correction", deriveRegenerationReason("fix the typo"))
	assert.Equal(t, "User feedback incorporation", deriveRegenerationReason("do something else entirely"))
}
