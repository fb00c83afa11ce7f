package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

type scriptedClassifierDriver struct {
	classification string
}

func (d *scriptedClassifierDriver) Kind() string { return "test" }

func (d *scriptedClassifierDriver) GenerateText(ctx context.Context, model, prompt string, opts gateway.GenerationOptions) (*gateway.TextResult, error) {
	return &gateway.TextResult{Text: d.classification}, nil
}

type stubRegenerator struct {
	called      bool
	majorCalled bool
}

func (s *stubRegenerator) Regenerate(ctx context.Context, canvas *models.QACanvasDocument, instruction string, targetSections []models.CanvasSection, majorVersion bool) (*models.QACanvasDocument, []models.CanvasChange, error) {
	s.called = true
	s.majorCalled = majorVersion
	return canvas, nil, nil
}

func newSession() *models.ConversationSession {
	return &models.ConversationSession{ID: "s1", Phase: models.PhaseInitial}
}

func TestRoute_OffTopic(t *testing.T) {
	driver := &scriptedClassifierDriver{classification: `{"intent":"off_topic","confidence":0.95,"target_sections":[],"keywords":[],"reasoning":"small talk","should_modify_canvas":false,"requires_clarification":false}`}
	gw := gateway.NewSingleDriver("primary", "m", driver)
	regen := &stubRegenerator{}
	e := New(gw, regen)

	sess := newSession()
	resp, err := e.Route(context.Background(), sess, promptctx.GenerationRequest{}, "what's the weather like today?", nil)
	require.NoError(t, err)
	assert.Equal(t, "rejection", resp.Type)
	assert.Equal(t, models.IntentOffTopic, resp.Classification.Intent)
	assert.False(t, regen.called)
	assert.Equal(t, models.PhaseInitial, sess.Phase)
}

func TestRoute_AskClarification(t *testing.T) {
	driver := &scriptedClassifierDriver{classification: `{"intent":"ask_clarification","confidence":0.9,"target_sections":["test_cases"],"keywords":["it"],"reasoning":"ambiguous referent","should_modify_canvas":false,"requires_clarification":true}`}
	gw := gateway.NewSingleDriver("primary", "m", driver)
	e := New(gw, &stubRegenerator{})

	sess := newSession()
	resp, err := e.Route(context.Background(), sess, promptctx.GenerationRequest{}, "can you make it better", nil)
	require.NoError(t, err)
	assert.Equal(t, "clarification", resp.Type)
	assert.NotEmpty(t, resp.Questions)
	assert.Equal(t, models.PhaseAwaitingClarification, sess.Phase)
	assert.NotNil(t, sess.PendingClarification)
}

func TestRoute_LowConfidenceBiasesToClarification(t *testing.T) {
	driver := &scriptedClassifierDriver{classification: `{"intent":"modify_canvas","confidence":0.2,"target_sections":[],"keywords":[],"reasoning":"unclear","should_modify_canvas":true,"requires_clarification":false}`}
	gw := gateway.NewSingleDriver("primary", "m", driver)
	e := New(gw, &stubRegenerator{})

	sess := newSession()
	resp, err := e.Route(context.Background(), sess, promptctx.GenerationRequest{}, "do the thing", nil)
	require.NoError(t, err)
	assert.Equal(t, models.IntentAskClarification, resp.Classification.Intent)
}

func TestRoute_ModifyCanvasDispatchesToRegenerator(t *testing.T) {
	driver := &scriptedClassifierDriver{classification: `{"intent":"modify_canvas","confidence":0.9,"target_sections":["acceptance_criteria"],"keywords":["acceptance criteria"],"reasoning":"clear edit request","should_modify_canvas":true,"requires_clarification":false}`}
	gw := gateway.NewSingleDriver("primary", "m", driver)
	regen := &stubRegenerator{}
	e := New(gw, regen)

	sess := newSession()
	canvas := &models.QACanvasDocument{Metadata: models.CanvasMetadata{TicketID: "T-1"}}
	resp, err := e.Route(context.Background(), sess, promptctx.GenerationRequest{}, "add an acceptance criterion for invalid input", canvas)
	require.NoError(t, err)
	assert.Equal(t, "modification", resp.Type)
	assert.True(t, regen.called)
	assert.False(t, regen.majorCalled)
	assert.Equal(t, models.PhaseInitial, sess.Phase)
}

func TestRoute_ModifyCanvasDetectsExplicitMajorRevisionRequest(t *testing.T) {
	driver := &scriptedClassifierDriver{classification: `{"intent":"modify_canvas","confidence":0.9,"target_sections":["acceptance_criteria"],"keywords":["acceptance criteria"],"reasoning":"clear edit request","should_modify_canvas":true,"requires_clarification":false}`}
	gw := gateway.NewSingleDriver("primary", "m", driver)
	regen := &stubRegenerator{}
	e := New(gw, regen)

	sess := newSession()
	canvas := &models.QACanvasDocument{Metadata: models.CanvasMetadata{TicketID: "T-1"}}
	resp, err := e.Route(context.Background(), sess, promptctx.GenerationRequest{}, "start over and rewrite the whole test suite from scratch", canvas)
	require.NoError(t, err)
	assert.Equal(t, "modification", resp.Type)
	assert.True(t, regen.majorCalled)
}

func TestAnalyzeDependencies_AcceptanceCriteriaCascadesToTestCases(t *testing.T) {
	result := AnalyzeDependencies([]models.CanvasSection{models.SectionAcceptanceCriteria})
	assert.Contains(t, result.AffectedSections, models.SectionTestCases)
	assert.True(t, result.CascadeRequired)
	assert.Equal(t, models.ConflictRiskHigh, result.ConflictRisk)
}

func TestSummarizeChanges_OmitsPreservedEntries(t *testing.T) {
	changes := []models.CanvasChange{
		{Section: models.SectionAcceptanceCriteria, ChangeType: models.ChangeAdded, Description: "Added criterion X"},
		{Section: models.SectionTestCases, ChangeType: models.ChangePreserved, Description: "Unchanged test case: tc-1"},
	}

	summary := summarizeChanges(changes)

	assert.Contains(t, summary, "Added criterion X")
	assert.NotContains(t, summary, "Unchanged")
}

func TestSummarizeChanges_AllPreservedYieldsNoChangesMessage(t *testing.T) {
	changes := []models.CanvasChange{
		{Section: models.SectionAcceptanceCriteria, ChangeType: models.ChangePreserved, Description: "Unchanged criterion: X"},
	}

	assert.Equal(t, "No changes were necessary.", summarizeChanges(changes))
}
