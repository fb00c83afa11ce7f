package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/intent"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/suggest"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

var errNoSessionFound = errors.New("session not found")

// ── stub service implementations ──────────────────────────────

type stubAnalyzer struct {
	canvas *models.QACanvasDocument
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, ticket models.Ticket, profile models.QAProfile) (*models.QACanvasDocument, error) {
	return s.canvas, s.err
}

type stubIntentEngine struct {
	resp *intent.Response
	err  error
}

func (s *stubIntentEngine) Route(ctx context.Context, sess *models.ConversationSession, req promptctx.GenerationRequest, message string, canvas *models.QACanvasDocument) (*intent.Response, error) {
	return s.resp, s.err
}

// noopSuggester exercises only the max_suggestions short-circuit and
// error-to-empty-response paths; it never needs to produce a real
// suggestion since those rules live in internal/suggest's own tests.
type noopSuggester struct{}

func (noopSuggester) Generate(ctx context.Context, req suggest.Request) (*suggest.Result, error) {
	if req.MaxSuggestions == 0 {
		return &suggest.Result{}, nil
	}
	return nil, errors.New("no suggestions available")
}

type stubUncertainty struct{}

func (stubUncertainty) DetectAssumptions(profile models.QAProfile, requestText string) []models.Assumption {
	return nil
}
func (stubUncertainty) DetectUncertainty(text string) models.UncertaintyResult {
	return models.UncertaintyResult{}
}
func (stubUncertainty) SynthesizePartialResult(completed, failed []models.CanvasSection, ticketID, reason string) models.PartialResult {
	return models.PartialResult{}
}

type stubSessionStore struct {
	sessions map[string]*models.ConversationSession
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]*models.ConversationSession{}}
}

func (s *stubSessionStore) GetOrCreate(ctx context.Context, id string) *models.ConversationSession {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &models.ConversationSession{ID: id, Phase: models.PhaseInitial}
	s.sessions[id] = sess
	return sess
}
func (s *stubSessionStore) Get(ctx context.Context, id string) (*models.ConversationSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errNoSessionFound
	}
	return sess, nil
}
func (s *stubSessionStore) Save(ctx context.Context, sess *models.ConversationSession) { s.sessions[sess.ID] = sess }
func (s *stubSessionStore) Delete(ctx context.Context, id string)                      { delete(s.sessions, id) }
func (s *stubSessionStore) Count() int                                                 { return len(s.sessions) }

type stubGateway struct{}

func (stubGateway) ProviderHealth() []gateway.ProviderHealthView {
	return []gateway.ProviderHealthView{{Name: "primary", Available: true}}
}

func sampleCanvas() *models.QACanvasDocument {
	return &models.QACanvasDocument{
		TicketSummary: models.TicketSummary{Problem: "login fails on retry"},
		AcceptanceCriteria: []models.AcceptanceCriterion{
			{ID: "ac-1", Description: "user can log in"},
		},
		TestCases: []models.TestCase{
			{ID: "tc-1", Format: models.FormatGherkin},
		},
		Metadata: models.CanvasMetadata{TicketID: "T-1"},
	}
}

// ── AnalyzeTicket ──────────────────────────────────────────────

func TestAnalyzeTicket_ReturnsCanvasOn200(t *testing.T) {
	h := &Handlers{
		Analyzer:    &stubAnalyzer{canvas: sampleCanvas()},
		Uncertainty: stubUncertainty{},
	}

	body := `{"qa_profile":{},"ticket_json":{"issue_key":"T-1","reporter":"a@b.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-ticket", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.AnalyzeTicket(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out models.QACanvasDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "login fails on retry", out.TicketSummary.Problem)
}

func TestAnalyzeTicket_PartialResultReturns206(t *testing.T) {
	canvas := sampleCanvas()
	canvas.Metadata.IsPartialResult = true
	h := &Handlers{
		Analyzer:    &stubAnalyzer{canvas: canvas},
		Uncertainty: stubUncertainty{},
	}

	body := `{"qa_profile":{},"ticket_json":{"issue_key":"T-1","reporter":"a@b.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-ticket", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.AnalyzeTicket(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
}

func TestAnalyzeTicket_InvalidBodyReturns400(t *testing.T) {
	h := &Handlers{Analyzer: &stubAnalyzer{canvas: sampleCanvas()}, Uncertainty: stubUncertainty{}}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-ticket", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	h.AnalyzeTicket(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeTicket_ProviderErrorMapsToTaxonomyKind(t *testing.T) {
	h := &Handlers{
		Analyzer: &stubAnalyzer{err: &gateway.ProviderError{
			Category: gateway.CategoryRateLimited, Provider: "anthropic", Model: "claude", RetryAfterS: 2,
		}},
		Uncertainty: stubUncertainty{},
	}

	body := `{"qa_profile":{},"ticket_json":{"issue_key":"T-1","reporter":"a@b.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-ticket", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.AnalyzeTicket(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "rate_limited", out["error"])
	assert.Equal(t, "anthropic", out["provider"])
	assert.Equal(t, true, out["retryable"])
}

// ── UpdateCanvas ───────────────────────────────────────────────

func TestUpdateCanvas_ModificationRendersJSON(t *testing.T) {
	h := &Handlers{
		Intent: &stubIntentEngine{resp: &intent.Response{
			Type:            "modification",
			UpdatedDocument: sampleCanvas(),
			ChangesSummary:  "added a test case",
			TargetSections:  []models.CanvasSection{models.SectionTestCases},
		}},
		Sessions: newStubSessionStore(),
	}

	body := `{"messages":[{"role":"user","content":"add a test case for expired tokens"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/update-canvas", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateCanvas(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out jsonUpdateCanvasResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "modification", out.Type)
	assert.Equal(t, "added a test case", out.ChangesSummary)
	assert.Equal(t, []string{"test_cases"}, out.TargetSections)
}

func TestUpdateCanvas_ClarificationStreamsSSEWhenRequested(t *testing.T) {
	h := &Handlers{
		Intent: &stubIntentEngine{resp: &intent.Response{
			Type:      "clarification",
			Questions: []models.ClarificationQuestion{{Question: "which environment?"}},
		}},
		Sessions: newStubSessionStore(),
	}

	body := `{"messages":[{"role":"user","content":"make it better"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/update-canvas", strings.NewReader(body))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()

	h.UpdateCanvas(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"kind":"header"`)
	assert.Contains(t, rec.Body.String(), `"kind":"done"`)
}

func TestUpdateCanvas_RejectionRendersJSONEvenWhenSSERequested(t *testing.T) {
	h := &Handlers{
		Intent: &stubIntentEngine{resp: &intent.Response{
			Type:            "rejection",
			InformationText: "that request is unrelated to QA documentation",
		}},
		Sessions: newStubSessionStore(),
	}

	body := `{"messages":[{"role":"user","content":"what's the weather"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/update-canvas", strings.NewReader(body))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()

	h.UpdateCanvas(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out jsonUpdateCanvasResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "rejection", out.Type)
}

func TestUpdateCanvas_RoutingFailureStreamsSSEErrorWhenRequested(t *testing.T) {
	h := &Handlers{
		Intent: &stubIntentEngine{err: &gateway.ProviderError{
			Category: gateway.CategoryTimeout, Provider: "openai", Model: "gpt",
		}},
		Sessions: newStubSessionStore(),
	}

	body := `{"messages":[{"role":"user","content":"make it better"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/update-canvas", strings.NewReader(body))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()

	h.UpdateCanvas(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"kind":"error"`)
	assert.Contains(t, rec.Body.String(), `"error":"timeout"`)
}

func TestUpdateCanvas_RoutingFailureRendersJSONWhenNotStreamed(t *testing.T) {
	h := &Handlers{
		Intent: &stubIntentEngine{err: &gateway.ProviderError{
			Category: gateway.CategoryAuth, Provider: "openai", Model: "gpt",
		}},
		Sessions: newStubSessionStore(),
	}

	body := `{"messages":[{"role":"user","content":"make it better"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/update-canvas", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateCanvas(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "auth_config", out["error"])
}

func TestUpdateCanvas_EmptyMessagesReturns400(t *testing.T) {
	h := &Handlers{Sessions: newStubSessionStore()}

	req := httptest.NewRequest(http.MethodPost, "/api/update-canvas", strings.NewReader(`{"messages":[]}`))
	rec := httptest.NewRecorder()

	h.UpdateCanvas(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ── GenerateSuggestions ────────────────────────────────────────

func TestGenerateSuggestions_MaxZeroReturnsEmptyWithoutError(t *testing.T) {
	h := &Handlers{Suggester: noopSuggester{}}

	body := `{"current_document":` + mustJSON(t, sampleCanvas()) + `,"max_suggestions":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-suggestions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.GenerateSuggestions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var out suggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 0, out.TotalCount)
	assert.Empty(t, out.Suggestions)
}

func TestGenerateSuggestions_OutOfRangeReturns400(t *testing.T) {
	h := &Handlers{Suggester: noopSuggester{}}

	body := `{"current_document":` + mustJSON(t, sampleCanvas()) + `,"max_suggestions":99}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-suggestions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.GenerateSuggestions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ── supplemental endpoints ───────────────────────────────────

func TestHealth_ReturnsOK(t *testing.T) {
	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProviderHealth_DelegatesToGateway(t *testing.T) {
	h := &Handlers{Gateway: stubGateway{}}
	req := httptest.NewRequest(http.MethodGet, "/api/provider-health", nil)
	rec := httptest.NewRecorder()

	h.ProviderHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"primary"`)
}

func TestMetrics_ReportsActiveSessionCount(t *testing.T) {
	sessions := newStubSessionStore()
	sessions.GetOrCreate(context.Background(), "s1")
	h := &Handlers{Sessions: sessions}

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()

	h.Metrics(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_sessions":1`)
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
