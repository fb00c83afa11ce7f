// Package handlers implements the control plane's HTTP surface: the three
// domain routes (analyze-ticket, update-canvas, generate-suggestions) and
// a handful of read-only supplemental endpoints (health, version,
// provider-health, metrics).
//
// Follows the respondJSON/readBody helper shape and per-route error
// handling structure used elsewhere in this codebase's HTTP layer, with
// error responses routed through internal/apperr instead of ad-hoc
// status/message pairs.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/promadgenius/qacanvas/control-plane/internal/apperr"
	"github.com/promadgenius/qacanvas/control-plane/internal/api/middleware"
	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/internal/session"
	"github.com/promadgenius/qacanvas/control-plane/internal/suggest"
	"github.com/promadgenius/qacanvas/control-plane/pkg/contracts"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"

	"github.com/google/uuid"
)

// Handlers holds the domain services the HTTP boundary dispatches to.
type Handlers struct {
	Analyzer    contracts.AnalyzerService
	Intent      contracts.IntentEngineService
	Suggester   contracts.SuggesterService
	Uncertainty contracts.UncertaintyService
	Sessions    contracts.SessionStore
	Gateway     contracts.ProviderGatewayService
	Metrics     *gateway.RingBuffer
	Version     string
}

// New builds a Handlers collection from the service instances buildServer
// wires up.
func New(
	analyzer contracts.AnalyzerService,
	intentEngine contracts.IntentEngineService,
	suggester contracts.SuggesterService,
	uncertaintyService contracts.UncertaintyService,
	sessions contracts.SessionStore,
	gw contracts.ProviderGatewayService,
	metrics *gateway.RingBuffer,
	version string,
) *Handlers {
	return &Handlers{
		Analyzer:    analyzer,
		Intent:      intentEngine,
		Suggester:   suggester,
		Uncertainty: uncertaintyService,
		Sessions:    sessions,
		Gateway:     gw,
		Metrics:     metrics,
		Version:     version,
	}
}

// ── POST /api/analyze-ticket ─────────────────────────────────

func (h *Handlers) AnalyzeTicket(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())

	raw, err := readBody(r)
	if err != nil {
		apperr.Write(w, reqID, apperr.Wrap(apperr.KindValidation, "could not read request body", err))
		return
	}

	value, issues := schema.AnalyzeTicketRequestValidator{}.Parse(raw)
	if len(issues) > 0 {
		apperr.Write(w, reqID, apperr.FromValidationError(&schema.ValidationError{Issues: issues}))
		return
	}
	body := value.(*schema.AnalyzeTicketRequest)

	canvas, err := h.Analyzer.Analyze(r.Context(), body.Ticket, body.QAProfile)
	if err != nil {
		apperr.Write(w, reqID, aiGenerationError("ticket analysis failed", err))
		return
	}

	canvas.Metadata.Assumptions = h.Uncertainty.DetectAssumptions(body.QAProfile, body.Ticket.Summary+" "+body.Ticket.Description)

	status := http.StatusOK
	if canvas.Metadata.IsPartialResult {
		status = http.StatusPartialContent
	}
	respondJSON(w, status, canvas)
}

// ── POST /api/update-canvas ───────────────────────────────────

func (h *Handlers) UpdateCanvas(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())

	raw, err := readBody(r)
	if err != nil {
		apperr.Write(w, reqID, apperr.Wrap(apperr.KindValidation, "could not read request body", err))
		return
	}

	value, issues := schema.UpdateCanvasRequestValidator{}.Parse(raw)
	if len(issues) > 0 {
		apperr.Write(w, reqID, apperr.FromValidationError(&schema.ValidationError{Issues: issues}))
		return
	}
	body := value.(*schema.UpdateCanvasRequest)

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = middleware.GetSessionID(r.Context())
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := h.Sessions.GetOrCreate(r.Context(), sessionID)

	for _, m := range body.Messages {
		session.AppendHistory(sess, m)
	}

	message := lastUserMessage(body.Messages)
	if message == "" {
		apperr.Write(w, reqID, apperr.New(apperr.KindValidation, "messages must include at least one user message"))
		return
	}

	canvas := body.CurrentDocument
	if canvas == nil {
		canvas = sess.LastCanvas
	}

	profile := models.QAProfile{}
	if canvas != nil && canvas.Metadata.QAProfile != nil {
		profile = *canvas.Metadata.QAProfile
	}
	var ticket models.Ticket
	if body.OriginalTicket != nil {
		ticket = *body.OriginalTicket
	}

	genReq := promptctx.GenerationRequest{
		Ticket:              ticket,
		Profile:             profile,
		ConversationHistory: sess.History,
		SessionID:           sessionID,
	}

	resp, err := h.Intent.Route(r.Context(), sess, genReq, message, canvas)
	if err != nil {
		appErr := aiGenerationError("update-canvas routing failed", err)
		if acceptsSSE(r) {
			writeSSEError(w, reqID, appErr)
			return
		}
		apperr.Write(w, reqID, appErr)
		return
	}
	h.Sessions.Save(r.Context(), sess)

	wantsStream := acceptsSSE(r) && (resp.Type == "clarification" || resp.Type == "information")
	if wantsStream {
		writeSSEUpdateCanvasResponse(w, reqID, sessionID, resp)
		return
	}
	writeJSONUpdateCanvasResponse(w, sessionID, resp)
}

// ── POST /api/generate-suggestions ────────────────────────────

func (h *Handlers) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())

	raw, err := readBody(r)
	if err != nil {
		apperr.Write(w, reqID, apperr.Wrap(apperr.KindValidation, "could not read request body", err))
		return
	}

	value, issues := schema.GenerateSuggestionsRequestValidator{}.Parse(raw)
	if len(issues) > 0 {
		apperr.Write(w, reqID, apperr.FromValidationError(&schema.ValidationError{Issues: issues}))
		return
	}
	body := value.(*schema.GenerateSuggestionsRequest)

	result, err := h.Suggester.Generate(r.Context(), suggest.Request{
		Canvas:              &body.CurrentDocument,
		MaxSuggestions:      body.ResolvedMaxSuggestions(),
		FocusAreas:          body.FocusAreas,
		ExcludeTypes:        body.ExcludeTypes,
		UserContext:         body.UserContext,
		ConversationHistory: body.ConversationHistory,
		FilterExpr:          body.FilterExpr,
	})
	if err != nil {
		// a truly-empty suggestion set is a legitimate outcome, not an
		// HTTP failure.
		respondJSON(w, http.StatusOK, suggestionsResponse{
			Suggestions:    []models.Suggestion{},
			TotalCount:     0,
			GeneratedAt:    time.Now().UTC(),
			ContextSummary: contextSummary(&body.CurrentDocument),
		})
		return
	}

	respondJSON(w, http.StatusOK, suggestionsResponse{
		Suggestions:    result.Suggestions,
		TotalCount:     result.TotalCount,
		GeneratedAt:    time.Now().UTC(),
		ContextSummary: contextSummary(&body.CurrentDocument),
	})
}

type suggestionsResponse struct {
	Suggestions    []models.Suggestion `json:"suggestions"`
	TotalCount     int                  `json:"total_count"`
	GeneratedAt    time.Time            `json:"generated_at"`
	ContextSummary string               `json:"context_summary"`
}

func contextSummary(canvas *models.QACanvasDocument) string {
	if canvas == nil || canvas.TicketSummary.Problem == "" {
		return "No canvas context available."
	}
	return fmt.Sprintf("%d acceptance criteria, %d test cases — %s", len(canvas.AcceptanceCriteria), len(canvas.TestCases), canvas.TicketSummary.Problem)
}

// ── Supplemental read-only endpoints ──────────────────────────

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "qacanvas-control-plane"})
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": h.Version, "service": "qacanvas-control-plane"})
}

func (h *Handlers) ProviderHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Gateway.ProviderHealth())
}

func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	var events []gateway.Event
	if h.Metrics != nil {
		events = h.Metrics.Snapshot()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active_sessions": h.Sessions.Count(),
		"gateway_events":  events,
	})
}

// ── Helpers ────────────────────────────────────────────────────

// aiGenerationError unwraps a provider gateway failure into the taxonomy's
// rate_limited/timeout/auth_config/etc. kinds so clients see the normalized
// category instead of a flat ai_generation 502, falling back to a generic
// wrap when the failure didn't originate at the provider gateway (e.g. a
// regeneration or validation step downstream of it).
func aiGenerationError(message string, err error) *apperr.Error {
	var pe *gateway.ProviderError
	if errors.As(err, &pe) {
		return apperr.FromProviderError(pe)
	}
	return apperr.Wrap(apperr.KindAIGeneration, message, err)
}

func readBody(r *http.Request) (string, error) {
	defer r.Body.Close()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func lastUserMessage(messages []models.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			return messages[i].Content
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}

func acceptsSSE(r *http.Request) bool {
	if r.Header.Get("Accept") == "text/event-stream" {
		return true
	}
	return r.URL.Query().Get("stream") == "true"
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode JSON response")
	}
}
