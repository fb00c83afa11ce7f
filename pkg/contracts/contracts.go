// Package contracts defines the service interfaces between the QA canvas
// control plane's HTTP boundary and its domain packages.
//
// The Handlers struct in internal/api/handlers depends on these
// interfaces rather than concrete types, so a test double (or an
// alternate Provider Gateway wiring) can stand in without touching
// handler code.
package contracts

import (
	"context"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/intent"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/suggest"
	"github.com/promadgenius/qacanvas/control-plane/internal/uncertainty"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// AnalyzerService builds a full Canvas from a ticket. Concrete
// implementation: internal/analyzer.Analyzer.
type AnalyzerService interface {
	Analyze(ctx context.Context, ticket models.Ticket, profile models.QAProfile) (*models.QACanvasDocument, error)
}

// IntentEngineService classifies an inbound message and dispatches it to
// the appropriate handling path. Concrete implementation:
// internal/intent.Engine.
type IntentEngineService interface {
	Route(ctx context.Context, sess *models.ConversationSession, req promptctx.GenerationRequest, message string, canvas *models.QACanvasDocument) (*intent.Response, error)
}

// RegeneratorService rewrites a Canvas document end to end in response to
// a modify_canvas instruction. Concrete implementation:
// internal/regenerator.Regenerator. Declared here with the same signature
// the Intent Engine's own internal Regenerator interface uses, so both
// narrow contracts are satisfied by a single concrete type.
type RegeneratorService interface {
	Regenerate(ctx context.Context, canvas *models.QACanvasDocument, instruction string, targetSections []models.CanvasSection, majorVersion bool) (*models.QACanvasDocument, []models.CanvasChange, error)
}

// SuggesterService proposes coverage-gap, clarification, edge-case, and
// perspective suggestions against an existing Canvas. Concrete
// implementation: internal/suggest.Engine.
type SuggesterService interface {
	Generate(ctx context.Context, req suggest.Request) (*suggest.Result, error)
}

// UncertaintyService detects default-assumptions and low-confidence
// responses, and synthesizes a degraded result when a pipeline fails
// outright. Concrete implementation: internal/uncertainty package-level
// functions, adapted to an interface so handlers can depend on the
// contract rather than the package.
type UncertaintyService interface {
	DetectAssumptions(profile models.QAProfile, requestText string) []models.Assumption
	DetectUncertainty(text string) models.UncertaintyResult
	SynthesizePartialResult(completed, failed []models.CanvasSection, ticketID, reason string) models.PartialResult
}

// uncertaintyAdapter lets internal/uncertainty's free functions satisfy
// UncertaintyService without introducing package-level state.
type uncertaintyAdapter struct{}

// NewUncertaintyService returns the concrete UncertaintyService backed by
// internal/uncertainty.
func NewUncertaintyService() UncertaintyService { return uncertaintyAdapter{} }

func (uncertaintyAdapter) DetectAssumptions(profile models.QAProfile, requestText string) []models.Assumption {
	return uncertainty.DetectAssumptions(profile, requestText)
}

func (uncertaintyAdapter) DetectUncertainty(text string) models.UncertaintyResult {
	return uncertainty.DetectUncertainty(text)
}

func (uncertaintyAdapter) SynthesizePartialResult(completed, failed []models.CanvasSection, ticketID, reason string) models.PartialResult {
	return uncertainty.SynthesizePartialResult(completed, failed, ticketID, reason)
}

// SessionStore manages multi-turn conversation sessions in memory only —
// nothing is persisted across process restarts. Concrete implementation:
// internal/session.Store.
type SessionStore interface {
	GetOrCreate(ctx context.Context, id string) *models.ConversationSession
	Get(ctx context.Context, id string) (*models.ConversationSession, error)
	Save(ctx context.Context, sess *models.ConversationSession)
	Delete(ctx context.Context, id string)
	Count() int
}

// ProviderGatewayService is the subset of the Provider Gateway's surface
// the HTTP boundary needs directly (health reporting for
// GET /api/provider-health). Domain packages call the concrete
// *gateway.Gateway rather than this interface, since they need the full
// GenerateText/GenerateObject/StreamText surface; this narrower view
// exists only for the health-reporting handler.
type ProviderGatewayService interface {
	ProviderHealth() []gateway.ProviderHealthView
}
