// Package intent implements the Intent Engine: classify a user message
// into one of a closed set of intents, detect which canvas sections it
// targets, and dispatch to the pipeline that intent drives — while
// tracking per-session conversation state via internal/session.
//
// Classification is a generate_object call whose prompt is seeded with
// hints from the bilingual keyword banks in internal/lexicon; dispatch is
// a switch over the resulting intent.
package intent

import (
	"context"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/lexicon"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/session"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// lowConfidenceThreshold biases classification toward ask_clarification
// below this value.
const lowConfidenceThreshold = 0.5

// Regenerator is the narrow interface the Intent Engine dispatches
// modify_canvas turns to. Implemented by internal/regenerator.Regenerator;
// declared here (rather than imported concretely) so this package doesn't
// need to know the Canvas Regenerator's internals, only its contract.
type Regenerator interface {
	Regenerate(ctx context.Context, canvas *models.QACanvasDocument, instruction string, targetSections []models.CanvasSection, majorVersion bool) (*models.QACanvasDocument, []models.CanvasChange, error)
}

// Engine runs the classify → detect → dispatch pipeline.
type Engine struct {
	gw    *gateway.Gateway
	regen Regenerator
}

func New(gw *gateway.Gateway, regen Regenerator) *Engine {
	return &Engine{gw: gw, regen: regen}
}

// Response is the tagged result of routing one user message, covering the
// four update-canvas response shapes plus the fallback case.
type Response struct {
	Type               string // modification | clarification | information | rejection | fallback
	UpdatedDocument     *models.QACanvasDocument
	ChangesSummary      string
	TargetSections      []models.CanvasSection
	Questions           []models.ClarificationQuestion
	InformationText     string
	Citations           []string
	SuggestedFollowUps  []string
	Classification      models.IntentClassification
}

// Route runs the full pipeline for one turn: classify, detect targets,
// advance the session phase machine, and dispatch.
func (e *Engine) Route(ctx context.Context, sess *models.ConversationSession, req promptctx.GenerationRequest, message string, canvas *models.QACanvasDocument) (*Response, error) {
	if session.AwaitingClarification(sess) {
		return e.handleClarificationFollowUp(ctx, sess, req, message, canvas)
	}

	classification, err := e.Classify(ctx, message, req.ConversationHistory)
	if err != nil {
		return &Response{Type: "fallback", Classification: models.IntentClassification{Intent: models.IntentFallback}}, nil
	}

	sections, keywords := e.DetectTargetSections(ctx, message, classification)
	classification.TargetSections = sections
	classification.Keywords = keywords

	e.applyDecisivenessRule(message, &classification)

	session.Advance(sess, classification.Intent)
	sess.LastClassification = &classification

	resp, err := e.dispatch(ctx, sess, req, message, canvas, classification)
	if err != nil {
		return nil, err
	}
	resp.Classification = classification
	return resp, nil
}

// applyDecisivenessRule biases classification toward action. Below
// confidence 0.5 the intent becomes off_topic (off-topic keywords present)
// or ask_clarification. At or above 0.5, ask_clarification stands only when
// the message contains a bare pronoun (it/this/that/them); otherwise it
// becomes modify_canvas. Mutually exclusive requests are not detected.
func (e *Engine) applyDecisivenessRule(message string, c *models.IntentClassification) bool {
	if c.Confidence < lowConfidenceThreshold {
		if lexicon.ContainsAny(message, lexicon.OffTopicKeywords) {
			c.Intent = models.IntentOffTopic
		} else {
			c.Intent = models.IntentAskClarification
		}
		c.RequiresClarification = c.Intent == models.IntentAskClarification
		return true
	}
	if c.Intent == models.IntentAskClarification && !hasAmbiguitySignal(message) {
		// classifier proposed clarification without an ambiguity signal and
		// with decent confidence: bias toward modify_canvas instead.
		c.Intent = models.IntentModifyCanvas
		c.ShouldModifyCanvas = true
		c.RequiresClarification = false
		return true
	}
	return false
}

var barePronouns = []string{" it ", " this ", " that ", " them "}

func hasAmbiguitySignal(message string) bool {
	padded := " " + strings.ToLower(message) + " "
	return lexicon.ContainsAny(padded, barePronouns)
}
