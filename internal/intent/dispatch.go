package intent

import (
	"context"
	"fmt"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/lexicon"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/session"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// dispatch routes a classified message to its handler.
func (e *Engine) dispatch(ctx context.Context, sess *models.ConversationSession, req promptctx.GenerationRequest, message string, canvas *models.QACanvasDocument, c models.IntentClassification) (*Response, error) {
	switch c.Intent {
	case models.IntentModifyCanvas:
		return e.dispatchModifyCanvas(ctx, sess, canvas, message, c)
	case models.IntentAskClarification:
		return e.dispatchAskClarification(ctx, sess, req, message, c)
	case models.IntentProvideInformation:
		return e.dispatchProvideInformation(ctx, sess, req, message, c)
	case models.IntentOffTopic:
		return e.dispatchOffTopic(sess), nil
	default:
		return e.dispatchFallback(sess), nil
	}
}

func (e *Engine) dispatchModifyCanvas(ctx context.Context, sess *models.ConversationSession, canvas *models.QACanvasDocument, message string, c models.IntentClassification) (*Response, error) {
	if canvas == nil {
		return &Response{Type: "rejection", InformationText: "There is no canvas yet to modify — analyze a ticket first."}, nil
	}

	affected := AnalyzeDependencies(c.TargetSections)

	updated, changes, err := e.regen.Regenerate(ctx, canvas, message, affected.AffectedSections, lexicon.ContainsAny(message, lexicon.MajorRevisionPhrases))
	if err != nil {
		session.Settle(sess)
		return &Response{Type: "rejection", InformationText: fmt.Sprintf("regeneration_failed: %v", err), UpdatedDocument: canvas}, nil
	}

	session.Settle(sess)
	sess.LastCanvas = updated
	return &Response{
		Type:            "modification",
		UpdatedDocument: updated,
		ChangesSummary:  summarizeChanges(changes),
		TargetSections:  affected.AffectedSections,
	}, nil
}

func (e *Engine) dispatchAskClarification(ctx context.Context, sess *models.ConversationSession, req promptctx.GenerationRequest, message string, c models.IntentClassification) (*Response, error) {
	questions := e.generateClarificationQuestions(ctx, req, message, c)

	sess.PendingClarification = &models.PendingClarification{Questions: questions}
	return &Response{
		Type:      "clarification",
		Questions: questions,
	}, nil
}

func (e *Engine) dispatchProvideInformation(ctx context.Context, sess *models.ConversationSession, req promptctx.GenerationRequest, message string, c models.IntentClassification) (*Response, error) {
	text, citations, err := e.generateInformationAnswer(ctx, req, message, c)
	session.Settle(sess)
	if err != nil {
		return &Response{Type: "information", InformationText: "I couldn't find enough context to answer that — try rephrasing or asking about a specific canvas section."}, nil
	}
	return &Response{Type: "information", InformationText: text, Citations: citations}, nil
}

func (e *Engine) dispatchOffTopic(sess *models.ConversationSession) *Response {
	return &Response{
		Type:            "rejection",
		InformationText: "That's outside what I can help with here — I work on QA canvases for tickets. Ask me about acceptance criteria, test cases, or the ticket summary.",
	}
}

func (e *Engine) dispatchFallback(sess *models.ConversationSession) *Response {
	return &Response{
		Type:            "rejection",
		InformationText: "I wasn't able to understand that request. Could you rephrase it, or tell me which part of the canvas you'd like to change?",
	}
}

// handleClarificationFollowUp treats a reply while PhaseAwaitingClarification
// as an answer to the previously asked question set rather than running
// classification again.
func (e *Engine) handleClarificationFollowUp(ctx context.Context, sess *models.ConversationSession, req promptctx.GenerationRequest, message string, canvas *models.QACanvasDocument) (*Response, error) {
	pending := sess.PendingClarification
	combined := message
	if pending != nil && len(pending.Questions) > 0 {
		combined = pending.Questions[0].Question + " — " + message
	}

	sections := pendingTargetSections(pending)
	if canvas == nil {
		session.Settle(sess)
		return &Response{Type: "rejection", InformationText: "There is no canvas yet to apply that answer to — analyze a ticket first."}, nil
	}

	affected := AnalyzeDependencies(sections)
	updated, changes, err := e.regen.Regenerate(ctx, canvas, combined, affected.AffectedSections, lexicon.ContainsAny(combined, lexicon.MajorRevisionPhrases))
	session.Settle(sess)
	if err != nil {
		return &Response{Type: "rejection", InformationText: fmt.Sprintf("regeneration_failed: %v", err), UpdatedDocument: canvas}, nil
	}
	sess.LastCanvas = updated
	return &Response{
		Type:            "modification",
		UpdatedDocument: updated,
		ChangesSummary:  summarizeChanges(changes),
		TargetSections:  affected.AffectedSections,
	}, nil
}

func pendingTargetSections(pending *models.PendingClarification) []models.CanvasSection {
	if pending == nil {
		return nil
	}
	seen := make(map[models.CanvasSection]bool)
	var out []models.CanvasSection
	for _, q := range pending.Questions {
		if q.TargetSection == "" || seen[q.TargetSection] {
			continue
		}
		seen[q.TargetSection] = true
		out = append(out, q.TargetSection)
	}
	return out
}

// summarizeChanges renders the added/modified/removed entries from a diff
// into one human-readable line; preserved (unchanged) entries are part of
// the full diff but add nothing worth telling the user about.
func summarizeChanges(changes []models.CanvasChange) string {
	summary := ""
	for _, c := range changes {
		if c.ChangeType == models.ChangePreserved {
			continue
		}
		if summary != "" {
			summary += "; "
		}
		summary += string(c.ChangeType) + " " + string(c.Section) + ": " + c.Description
	}
	if summary == "" {
		return "No changes were necessary."
	}
	return summary
}

// generationOptionsForInformation keeps information answers terse.
var generationOptionsForInformation = gateway.GenerationOptions{Temperature: 0.2, MaxTokens: 400}
