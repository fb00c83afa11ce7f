// Package analyzer implements the Canvas Analyzer: given a Ticket and
// QAProfile, produce a QACanvasDocument by issuing four independent
// section-generation requests in parallel and reconciling partial
// failures into synthetic placeholders.
//
// Follows the fan-out/fan-in pattern used elsewhere in this codebase for
// independent work items (sync.WaitGroup over independent steps, each
// step's error captured without aborting its siblings), adapted here from
// DAG-step execution to four fixed, always-present generation tasks.
package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// maxConcurrentCalls bounds in-flight model calls per request to avoid
// saturating a provider's rate limit on a single analysis.
const maxConcurrentCalls = 8

// Analyzer produces canvases from tickets.
type Analyzer struct {
	gw *gateway.Gateway
}

func New(gw *gateway.Gateway) *Analyzer {
	return &Analyzer{gw: gw}
}

// sectionResult captures one of the four section outputs plus whether it
// is synthetic (fallback) content.
type sectionResult struct {
	synthetic bool
	warning   *models.ConfigurationWarning
}

// Analyze runs the four section generations in parallel and assembles the
// Canvas in a fixed, stable field order.
func (a *Analyzer) Analyze(ctx context.Context, ticket models.Ticket, profile models.QAProfile) (*models.QACanvasDocument, error) {
	base := promptctx.BuildBaseContext(ticket, profile)

	sem := make(chan struct{}, maxConcurrentCalls)
	var wg sync.WaitGroup

	var (
		ticketSummary models.TicketSummary
		criteria      []models.AcceptanceCriterion
		testCases     []models.TestCase
		warnings      []models.ConfigurationWarning
		warningsMu    sync.Mutex
	)

	addWarning := func(w models.ConfigurationWarning) {
		warningsMu.Lock()
		warnings = append(warnings, w)
		warningsMu.Unlock()
	}

	if !profile.HasAnyCategory() {
		addWarning(models.ConfigurationWarning{
			Type:           "configuration",
			Title:          "No QA categories enabled",
			Message:        "The QA profile did not enable any test category.",
			Recommendation: "Enable at least one qa_categories entry before analyzing.",
			Severity:       models.SeverityMedium,
		})
	}

	run := func(fn func()) {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn()
		}()
	}

	var partial bool
	var partialMu sync.Mutex
	markPartial := func() {
		partialMu.Lock()
		partial = true
		partialMu.Unlock()
	}

	if ticket.Summary == "" && ticket.Description == "" {
		markPartial()
		addWarning(models.ConfigurationWarning{
			Type:           "configuration",
			Title:          "Empty ticket content",
			Message:        "The ticket has no summary or description text to analyze.",
			Recommendation: "Populate the ticket's summary or description, then regenerate the canvas.",
			Severity:       models.SeverityHigh,
		})
	}

	run(func() {
		ts, err := a.generateTicketSummary(ctx, base)
		if err != nil {
			log.Warn().Err(err).Str("ticket", ticket.IssueKey).Msg("ticket_summary generation failed, using placeholder")
			ticketSummary = placeholderTicketSummary()
			markPartial()
			addWarning(degradationWarning("ticket summary generation", err))
			return
		}
		ticketSummary = *ts
	})

	run(func() {
		acs, err := a.generateAcceptanceCriteria(ctx, base)
		if err != nil {
			log.Warn().Err(err).Str("ticket", ticket.IssueKey).Msg("acceptance_criteria generation failed, using placeholder")
			acs = []models.AcceptanceCriterion{placeholderCriterion()}
			markPartial()
			addWarning(degradationWarning("acceptance criteria generation", err))
		}
		for i := range acs {
			acs[i].ID = fmt.Sprintf("ac-%d", i+1)
		}
		criteria = acs
	})

	run(func() {
		tcs, err := a.generateTestCases(ctx, base)
		if err != nil {
			log.Warn().Err(err).Str("ticket", ticket.IssueKey).Msg("test_cases generation failed, using placeholder")
			tcs = []models.TestCase{placeholderTestCase(base.Format)}
			markPartial()
			addWarning(degradationWarning("test cases generation", err))
		}
		for i := range tcs {
			tcs[i].ID = fmt.Sprintf("tc-%d", i+1)
		}
		testCases = tcs
	})

	run(func() {
		ws, err := a.generateConfigurationWarnings(ctx, base)
		if err != nil {
			// non-fatal by design: falls back to empty, no partial-result flag
			log.Debug().Err(err).Str("ticket", ticket.IssueKey).Msg("configuration_warnings generation failed, falling back to empty")
			return
		}
		for _, w := range ws {
			addWarning(w)
		}
	})

	wg.Wait()

	if partial && len(warnings) == 0 {
		// should not happen given addWarning is always paired with markPartial,
		// but a partial result must never ship without a warning explaining
		// the degradation, so this is enforced defensively here.
		addWarning(models.ConfigurationWarning{
			Type: "generation", Title: "Partial canvas", Message: "One or more sections fell back to placeholder content.",
			Severity: models.SeverityHigh,
		})
	}

	doc := &models.QACanvasDocument{
		TicketSummary:         ticketSummary,
		ConfigurationWarnings: warnings,
		AcceptanceCriteria:    criteria,
		TestCases:             testCases,
		Metadata: models.CanvasMetadata{
			TicketID:        ticket.IssueKey,
			QAProfile:       &profile,
			GeneratedAt:     time.Now().UTC(),
			DocumentVersion: "1.0",
			IsPartialResult: partial,
			WordCount:       wordCount(ticketSummary, criteria, testCases),
		},
	}

	if issues := schema.ValidateCanvasInvariants(doc); len(issues) > 0 {
		log.Warn().Interface("issues", issues).Msg("assembled canvas failed invariant validation")
	}

	return doc, nil
}

func degradationWarning(what string, err error) models.ConfigurationWarning {
	return models.ConfigurationWarning{
		Type:           "generation",
		Title:          fmt.Sprintf("%s degraded", what),
		Message:        fmt.Sprintf("%s failed after retries: %v", what, err),
		Recommendation: "Review the placeholder content and regenerate once providers recover.",
		Severity:       models.SeverityHigh,
	}
}

func wordCount(ts models.TicketSummary, acs []models.AcceptanceCriterion, tcs []models.TestCase) int {
	n := len(splitWords(ts.Problem)) + len(splitWords(ts.Solution)) + len(splitWords(ts.Context))
	for _, ac := range acs {
		n += len(splitWords(ac.Title)) + len(splitWords(ac.Description))
	}
	for _, tc := range tcs {
		n += len(splitWords(tc.TextBlob()))
	}
	return n
}

func splitWords(s string) []string {
	var words []string
	word := ""
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			if word != "" {
				words = append(words, word)
				word = ""
			}
			continue
		}
		word += string(r)
	}
	if word != "" {
		words = append(words, word)
	}
	return words
}
