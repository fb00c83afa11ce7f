// Package suggest runs a rule-based coverage/clarification/edge-case/
// perspective analysis over a QACanvasDocument, enhanced (never gated) by
// one AI-authored suggestion, then ranks and filters the result down to
// max_suggestions.
//
// Every rule runs independently and accumulates into the same result set;
// one rule producing nothing never aborts the others.
package suggest

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

const maxSuggestionsHardCap = 10

type Engine struct {
	gw *gateway.Gateway
}

func New(gw *gateway.Gateway) *Engine {
	return &Engine{gw: gw}
}

// Request carries the inputs the generate-suggestions endpoint accepts.
type Request struct {
	Canvas              *models.QACanvasDocument
	MaxSuggestions      int
	FocusAreas          []models.SuggestionType
	ExcludeTypes        []models.SuggestionType
	UserContext         string
	ConversationHistory []models.ChatMessage
	FilterExpr          string
}

// Result is the suggestion list together with its length. TotalCount
// always equals len(Suggestions) — callers that want the pre-truncation
// count should inspect the filtered set themselves before capping.
type Result struct {
	Suggestions []models.Suggestion
	TotalCount  int
}

// Generate runs the full rule + AI-enhancement + rank/filter pipeline.
// max_suggestions=0 short-circuits to an empty result without ever
// calling the model.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.MaxSuggestions == 0 {
		return &Result{Suggestions: nil, TotalCount: 0}, nil
	}

	canvas := req.Canvas
	if canvas == nil {
		canvas = &models.QACanvasDocument{}
	}

	var all []models.Suggestion
	all = append(all, coverageGapSuggestions(canvas)...)
	all = append(all, clarificationSuggestions(canvas)...)
	all = append(all, edgeCaseSuggestions(canvas)...)
	all = append(all, perspectiveSuggestions(canvas)...)

	if ai := e.aiSuggestion(ctx, canvas, req.UserContext); ai != nil {
		all = append(all, *ai)
	}

	filtered := applyTypeFilters(all, req.FocusAreas, req.ExcludeTypes)

	if req.FilterExpr != "" {
		var err error
		filtered, err = applyFilterExpr(filtered, req.FilterExpr)
		if err != nil {
			// an invalid expression degrades to "no extra filtering" rather
			// than failing the whole suggestion endpoint.
			filtered = applyTypeFilters(all, req.FocusAreas, req.ExcludeTypes)
		}
	}

	canvasText := canvasKeywordText(canvas)
	for i := range filtered {
		filtered[i].RelevanceScore = relevance(filtered[i], canvasText)
	}

	if len(filtered) == 0 {
		return nil, errNoSuggestions
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		pi, pj := priorityWeight(filtered[i].Priority), priorityWeight(filtered[j].Priority)
		if pi != pj {
			return pi > pj
		}
		return filtered[i].RelevanceScore > filtered[j].RelevanceScore
	})

	limit := req.MaxSuggestions
	if limit <= 0 || limit > maxSuggestionsHardCap {
		limit = maxSuggestionsHardCap
	}
	if limit > len(filtered) {
		limit = len(filtered)
	}

	for i := range filtered[:limit] {
		if filtered[i].ID == "" {
			filtered[i].ID = generateID(i)
		}
	}

	// TotalCount always mirrors len(Suggestions): it counts what's
	// actually returned, not what survived filtering before the
	// max_suggestions cap.
	return &Result{Suggestions: filtered[:limit], TotalCount: limit}, nil
}

func generateID(i int) string {
	return "sg-" + strconv.Itoa(i+1)
}

func priorityWeight(p models.Priority2) int {
	switch p {
	case models.Priority2High:
		return 3
	case models.Priority2Medium:
		return 2
	default:
		return 1
	}
}

func canvasKeywordText(c *models.QACanvasDocument) string {
	var b strings.Builder
	b.WriteString(c.TicketSummary.Problem)
	b.WriteString(" ")
	b.WriteString(c.TicketSummary.Solution)
	for _, ac := range c.AcceptanceCriteria {
		b.WriteString(" ")
		b.WriteString(ac.Title)
		b.WriteString(" ")
		b.WriteString(ac.Description)
	}
	for _, tc := range c.TestCases {
		b.WriteString(" ")
		b.WriteString(tc.TextBlob())
	}
	return strings.ToLower(b.String())
}
