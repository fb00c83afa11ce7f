package schema

import (
	"encoding/json"
	"fmt"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// ── Ticket ───────────────────────────────────────────────────

type TicketValidator struct{}

func (TicketValidator) Parse(raw string) (interface{}, []Issue) {
	var t models.Ticket
	norm := Normalize(raw)
	if err := unmarshalStrict(norm, &t); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	var issues []Issue
	if t.IssueKey == "" {
		issues = append(issues, Issue{Path: "issue_key", Code: IssueMissing, Message: "issue_key is required"})
	}
	if t.Reporter == "" {
		issues = append(issues, Issue{Path: "reporter", Code: IssueMissing, Message: "reporter is required"})
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return &t, nil
}

// ── QAProfile ────────────────────────────────────────────────

type QAProfileValidator struct{}

var validFormats = map[models.TestCaseFormat]bool{
	models.FormatGherkin: true, models.FormatSteps: true, models.FormatTable: true,
}

func (QAProfileValidator) Parse(raw string) (interface{}, []Issue) {
	var p models.QAProfile
	if err := unmarshalStrict(Normalize(raw), &p); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	var issues []Issue
	if p.TestCaseFormat == "" {
		// missing format defaults to gherkin rather than rejecting the request.
		p.TestCaseFormat = models.FormatGherkin
	}
	if !validFormats[p.TestCaseFormat] {
		issues = append(issues, Issue{Path: "test_case_format", Code: IssueInvalidEnum, Message: "must be one of gherkin, steps, table", Received: string(p.TestCaseFormat)})
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return &p, nil
}

// ── TestCase (discriminated union) ──────────────────────────

type TestCaseValidator struct{}

func (TestCaseValidator) Parse(raw string) (interface{}, []Issue) {
	var tc models.TestCase
	if err := unmarshalStrict(Normalize(raw), &tc); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	var issues []Issue
	switch tc.Format {
	case models.FormatGherkin:
		if tc.Scenario == "" {
			issues = append(issues, Issue{Path: "scenario", Code: IssueMissing, Message: "scenario is required for gherkin format"})
		}
		if len(tc.Given) == 0 || len(tc.When) == 0 || len(tc.Then) == 0 {
			issues = append(issues, Issue{Path: "given/when/then", Code: IssueMissing, Message: "gherkin test cases require at least one given, when, and then"})
		}
	case models.FormatSteps:
		if tc.Title == "" {
			issues = append(issues, Issue{Path: "title", Code: IssueMissing, Message: "title is required for steps format"})
		}
		if len(tc.Steps) == 0 {
			issues = append(issues, Issue{Path: "steps", Code: IssueMissing, Message: "at least one step is required"})
		}
	case models.FormatTable:
		if tc.Title == "" {
			issues = append(issues, Issue{Path: "title", Code: IssueMissing, Message: "title is required for table format"})
		}
		if tc.ExpectedOutcome == "" {
			issues = append(issues, Issue{Path: "expected_outcome", Code: IssueMissing, Message: "expected_outcome is required for table format"})
		}
	default:
		issues = append(issues, Issue{Path: "format", Code: IssueInvalidEnum, Message: "unknown test case format", Received: string(tc.Format)})
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return &tc, nil
}

// ── Canvas ───────────────────────────────────────────────────

type CanvasValidator struct{}

func (CanvasValidator) Parse(raw string) (interface{}, []Issue) {
	var c models.QACanvasDocument
	if err := unmarshalStrict(Normalize(raw), &c); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	issues := ValidateCanvasInvariants(&c)
	if len(issues) > 0 {
		return nil, issues
	}
	return &c, nil
}

// ValidateCanvasInvariants checks the §3/§8 structural invariants that no
// amount of JSON-shape validation alone can catch: unique IDs and the
// partial-result/warning correspondence.
func ValidateCanvasInvariants(c *models.QACanvasDocument) []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(c.AcceptanceCriteria))
	for i, ac := range c.AcceptanceCriteria {
		if ac.ID == "" {
			issues = append(issues, Issue{Path: fmt.Sprintf("acceptance_criteria[%d].id", i), Code: IssueMissing, Message: "id is required"})
			continue
		}
		if seen[ac.ID] {
			issues = append(issues, Issue{Path: fmt.Sprintf("acceptance_criteria[%d].id", i), Code: IssueCustom, Message: "duplicate acceptance criterion id", Received: ac.ID})
		}
		seen[ac.ID] = true
	}

	seenTC := make(map[string]bool, len(c.TestCases))
	for i, tc := range c.TestCases {
		if tc.ID == "" {
			issues = append(issues, Issue{Path: fmt.Sprintf("test_cases[%d].id", i), Code: IssueMissing, Message: "id is required"})
			continue
		}
		if seenTC[tc.ID] {
			issues = append(issues, Issue{Path: fmt.Sprintf("test_cases[%d].id", i), Code: IssueCustom, Message: "duplicate test case id", Received: tc.ID})
		}
		seenTC[tc.ID] = true
	}

	if c.Metadata.IsPartialResult && len(c.ConfigurationWarnings) == 0 {
		issues = append(issues, Issue{Path: "configuration_warnings", Code: IssueCustom, Message: "a partial result must carry at least one warning describing the degradation"})
	}

	return issues
}

// ── Suggestion ───────────────────────────────────────────────

type SuggestionValidator struct{}

func (SuggestionValidator) Parse(raw string) (interface{}, []Issue) {
	var s models.Suggestion
	if err := unmarshalStrict(Normalize(raw), &s); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	var issues []Issue
	if s.Title == "" {
		issues = append(issues, Issue{Path: "title", Code: IssueMissing, Message: "title is required"})
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return &s, nil
}

// ── Request bodies ───────────────────────────────────────────

type AnalyzeTicketRequest struct {
	QAProfile models.QAProfile `json:"qa_profile"`
	Ticket    models.Ticket    `json:"ticket_json"`
}

type AnalyzeTicketRequestValidator struct{}

func (AnalyzeTicketRequestValidator) Parse(raw string) (interface{}, []Issue) {
	var r AnalyzeTicketRequest
	if err := unmarshalStrict(raw, &r); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	return &r, nil
}

type UpdateCanvasRequest struct {
	Messages          []models.ChatMessage     `json:"messages"`
	CurrentDocument   *models.QACanvasDocument `json:"current_document,omitempty"`
	OriginalTicket    *models.Ticket           `json:"original_ticket_data,omitempty"`
	SessionID         string                   `json:"session_id,omitempty"`
}

type UpdateCanvasRequestValidator struct{}

func (UpdateCanvasRequestValidator) Parse(raw string) (interface{}, []Issue) {
	var r UpdateCanvasRequest
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	if len(r.Messages) == 0 {
		return nil, []Issue{{Path: "messages", Code: IssueMissing, Message: "messages array must contain at least one entry"}}
	}
	return &r, nil
}

type GenerateSuggestionsRequest struct {
	CurrentDocument     models.QACanvasDocument `json:"current_document"`
	MaxSuggestions      *int                    `json:"max_suggestions,omitempty"`
	FocusAreas          []models.SuggestionType `json:"focus_areas,omitempty"`
	ExcludeTypes        []models.SuggestionType `json:"exclude_types,omitempty"`
	UserContext         string                  `json:"user_context,omitempty"`
	ConversationHistory []models.ChatMessage    `json:"conversation_history,omitempty"`
	FilterExpr          string                  `json:"filter_expr,omitempty"`
}

// ResolvedMaxSuggestions returns the effective max_suggestions value: the
// default of 10 when the field was omitted from the request body, or the
// caller's explicit value otherwise — including an explicit 0, which spec
// §8 requires to short-circuit to an empty result without calling the model.
func (r GenerateSuggestionsRequest) ResolvedMaxSuggestions() int {
	if r.MaxSuggestions == nil {
		return 10
	}
	return *r.MaxSuggestions
}

type GenerateSuggestionsRequestValidator struct{}

func (GenerateSuggestionsRequestValidator) Parse(raw string) (interface{}, []Issue) {
	var r GenerateSuggestionsRequest
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, []Issue{{Path: "$", Code: IssueInvalidType, Message: err.Error()}}
	}
	if r.MaxSuggestions != nil {
		if *r.MaxSuggestions > 10 {
			return nil, []Issue{{Path: "max_suggestions", Code: IssueRange, Message: "max_suggestions must be <= 10"}}
		}
		if *r.MaxSuggestions < 0 {
			return nil, []Issue{{Path: "max_suggestions", Code: IssueRange, Message: "max_suggestions must be >= 0"}}
		}
	}
	return &r, nil
}
