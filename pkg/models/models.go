// Package models defines the QA Canvas data model: tickets, profiles, the
// canvas artifact itself, and the small supporting types the gateway,
// analyzer, intent engine, regenerator, and suggestion engine share.
package models

import "time"

// ── Ticket ───────────────────────────────────────────────────

type Comment struct {
	Author    string   `json:"author"`
	Body      string   `json:"body"`
	Date      string   `json:"date"`
	ImageRefs []string `json:"image_refs,omitempty"`
	LinkRefs  []string `json:"link_refs,omitempty"`
}

type Attachment struct {
	Payload []byte `json:"payload,omitempty"`
	Mime    string `json:"mime"`
	Size    int64  `json:"size"`
	TooBig  bool   `json:"too_big"`
}

// Ticket is the immutable input scraped from an issue tracker.
type Ticket struct {
	IssueKey     string                 `json:"issue_key"`
	Summary      string                 `json:"summary"`
	Description  string                 `json:"description"`
	Status       string                 `json:"status"`
	Priority     string                 `json:"priority"`
	IssueType    string                 `json:"issue_type"`
	Assignee     string                 `json:"assignee,omitempty"`
	Reporter     string                 `json:"reporter"`
	Comments     []Comment              `json:"comments"`
	Attachments  []Attachment           `json:"attachments"`
	Components   []string               `json:"components"`
	CustomFields map[string]interface{} `json:"custom_fields"`
	ScrapedAt    string                 `json:"scraped_at"`
}

// ── QAProfile ────────────────────────────────────────────────

type TestCaseFormat string

const (
	FormatGherkin TestCaseFormat = "gherkin"
	FormatSteps   TestCaseFormat = "steps"
	FormatTable   TestCaseFormat = "table"
)

// QACategorySet is the closed set of QA categories a profile can enable.
var QACategorySet = []string{
	"functional", "ui", "ux", "negative", "api", "database",
	"performance", "security", "mobile", "accessibility",
}

type QAProfile struct {
	TestCaseFormat  TestCaseFormat  `json:"test_case_format"`
	QACategories    map[string]bool `json:"qa_categories"`
	IncludeComments bool            `json:"include_comments"`
	IncludeImages   bool            `json:"include_images"`
	OperationMode   string          `json:"operation_mode,omitempty"`
}

// ActiveCategories returns the enabled category names in QACategorySet order,
// so downstream iteration is deterministic.
func (p *QAProfile) ActiveCategories() []string {
	var out []string
	for _, c := range QACategorySet {
		if p.QACategories[c] {
			out = append(out, c)
		}
	}
	return out
}

// HasAnyCategory reports the §3 invariant: at least one category enabled.
func (p *QAProfile) HasAnyCategory() bool {
	return len(p.ActiveCategories()) > 0
}

// ── Canvas (QACanvasDocument) ────────────────────────────────

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type TicketSummary struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	Context  string `json:"context"`
}

type ConfigurationWarning struct {
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
	Severity       Severity `json:"severity"`
}

type Priority string

const (
	PriorityMust   Priority = "must"
	PriorityShould Priority = "should"
	PriorityCould  Priority = "could"
)

type AcceptanceCriterion struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Testable    bool     `json:"testable"`
}

type TestCasePriority string

const (
	TestCasePriorityHigh   TestCasePriority = "high"
	TestCasePriorityMedium TestCasePriority = "medium"
	TestCasePriorityLow    TestCasePriority = "low"
)

// TestStep is a single numbered action/expectation pair in the "steps" format.
type TestStep struct {
	StepNumber     int    `json:"step_number"`
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
	Notes          string `json:"notes,omitempty"`
}

// TestCase is a discriminated union over format ∈ {gherkin, steps, table}.
// Only the fields for the active Format are populated; exhaustive switches
// on Format are required at every read site.
type TestCase struct {
	// Envelope (common to all formats)
	ID            string           `json:"id"`
	Format        TestCaseFormat   `json:"format"`
	Category      string           `json:"category"`
	Priority      TestCasePriority `json:"priority"`
	EstimatedTime string           `json:"estimated_time,omitempty"`

	// gherkin
	Scenario string   `json:"scenario,omitempty"`
	Given    []string `json:"given,omitempty"`
	When     []string `json:"when,omitempty"`
	Then     []string `json:"then,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// steps
	Title          string     `json:"title,omitempty"`
	Objective      string     `json:"objective,omitempty"`
	Preconditions  []string   `json:"preconditions,omitempty"`
	Steps          []TestStep `json:"steps,omitempty"`
	Postconditions []string   `json:"postconditions,omitempty"`

	// table (Title is shared with steps, kept as one field)
	Description     string `json:"description,omitempty"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// TextBlob returns a best-effort flattened string of the case's content,
// used by the suggestion engine's keyword/pattern scans.
func (tc *TestCase) TextBlob() string {
	switch tc.Format {
	case FormatGherkin:
		return tc.Scenario + " " + joinLines(tc.Given) + " " + joinLines(tc.When) + " " + joinLines(tc.Then)
	case FormatSteps:
		s := tc.Title + " " + tc.Objective
		for _, st := range tc.Steps {
			s += " " + st.Action + " " + st.ExpectedResult
		}
		return s
	case FormatTable:
		return tc.Title + " " + tc.Description + " " + tc.ExpectedOutcome
	default:
		return tc.Title + " " + tc.Description
	}
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + " "
	}
	return out
}

type CanvasMetadata struct {
	TicketID           string                   `json:"ticket_id"`
	QAProfile          *QAProfile               `json:"qa_profile"`
	GeneratedAt        time.Time                `json:"generated_at"`
	DocumentVersion    string                   `json:"document_version"`
	PreviousVersion    string                   `json:"previous_version,omitempty"`
	AIModel            string                   `json:"ai_model,omitempty"`
	GenerationTimeMs   int64                    `json:"generation_time_ms,omitempty"`
	RegenerationReason string                   `json:"regeneration_reason,omitempty"`
	IsPartialResult    bool                     `json:"is_partial_result,omitempty"`
	WordCount          int                      `json:"word_count,omitempty"`
	Assumptions        []Assumption             `json:"assumptions,omitempty"`
	ClarifyingQuestions []ClarificationQuestion `json:"clarifying_questions,omitempty"`
}

// Assumption records a default the system silently applied because the
// request or ticket left a detail unspecified.
type Assumption struct {
	Field      string `json:"field"`
	Assumption string `json:"assumption"`
	Reason     string `json:"reason"`
}

// UncertaintyResult is the Uncertainty Layer's read on one AI response:
// whether it reads as uncertain, a confidence score, and which textual
// indicators (hedge phrases, multiple question marks, extreme brevity)
// drove that call.
type UncertaintyResult struct {
	Uncertain       bool     `json:"uncertain"`
	ConfidenceScore float64  `json:"confidence_score"`
	Indicators      []string `json:"indicators"`
}

// PartialResult describes a degraded generation: which sections completed,
// which failed, and the fallback skeleton substituted for the failures.
type PartialResult struct {
	CompletedSections []CanvasSection   `json:"completed_sections"`
	FailedSections    []CanvasSection   `json:"failed_sections"`
	FallbackSkeleton  *QACanvasDocument `json:"fallback_skeleton,omitempty"`
	Reason            string            `json:"reason"`
}

// QACanvasDocument is the central artifact: the structured QA documentation
// produced for a ticket and subsequently refined through chat.
type QACanvasDocument struct {
	TicketSummary         TicketSummary          `json:"ticket_summary"`
	ConfigurationWarnings []ConfigurationWarning `json:"configuration_warnings"`
	AcceptanceCriteria    []AcceptanceCriterion  `json:"acceptance_criteria"`
	TestCases             []TestCase             `json:"test_cases"`
	Metadata              CanvasMetadata         `json:"metadata"`
}

// ── Intent Classification ───────────────────────────────────

type Intent string

const (
	IntentModifyCanvas       Intent = "modify_canvas"
	IntentProvideInformation Intent = "provide_information"
	IntentAskClarification   Intent = "ask_clarification"
	IntentOffTopic           Intent = "off_topic"
	IntentFallback           Intent = "fallback"
)

// CanvasSection names the five addressable regions of a QACanvasDocument.
type CanvasSection string

const (
	SectionTicketSummary         CanvasSection = "ticket_summary"
	SectionAcceptanceCriteria    CanvasSection = "acceptance_criteria"
	SectionTestCases             CanvasSection = "test_cases"
	SectionConfigurationWarnings CanvasSection = "configuration_warnings"
	SectionMetadata              CanvasSection = "metadata"
)

var AllCanvasSections = []CanvasSection{
	SectionTicketSummary, SectionAcceptanceCriteria, SectionTestCases,
	SectionConfigurationWarnings, SectionMetadata,
}

type IntentClassification struct {
	Intent                Intent          `json:"intent"`
	Confidence            float64         `json:"confidence"`
	TargetSections        []CanvasSection `json:"target_sections"`
	Keywords              []string        `json:"keywords"`
	Reasoning             string          `json:"reasoning"`
	ShouldModifyCanvas    bool            `json:"should_modify_canvas"`
	RequiresClarification bool            `json:"requires_clarification"`
}

// ── Dependency Graph ─────────────────────────────────────────

type ConflictRisk string

const (
	ConflictRiskLow    ConflictRisk = "low"
	ConflictRiskMedium ConflictRisk = "medium"
	ConflictRiskHigh   ConflictRisk = "high"
)

// DependencyEdges is the static directed graph between canvas sections.
var DependencyEdges = map[CanvasSection][]CanvasSection{
	SectionAcceptanceCriteria: {SectionTestCases},
	SectionTicketSummary:      {SectionAcceptanceCriteria, SectionTestCases},
}

type DependencyAnalysis struct {
	AffectedSections []CanvasSection `json:"affected_sections"`
	CascadeRequired  bool            `json:"cascade_required"`
	ConflictRisk     ConflictRisk    `json:"conflict_risk"`
}

// ── Conversation ─────────────────────────────────────────────

type SessionPhase string

const (
	PhaseInitial              SessionPhase = "initial"
	PhaseAwaitingClarification SessionPhase = "awaiting_clarification"
	PhaseModifying            SessionPhase = "modifying"
	PhaseInforming            SessionPhase = "informing"
	PhaseTerminated           SessionPhase = "terminated"
)

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// PendingClarification is the payload remembered between an
// ask_clarification response and the user's follow-up.
type PendingClarification struct {
	Questions []ClarificationQuestion `json:"questions"`
	AskedAt   time.Time                `json:"asked_at"`
}

type ConversationSession struct {
	ID                    string
	Phase                 SessionPhase
	LastActivity          time.Time
	LastClassification     *IntentClassification
	PendingClarification  *PendingClarification
	LastCanvas            *QACanvasDocument
	History               []ChatMessage
}

// ── Provider Health ──────────────────────────────────────────

type ProviderHealth struct {
	Name           string     `json:"name"`
	Available      bool       `json:"available"`
	FailureCount   int        `json:"failure_count"`
	LastFailure    *time.Time `json:"last_failure,omitempty"`
	LastSuccess    *time.Time `json:"last_success,omitempty"`
	CircuitOpen    bool       `json:"circuit_open"`
	CircuitOpenTime *time.Time `json:"circuit_open_time,omitempty"`
}

// ── Suggestion ───────────────────────────────────────────────

type SuggestionType string

const (
	SuggestionEdgeCase             SuggestionType = "edge_case"
	SuggestionUIVerification       SuggestionType = "ui_verification"
	SuggestionFunctionalTest       SuggestionType = "functional_test"
	SuggestionClarificationQuestion SuggestionType = "clarification_question"
	SuggestionNegativeTest         SuggestionType = "negative_test"
	SuggestionPerformanceTest      SuggestionType = "performance_test"
	SuggestionSecurityTest         SuggestionType = "security_test"
	SuggestionAccessibilityTest    SuggestionType = "accessibility_test"
	SuggestionIntegrationTest      SuggestionType = "integration_test"
	SuggestionDataValidation       SuggestionType = "data_validation"
	SuggestionCoverageGap          SuggestionType = "coverage_gap"
	SuggestionImprovement          SuggestionType = "improvement"
	SuggestionSecurity             SuggestionType = "security"
)

type EffortLevel string

const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"
)

type Suggestion struct {
	ID                 string         `json:"id"`
	SuggestionType     SuggestionType `json:"suggestion_type"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	TargetSection      CanvasSection  `json:"target_section,omitempty"`
	Priority           Priority2      `json:"priority"`
	Reasoning          string         `json:"reasoning"`
	ImplementationHint string         `json:"implementation_hint,omitempty"`
	EstimatedEffort    EffortLevel    `json:"estimated_effort,omitempty"`
	RelatedRequirements []string      `json:"related_requirements,omitempty"`
	Tags               []string       `json:"tags,omitempty"`

	// RelevanceScore is computed, not part of the wire contract's required
	// fields, but carried so ranking/filtering can re-derive it.
	RelevanceScore float64 `json:"-"`
}

// Priority2 is the {high,medium,low} priority scale used by Suggestion,
// distinct from AcceptanceCriterion's {must,should,could} scale.
type Priority2 string

const (
	Priority2High   Priority2 = "high"
	Priority2Medium Priority2 = "medium"
	Priority2Low    Priority2 = "low"
)

// ── Clarification / Contextual Response ─────────────────────

type ClarificationQuestion struct {
	Question      string        `json:"question"`
	Category      string        `json:"category"`
	TargetSection CanvasSection `json:"target_section,omitempty"`
	Priority      Priority2     `json:"priority"`
}

type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeModified  ChangeType = "modified"
	ChangeRemoved   ChangeType = "removed"
	ChangePreserved ChangeType = "preserved"
)

type CanvasChange struct {
	Section     CanvasSection `json:"section"`
	ChangeType  ChangeType    `json:"change_type"`
	Description string        `json:"description"`
	OldValue    interface{}   `json:"old_value,omitempty"`
	NewValue    interface{}   `json:"new_value,omitempty"`
}
