package analyzer

import (
	"context"
	"fmt"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/promptctx"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// generateTicketSummary issues the TicketSummary sub-call: low temperature
// and a small token budget, since this is a short factual summary rather
// than creative writing.
func (a *Analyzer) generateTicketSummary(ctx context.Context, base promptctx.BaseContext) (*models.TicketSummary, error) {
	prompt := base.Render() + "\nWrite a JSON object {\"problem\":string,\"solution\":string,\"context\":string} " +
		"summarizing the ticket's problem, the proposed solution, and surrounding context. Respond with JSON only."

	value, err := a.gw.GenerateObject(ctx, ticketSummaryValidator{}, prompt, gateway.GenerationOptions{
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		return nil, err
	}
	ts := value.(*models.TicketSummary)
	return ts, nil
}

// generateAcceptanceCriteria issues the AcceptanceCriteria sub-call: an
// array of 3 to 5 criteria at a slightly higher temperature than the
// summary call, to allow some variety across must/should/could framing.
func (a *Analyzer) generateAcceptanceCriteria(ctx context.Context, base promptctx.BaseContext) ([]models.AcceptanceCriterion, error) {
	prompt := base.Render() + "\nWrite a JSON array of 3 to 5 acceptance criteria, each " +
		"{\"title\":string,\"description\":string,\"priority\":\"must\"|\"should\"|\"could\",\"category\":string,\"testable\":bool}. " +
		"Respond with JSON only."

	value, err := a.gw.GenerateObject(ctx, acceptanceCriteriaListValidator{}, prompt, gateway.GenerationOptions{
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.AcceptanceCriterion), nil
}

// generateTestCases issues the TestCases sub-call: an array of 3 to 5 test
// cases in the requested format, at the highest temperature of the four
// sub-calls since concrete test scenarios benefit from variety.
func (a *Analyzer) generateTestCases(ctx context.Context, base promptctx.BaseContext) ([]models.TestCase, error) {
	prompt := base.Render() + fmt.Sprintf(
		"\nWrite a JSON array of 3 to 5 test cases in the %q format, following that format's field shape exactly. "+
			"Respond with JSON only.", base.Format)

	value, err := a.gw.GenerateObject(ctx, testCaseListValidator{format: base.Format}, prompt, gateway.GenerationOptions{
		Temperature: 0.3,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.TestCase), nil
}

// generateConfigurationWarnings issues the ConfigurationWarnings sub-call:
// flags missing ticket information, may legitimately come back empty, and
// is non-fatal on failure — an incomplete warning list degrades the
// canvas less than a missing summary or test cases would.
func (a *Analyzer) generateConfigurationWarnings(ctx context.Context, base promptctx.BaseContext) ([]models.ConfigurationWarning, error) {
	prompt := base.Render() + "\nIf the ticket is missing information needed for complete QA documentation " +
		"(e.g. no steps to reproduce, no expected behavior, ambiguous scope), write a JSON array of " +
		"{\"type\":string,\"title\":string,\"message\":string,\"recommendation\":string,\"severity\":\"low\"|\"medium\"|\"high\"}. " +
		"If nothing is missing, respond with an empty JSON array []."

	value, err := a.gw.GenerateObject(ctx, configWarningListValidator{}, prompt, gateway.GenerationOptions{
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.ConfigurationWarning), nil
}

// ── Sub-schemas: every boundary structure passes through a validator;
// these compose schema.unmarshalStrict-backed Validator for the
// array/object shapes this package's sub-calls expect. ──

type ticketSummaryValidator struct{}

func (ticketSummaryValidator) Parse(raw string) (interface{}, []schema.Issue) {
	return schema.ParseStruct[models.TicketSummary](raw, func(v *models.TicketSummary) []schema.Issue {
		var issues []schema.Issue
		if v.Problem == "" {
			issues = append(issues, schema.Issue{Path: "problem", Code: schema.IssueMissing, Message: "problem is required"})
		}
		if v.Solution == "" {
			issues = append(issues, schema.Issue{Path: "solution", Code: schema.IssueMissing, Message: "solution is required"})
		}
		return issues
	})
}

type acceptanceCriteriaListValidator struct{}

func (acceptanceCriteriaListValidator) Parse(raw string) (interface{}, []schema.Issue) {
	return schema.ParseSlice[models.AcceptanceCriterion](raw, func(v *models.AcceptanceCriterion) []schema.Issue {
		var issues []schema.Issue
		if v.Title == "" {
			issues = append(issues, schema.Issue{Path: "title", Code: schema.IssueMissing, Message: "title is required"})
		}
		return issues
	})
}

type testCaseListValidator struct{ format models.TestCaseFormat }

func (v testCaseListValidator) Parse(raw string) (interface{}, []schema.Issue) {
	return schema.ParseSlice[models.TestCase](raw, func(tc *models.TestCase) []schema.Issue {
		tc.Format = v.format
		return nil
	})
}

type configWarningListValidator struct{}

func (configWarningListValidator) Parse(raw string) (interface{}, []schema.Issue) {
	return schema.ParseSlice[models.ConfigurationWarning](raw, func(*models.ConfigurationWarning) []schema.Issue { return nil })
}
