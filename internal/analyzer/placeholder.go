package analyzer

import "github.com/promadgenius/qacanvas/control-plane/pkg/models"

// placeholderTicketSummary is the synthetic fallback used when the
// ticket_summary sub-call fails after retries.
func placeholderTicketSummary() models.TicketSummary {
	return models.TicketSummary{
		Problem:  "Unable to generate a problem statement automatically; manual review required.",
		Solution: "Unable to generate a solution summary automatically; manual review required.",
		Context:  "Generation degraded — see configuration_warnings for details.",
	}
}

// placeholderCriterion is the single synthetic acceptance criterion
// emitted when the acceptance_criteria sub-call fails after retries.
func placeholderCriterion() models.AcceptanceCriterion {
	return models.AcceptanceCriterion{
		Title:       "[Degraded] Acceptance criteria generation failed",
		Description: "The automatic acceptance-criteria generation degraded; add criteria manually.",
		Priority:    models.PriorityMust,
		Category:    "functional",
		Testable:    false,
	}
}

// placeholderTestCase is the single synthetic test case emitted when the
// test_cases sub-call fails after retries, carrying a title that clearly
// flags the degradation to a reader of the canvas.
func placeholderTestCase(format models.TestCaseFormat) models.TestCase {
	switch format {
	case models.FormatGherkin:
		return models.TestCase{
			Format:   models.FormatGherkin,
			Priority: models.TestCasePriorityLow,
			Scenario: "[Degraded] Test case generation failed",
			Given:    []string{"test case generation degraded"},
			When:     []string{"the system attempted to generate test cases"},
			Then:     []string{"a placeholder was substituted — add test cases manually"},
		}
	case models.FormatTable:
		return models.TestCase{
			Format:          models.FormatTable,
			Priority:        models.TestCasePriorityLow,
			Title:           "[Degraded] Test case generation failed",
			Description:     "Automatic test case generation degraded after retries.",
			ExpectedOutcome: "Add test cases manually.",
		}
	default:
		return models.TestCase{
			Format:   models.FormatSteps,
			Priority: models.TestCasePriorityLow,
			Title:    "[Degraded] Test case generation failed",
			Steps: []models.TestStep{
				{StepNumber: 1, Action: "review the ticket manually", ExpectedResult: "add test cases by hand"},
			},
		}
	}
}
