package regenerator

import "github.com/promadgenius/qacanvas/control-plane/pkg/models"

// Diff is a pure function comparing old and updated canvases section by
// section and returning a deterministic list of changes: diffing the same
// two documents twice always yields the same change list.
func Diff(old, updated *models.QACanvasDocument) []models.CanvasChange {
	var changes []models.CanvasChange

	if old.TicketSummary != updated.TicketSummary {
		changes = append(changes, models.CanvasChange{
			Section: models.SectionTicketSummary, ChangeType: models.ChangeModified,
			Description: "Ticket summary updated.",
			OldValue:    old.TicketSummary, NewValue: updated.TicketSummary,
		})
	}

	changes = append(changes, diffAcceptanceCriteria(old.AcceptanceCriteria, updated.AcceptanceCriteria)...)
	changes = append(changes, diffTestCases(old.TestCases, updated.TestCases)...)

	if len(old.ConfigurationWarnings) != len(updated.ConfigurationWarnings) {
		changes = append(changes, models.CanvasChange{
			Section: models.SectionConfigurationWarnings, ChangeType: models.ChangeModified,
			Description: "Configuration warnings changed.",
		})
	}

	return changes
}

func diffAcceptanceCriteria(old, updated []models.AcceptanceCriterion) []models.CanvasChange {
	oldByID := make(map[string]models.AcceptanceCriterion, len(old))
	for _, ac := range old {
		oldByID[ac.ID] = ac
	}
	seen := make(map[string]bool, len(updated))

	var changes []models.CanvasChange
	for _, ac := range updated {
		seen[ac.ID] = true
		prior, existed := oldByID[ac.ID]
		switch {
		case !existed:
			changes = append(changes, models.CanvasChange{
				Section: models.SectionAcceptanceCriteria, ChangeType: models.ChangeAdded,
				Description: "Added acceptance criterion: " + ac.Title, NewValue: ac,
			})
		case prior != ac:
			changes = append(changes, models.CanvasChange{
				Section: models.SectionAcceptanceCriteria, ChangeType: models.ChangeModified,
				Description: "Modified acceptance criterion: " + ac.Title, OldValue: prior, NewValue: ac,
			})
		default:
			changes = append(changes, models.CanvasChange{
				Section: models.SectionAcceptanceCriteria, ChangeType: models.ChangePreserved,
				Description: "Unchanged acceptance criterion: " + ac.Title, NewValue: ac,
			})
		}
	}
	for _, o := range old {
		if !seen[o.ID] {
			seen[o.ID] = true
			ac := oldByID[o.ID]
			changes = append(changes, models.CanvasChange{
				Section: models.SectionAcceptanceCriteria, ChangeType: models.ChangeRemoved,
				Description: "Removed acceptance criterion: " + ac.Title, OldValue: ac,
			})
		}
	}
	return changes
}

func diffTestCases(old, updated []models.TestCase) []models.CanvasChange {
	oldByID := make(map[string]models.TestCase, len(old))
	for _, tc := range old {
		oldByID[tc.ID] = tc
	}
	seen := make(map[string]bool, len(updated))

	var changes []models.CanvasChange
	for _, tc := range updated {
		seen[tc.ID] = true
		prior, existed := oldByID[tc.ID]
		label := tc.TextBlob()
		switch {
		case !existed:
			changes = append(changes, models.CanvasChange{
				Section: models.SectionTestCases, ChangeType: models.ChangeAdded,
				Description: "Added test case: " + label, NewValue: tc,
			})
		case !sameTestCase(prior, tc):
			changes = append(changes, models.CanvasChange{
				Section: models.SectionTestCases, ChangeType: models.ChangeModified,
				Description: "Modified test case: " + label, OldValue: prior, NewValue: tc,
			})
		default:
			changes = append(changes, models.CanvasChange{
				Section: models.SectionTestCases, ChangeType: models.ChangePreserved,
				Description: "Unchanged test case: " + label, NewValue: tc,
			})
		}
	}
	for _, o := range old {
		if !seen[o.ID] {
			seen[o.ID] = true
			tc := oldByID[o.ID]
			changes = append(changes, models.CanvasChange{
				Section: models.SectionTestCases, ChangeType: models.ChangeRemoved,
				Description: "Removed test case: " + tc.TextBlob(), OldValue: tc,
			})
		}
	}
	return changes
}

// sameTestCase compares by value, falling back to text-blob comparison
// since TestCase contains slice fields and is not directly comparable.
func sameTestCase(a, b models.TestCase) bool {
	if a.Format != b.Format || a.Priority != b.Priority || a.TextBlob() != b.TextBlob() {
		return false
	}
	return len(a.Steps) == len(b.Steps) && len(a.Given) == len(b.Given) &&
		len(a.When) == len(b.When) && len(a.Then) == len(b.Then)
}
