package regenerator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

func TestDiff_AcceptanceCriteria_AddedModifiedPreservedRemoved(t *testing.T) {
	old := &models.QACanvasDocument{
		AcceptanceCriteria: []models.AcceptanceCriterion{
			{ID: "ac-1", Title: "Unchanged criterion", Priority: models.PriorityMust},
			{ID: "ac-2", Title: "Old wording", Priority: models.PriorityShould},
			{ID: "ac-3", Title: "Dropped criterion", Priority: models.PriorityCould},
		},
	}
	updated := &models.QACanvasDocument{
		AcceptanceCriteria: []models.AcceptanceCriterion{
			{ID: "ac-1", Title: "Unchanged criterion", Priority: models.PriorityMust},
			{ID: "ac-2", Title: "New wording", Priority: models.PriorityShould},
			{ID: "ac-4", Title: "New criterion", Priority: models.PriorityMust},
		},
	}

	changes := Diff(old, updated)

	byType := map[models.ChangeType]int{}
	for _, c := range changes {
		if c.Section == models.SectionAcceptanceCriteria {
			byType[c.ChangeType]++
		}
	}
	assert.Equal(t, 1, byType[models.ChangeAdded])
	assert.Equal(t, 1, byType[models.ChangeModified])
	assert.Equal(t, 1, byType[models.ChangePreserved])
	assert.Equal(t, 1, byType[models.ChangeRemoved])
}

func TestDiff_TestCases_Preserved(t *testing.T) {
	tc := models.TestCase{ID: "tc-1", Format: models.FormatSteps, Title: "Login works",
		Steps: []models.TestStep{{StepNumber: 1, Action: "a", ExpectedResult: "r"}}}
	old := &models.QACanvasDocument{TestCases: []models.TestCase{tc}}
	updated := &models.QACanvasDocument{TestCases: []models.TestCase{tc}}

	changes := Diff(old, updated)

	assert.Len(t, changes, 1)
	assert.Equal(t, models.ChangePreserved, changes[0].ChangeType)
	assert.Equal(t, models.SectionTestCases, changes[0].Section)
}
