package uncertainty

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

func TestDetectAssumptions_MissingFormatAssumesGherkin(t *testing.T) {
	assumptions := DetectAssumptions(models.QAProfile{}, "please regenerate")
	found := false
	for _, a := range assumptions {
		if a.Field == "test_case_format" && a.Assumption == "gherkin" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectAssumptions_VagueVerbFlagsAmbiguousRequest(t *testing.T) {
	assumptions := DetectAssumptions(models.QAProfile{TestCaseFormat: models.FormatGherkin}, "please improve the test cases")
	found := false
	for _, a := range assumptions {
		if a.Assumption == "ambiguous-request" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectAssumptions_ComprehensiveAndSimpleFlagsConflict(t *testing.T) {
	assumptions := DetectAssumptions(models.QAProfile{TestCaseFormat: models.FormatGherkin}, "make it comprehensive but keep it simple")
	found := false
	for _, a := range assumptions {
		if a.Assumption == "conflict" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectUncertainty_HedgePhraseFlags(t *testing.T) {
	result := DetectUncertainty("I'm not sure this covers every case.")
	assert.True(t, result.Uncertain)
	assert.Contains(t, result.Indicators, "hedge_phrase")
	assert.Less(t, result.ConfidenceScore, 1.0)
}

func TestDetectUncertainty_ConfidentTextHasNoIndicators(t *testing.T) {
	result := DetectUncertainty("The reset link sends an email containing a signed token that expires after one hour.")
	assert.False(t, result.Uncertain)
	assert.Empty(t, result.Indicators)
	assert.Equal(t, 1.0, result.ConfidenceScore)
}
