package regenerator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

func marshalCanvas(c *models.QACanvasDocument) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// applyVersionBump sets updated.Metadata.PreviousVersion to the old
// version, bumps document_version (minor +0.1, or major +1 with minor
// reset to 0 when majorVersion is requested), and derives
// regeneration_reason from the instruction's keywords.
func applyVersionBump(old, updated *models.QACanvasDocument, instruction string, majorVersion bool) {
	prev := old.Metadata.DocumentVersion
	if prev == "" {
		prev = "1.0"
	}
	updated.Metadata.PreviousVersion = prev
	updated.Metadata.DocumentVersion = bumpVersion(prev, majorVersion)
	updated.Metadata.RegenerationReason = deriveRegenerationReason(instruction)
	updated.Metadata.TicketID = old.Metadata.TicketID
	if updated.Metadata.QAProfile == nil {
		updated.Metadata.QAProfile = old.Metadata.QAProfile
	}
}

func bumpVersion(version string, major bool) string {
	majorPart, minorPart := splitVersion(version)
	if major {
		return fmt.Sprintf("%d.0", majorPart+1)
	}
	return fmt.Sprintf("%d.%d", majorPart, minorPart+1)
}

func splitVersion(version string) (int, int) {
	parts := strings.SplitN(version, ".", 2)
	maj, _ := strconv.Atoi(parts[0])
	min := 0
	if len(parts) > 1 {
		min, _ = strconv.Atoi(parts[1])
	}
	return maj, min
}

// regenerationReasonRules maps instruction keywords to a human-readable
// reason, checked in order so the first match wins.
var regenerationReasonRules = []struct {
	keywords []string
	reason   string
}{
	{[]string{"add", "more", "additional"}, "Content addition"},
	{[]string{"change", "update", "modify", "edit"}, "Content modification"},
	{[]string{"improve", "better", "enhance"}, "Quality improvement"},
	{[]string{"fix", "correct", "wrong"}, "Error correction"},
}

func deriveRegenerationReason(instruction string) string {
	lower := strings.ToLower(instruction)
	for _, rule := range regenerationReasonRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reason
			}
		}
	}
	return "User feedback incorporation"
}
