// Package regenerator implements the Canvas Regenerator: every accepted
// modify_canvas turn rewrites the whole QACanvasDocument rather than
// patching it in place, then derives a deterministic diff against the
// previous version for the caller's changes_summary.
//
// A single generate_object call produces the rewritten document (unlike
// the Analyzer's four parallel sub-calls); on failure the original canvas
// is returned untouched rather than substituting a placeholder, since a
// failed regeneration should never silently discard the user's prior
// canvas.
package regenerator

import (
	"context"
	"fmt"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

type Regenerator struct {
	gw *gateway.Gateway
}

func New(gw *gateway.Gateway) *Regenerator {
	return &Regenerator{gw: gw}
}

// Regenerate rewrites canvas per instruction, targeting targetSections
// (already expanded for dependency cascades by the Intent Engine). On any
// generation or validation failure it returns the ORIGINAL canvas
// unmodified alongside a descriptive error — the caller must not treat
// this as a partial result the way the Analyzer does.
func (r *Regenerator) Regenerate(ctx context.Context, canvas *models.QACanvasDocument, instruction string, targetSections []models.CanvasSection, majorVersion bool) (*models.QACanvasDocument, []models.CanvasChange, error) {
	if canvas == nil {
		return nil, nil, fmt.Errorf("regeneration_failed: no canvas to regenerate")
	}

	prompt := buildRegenerationPrompt(canvas, instruction, targetSections)

	result, err := r.gw.GenerateObject(ctx, schema.CanvasValidator{}, prompt, gateway.GenerationOptions{
		Temperature: 0.2,
		MaxTokens:   4096,
	})
	if err != nil {
		return canvas, nil, fmt.Errorf("regeneration_failed: %w", err)
	}
	updated, ok := result.(*models.QACanvasDocument)
	if !ok {
		return canvas, nil, fmt.Errorf("regeneration_failed: unexpected result type %T", result)
	}

	applyVersionBump(canvas, updated, instruction, majorVersion)
	changes := Diff(canvas, updated)

	return updated, changes, nil
}

func buildRegenerationPrompt(canvas *models.QACanvasDocument, instruction string, targetSections []models.CanvasSection) string {
	sectionsHint := "all sections"
	if len(targetSections) > 0 {
		sectionsHint = ""
		for i, s := range targetSections {
			if i > 0 {
				sectionsHint += ", "
			}
			sectionsHint += string(s)
		}
	}

	canvasJSON, _ := marshalCanvas(canvas)

	return fmt.Sprintf(
		"Rewrite the entire QA canvas document below to satisfy this instruction: %q\n"+
			"Focus changes on: %s. Preserve the existing id values for any acceptance_criteria or "+
			"test_cases entries whose content is unaffected by the instruction — only assign new ids "+
			"to genuinely new entries. Respond with the complete QACanvasDocument JSON, not a patch.\n\n"+
			"Current document:\n%s",
		instruction, sectionsHint, canvasJSON,
	)
}
