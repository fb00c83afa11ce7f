// Package promptctx builds the shared prompt context used by the Canvas
// Analyzer, Intent Engine, Canvas Regenerator, and Suggestion Engine.
//
// A single immutable GenerationRequest struct carries ticket, profile,
// conversation window, session id, and an injected Provider Gateway
// handle, assembled by pure functions rather than runtime composition.
package promptctx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

const (
	maxRecentComments  = 3
	maxCommentBodyRune = 500
)

// GenerationRequest is the immutable bundle every AI-backed component
// builds a prompt from.
type GenerationRequest struct {
	Ticket              models.Ticket
	Profile             models.QAProfile
	ConversationHistory []models.ChatMessage
	SessionID           string
	Gateway             *gateway.Gateway
}

// BaseContext is the trimmed, deterministic view of a ticket + profile fed
// into every sub-generation prompt: recent comments capped at 3 and
// truncated per-body, a custom-field head, the active category list, and
// the active test-case format.
type BaseContext struct {
	IssueKey         string
	Summary          string
	Description      string
	Status           string
	Priority         string
	IssueType        string
	Components       []string
	RecentComments   []models.Comment
	CustomFieldsHead map[string]interface{}
	ActiveCategories []string
	Format           models.TestCaseFormat
}

// BuildBaseContext derives a BaseContext from a ticket and profile. It is a
// pure function: same inputs always yield the same trimmed context. The
// custom-field head is the first five custom fields in sorted key order.
func BuildBaseContext(t models.Ticket, p models.QAProfile) BaseContext {
	comments := t.Comments
	if len(comments) > maxRecentComments {
		comments = comments[len(comments)-maxRecentComments:]
	}
	trimmed := make([]models.Comment, len(comments))
	for i, c := range comments {
		c.Body = truncateRunes(c.Body, maxCommentBodyRune)
		trimmed[i] = c
	}

	const customFieldHeadSize = 5
	keys := make([]string, 0, len(t.CustomFields))
	for k := range t.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > customFieldHeadSize {
		keys = keys[:customFieldHeadSize]
	}
	head := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		head[k] = t.CustomFields[k]
	}

	format := p.TestCaseFormat
	if format == "" {
		format = models.FormatGherkin
	}

	return BaseContext{
		IssueKey:         t.IssueKey,
		Summary:          t.Summary,
		Description:      t.Description,
		Status:           t.Status,
		Priority:         t.Priority,
		IssueType:        t.IssueType,
		Components:       t.Components,
		RecentComments:   trimmed,
		CustomFieldsHead: head,
		ActiveCategories: p.ActiveCategories(),
		Format:           format,
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

// Render renders the base context into the plain-text block every
// sub-generation prompt prefixes itself with.
func (c BaseContext) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket %s: %s\n", c.IssueKey, c.Summary)
	fmt.Fprintf(&b, "Status: %s | Priority: %s | Type: %s\n", c.Status, c.Priority, c.IssueType)
	if len(c.Components) > 0 {
		fmt.Fprintf(&b, "Components: %s\n", strings.Join(c.Components, ", "))
	}
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	if len(c.RecentComments) > 0 {
		b.WriteString("Recent comments:\n")
		for _, cm := range c.RecentComments {
			fmt.Fprintf(&b, "  - %s: %s\n", cm.Author, cm.Body)
		}
	}
	if len(c.CustomFieldsHead) > 0 {
		b.WriteString("Custom fields:\n")
		for k, v := range c.CustomFieldsHead {
			fmt.Fprintf(&b, "  %s: %v\n", k, v)
		}
	}
	fmt.Fprintf(&b, "Active QA categories: %s\n", strings.Join(c.ActiveCategories, ", "))
	fmt.Fprintf(&b, "Test case format: %s\n", c.Format)
	return b.String()
}
