package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/promadgenius/qacanvas/control-plane/internal/apperr"
	"github.com/promadgenius/qacanvas/control-plane/internal/intent"
)

// jsonUpdateCanvasResponse is the non-streaming wire shape shared across
// all four of /api/update-canvas's response types; only the fields
// relevant to the actual resp.Type get populated.
type jsonUpdateCanvasResponse struct {
	Type               string      `json:"type"`
	UpdatedDocument    interface{} `json:"updated_document,omitempty"`
	ChangesSummary     string      `json:"changes_summary,omitempty"`
	TargetSections     []string    `json:"target_sections,omitempty"`
	Questions          interface{} `json:"questions,omitempty"`
	SessionID          string      `json:"session_id,omitempty"`
	Response           string      `json:"response,omitempty"`
	Citations          []string    `json:"citations,omitempty"`
	SuggestedFollowUps []string    `json:"suggested_follow_ups,omitempty"`
}

func writeJSONUpdateCanvasResponse(w http.ResponseWriter, sessionID string, resp *intent.Response) {
	out := jsonUpdateCanvasResponse{Type: resp.Type, SessionID: sessionID}

	switch resp.Type {
	case "modification":
		out.UpdatedDocument = resp.UpdatedDocument
		out.ChangesSummary = resp.ChangesSummary
		out.TargetSections = sectionsToStrings(resp.TargetSections)
	case "clarification":
		out.Questions = resp.Questions
		out.ChangesSummary = resp.ChangesSummary
	case "information":
		out.Response = resp.InformationText
		out.Citations = resp.Citations
		out.SuggestedFollowUps = resp.SuggestedFollowUps
	case "rejection":
		out.ChangesSummary = resp.InformationText
	}

	respondJSON(w, http.StatusOK, out)
}

// sseChunk is one frame of the update-canvas event stream: a
// "data: <json>\n\n" line carrying a kind tag (header, content, citation,
// follow_up, done) and the associated payload.
type sseChunk struct {
	Kind    string `json:"kind"`
	Content string `json:"content,omitempty"`
}

func writeSSEUpdateCanvasResponse(w http.ResponseWriter, requestID, sessionID string, resp *intent.Response) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	emit := func(c sseChunk) {
		b, _ := json.Marshal(c)
		fmt.Fprintf(w, "data: %s\n\n", b)
		if canFlush {
			flusher.Flush()
		}
	}

	emit(sseChunk{Kind: "header", Content: fmt.Sprintf(`{"type":%q,"session_id":%q,"request_id":%q}`, resp.Type, sessionID, requestID)})

	switch resp.Type {
	case "clarification":
		for _, q := range resp.Questions {
			b, _ := json.Marshal(q)
			emit(sseChunk{Kind: "content", Content: string(b)})
		}
	case "information":
		emit(sseChunk{Kind: "content", Content: resp.InformationText})
		for _, c := range resp.Citations {
			emit(sseChunk{Kind: "citation", Content: c})
		}
		for _, f := range resp.SuggestedFollowUps {
			emit(sseChunk{Kind: "follow_up", Content: f})
		}
	}

	emit(sseChunk{Kind: "done"})
}

// writeSSEError streams e as the terminal error chunk instead of a plain
// JSON error body, for a client that asked for text/event-stream up front
// and so never gets a chance to see a non-SSE response.
func writeSSEError(w http.ResponseWriter, requestID string, e *apperr.Error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	b, _ := json.Marshal(e.ToSSEChunk(requestID))
	fmt.Fprintf(w, "data: %s\n\n", b)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func sectionsToStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
