// Package apperr implements the error taxonomy and HTTP surface: a closed
// set of typed error kinds, each carrying enough context to render a
// stable JSON response shape, and the HTTP helpers that write it.
//
// Errors from internal components (provider failures, validation
// failures) get translated into one of these kinds at the boundary rather
// than leaking provider-specific error strings to clients.
package apperr

import (
	"encoding/json"
	"net/http"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
)

// Kind is the closed set of internal error kinds the HTTP boundary
// recognizes.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindAIGeneration    Kind = "ai_generation"
	KindRateLimited     Kind = "rate_limited"
	KindContextLimit    Kind = "context_limit"
	KindAuthConfig      Kind = "auth_config"
	KindTimeout         Kind = "timeout"
	KindContentFilter   Kind = "content_filter"
	KindProviderOutage  Kind = "provider_outage"
	KindCircuitOpenAll  Kind = "circuit_open_all"
	KindFailoverExhaust Kind = "failover_exhausted"
	KindNotFound        Kind = "not_found"
	KindInternal        Kind = "internal"
)

// statusByKind maps each kind to the HTTP status the boundary returns.
var statusByKind = map[Kind]int{
	KindValidation:      http.StatusBadRequest,
	KindAIGeneration:    http.StatusBadGateway,
	KindRateLimited:     http.StatusTooManyRequests,
	KindContextLimit:    http.StatusRequestEntityTooLarge,
	KindAuthConfig:      http.StatusUnauthorized,
	KindTimeout:         http.StatusGatewayTimeout,
	KindContentFilter:   http.StatusUnprocessableEntity,
	KindProviderOutage:  http.StatusBadGateway,
	KindCircuitOpenAll:  http.StatusServiceUnavailable,
	KindFailoverExhaust: http.StatusServiceUnavailable,
	KindNotFound:        http.StatusNotFound,
	KindInternal:        http.StatusInternalServerError,
}

// retryableByKind flags kinds where a client retry has a realistic chance
// of succeeding (rate limits, timeouts, transient provider outages);
// configuration and content-filter failures are not retryable.
var retryableByKind = map[Kind]bool{
	KindRateLimited:     true,
	KindTimeout:         true,
	KindProviderOutage:  true,
	KindCircuitOpenAll:  true,
	KindFailoverExhaust: true,
}

// Error is the typed error carried from any internal component to the
// HTTP boundary. It is never constructed with a request_id — that is
// passed to Write from the inbound request's chi RequestID.
type Error struct {
	Kind        Kind
	Message     string
	Retryable   bool
	RetryAfterS int
	Provider    string
	Model       string
	Suggestions []string
	Details     interface{}
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind, defaulting Retryable from the
// kind's taxonomy entry (callers can still override it afterward).
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Retryable: retryableByKind[kind]}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.cause = cause
	return e
}

// FromProviderError translates a gateway.ProviderError (the provider
// gateway's normalized failure category) into the HTTP-facing taxonomy.
func FromProviderError(pe *gateway.ProviderError) *Error {
	if pe == nil {
		return New(KindInternal, "unknown provider error")
	}
	e := &Error{Provider: pe.Provider, Model: pe.Model, RetryAfterS: pe.RetryAfterS, cause: pe.Err}
	switch pe.Category {
	case gateway.CategoryRateLimited:
		e.Kind, e.Message = KindRateLimited, "the provider is rate-limiting requests"
	case gateway.CategoryContextLimit:
		e.Kind, e.Message = KindContextLimit, "the request exceeds the provider's context window"
	case gateway.CategoryAuth:
		e.Kind, e.Message = KindAuthConfig, "the provider rejected the configured credentials"
	case gateway.CategoryTimeout:
		e.Kind, e.Message = KindTimeout, "the provider call timed out"
	case gateway.CategoryContentFilter:
		e.Kind, e.Message = KindContentFilter, "the provider's content filter rejected the request"
	case gateway.CategoryTransientNetwork:
		e.Kind, e.Message = KindProviderOutage, "the provider is temporarily unreachable"
	default:
		e.Kind, e.Message = KindAIGeneration, "the provider returned an unexpected error"
	}
	e.Retryable = retryableByKind[e.Kind]
	return e
}

// FromValidationError builds a kind=validation Error carrying the
// validator's grouped issues as Details. Validation errors are recovered
// at the HTTP boundary only — internal components return them untouched.
func FromValidationError(ve *schema.ValidationError) *Error {
	if ve == nil {
		return New(KindValidation, "request failed validation")
	}
	e := New(KindValidation, "request failed validation")
	e.Details = map[string]interface{}{"issues": ve.Issues}
	return e
}

// Status returns the HTTP status code this error's kind maps to.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// response is the wire shape returned on every error response.
type response struct {
	Error       string      `json:"error"`
	Message     string      `json:"message"`
	RequestID   string      `json:"request_id"`
	Retryable   bool        `json:"retryable"`
	RetryAfterS int         `json:"retry_after_s,omitempty"`
	Provider    string      `json:"provider,omitempty"`
	Model       string      `json:"model,omitempty"`
	Suggestions []string    `json:"suggestions"`
	Details     interface{} `json:"details,omitempty"`
}

// Write renders e as the stable HTTP error response. requestID is
// normally lifted from chi's middleware.RequestID context value by the
// caller.
func Write(w http.ResponseWriter, requestID string, e *Error) {
	if e == nil {
		e = New(KindInternal, "unknown error")
	}
	suggestions := e.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	json.NewEncoder(w).Encode(response{
		Error:       string(e.Kind),
		Message:     e.Message,
		RequestID:   requestID,
		Retryable:   e.Retryable,
		RetryAfterS: e.RetryAfterS,
		Provider:    e.Provider,
		Model:       e.Model,
		Suggestions: suggestions,
		Details:     e.Details,
	})
}

// SSEChunk is the terminal {kind:"error",...} chunk an SSE stream emits
// before closing, matching the envelope shape the other chunk kinds
// (header/content/citation/follow_up/done) use.
type SSEChunk struct {
	Kind        string   `json:"kind"`
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	RequestID   string   `json:"request_id"`
	Retryable   bool     `json:"retryable"`
	Suggestions []string `json:"suggestions"`
}

// ToSSEChunk renders e as the terminal SSE error chunk.
func (e *Error) ToSSEChunk(requestID string) SSEChunk {
	suggestions := e.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return SSEChunk{
		Kind:        "error",
		Error:       string(e.Kind),
		Message:     e.Message,
		RequestID:   requestID,
		Retryable:   e.Retryable,
		Suggestions: suggestions,
	}
}
