package apperr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
)

func TestFromProviderError_RateLimitedIsRetryableWithStatus429(t *testing.T) {
	pe := &gateway.ProviderError{Category: gateway.CategoryRateLimited, Provider: "primary", RetryAfterS: 2}
	e := FromProviderError(pe)
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.True(t, e.Retryable)
	assert.Equal(t, http.StatusTooManyRequests, e.Status())
	assert.Equal(t, 2, e.RetryAfterS)
}

func TestFromProviderError_AuthIsNotRetryable(t *testing.T) {
	pe := &gateway.ProviderError{Category: gateway.CategoryAuth, Provider: "primary"}
	e := FromProviderError(pe)
	assert.Equal(t, KindAuthConfig, e.Kind)
	assert.False(t, e.Retryable)
}

func TestFromValidationError_CarriesIssuesAsDetails(t *testing.T) {
	ve := &schema.ValidationError{Issues: []schema.Issue{{Path: "qa_profile.test_case_format", Code: schema.IssueInvalidEnum, Message: "bad"}}}
	e := FromValidationError(ve)
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, http.StatusBadRequest, e.Status())
	require.NotNil(t, e.Details)
}

func TestWrite_RendersStableResponseShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, "req-123", New(KindTimeout, "provider call timed out"))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var body response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "timeout", body.Error)
	assert.Equal(t, "req-123", body.RequestID)
	assert.True(t, body.Retryable)
	assert.NotNil(t, body.Suggestions)
}

func TestToSSEChunk_SetsErrorKind(t *testing.T) {
	e := New(KindContentFilter, "rejected")
	chunk := e.ToSSEChunk("req-9")
	assert.Equal(t, "error", chunk.Kind)
	assert.Equal(t, "content_filter", chunk.Error)
	assert.False(t, chunk.Retryable)
}
