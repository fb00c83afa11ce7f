// Package gateway implements a small library shared by the Canvas
// Analyzer, Intent Engine, Canvas Regenerator, and Suggestion Engine that
// multiplexes generative-model calls over multiple providers with circuit
// breakers, retry/backoff, health tracking, and unified generate_object /
// generate_text / stream_text verbs.
//
// A provider table fixed when New builds the Gateway handles
// priority-ordered provider selection and per-call latency tracking, backed by an explicit
// circuit-breaker state machine and a normalized error taxonomy.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/promadgenius/qacanvas/control-plane/internal/config"
	"github.com/promadgenius/qacanvas/control-plane/internal/schema"
	"github.com/rs/zerolog/log"
)

// StreamChunk is one piece of a stream_text response.
type StreamChunk struct {
	Text string
	Done bool
}

// ToolDescriptor describes one callable tool made available to a model:
// its name mapped to a description and a JSON parameters schema.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// GenerationOptions carries the per-call knobs every verb accepts.
type GenerationOptions struct {
	System      string
	Temperature float64
	MaxTokens   int
	Tools       map[string]ToolDescriptor
	Timeout     time.Duration
}

// TextResult is the result of generate_text.
type TextResult struct {
	Text      string
	ToolCalls []ToolCall
}

type ToolCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// Driver is the interface every provider integration implements.
type Driver interface {
	Kind() string
	GenerateText(ctx context.Context, model, prompt string, opts GenerationOptions) (*TextResult, error)
}

// StreamingDriver is an OPTIONAL capability, checked at runtime via a type
// assertion rather than being part of the base Driver interface.
type StreamingDriver interface {
	Driver
	StreamText(ctx context.Context, model, prompt string, opts GenerationOptions, onChunk func(StreamChunk) error) error
}

// providerEntry is one row of the priority-ordered provider table.
type providerEntry struct {
	name    string
	model   string
	timeout time.Duration
	weight  int
	driver  Driver
}

// Gateway is the Provider Gateway.
type Gateway struct {
	providers       []providerEntry
	health          *HealthStore
	sink            EventSink
	maxRetries      int
	retryDelay      time.Duration
	disableFailover bool
}

// New builds a Gateway wired with the two built-in providers from cfg.
func New(cfg *config.GatewayConfig, sink EventSink) (*Gateway, error) {
	gw := &Gateway{
		health:          NewHealthStore(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerResetTimeout),
		sink:            sink,
		maxRetries:      cfg.MaxRetries,
		retryDelay:      cfg.RetryDelay,
		disableFailover: cfg.DisableFailover,
	}

	primary, err := newDriver(cfg.Primary.Kind, cfg.Primary.APIKey, cfg.Primary.Endpoint, cfg.ObservabilityProxy)
	if err != nil {
		return nil, fmt.Errorf("gateway: primary provider: %w", err)
	}
	gw.providers = append(gw.providers, providerEntry{
		name: "primary", model: cfg.Primary.Model, timeout: cfg.Primary.Timeout, weight: 10, driver: primary,
	})

	if cfg.Secondary.APIKey != "" {
		secondary, err := newDriver(cfg.Secondary.Kind, cfg.Secondary.APIKey, cfg.Secondary.Endpoint, cfg.ObservabilityProxy)
		if err != nil {
			return nil, fmt.Errorf("gateway: secondary provider: %w", err)
		}
		gw.providers = append(gw.providers, providerEntry{
			name: "secondary", model: cfg.Secondary.Model, timeout: cfg.Secondary.Timeout, weight: 5, driver: secondary,
		})
	}

	sort.Slice(gw.providers, func(i, j int) bool { return gw.providers[i].weight > gw.providers[j].weight })
	log.Info().Int("providers", len(gw.providers)).Msg("✅ Provider Gateway initialized")
	return gw, nil
}

func newDriver(kind, apiKey, endpoint string, proxy *config.ProxyConfig) (Driver, error) {
	switch kind {
	case "anthropic":
		return NewAnthropicDriver(apiKey, endpoint, proxy), nil
	case "openai":
		return NewOpenAIDriver(apiKey, endpoint, proxy), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
}

// orderedProviders returns the priority-ordered, circuit-available subset.
// If disableFailover is set, only the highest-weight (primary) provider is
// considered.
func (gw *Gateway) orderedProviders() []providerEntry {
	candidates := gw.providers
	if gw.disableFailover && len(candidates) > 0 {
		candidates = candidates[:1]
	}
	var out []providerEntry
	for _, p := range candidates {
		if gw.health.Available(p.name) {
			out = append(out, p)
		}
	}
	return out
}

// Reset forces a provider's circuit closed.
func (gw *Gateway) Reset(name string) { gw.health.Reset(name) }

// ResetAll forces every provider's circuit closed.
func (gw *Gateway) ResetAll() { gw.health.ResetAll() }

// ProviderHealth returns a snapshot of every tracked provider.
func (gw *Gateway) ProviderHealth() []ProviderHealthView {
	raw := gw.health.Snapshot()
	out := make([]ProviderHealthView, len(raw))
	for i, h := range raw {
		out[i] = ProviderHealthView{
			Name: h.Name, Available: h.Available, FailureCount: h.FailureCount,
			CircuitOpen: h.CircuitOpen,
		}
	}
	return out
}

// ProviderHealthView is the read-only shape returned by GET /api/provider-health.
type ProviderHealthView struct {
	Name         string `json:"name"`
	Available    bool   `json:"available"`
	FailureCount int    `json:"failure_count"`
	CircuitOpen  bool   `json:"circuit_open"`
}

// attempt runs fn against providers in priority order. After one full pass
// of the provider list fails, it waits initial_delay·backoff_factor^attempt
// (via cenkalti/backoff's exponential policy) and restarts the iteration,
// up to max_retries+1 total passes. requestID/opKind are used only for
// observability events.
func (gw *Gateway) attempt(ctx context.Context, requestID, opKind string, fn func(context.Context, providerEntry) error) error {
	retryIndex := 0
	var lastErr error

	pass := func() error {
		providers := gw.orderedProviders()
		if len(providers) == 0 {
			lastErr = fmt.Errorf("%s: all provider circuits open", opKind)
			return lastErr
		}
		for _, p := range providers {
			callCtx := ctx
			var cancel context.CancelFunc
			if p.timeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, p.timeout)
			}
			start := time.Now()
			err := fn(callCtx, p)
			if cancel != nil {
				cancel()
			}
			latency := time.Since(start).Milliseconds()

			if err == nil {
				gw.health.RecordSuccess(p.name)
				gw.emit(Event{RequestID: requestID, Provider: p.name, Model: p.model, Outcome: "success", LatencyMs: latency, RetryIndex: retryIndex})
				return nil
			}

			pe := classify(p.name, p.model, 0, err)
			if pe.Category.CountsAgainstCircuit() {
				gw.health.RecordFailure(p.name)
			}
			gw.emit(Event{RequestID: requestID, Provider: p.name, Model: p.model, Outcome: "failure", LatencyMs: latency, RetryIndex: retryIndex})
			log.Warn().Str("provider", p.name).Str("category", string(pe.Category)).Err(err).Msg("provider call failed, trying next")
			lastErr = pe
		}
		retryIndex++
		return lastErr
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = gw.retryDelay
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(gw.maxRetries)), ctx)

	if err := backoff.Retry(pass, policy); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}

// GenerateText implements the generate_text verb. When opts.Tools is
// non-empty, the prompt is extended with a description of each tool and an
// instruction to respond with a {"tool_calls": [...]} JSON block instead of
// relying on a provider-specific tool-calling API; the response text is
// then parsed back into TextResult.ToolCalls.
func (gw *Gateway) GenerateText(ctx context.Context, prompt string, opts GenerationOptions) (*TextResult, error) {
	if len(opts.Tools) > 0 {
		prompt = appendToolInstructions(prompt, opts.Tools)
	}

	requestID := uuid.New().String()
	var result *TextResult
	err := gw.attempt(ctx, requestID, "generate_text", func(ctx context.Context, p providerEntry) error {
		r, err := p.driver.GenerateText(ctx, p.model, prompt, opts)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(opts.Tools) > 0 && len(result.ToolCalls) == 0 {
		result.ToolCalls = extractToolCalls(result.Text)
	}
	return result, nil
}

// appendToolInstructions describes the available tools and the expected
// response envelope, since drivers call chat-completion style APIs without
// a shared native tool-calling representation.
func appendToolInstructions(prompt string, tools map[string]ToolDescriptor) string {
	list := "\n\nAvailable tools:\n"
	for name, t := range tools {
		list += fmt.Sprintf("- %s: %s\n", name, t.Description)
	}
	list += "\nTo use a tool, respond with a JSON block: {\"tool_calls\": [{\"name\": \"tool_name\", \"args\": {...}}]}"
	return prompt + list
}

// extractToolCalls parses a {"tool_calls": [...]} envelope out of a
// driver's raw text response. Returns nil when the response carries no
// such envelope — a model is free to answer without invoking any tool.
func extractToolCalls(text string) []ToolCall {
	if text == "" {
		return nil
	}
	var wrapper struct {
		ToolCalls []ToolCall `json:"tool_calls"`
	}
	if err := json.Unmarshal([]byte(schema.Normalize(text)), &wrapper); err != nil {
		return nil
	}
	return wrapper.ToolCalls
}

// GenerateObject implements the generate_object verb: generate_text bound to
// a strict prompt demanding JSON, then schema-validated.
func (gw *Gateway) GenerateObject(ctx context.Context, validator schema.Validator, prompt string, opts GenerationOptions) (interface{}, error) {
	strictPrompt := prompt + "\n\nRespond with a single JSON value only, matching the required shape exactly. Do not include prose or explanation."
	res, err := gw.GenerateText(ctx, strictPrompt, opts)
	if err != nil {
		return nil, err
	}
	value, issues := validator.Parse(res.Text)
	if len(issues) > 0 {
		return nil, fmt.Errorf("generate_object: schema validation failed: %v", issues)
	}
	return value, nil
}

// StreamText implements the stream_text verb, trying providers in order:
// a provider whose driver supports streaming streams natively, and any
// other provider's GenerateText result is delivered as one terminal chunk.
func (gw *Gateway) StreamText(ctx context.Context, prompt string, opts GenerationOptions, onChunk func(StreamChunk) error) error {
	requestID := uuid.New().String()
	providers := gw.orderedProviders()
	var lastErr error
	for _, p := range providers {
		callCtx := ctx
		var cancel context.CancelFunc
		if p.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		}
		start := time.Now()
		var err error
		if sd, ok := p.driver.(StreamingDriver); ok {
			err = sd.StreamText(callCtx, p.model, prompt, opts, onChunk)
		} else {
			var r *TextResult
			r, err = p.driver.GenerateText(callCtx, p.model, prompt, opts)
			if err == nil {
				err = onChunk(StreamChunk{Text: r.Text, Done: true})
			}
		}
		if cancel != nil {
			cancel()
		}
		latency := time.Since(start).Milliseconds()
		if err == nil {
			gw.health.RecordSuccess(p.name)
			gw.emit(Event{RequestID: requestID, Provider: p.name, Model: p.model, Outcome: "success", LatencyMs: latency})
			return nil
		}
		pe := classify(p.name, p.model, 0, err)
		if pe.Category.CountsAgainstCircuit() {
			gw.health.RecordFailure(p.name)
		}
		gw.emit(Event{RequestID: requestID, Provider: p.name, Model: p.model, Outcome: "failure", LatencyMs: latency})
		lastErr = pe
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("stream_text: all provider circuits open")
	}
	return lastErr
}

func (gw *Gateway) emit(e Event) {
	if gw.sink == nil {
		return
	}
	e.At = time.Now().UTC()
	gw.sink.Emit(e)
}
