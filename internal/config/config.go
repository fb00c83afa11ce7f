// Package config loads the service's environment-variable configuration.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the QA canvas control plane.
type Config struct {
	Port      int
	Version   string
	Telemetry TelemetryConfig
	Gateway   GatewayConfig
	Session   SessionConfig
	CORS      CORSConfig
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// ProviderCredentials carries the opaque connection details for one of the
// two built-in providers (primary/secondary).
type ProviderCredentials struct {
	Kind     string // "anthropic" | "openai"
	Model    string
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// ProxyConfig is the optional process-wide observability proxy: when set,
// provider drivers route through it instead of calling the provider's
// direct endpoint.
type ProxyConfig struct {
	BaseURL string
	APIKey  string
}

type GatewayConfig struct {
	CircuitBreakerThreshold    int
	CircuitBreakerResetTimeout time.Duration
	MaxRetries                 int
	RetryDelay                 time.Duration
	DisableFailover            bool
	Primary                    ProviderCredentials
	Secondary                  ProviderCredentials
	ObservabilityProxy         *ProxyConfig
}

type SessionConfig struct {
	TTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables with the defaults
// named in the external interfaces spec.
func Load() *Config {
	var proxy *ProxyConfig
	if base := envStr("OBSERVABILITY_PROXY_URL", ""); base != "" {
		proxy = &ProxyConfig{BaseURL: base, APIKey: envStr("OBSERVABILITY_PROXY_API_KEY", "")}
	}

	model := envStr("AI_MODEL", "claude-3-5-haiku-20241022")

	return &Config{
		Port:    envInt("QACANVAS_PORT", 8080),
		Version: envStr("QACANVAS_VERSION", "0.1.0"),
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", true),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "qacanvas-control-plane"),
		},
		Gateway: GatewayConfig{
			CircuitBreakerThreshold:    envInt("CIRCUIT_BREAKER_THRESHOLD", 5),
			CircuitBreakerResetTimeout: envSeconds("CIRCUIT_BREAKER_RESET_TIMEOUT", 60*time.Second),
			MaxRetries:                 envInt("MAX_RETRIES", 3),
			RetryDelay:                 time.Duration(envInt("RETRY_DELAY_MS", 1000)) * time.Millisecond,
			DisableFailover:            envBool("DISABLE_FAILOVER", false),
			Primary: ProviderCredentials{
				Kind:     envStr("PRIMARY_PROVIDER_KIND", "anthropic"),
				Model:    model,
				APIKey:   envStr("PRIMARY_PROVIDER_API_KEY", ""),
				Endpoint: envStr("PRIMARY_PROVIDER_ENDPOINT", ""),
				Timeout:  envSeconds("PRIMARY_PROVIDER_TIMEOUT", 60*time.Second),
			},
			Secondary: ProviderCredentials{
				Kind:     envStr("SECONDARY_PROVIDER_KIND", "openai"),
				Model:    envStr("SECONDARY_AI_MODEL", "gpt-4o-mini"),
				APIKey:   envStr("SECONDARY_PROVIDER_API_KEY", ""),
				Endpoint: envStr("SECONDARY_PROVIDER_ENDPOINT", ""),
				Timeout:  envSeconds("SECONDARY_PROVIDER_TIMEOUT", 60*time.Second),
			},
			ObservabilityProxy: proxy,
		},
		Session: SessionConfig{
			TTL: time.Duration(envInt("SESSION_TTL_MINUTES", 30)) * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("QACANVAS_CORS_ORIGINS", []string{"*"}),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
