// Package config loads configuration from environment variables.
// Each subsystem defines an envconfig-tagged struct and loads it with a
// prefix, so deployment stays twelve-factor with no config files.
package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Server holds the top-level control plane configuration.
type Server struct {
	Port    int    `envconfig:"PORT" default:"8080"`
	Version string `envconfig:"VERSION" default:"1.0.0"`

	// ContextBackend selects the conversation context store: "memory" or "redis".
	ContextBackend string `envconfig:"CONTEXT_BACKEND" default:"memory"`

	// Default per-turn operation budget.
	BudgetTokens     int64 `envconfig:"BUDGET_TOKENS" default:"4096"`
	BudgetToolCalls  int   `envconfig:"BUDGET_TOOL_CALLS" default:"10"`
	BudgetDeadlineMS int64 `envconfig:"BUDGET_DEADLINE_MS" default:"30000"`
}

// Telemetry configures OpenTelemetry tracing.
type Telemetry struct {
	Enabled      bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"maps-chat-control-plane"`
}

// New loads a config struct from the environment under the given prefix.
func New[T any](prefix string) (*T, error) {
	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// MustNew is New, panicking on error. Intended for process startup only.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}
