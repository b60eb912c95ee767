// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/docsearch/core"
)

// Supported provider names.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderMock    = "mock"
)

// Config holds configuration for embedding providers and the retry policy
// wrapped around them.
type Config struct {
	// Provider selects the backend: "bedrock", "openai" or "mock".
	Provider string

	// Host is the base URL for OpenAI-compatible services.
	// Example: "http://localhost:11434/v1". Ignored by Bedrock.
	Host string

	// Token is the API key for OpenAI-compatible services.
	// Local servers accept any value.
	Token string

	// Model is the embedding model identifier.
	// Example: "amazon.titan-embed-text-v1", "text-embedding-3-small"
	Model string

	// Region is the AWS region used by Bedrock.
	Region string

	// Dimension is the expected vector length. Responses of any other
	// length are rejected.
	// Default: 1536
	Dimension int

	// MaxAttempts bounds how many times a throttled request is tried.
	// Default: 5
	MaxAttempts int

	// BaseDelay is the first backoff wait; each retry doubles it.
	// Default: 1s
	BaseDelay time.Duration

	// RequestsPerSecond caps outbound request rate. Zero disables the limiter.
	RequestsPerSecond float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the provider name.
func WithProvider(name string) ConfigOption {
	return func(c *Config) {
		c.Provider = name
	}
}

// WithHost sets the OpenAI-compatible service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) ConfigOption {
	return func(c *Config) {
		c.Region = region
	}
}

// WithDimension sets the expected embedding dimension.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithMaxAttempts sets the throttling retry budget.
func WithMaxAttempts(n int) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithBaseDelay sets the first backoff wait.
func WithBaseDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.BaseDelay = d
	}
}

// WithRequestsPerSecond sets the client-side rate limit.
func WithRequestsPerSecond(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// DefaultConfig returns a Config targeting Bedrock Titan embeddings.
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderBedrock,
		Host:        "http://localhost:11434/v1",
		Token:       "none",
		Model:       "amazon.titan-embed-text-v1",
		Region:      "us-east-1",
		Dimension:   core.DefaultDimension,
		MaxAttempts: 5,
		BaseDelay:   time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithHost("http://localhost:11434"),
//	    WithModel("nomic-embed-text"),
//	    WithDimension(768),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Provider names are lowercased and OpenAI-compatible hosts get the /v1
// suffix most servers (Ollama, LocalAI, vLLM) require.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == ProviderOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderBedrock:
		if c.Region == "" {
			return errors.New("ai config: Region is required for bedrock")
		}
	case ProviderOpenAI:
		if c.Host == "" {
			return errors.New("ai config: Host is required for openai")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("ai config: %w: %q", ErrUnknownProvider, c.Provider)
	}

	if c.Model == "" && c.Provider != ProviderMock {
		return errors.New("ai config: Model is required")
	}
	if c.Dimension < 1 {
		return errors.New("ai config: Dimension must be positive")
	}
	if c.MaxAttempts < 1 {
		return errors.New("ai config: MaxAttempts must be at least 1")
	}
	if c.BaseDelay < 0 {
		return errors.New("ai config: BaseDelay cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	return nil
}

// ResilientOptions converts the retry policy fields into ResilientEmbedder options.
func (c *Config) ResilientOptions() []Option {
	opts := []Option{
		WithEmbedderDimension(c.Dimension),
		WithRetryPolicy(c.MaxAttempts, c.BaseDelay),
	}
	if c.RequestsPerSecond > 0 {
		opts = append(opts, WithRateLimit(c.RequestsPerSecond, 1))
	}
	return opts
}
