// Package config loads designorch configuration.
//
// Values are resolved with the precedence defaults, then an optional YAML
// file, then DESIGNORCH_* environment variables. The logging and telemetry
// sections are decoded by their owning packages through Config.Unmarshal.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/ratelimit"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

// Config holds the complete designorch configuration.
type Config struct {
	Orchestrator OrchestratorConfig  `koanf:"orchestrator"`
	RateLimit    RateLimitConfig     `koanf:"rate_limit"`
	Providers    []ProviderConfig    `koanf:"providers"`
	Affinity     map[string][]string `koanf:"affinity"`
	Server       ServerConfig        `koanf:"server"`

	k *koanf.Koanf
}

// OrchestratorConfig holds execution defaults.
type OrchestratorConfig struct {
	MaxConcurrent    int      `koanf:"max_concurrent"`
	Mode             string   `koanf:"mode"`
	EnforceTimeouts  bool     `koanf:"enforce_timeouts"`
	EstimatedCost    int      `koanf:"estimated_cost"`
	SimulatedLatency Duration `koanf:"simulated_latency"`
	ProbeTimeout     Duration `koanf:"probe_timeout"`
}

// RateLimitConfig selects the limiter algorithm and its default window.
type RateLimitConfig struct {
	Algorithm string   `koanf:"algorithm"`
	Window    Duration `koanf:"window"`
}

// ProviderConfig describes one provider entry in the providers list.
type ProviderConfig struct {
	Name              string   `koanf:"name"`
	Model             string   `koanf:"model"`
	Capabilities      []string `koanf:"capabilities"`
	Available         *bool    `koanf:"available"`
	RequestsPerWindow int      `koanf:"requests_per_window"`
	CostPerWindow     int      `koanf:"cost_per_window"`
	Window            Duration `koanf:"window"`
	CostPerKTokens    float64  `koanf:"cost_per_1k_tokens"`
	Currency          string   `koanf:"currency"`
	APIKey            Secret   `koanf:"api_key"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Providers: DefaultProviders()}
	applyDefaults(cfg)
	return cfg
}

// DefaultProviders returns the provider set used when none is configured.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "claude", Model: "claude-3-opus", Capabilities: []string{"documentation", "reasoning", "code-generation"}},
		{Name: "gpt-4", Model: "gpt-4-turbo", Capabilities: []string{"code-generation", "reasoning"}},
		{Name: "gemini", Model: "gemini-pro", Capabilities: []string{"documentation", "optimization"}},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Orchestrator.MaxConcurrent == 0 {
		cfg.Orchestrator.MaxConcurrent = 3
	}
	if cfg.Orchestrator.Mode == "" {
		cfg.Orchestrator.Mode = string(task.ModeParallel)
	}
	if cfg.Orchestrator.EstimatedCost == 0 {
		cfg.Orchestrator.EstimatedCost = ratelimit.EstimatedRequestCost
	}
	if cfg.Orchestrator.ProbeTimeout == 0 {
		cfg.Orchestrator.ProbeTimeout = Duration(provider.DefaultProbeTimeout)
	}

	if cfg.RateLimit.Algorithm == "" {
		cfg.RateLimit.Algorithm = string(ratelimit.AlgorithmFixedWindow)
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = Duration(ratelimit.DefaultWindow)
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.Orchestrator.MaxConcurrent < 0 {
		return fmt.Errorf("orchestrator.max_concurrent must not be negative: %d", c.Orchestrator.MaxConcurrent)
	}
	if _, err := (task.Options{Mode: task.ExecutionMode(c.Orchestrator.Mode)}).ResolvedMode(); err != nil {
		return fmt.Errorf("orchestrator.mode: %w", err)
	}
	if c.Orchestrator.EstimatedCost < 0 {
		return errors.New("orchestrator.estimated_cost must not be negative")
	}
	if _, err := ratelimit.NewFactory(ratelimit.Algorithm(c.RateLimit.Algorithm)); err != nil {
		return fmt.Errorf("rate_limit.algorithm: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("providers[%d]: name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("providers[%d]: duplicate provider %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.RequestsPerWindow < 0 || p.CostPerWindow < 0 {
			return fmt.Errorf("providers[%d]: budget must not be negative", i)
		}
	}

	if _, err := c.AffinityTable(); err != nil {
		return err
	}
	return nil
}

// Descriptor converts the entry into a provider descriptor. Providers are
// available unless explicitly disabled; window fills an unset budget window.
func (p ProviderConfig) Descriptor(window time.Duration) provider.Descriptor {
	available := true
	if p.Available != nil {
		available = *p.Available
	}
	w := p.Window.Duration()
	if w == 0 {
		w = window
	}
	return provider.Descriptor{
		Name:         p.Name,
		Model:        p.Model,
		Capabilities: append([]string(nil), p.Capabilities...),
		Available:    available,
		RateLimit: ratelimit.Budget{
			RequestsPerWindow: p.RequestsPerWindow,
			CostPerWindow:     p.CostPerWindow,
			Window:            w,
		},
		Cost: provider.CostInfo{
			PerThousandTokens: p.CostPerKTokens,
			Currency:          p.Currency,
		},
	}
}

// Descriptors converts every configured provider.
func (c *Config) Descriptors() []provider.Descriptor {
	out := make([]provider.Descriptor, 0, len(c.Providers))
	for _, p := range c.Providers {
		out = append(out, p.Descriptor(c.RateLimit.Window.Duration()))
	}
	return out
}

// AffinityTable returns the configured affinity merged over the default
// table. Categories absent from the configuration keep their defaults.
func (c *Config) AffinityTable() (provider.Affinity, error) {
	table := provider.DefaultAffinity()
	for name, prefs := range c.Affinity {
		category, err := task.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("affinity: %w", err)
		}
		table[category] = append([]string(nil), prefs...)
	}
	return table, nil
}

// LimiterFactory returns the limiter constructor for the configured algorithm.
func (c *Config) LimiterFactory() (ratelimit.Factory, error) {
	return ratelimit.NewFactory(ratelimit.Algorithm(c.RateLimit.Algorithm))
}

// Unmarshal decodes the section at path into out. Fields of out that the
// configuration does not mention keep their current values.
func (c *Config) Unmarshal(path string, out any) error {
	if c.k == nil {
		return nil
	}
	if err := c.k.Unmarshal(path, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
