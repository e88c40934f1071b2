package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/codearena/backend/internal/shared/types"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Security  SecurityConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// SandboxConfig holds executor and resource-limit configuration.
type SandboxConfig struct {
	PoolSize           int    `envconfig:"SANDBOX_POOL_SIZE" default:"4" yaml:"pool_size"`
	DefaultStrategy    string `envconfig:"SANDBOX_STRATEGY" default:"restricted-closure" yaml:"default_strategy"`
	MaxExecutionMs     int    `envconfig:"SANDBOX_MAX_EXECUTION_MS" default:"5000" yaml:"max_execution_ms"`
	MaxMemoryMB        int    `envconfig:"SANDBOX_MAX_MEMORY_MB" default:"64" yaml:"max_memory_mb"`
	MaxCPUPercent      int    `envconfig:"SANDBOX_MAX_CPU_PERCENT" default:"80" yaml:"max_cpu_percent"`
	MaxNetworkRequests int    `envconfig:"SANDBOX_MAX_NETWORK_REQUESTS" default:"10" yaml:"max_network_requests"`
	MaxFileOps         int    `envconfig:"SANDBOX_MAX_FILE_OPS" default:"50" yaml:"max_file_ops"`
}

// SecurityConfig holds test-case store configuration.
type SecurityConfig struct {
	KeyRotationIntervalMs int `envconfig:"SECURITY_KEY_ROTATION_MS" default:"86400000" yaml:"key_rotation_interval_ms"`
	AuditLogCap           int `envconfig:"SECURITY_AUDIT_LOG_CAP" default:"1000" yaml:"audit_log_cap"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads configuration from environment variables and then
// overlays a YAML file on top. File values win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			PoolSize:           4,
			DefaultStrategy:    string(types.StrategyRestrictedClosure),
			MaxExecutionMs:     5000,
			MaxMemoryMB:        64,
			MaxCPUPercent:      80,
			MaxNetworkRequests: 10,
			MaxFileOps:         50,
		},
		Security: SecurityConfig{
			KeyRotationIntervalMs: int(24 * time.Hour / time.Millisecond),
			AuditLogCap:           1000,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects values that would misconfigure the secure core.
func (c *Config) Validate() error {
	if !types.IsolationStrategy(c.Sandbox.DefaultStrategy).Valid() {
		return fmt.Errorf("unknown isolation strategy %q", c.Sandbox.DefaultStrategy)
	}
	if c.Sandbox.PoolSize <= 0 {
		return fmt.Errorf("sandbox pool size must be positive, got %d", c.Sandbox.PoolSize)
	}
	if c.Sandbox.MaxExecutionMs <= 0 {
		return fmt.Errorf("max execution time must be positive, got %dms", c.Sandbox.MaxExecutionMs)
	}
	if c.Security.KeyRotationIntervalMs <= 0 {
		return fmt.Errorf("key rotation interval must be positive, got %dms", c.Security.KeyRotationIntervalMs)
	}
	return nil
}

// Limits converts the sandbox section into executor resource limits.
func (c SandboxConfig) Limits() types.ResourceLimits {
	return types.ResourceLimits{
		MaxExecutionTime:   time.Duration(c.MaxExecutionMs) * time.Millisecond,
		MaxMemoryMB:        int64(c.MaxMemoryMB),
		MaxCPUPercent:      float64(c.MaxCPUPercent),
		MaxNetworkRequests: c.MaxNetworkRequests,
		MaxFileOps:         c.MaxFileOps,
	}
}

// Strategy returns the configured default isolation strategy.
func (c SandboxConfig) Strategy() types.IsolationStrategy {
	return types.IsolationStrategy(c.DefaultStrategy)
}

// RotationInterval returns the key rotation interval as a duration.
func (c SecurityConfig) RotationInterval() time.Duration {
	return time.Duration(c.KeyRotationIntervalMs) * time.Millisecond
}
