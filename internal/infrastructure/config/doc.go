// Package config provides 12-factor configuration for the challenge
// execution backend.
//
// Configuration is loaded from environment variables with sensible
// defaults. A YAML file can be overlaid on top for deployments that
// prefer files over environment.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Sandbox: executor pool size, default isolation strategy and
//     per-run resource limits
//   - Security: test-case store key rotation and audit log settings
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - SANDBOX_POOL_SIZE, SANDBOX_STRATEGY, SANDBOX_MAX_EXECUTION_MS,
//     SANDBOX_MAX_MEMORY_MB, SANDBOX_MAX_NETWORK_REQUESTS
//   - SECURITY_KEY_ROTATION_MS, SECURITY_AUDIT_LOG_CAP
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
