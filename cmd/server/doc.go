// Package main is the entry point for the challenge execution backend.
//
// This application hosts the secure test-execution core for an
// in-browser coding-challenge platform: an encrypted test-case store,
// a resource-bounded JavaScript sandbox and a sanitizing test runner.
//
// The server provides:
//   - REST API for test-case initialization and suite execution
//   - WebSocket streaming of per-case results
//   - Access auditing and store integrity introspection
//   - Prometheus metrics, rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML config file (-config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
