// Package http provides HTTP handlers and routing for the challenge
// execution REST API.
//
// This package implements all HTTP endpoints using the Gin framework,
// including health checks, test-case initialization, suite execution and
// security introspection.
//
// Endpoints:
//   - Health: / and /health
//   - Tests: POST /challenges/:id/tests, GET /challenges/:id/tests
//   - Runs: POST /challenges/:id/run
//   - Security: GET /challenges/:id/audit, GET /security/metrics,
//     GET /security/integrity
//   - Performance: GET /metrics/performance
//
// Every result returned by these endpoints has already passed through
// the sanitizer; raw execution errors and test-case internals never
// appear in a response body.
package http
