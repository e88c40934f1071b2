// Package ws provides WebSocket handling for real-time suite execution.
//
// This package implements WebSocket communication for streaming test
// results, enabling the UI to display per-case outcomes as a submission
// runs instead of waiting for the whole suite.
//
// Features:
//   - Per-test-case result streaming
//   - Automatic connection upgrade from HTTP
//   - Context-based cancellation with a per-run timeout
//   - Error handling and recovery
//
// Message Types (Client → Server):
//   - run: Execute a challenge's suite against submitted code
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - test_result: One sanitized per-case result
//   - complete: Suite finished with summary
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(runner, env, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
