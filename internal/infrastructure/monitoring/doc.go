/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the backend
service, tracking HTTP requests, sandboxed executions, encrypted store
operations, suite runs and system metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Sandbox execution metrics (duration per isolation strategy, outcomes)
- Encrypted store metrics (operation counts, key rotations)
- Suite run metrics (outcomes, in-flight runs)
- WebSocket connection metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record domain events
	metrics.RecordExecution("restricted-closure", true, elapsed)
	metrics.RecordStoreOp("decrypt", true)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
