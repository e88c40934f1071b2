/*
Package tracing provides lightweight request tracing for debugging
production issues.

# Overview

This package implements minimal tracing to follow a submission through
the HTTP layer, the secure runner and the sandbox. It follows
OpenTelemetry concepts but with a small implementation tailored to a
single service.

# Features

- Trace context propagation via HTTP headers
- Span creation with parent-child relationships
- Automatic trace ID generation
- Gin middleware for automatic instrumentation
- Structured logging integration
- Low overhead with buffered span collection

# Usage

	tracer := tracing.New("backend", logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "run-suite")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
