// Package server provides the HTTP host for flowkit services: a Gin engine
// served over HTTP/2 cleartext (h2c) so long-lived SSE streams multiplex on a
// single connection.
//
// # Middleware
//
// Built-in middleware (server/middleware) wraps the whole mux:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into the request context
//   - CORS: cross-origin headers for browser EventSource clients
//   - RequestLogger: request logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: aggregated observability.HealthChecker results
//   - /alive: liveness check
//   - /ready: readiness check
package server
