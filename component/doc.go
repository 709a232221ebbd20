// Package component defines lifecycle-managed infrastructure for flowkit
// applications and a registry that starts and stops it in order.
//
// # Interfaces
//
//   - Component: lifecycle (Start/Stop) plus health reporting
//   - Describable: startup summary descriptions
//
// # Built-in components
//
//   - Pool: a dispatch.Pool, drained on Stop
//   - Telemetry: OpenTelemetry tracer and meter providers, flushed on Stop
package component
