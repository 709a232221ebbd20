// Package errors provides the structured error type used across flowkit.
//
// Engine-generated failures (a send on a closed bridge, an expired timeout, a
// task submitted to a stopped dispatcher) are reported as *AppError values with
// a machine-readable ErrorCode. Errors raised by user production code are never
// wrapped: they reach the collector exactly as they were returned.
//
// AppError implements Is by code, so a fresh error can be matched against the
// sentinel values exported by other packages:
//
//	if errors.Is(err, flow.ErrBridgeClosed) { ... }
package errors
