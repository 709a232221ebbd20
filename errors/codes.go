package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Stream lifecycle errors
const (
	// ErrCodeBridgeClosed indicates a value was sent to a closed callback bridge.
	ErrCodeBridgeClosed ErrorCode = "BRIDGE_CLOSED"
	// ErrCodeTimeout indicates a stream did not complete within its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeQueueFull indicates a non-blocking send found no free buffer slot.
	ErrCodeQueueFull ErrorCode = "QUEUE_FULL"
)

// Scheduling errors
const (
	// ErrCodeDispatcherClosed indicates a task was submitted to a stopped dispatcher.
	ErrCodeDispatcherClosed ErrorCode = "DISPATCHER_CLOSED"
)

// Validation errors
const (
	// ErrCodeInvalidArgument indicates an operator or constructor received a bad argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInvalidConfig indicates a configuration struct failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected engine failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:   true,
	ErrCodeQueueFull: true,
	ErrCodeInternal:  false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
