package sse

// Event names written by Stream.
const (
	// EventMessage is the default name of value events. Browsers deliver it to
	// EventSource.onmessage.
	EventMessage = "message"

	// EventComplete terminates a stream whose flow completed.
	EventComplete = "complete"

	// EventError terminates a stream whose flow failed.
	EventError = "error"

	// keepAliveComment is written as an SSE comment line between values.
	keepAliveComment = ": keepalive\n\n"
)

// CompleteEvent is the payload of the complete frame.
type CompleteEvent struct {
	Count int `json:"count"`
}
