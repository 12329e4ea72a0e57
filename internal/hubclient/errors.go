package hubclient

import "errors"

var (
	// ErrClosed is returned for operations attempted on, or interrupted by,
	// a closed connection.
	ErrClosed = errors.New("hublink: connection closed")

	// ErrTimeout is returned when no response arrives within the request
	// timeout window.
	ErrTimeout = errors.New("hublink: request timed out")

	// ErrNotConnected is returned when a request is issued while the client
	// is between connections. A reconnect attempt is scheduled as a side
	// effect.
	ErrNotConnected = errors.New("hublink: not connected")
)

// ServerError is an application-level failure reported by the hub via
// ok:false. It is scoped to the single request that produced it.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "hublink: " + e.Message
}
