package domain

import (
	"errors"
	"fmt"
)

// ErrNoConversation is returned by operations that need an existing
// conversation when none has been created yet.
var ErrNoConversation = errors.New("no conversation")

// ErrTurnInFlight is returned when a streaming turn is started on a
// conversation that already has one running.
var ErrTurnInFlight = errors.New("a streaming turn is already in flight for this conversation")

// GraphInvariantError reports a graph mutation that would corrupt the
// conversation, such as replacing or deleting an unknown message id.
type GraphInvariantError struct {
	Op        string
	MessageID string
}

func (e *GraphInvariantError) Error() string {
	return fmt.Sprintf("%s: message %q not in conversation graph", e.Op, e.MessageID)
}

func IsGraphInvariantError(err error) bool {
	var g *GraphInvariantError
	return errors.As(err, &g)
}

// NetworkError reports a failed round trip to a backend: either the
// request itself failed or the server answered with a non-2xx status.
type NetworkError struct {
	Backend string
	Status  int
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: request failed: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Backend, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MissingReaderError reports a streaming response without a readable
// body. Fatal for the call that hit it.
type MissingReaderError struct {
	Backend string
}

func (e *MissingReaderError) Error() string {
	return fmt.Sprintf("%s: response has no readable body", e.Backend)
}
