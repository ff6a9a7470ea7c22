package subscription

import (
	"fmt"
	"strings"
	"time"

	"tonbridge/internal/domain"
)

// State is the connection state of a Service.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	NoConnectivity
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case NoConnectivity:
		return "no_connectivity"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Policy decides what happens after a connectivity failure.
type Policy int

const (
	// WaitForSignal stays in NoConnectivity until Start or Reconnect.
	WaitForSignal Policy = iota
	// RetryAfterDelay retries after RetryDelay, like other failures.
	RetryAfterDelay
)

// ParsePolicy accepts "wait" or "retry".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wait", "wait_for_signal":
		return WaitForSignal, nil
	case "retry", "retry_after_delay":
		return RetryAfterDelay, nil
	default:
		return 0, fmt.Errorf("unknown no-connectivity policy %q", s)
	}
}

// DefaultRetryDelay is the fixed delay before retrying a failed stream.
const DefaultRetryDelay = 5 * time.Second

// Options tune a Service.
type Options struct {
	RetryDelay     time.Duration
	NoConnectivity Policy
}

// EventKind tells observers what happened.
type EventKind int

const (
	StateChanged EventKind = iota
	MessageReceived
)

// Event is delivered to observers.
type Event struct {
	Kind  EventKind
	State State
	// Set for MessageReceived.
	EventID   string
	Peer      domain.ClientID
	Plaintext []byte
}
