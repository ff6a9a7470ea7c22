package confirm

import (
	"errors"
	"fmt"
	"time"

	"tonbridge/internal/domain"
)

var (
	ErrNoPendingRequest  = errors.New("no request awaiting confirmation")
	ErrEmulationRequired = errors.New("request has not been emulated")
	ErrRequestExpired    = errors.New("request expired")
	ErrBuildFailed       = errors.New("build transaction")
	ErrKeyUnavailable    = errors.New("wallet key unavailable")
	ErrSignFailed        = errors.New("sign transaction")
	ErrSubmitFailed      = errors.New("submit transaction")
)

// Phase is the machine's state tag.
type Phase int

const (
	Idle Phase = iota
	AwaitingConfirmation
	Confirmed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// EmulationStatus tracks the background fee estimate.
type EmulationStatus int

const (
	EmulationPending EmulationStatus = iota
	EmulationReady
	EmulationFailed
)

// Emulation is the fee estimate of the pending request.
type Emulation struct {
	Status   EmulationStatus
	Estimate domain.Estimate
	Err      error
}

// State is a snapshot of the machine. Request and Session are set outside
// Idle.
type State struct {
	Phase     Phase
	TraceID   string
	Request   domain.AppRequest
	Session   domain.AppSession
	Emulation Emulation
	Since     time.Time
}

// Options tune a Machine.
type Options struct {
	// RequireEmulation rejects Confirm until a fee estimate succeeded.
	RequireEmulation bool
	// EmulationTimeout bounds the background estimate. Zero uses 30s.
	EmulationTimeout time.Duration
}

// EventKind names what happened to a request.
type EventKind int

const (
	RequestPending EventKind = iota
	EmulationSucceeded
	EmulationFailedEvent
	RequestSuperseded
	RequestDeclined
	RequestRejected
	TransactionSubmitted
	ResponseDelivered
	DeliveryFailed
)

func (k EventKind) String() string {
	switch k {
	case RequestPending:
		return "request_pending"
	case EmulationSucceeded:
		return "emulation_succeeded"
	case EmulationFailedEvent:
		return "emulation_failed"
	case RequestSuperseded:
		return "request_superseded"
	case RequestDeclined:
		return "request_declined"
	case RequestRejected:
		return "request_rejected"
	case TransactionSubmitted:
		return "transaction_submitted"
	case ResponseDelivered:
		return "response_delivered"
	case DeliveryFailed:
		return "delivery_failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to observers.
type Event struct {
	Kind     EventKind
	TraceID  string
	Request  domain.AppRequest
	Estimate domain.Estimate
	Receipt  domain.Receipt
	Err      error
}
