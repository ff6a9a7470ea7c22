package interfaces

import (
	"context"
	"time"

	domaintypes "tonbridge/internal/domain/types"
)

// RelayClient is how we talk to the bridge relay, all with context.
type RelayClient interface {
	// PostMessage delivers body (ciphertext) from one client id to another.
	// The relay drops the message if it is not delivered within ttl.
	PostMessage(
		ctx context.Context,
		from domaintypes.ClientID,
		to domaintypes.ClientID,
		body []byte,
		ttl time.Duration,
	) error
	// Subscribe opens the event stream for clientIDs, resuming after
	// lastEventID when it is non-empty. It returns once the stream is open.
	Subscribe(
		ctx context.Context,
		clientIDs []domaintypes.ClientID,
		lastEventID string,
	) (EventStream, error)
}

// EventStream yields relay events until the stream ends.
//
// Next returns io.EOF when the relay closed the stream cleanly.
type EventStream interface {
	Next() (domaintypes.RelayEvent, error)
	Close() error
}
