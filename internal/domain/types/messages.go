package types

import "time"

// RelayEvent is one server-sent event from the relay stream.
type RelayEvent struct {
	ID    string
	Event string
	Data  []byte
}

// RelayEnvelope is the JSON payload of a relay "message" event.
type RelayEnvelope struct {
	From ClientID `json:"from"`
	// Message is the base64 ciphertext.
	Message string `json:"message"`
}

// Method is a request method sent by an app.
type Method string

const (
	MethodSendTransaction Method = "sendTransaction"
	MethodDisconnect      Method = "disconnect"
)

// AppRequest is a decrypted, decoded app request.
type AppRequest struct {
	ID           string
	Method       Method
	PeerClientID ClientID
	Outputs      []Output
	// ValidUntil is zero when the app did not set a deadline.
	ValidUntil time.Time
	Network    Network
	From       string
}

// Output is one transfer inside a transaction request.
type Output struct {
	Address string
	// Amount is in nanotons.
	Amount    uint64
	Payload   string
	StateInit string
}

// ErrorCode is a response error code.
type ErrorCode int

const (
	ErrorCodeUnknown            ErrorCode = 0
	ErrorCodeBadRequest         ErrorCode = 1
	ErrorCodeUnknownApp         ErrorCode = 100
	ErrorCodeUserDeclined       ErrorCode = 300
	ErrorCodeMethodNotSupported ErrorCode = 400
)

// String returns the default message for the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeBadRequest:
		return "bad request"
	case ErrorCodeUnknownApp:
		return "unknown app"
	case ErrorCodeUserDeclined:
		return "user declined the request"
	case ErrorCodeMethodNotSupported:
		return "method not supported"
	default:
		return "unknown error"
	}
}
