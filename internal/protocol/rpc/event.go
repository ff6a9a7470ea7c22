package rpc

import (
	"encoding/json"

	"tonbridge/internal/domain"
)

// Wallet event names.
const (
	EventConnect      = "connect"
	EventConnectError = "connect_error"
	EventDisconnect   = "disconnect"
)

type event struct {
	Event   string `json:"event"`
	ID      int64  `json:"id"`
	Payload any    `json:"payload"`
}

type connectPayload struct {
	Items  []domain.CapabilityGrant `json:"items"`
	Device domain.DeviceInfo        `json:"device"`
}

// ConnectEvent encodes the plaintext connect event carrying the grants.
func ConnectEvent(id int64, grants []domain.CapabilityGrant, device domain.DeviceInfo) ([]byte, error) {
	if grants == nil {
		grants = []domain.CapabilityGrant{}
	}
	if device.Features == nil {
		device.Features = []any{}
	}
	return json.Marshal(event{
		Event:   EventConnect,
		ID:      id,
		Payload: connectPayload{Items: grants, Device: device},
	})
}

// ConnectErrorEvent encodes a refused connection.
func ConnectErrorEvent(id int64, code domain.ErrorCode, message string) ([]byte, error) {
	if message == "" {
		message = code.String()
	}
	return json.Marshal(event{
		Event:   EventConnectError,
		ID:      id,
		Payload: errorBody{Code: code, Message: message},
	})
}

// DisconnectEvent encodes a wallet-initiated disconnect.
func DisconnectEvent(id int64) ([]byte, error) {
	return json.Marshal(event{Event: EventDisconnect, ID: id, Payload: struct{}{}})
}
