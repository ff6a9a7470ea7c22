package rpc

import (
	"encoding/json"
	"fmt"

	"tonbridge/internal/domain"
)

// Encrypter seals a plaintext for a peer session key.
type Encrypter interface {
	Encrypt(plaintext []byte, peer domain.X25519Public) ([]byte, error)
}

type successResponse struct {
	Result any    `json:"result"`
	ID     string `json:"id"`
}

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
	ID    string    `json:"id"`
}

// BuildSuccess encodes and encrypts a success response for requestID.
func BuildSuccess(requestID string, result any, peer domain.X25519Public, enc Encrypter) ([]byte, error) {
	raw, err := json.Marshal(successResponse{Result: result, ID: requestID})
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return enc.Encrypt(raw, peer)
}

// BuildError encodes and encrypts an error response for requestID. An empty
// message is replaced by the code's default text.
func BuildError(requestID string, code domain.ErrorCode, message string, peer domain.X25519Public, enc Encrypter) ([]byte, error) {
	if message == "" {
		message = code.String()
	}
	raw, err := json.Marshal(errorResponse{
		Error: errorBody{Code: code, Message: message},
		ID:    requestID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode error response: %w", err)
	}
	return enc.Encrypt(raw, peer)
}
