package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tonbridge/internal/domain"
)

var ErrMalformedRequest = errors.New("malformed app request")

type rawRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

type transactionParams struct {
	ValidUntil json.Number     `json:"valid_until"`
	Network    string          `json:"network"`
	From       string          `json:"from"`
	Messages   []messageParams `json:"messages"`
}

type messageParams struct {
	Address   string      `json:"address"`
	Amount    json.Number `json:"amount"`
	Payload   string      `json:"payload"`
	StateInit string      `json:"stateInit"`
}

// DecodeRequest decodes a decrypted request from peer. When the envelope is
// readable but its params are not, the returned request still carries ID
// and Method so the caller can answer with a bad-request error.
func DecodeRequest(plaintext []byte, peer domain.ClientID) (domain.AppRequest, error) {
	var raw rawRequest
	if err := json.Unmarshal(plaintext, &raw); err != nil {
		return domain.AppRequest{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	req := domain.AppRequest{
		ID:           decodeID(raw.ID),
		Method:       domain.Method(raw.Method),
		PeerClientID: peer,
	}
	if raw.Method == "" {
		return req, fmt.Errorf("%w: method is empty", ErrMalformedRequest)
	}
	if req.ID == "" {
		return req, fmt.Errorf("%w: id is empty", ErrMalformedRequest)
	}

	if req.Method != domain.MethodSendTransaction {
		return req, nil
	}
	if len(raw.Params) == 0 {
		return req, fmt.Errorf("%w: sendTransaction without params", ErrMalformedRequest)
	}
	var tx transactionParams
	if err := decodeParam(raw.Params[0], &tx); err != nil {
		return req, fmt.Errorf("%w: params: %v", ErrMalformedRequest, err)
	}
	if len(tx.Messages) == 0 {
		return req, fmt.Errorf("%w: no messages", ErrMalformedRequest)
	}

	if tx.ValidUntil != "" {
		secs, err := tx.ValidUntil.Int64()
		if err != nil {
			return req, fmt.Errorf("%w: valid_until: %v", ErrMalformedRequest, err)
		}
		req.ValidUntil = time.Unix(secs, 0)
	}
	req.Network = domain.Network(tx.Network)
	req.From = tx.From

	req.Outputs = make([]domain.Output, 0, len(tx.Messages))
	for i, m := range tx.Messages {
		if m.Address == "" {
			return req, fmt.Errorf("%w: message %d: address is empty", ErrMalformedRequest, i)
		}
		amount, err := strconv.ParseUint(m.Amount.String(), 10, 64)
		if err != nil {
			return req, fmt.Errorf("%w: message %d: amount: %v", ErrMalformedRequest, i, err)
		}
		req.Outputs = append(req.Outputs, domain.Output{
			Address:   m.Address,
			Amount:    amount,
			Payload:   m.Payload,
			StateInit: m.StateInit,
		})
	}
	return req, nil
}

// decodeParam accepts a param given either as a JSON object or as a string
// holding one.
func decodeParam(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
