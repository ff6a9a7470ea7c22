package rpc_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tonbridge/internal/crypto"
	"tonbridge/internal/domain"
	"tonbridge/internal/protocol/rpc"
)

func pair(t *testing.T) (wallet, app *crypto.SessionCrypto) {
	t.Helper()
	var err error
	if wallet, err = crypto.NewSessionCrypto(); err != nil {
		t.Fatalf("wallet session: %v", err)
	}
	if app, err = crypto.NewSessionCrypto(); err != nil {
		t.Fatalf("app session: %v", err)
	}
	return wallet, app
}

func open(t *testing.T, ct []byte, app, wallet *crypto.SessionCrypto) map[string]any {
	t.Helper()
	pt, err := app.Decrypt(ct, wallet.PublicKey())
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(pt, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", pt, err)
	}
	return m
}

func TestBuildSuccess(t *testing.T) {
	wallet, app := pair(t)

	ct, err := rpc.BuildSuccess("7", "te6cc...", app.PublicKey(), wallet)
	if err != nil {
		t.Fatalf("BuildSuccess: %v", err)
	}
	m := open(t, ct, app, wallet)
	if m["id"] != "7" || m["result"] != "te6cc..." {
		t.Fatalf("unexpected response %v", m)
	}
	if _, ok := m["error"]; ok {
		t.Fatalf("success response carries error: %v", m)
	}
}

func TestBuildError_DefaultMessage(t *testing.T) {
	wallet, app := pair(t)

	ct, err := rpc.BuildError("8", domain.ErrorCodeUserDeclined, "", app.PublicKey(), wallet)
	if err != nil {
		t.Fatalf("BuildError: %v", err)
	}
	m := open(t, ct, app, wallet)
	e, ok := m["error"].(map[string]any)
	if !ok {
		t.Fatalf("missing error object: %v", m)
	}
	if e["code"] != float64(300) || e["message"] != "user declined the request" || m["id"] != "8" {
		t.Fatalf("unexpected error response %v", m)
	}
}

func TestDecodeRequest_StringParams(t *testing.T) {
	body := `{"method":"sendTransaction","id":"5","params":["{\"valid_until\":1900000000,\"network\":\"-239\",\"from\":\"0:abc\",\"messages\":[{\"address\":\"EQdst\",\"amount\":\"1000\",\"payload\":\"te6p\"}]}"]}`

	req, err := rpc.DecodeRequest([]byte(body), "peer")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.ID != "5" || req.Method != domain.MethodSendTransaction || req.PeerClientID != "peer" {
		t.Fatalf("unexpected header %+v", req)
	}
	if !req.ValidUntil.Equal(time.Unix(1900000000, 0)) {
		t.Fatalf("valid_until = %v", req.ValidUntil)
	}
	if req.Network != domain.NetworkMainnet || req.From != "0:abc" {
		t.Fatalf("network/from = %q/%q", req.Network, req.From)
	}
	if len(req.Outputs) != 1 || req.Outputs[0].Amount != 1000 || req.Outputs[0].Payload != "te6p" {
		t.Fatalf("outputs = %+v", req.Outputs)
	}
}

func TestDecodeRequest_ObjectParamsNumericAmount(t *testing.T) {
	body := `{"method":"sendTransaction","id":12,"params":[{"messages":[{"address":"EQa","amount":42},{"address":"EQb","amount":"7"}]}]}`

	req, err := rpc.DecodeRequest([]byte(body), "peer")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.ID != "12" {
		t.Fatalf("id = %q, want 12", req.ID)
	}
	if !req.ValidUntil.IsZero() {
		t.Fatalf("valid_until should be unset, got %v", req.ValidUntil)
	}
	if len(req.Outputs) != 2 || req.Outputs[0].Amount != 42 || req.Outputs[1].Amount != 7 {
		t.Fatalf("outputs = %+v", req.Outputs)
	}
}

func TestDecodeRequest_Disconnect(t *testing.T) {
	req, err := rpc.DecodeRequest([]byte(`{"method":"disconnect","params":[],"id":"3"}`), "peer")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Method != domain.MethodDisconnect || req.ID != "3" {
		t.Fatalf("unexpected %+v", req)
	}
}

func TestDecodeRequest_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{`,
		"no method":    `{"id":"1","params":[]}`,
		"no params":    `{"method":"sendTransaction","id":"1","params":[]}`,
		"bad amount":   `{"method":"sendTransaction","id":"1","params":[{"messages":[{"address":"a","amount":"-1"}]}]}`,
		"no messages":  `{"method":"sendTransaction","id":"1","params":[{"messages":[]}]}`,
		"no address":   `{"method":"sendTransaction","id":"1","params":[{"messages":[{"amount":"1"}]}]}`,
		"bad deadline": `{"method":"sendTransaction","id":"1","params":[{"valid_until":1.5,"messages":[{"address":"a","amount":"1"}]}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req, err := rpc.DecodeRequest([]byte(body), "peer")
			if !errors.Is(err, rpc.ErrMalformedRequest) {
				t.Fatalf("err = %v, want ErrMalformedRequest", err)
			}
			if name == "bad amount" && req.ID != "1" {
				t.Fatalf("id not preserved: %+v", req)
			}
		})
	}
}

func TestConnectEvent_Shape(t *testing.T) {
	raw, err := rpc.ConnectEvent(1, []domain.CapabilityGrant{{Name: domain.ItemAddress, Address: "0:ab"}}, domain.DeviceInfo{Platform: "linux", AppName: "tonbridge", MaxProtocolVersion: 2})
	if err != nil {
		t.Fatalf("ConnectEvent: %v", err)
	}
	var ev struct {
		Event   string `json:"event"`
		ID      int64  `json:"id"`
		Payload struct {
			Items  []map[string]any `json:"items"`
			Device map[string]any   `json:"device"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != "connect" || ev.ID != 1 || len(ev.Payload.Items) != 1 {
		t.Fatalf("unexpected event %s", raw)
	}
	if ev.Payload.Items[0]["name"] != "ton_addr" || ev.Payload.Device["platform"] != "linux" {
		t.Fatalf("unexpected payload %s", raw)
	}
}
