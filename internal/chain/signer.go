package chain

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tonbridge/internal/domain"
)

// ErrNoSigningHash is returned when the builder did not say what to sign.
var ErrNoSigningHash = errors.New("transaction has no signing hash")

// HTTPSigner is a domain.TransactionBuilder backed by a remote builder
// service with two endpoints:
//
//	POST {base}/build {"wallet","address","network","public_key","state_init","messages"}
//	  -> {"body","signing_hash"}
//	POST {base}/sign  {"address","body","signature"} -> {"boc"}
//
// Binary fields are standard base64; amounts are decimal strings.
type HTTPSigner struct {
	Base string
	HTTP *http.Client
}

func NewHTTPSigner(base string) *HTTPSigner {
	return &HTTPSigner{
		Base: strings.TrimRight(base, "/"),
		HTTP: http.DefaultClient,
	}
}

var _ domain.TransactionBuilder = (*HTTPSigner)(nil)

type wireMessage struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	Payload   string `json:"payload,omitempty"`
	StateInit string `json:"stateInit,omitempty"`
}

type buildRequest struct {
	Wallet    domain.WalletID `json:"wallet"`
	Address   string          `json:"address"`
	Network   domain.Network  `json:"network"`
	PublicKey string          `json:"public_key"`
	StateInit string          `json:"state_init,omitempty"`
	Messages  []wireMessage   `json:"messages"`
}

type buildResponse struct {
	Body        []byte `json:"body"`
	SigningHash []byte `json:"signing_hash"`
}

type signRequest struct {
	Address   string `json:"address"`
	Body      []byte `json:"body"`
	Signature []byte `json:"signature"`
}

type signResponse struct {
	BOC []byte `json:"boc"`
}

// Build asks the builder for the transaction body and its signing hash.
func (s *HTTPSigner) Build(ctx context.Context, w domain.Wallet, outs []domain.Output) (domain.UnsignedTransaction, error) {
	req := buildRequest{
		Wallet:    w.ID,
		Address:   w.Address,
		Network:   w.Network,
		PublicKey: base64.StdEncoding.EncodeToString(w.PublicKey[:]),
		StateInit: w.StateInit,
		Messages:  make([]wireMessage, 0, len(outs)),
	}
	for _, o := range outs {
		req.Messages = append(req.Messages, wireMessage{
			Address:   o.Address,
			Amount:    strconv.FormatUint(o.Amount, 10),
			Payload:   o.Payload,
			StateInit: o.StateInit,
		})
	}

	var res buildResponse
	if err := s.post(ctx, "/build", req, &res); err != nil {
		return domain.UnsignedTransaction{}, err
	}
	if len(res.SigningHash) == 0 {
		return domain.UnsignedTransaction{}, ErrNoSigningHash
	}
	return domain.UnsignedTransaction{
		Wallet:      w.ID,
		Address:     w.Address,
		Body:        res.Body,
		Outputs:     outs,
		SigningHash: res.SigningHash,
	}, nil
}

// Sign signs tx's signing hash locally and asks the builder to assemble the
// external message.
func (s *HTTPSigner) Sign(ctx context.Context, tx domain.UnsignedTransaction, key ed25519.PrivateKey) (domain.BOC, error) {
	if len(tx.SigningHash) == 0 {
		return nil, ErrNoSigningHash
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("sign: bad key length %d", len(key))
	}
	req := signRequest{
		Address:   tx.Address,
		Body:      tx.Body,
		Signature: ed25519.Sign(key, tx.SigningHash),
	}
	var res signResponse
	if err := s.post(ctx, "/sign", req, &res); err != nil {
		return nil, err
	}
	if len(res.BOC) == 0 {
		return nil, errors.New("sign: empty boc")
	}
	return res.BOC, nil
}

func (s *HTTPSigner) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("builder %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("builder %s: %s: %s", path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponse)).Decode(out); err != nil {
		return fmt.Errorf("builder %s: decode: %w", path, err)
	}
	return nil
}
