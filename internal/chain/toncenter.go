package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tonbridge/internal/domain"
)

var (
	// ErrRejected is returned when the node answered with ok=false.
	ErrRejected = errors.New("chain rejected request")
	// ErrUnavailable is returned for transport failures and non-JSON
	// answers.
	ErrUnavailable = errors.New("chain unavailable")
)

const maxResponse = 1 << 20

// HTTPService is a domain.ChainService over a toncenter v2 API. Base is the
// API root such as "https://toncenter.com/api/v2".
type HTTPService struct {
	Base   string
	APIKey string
	HTTP   *http.Client

	log *zap.Logger
}

func NewHTTPService(base, apiKey string, log *zap.Logger) *HTTPService {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPService{
		Base:   strings.TrimRight(base, "/"),
		APIKey: apiKey,
		HTTP:   http.DefaultClient,
		log:    log,
	}
}

var _ domain.ChainService = (*HTTPService)(nil)

// envelope is the toncenter v2 response wrapper.
type envelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Code   int             `json:"code"`
}

type fees struct {
	InFwdFee   uint64 `json:"in_fwd_fee"`
	StorageFee uint64 `json:"storage_fee"`
	GasFee     uint64 `json:"gas_fee"`
	FwdFee     uint64 `json:"fwd_fee"`
}

func (f fees) total() uint64 { return f.InFwdFee + f.StorageFee + f.GasFee + f.FwdFee }

// Submit broadcasts boc and returns the message hash.
func (s *HTTPService) Submit(ctx context.Context, boc domain.BOC) (domain.Receipt, error) {
	req := struct {
		BOC string `json:"boc"`
	}{BOC: base64.StdEncoding.EncodeToString(boc)}

	var res struct {
		Hash string `json:"hash"`
	}
	if err := s.call(ctx, "/sendBocReturnHash", req, &res); err != nil {
		return domain.Receipt{}, err
	}
	s.log.Info("transaction sent", zap.String("hash", res.Hash))
	return domain.Receipt{Hash: res.Hash}, nil
}

// Estimate emulates tx and sums the source and destination fees.
func (s *HTTPService) Estimate(ctx context.Context, tx domain.UnsignedTransaction) (domain.Estimate, error) {
	req := struct {
		Address      string `json:"address"`
		Body         string `json:"body"`
		IgnoreChksig bool   `json:"ignore_chksig"`
	}{
		Address:      tx.Address,
		Body:         base64.StdEncoding.EncodeToString(tx.Body),
		IgnoreChksig: true,
	}

	var res struct {
		SourceFees      fees   `json:"source_fees"`
		DestinationFees []fees `json:"destination_fees"`
	}
	if err := s.call(ctx, "/estimateFee", req, &res); err != nil {
		return domain.Estimate{}, err
	}

	est := domain.Estimate{Fee: res.SourceFees.total(), Risk: domain.RiskLow}
	for _, d := range res.DestinationFees {
		est.Fee += d.total()
	}
	var sent uint64
	for _, o := range tx.Outputs {
		sent += o.Amount
	}
	if sent > 0 && est.Fee > sent {
		est.Risk = domain.RiskHigh
		est.Warnings = append(est.Warnings, "fee exceeds transferred amount")
	}
	return est, nil
}

func (s *HTTPService) call(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("X-API-Key", s.APIKey)
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponse)).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrUnavailable, path, resp.Status)
	}
	if !env.OK {
		code := env.Code
		if code == 0 {
			code = resp.StatusCode
		}
		return fmt.Errorf("%w: %s: %d %s", ErrRejected, path, code, env.Error)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: %s: result: %w", ErrUnavailable, path, err)
	}
	return nil
}
