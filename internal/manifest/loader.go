package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tonbridge/internal/domain"
)

var (
	ErrNetwork = errors.New("manifest fetch failed")
	ErrDecode  = errors.New("manifest decode failed")
)

const (
	DefaultTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 10
)

// Loader implements domain.ManifestLoader over HTTP.
type Loader struct {
	HTTP    *http.Client
	Timeout time.Duration

	log   *zap.Logger
	group singleflight.Group
}

var _ domain.ManifestLoader = (*Loader)(nil)

// New returns a Loader. A nil client uses http.DefaultClient, a zero timeout
// uses DefaultTimeout and a nil logger discards output.
func New(client *http.Client, timeout time.Duration, log *zap.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{HTTP: client, Timeout: timeout, log: log}
}

// Load fetches and validates the manifest at url.
func (l *Loader) Load(ctx context.Context, url string) (domain.AppManifest, error) {
	// The shared fetch must outlive any single caller's cancellation.
	ch := l.group.DoChan(url, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.Timeout)
		defer cancel()
		return l.fetch(fctx, url)
	})

	select {
	case <-ctx.Done():
		return domain.AppManifest{}, fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
	case res := <-ch:
		if res.Shared {
			l.log.Debug("manifest fetch shared", zap.String("url", url))
		}
		if res.Err != nil {
			return domain.AppManifest{}, res.Err
		}
		return res.Val.(domain.AppManifest), nil
	}
}

func (l *Loader) fetch(ctx context.Context, url string) (domain.AppManifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.AppManifest{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.HTTP.Do(req)
	if err != nil {
		return domain.AppManifest{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return domain.AppManifest{}, fmt.Errorf("%w: get %s: %s", ErrNetwork, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return domain.AppManifest{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if len(body) > maxBodyBytes {
		return domain.AppManifest{}, fmt.Errorf("%w: body exceeds %d bytes", ErrDecode, maxBodyBytes)
	}

	var m domain.AppManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return domain.AppManifest{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if m.URL == "" || m.Name == "" {
		return domain.AppManifest{}, fmt.Errorf("%w: url and name are required", ErrDecode)
	}
	l.log.Debug("manifest loaded", zap.String("url", url), zap.String("app", m.Name))
	return m, nil
}
