package relay

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tonbridge/internal/domain"
)

// HTTP talks to a bridge relay. Base has no trailing slash.
type HTTP struct {
	Base string
	HTTP *http.Client

	log *zap.Logger
}

func NewHTTP(base string, log *zap.Logger) *HTTP {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{
		Base: strings.TrimRight(base, "/"),
		HTTP: http.DefaultClient,
		log:  log,
	}
}

var _ domain.RelayClient = (*HTTP)(nil)

// PostMessage sends body from one client id to another. ttl is rounded down
// to whole seconds.
func (c *HTTP) PostMessage(ctx context.Context, from, to domain.ClientID, body []byte, ttl time.Duration) error {
	q := url.Values{}
	q.Set("client_id", from.String())
	q.Set("to", to.String())
	q.Set("ttl", strconv.Itoa(int(ttl/time.Second)))

	payload := base64.StdEncoding.EncodeToString(body)
	return c.post(ctx, "/message?"+q.Encode(), payload)
}

// Subscribe opens the event stream for clientIDs, resuming after lastEventID
// when it is not empty.
func (c *HTTP) Subscribe(ctx context.Context, clientIDs []domain.ClientID, lastEventID string) (domain.EventStream, error) {
	ids := make([]string, len(clientIDs))
	for i, id := range clientIDs {
		ids[i] = id.String()
	}
	q := url.Values{}
	q.Set("client_id", strings.Join(ids, ","))
	if lastEventID != "" {
		q.Set("last_event_id", lastEventID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+"/events?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode/100 != 2 {
		resp.Body.Close()
		return nil, fmt.Errorf("relay get /events: %s", resp.Status)
	}
	c.log.Debug("relay stream opened",
		zap.Int("clients", len(clientIDs)),
		zap.String("event_id", lastEventID))
	return newStream(resp.Body), nil
}

func (c *HTTP) post(ctx context.Context, path, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", strings.SplitN(path, "?", 2)[0], resp.Status)
	}
	return nil
}
