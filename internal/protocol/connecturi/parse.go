package connecturi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"tonbridge/internal/domain"
)

var (
	ErrInvalidScheme      = errors.New("invalid scheme")
	ErrMissingField       = errors.New("missing field")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrMalformedPayload   = errors.New("malformed request payload")
)

// Query parameter names.
const (
	paramVersion = "v"
	paramID      = "id"
	paramRequest = "r"
	paramReturn  = "ret"
)

// SupportedVersions lists the protocol versions this bridge speaks.
var SupportedVersions = []string{"2"}

// DefaultSchemes are accepted by Parse.
var DefaultSchemes = []string{"tc", "bridge"}

// ParseError describes why a URI was rejected.
type ParseError struct {
	Kind  error
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Parser accepts connection URIs for a set of schemes and universal links.
type Parser struct {
	Schemes []string
	// UniversalLinks are URL prefixes such as "https://wallet.example/ton-connect".
	UniversalLinks []string
}

// Parse parses uri with the default schemes.
func Parse(uri string) (domain.ConnectionParameters, error) {
	return Parser{Schemes: DefaultSchemes}.Parse(uri)
}

// Parse turns uri into connection parameters.
func (p Parser) Parse(uri string) (domain.ConnectionParameters, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return domain.ConnectionParameters{}, &ParseError{Kind: ErrInvalidScheme, Err: err}
	}
	if !p.accepts(u) {
		return domain.ConnectionParameters{}, &ParseError{Kind: ErrInvalidScheme, Err: fmt.Errorf("%q", u.Scheme)}
	}

	q := u.Query()
	version := q.Get(paramVersion)
	if version == "" {
		return domain.ConnectionParameters{}, &ParseError{Kind: ErrMissingField, Field: paramVersion}
	}
	id := q.Get(paramID)
	if id == "" {
		return domain.ConnectionParameters{}, &ParseError{Kind: ErrMissingField, Field: paramID}
	}
	raw := q.Get(paramRequest)
	if raw == "" {
		return domain.ConnectionParameters{}, &ParseError{Kind: ErrMissingField, Field: paramRequest}
	}
	if !supported(version) {
		return domain.ConnectionParameters{}, &ParseError{Kind: ErrUnsupportedVersion, Err: fmt.Errorf("%q", version)}
	}

	manifestURL, items, err := decodeRequest([]byte(raw))
	if err != nil {
		return domain.ConnectionParameters{}, &ParseError{Kind: ErrMalformedPayload, Field: paramRequest, Err: err}
	}
	return domain.ConnectionParameters{
		Version:        version,
		PeerClientID:   domain.ClientID(strings.ToLower(id)),
		ManifestURL:    manifestURL,
		RequestedItems: items,
		Return:         q.Get(paramReturn),
	}, nil
}

func (p Parser) accepts(u *url.URL) bool {
	for _, s := range p.Schemes {
		if strings.EqualFold(u.Scheme, s) {
			return true
		}
	}
	link := u.Scheme + "://" + u.Host + u.Path
	for _, prefix := range p.UniversalLinks {
		if strings.EqualFold(strings.TrimSuffix(link, "/"), strings.TrimSuffix(prefix, "/")) {
			return true
		}
	}
	return false
}

func supported(version string) bool {
	for _, v := range SupportedVersions {
		if v == version {
			return true
		}
	}
	return false
}

type requestPayload struct {
	ManifestURL string            `json:"manifestUrl"`
	Items       []json.RawMessage `json:"items"`
}

type itemHeader struct {
	Name    string  `json:"name"`
	Payload *string `json:"payload"`
}

func decodeRequest(raw []byte) (string, []domain.CapabilityRequest, error) {
	var req requestPayload
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", nil, err
	}
	if req.ManifestURL == "" {
		return "", nil, errors.New("manifestUrl is empty")
	}
	if req.Items == nil {
		return "", nil, errors.New("items is missing")
	}

	items := make([]domain.CapabilityRequest, 0, len(req.Items))
	for i, rawItem := range req.Items {
		var h itemHeader
		if err := json.Unmarshal(rawItem, &h); err != nil {
			return "", nil, fmt.Errorf("item %d: %w", i, err)
		}
		switch h.Name {
		case "":
			return "", nil, fmt.Errorf("item %d: name is empty", i)
		case domain.ItemAddress:
			items = append(items, domain.AddressProof{})
		case domain.ItemProof:
			if h.Payload == nil {
				return "", nil, fmt.Errorf("item %d: ton_proof without payload", i)
			}
			items = append(items, domain.AuthChallenge{Payload: *h.Payload})
		default:
			items = append(items, domain.UnknownCapability{
				Name: h.Name,
				Raw:  json.RawMessage(bytes.Clone(rawItem)),
			})
		}
	}
	return req.ManifestURL, items, nil
}
