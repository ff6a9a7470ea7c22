package connecturi

import (
	"encoding/json"
	"net/url"

	"tonbridge/internal/domain"
)

// Encode builds a URI for params under scheme. Parsing the result yields
// params again.
func Encode(params domain.ConnectionParameters, scheme string) (string, error) {
	items := make([]any, 0, len(params.RequestedItems))
	for _, item := range params.RequestedItems {
		switch it := item.(type) {
		case domain.AddressProof:
			items = append(items, map[string]string{"name": domain.ItemAddress})
		case domain.AuthChallenge:
			items = append(items, map[string]string{"name": domain.ItemProof, "payload": it.Payload})
		case domain.UnknownCapability:
			if len(it.Raw) > 0 {
				items = append(items, it.Raw)
			} else {
				items = append(items, map[string]string{"name": it.Name})
			}
		}
	}
	raw, err := json.Marshal(struct {
		ManifestURL string `json:"manifestUrl"`
		Items       []any  `json:"items"`
	}{ManifestURL: params.ManifestURL, Items: items})
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set(paramVersion, params.Version)
	q.Set(paramID, params.PeerClientID.String())
	q.Set(paramRequest, string(raw))
	if params.Return != "" {
		q.Set(paramReturn, params.Return)
	}
	return scheme + "://?" + q.Encode(), nil
}
