package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tonbridge/internal/domain"
	"tonbridge/internal/protocol/connecturi"
)

// inspect: parse a connection URI and print what the app asks for.
func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <uri>",
		Short: "Parse a connection URI without contacting the app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := connecturi.Parser{
				Schemes:        connecturi.DefaultSchemes,
				UniversalLinks: wire.Config.UniversalLinks,
			}
			params, err := p.Parse(args[0])
			if err != nil {
				return err
			}
			out := struct {
				Version  string   `json:"version"`
				Peer     string   `json:"peer"`
				Manifest string   `json:"manifest"`
				Items    []string `json:"items"`
				Return   string   `json:"return,omitempty"`
			}{
				Version:  params.Version,
				Peer:     params.PeerClientID.String(),
				Manifest: params.ManifestURL,
				Items:    itemNames(params.RequestedItems),
				Return:   params.Return,
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		},
	}
}

func itemNames(items []domain.CapabilityRequest) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		name := it.ItemName()
		if _, ok := it.(domain.UnknownCapability); ok {
			name += " (unsupported)"
		}
		names = append(names, name)
	}
	return names
}
