package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// connect: show the requesting app and approve or reject it.
func connectCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "connect <uri>",
		Short: "Approve or reject an app's connection request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			params, m, err := a.Bridge.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("App: %s (%s)\nRequests: %s\n", m.Name, m.URL, strings.Join(itemNames(params.RequestedItems), ", "))

			if !yes {
				ok, err := confirmPrompt(os.Stdin, "Connect wallet "+a.Wallet.Address+"?")
				if err != nil {
					return err
				}
				if !ok {
					if err := a.Bridge.Reject(ctx, params); err != nil {
						return err
					}
					fmt.Println("Connection rejected.")
					return nil
				}
			}

			sess, err := a.Bridge.Approve(ctx, params, m)
			if err != nil {
				return err
			}
			fmt.Printf("Connected.\nPeer: %s\nSession: %s\n", sess.PeerClientID, sess.ClientID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "approve without asking")
	return cmd
}
