package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"tonbridge/internal/domain"
	walletsvc "tonbridge/internal/services/wallet"
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage wallet keys",
	}
	cmd.AddCommand(walletInitCmd(), walletShowCmd())
	return cmd
}

func walletInitCmd() *cobra.Command {
	var (
		address   string
		network   string
		stateInit string
		seedHex   string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate or import a wallet key and store it securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			opts := walletsvc.Options{
				Address:   address,
				Network:   domain.Network(network),
				StateInit: stateInit,
			}
			if seedHex != "" {
				seed, err := hex.DecodeString(seedHex)
				if err != nil {
					return fmt.Errorf("--seed: %w", err)
				}
				opts.Seed = seed
			}
			w, fp, err := wire.Wallets.Create(passphrase, opts)
			if err != nil {
				return err
			}
			defer wire.Wallets.Lock()
			fmt.Printf("Wallet created.\nID: %s\nAddress: %s\nFingerprint: %s\n", w.ID, w.Address, fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "raw wallet address <workchain>:<hex>")
	cmd.Flags().StringVar(&network, "network", string(domain.NetworkMainnet), "network id (-239 mainnet, -3 testnet)")
	cmd.Flags().StringVar(&stateInit, "state-init", "", "base64 wallet state init")
	cmd.Flags().StringVar(&seedHex, "seed", "", "import an existing 32-byte Ed25519 seed (hex)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func walletShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print wallet address and key fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, err := wire.ResolveWallet(domain.WalletID(walletID))
			if err != nil {
				return err
			}
			w, err := wire.Wallets.Unlock(passphrase, id)
			if err != nil {
				return err
			}
			defer wire.Wallets.Lock()
			fmt.Printf("ID: %s\nAddress: %s\nNetwork: %s\nPublic key: %x\nFingerprint: %s\n",
				w.ID, w.Address, w.Network, w.PublicKey[:], walletsvc.Fingerprint(w))
			return nil
		},
	}
}
