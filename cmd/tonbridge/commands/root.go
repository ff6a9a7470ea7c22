package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tonbridge/internal/app"
	"tonbridge/internal/domain"
)

var (
	home       string
	passphrase string
	walletID   string
	bridgeURL  string
	logLevel   string
	logFormat  string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:          "tonbridge",
		Short:        "Wallet-side TON Connect bridge",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if bridgeURL != "" {
				cfg.BridgeURL = bridgeURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}
			if passphrase == "" {
				passphrase = os.Getenv("TONBRIDGE_PASSPHRASE")
			}

			log, err := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			wire, err = app.NewWire(cfg, log)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if wire != nil {
				_ = wire.Log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.tonbridge)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting keys and sessions (or TONBRIDGE_PASSPHRASE)")
	root.PersistentFlags().StringVarP(&walletID, "wallet", "w", "", "wallet id (default: the only stored wallet)")
	root.PersistentFlags().StringVar(&bridgeURL, "bridge", "", "relay base URL (default "+app.DefaultBridgeURL+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "console or json")

	root.AddCommand(walletCmd(), connectCmd(), sessionsCmd(), listenCmd(), inspectCmd())
	return root.Execute()
}

// openApp unlocks the selected wallet.
func openApp(ctx context.Context) (*app.App, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase required (-p)")
	}
	return wire.Open(ctx, passphrase, domain.WalletID(walletID))
}
