package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tonbridge/internal/app"
	"tonbridge/internal/services/confirm"
	"tonbridge/internal/services/subscription"
)

// listen: serve app requests until interrupted, asking before every
// transaction.
func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Serve connected apps and confirm their requests interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			requests := a.Bridge.WatchRequests(0)
			defer requests.Close()
			conn := a.Bridge.WatchConnection(0)
			defer conn.Close()

			if err := a.Bridge.Open(ctx); err != nil {
				return err
			}
			fmt.Printf("Listening for wallet %s. Ctrl-C to stop.\n", a.Wallet.Address)

			answers := make(chan string)
			go readLines(answers)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return watchConnection(ctx, conn.C) })
			g.Go(func() error { return serveRequests(ctx, a, requests.C, answers) })
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Println("Stopped.")
			return nil
		},
	}
}

// readLines feeds stdin lines to out. It never returns while stdin is open;
// the process exit ends it.
func readLines(out chan<- string) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		out <- sc.Text()
	}
	close(out)
}

func watchConnection(ctx context.Context, events <-chan subscription.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == subscription.StateChanged {
				wire.Log.Info("relay connection", zap.Stringer("state", ev.State))
			}
		}
	}
}

// serveRequests applies each answer to the request whose prompt was
// printed last. A request that replaced it while the user was typing is
// never confirmed by that answer.
func serveRequests(ctx context.Context, a *app.App, events <-chan confirm.Event, answers <-chan string) error {
	var shown string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == confirm.RequestPending {
				shown = ev.TraceID
			}
			printEvent(ev)
		case line, ok := <-answers:
			if !ok {
				answers = nil
				continue
			}
			if shown == "" {
				continue
			}
			if !isYes(line) {
				if a.Bridge.CancelTrace(ctx, shown) {
					fmt.Println("Declined.")
				} else {
					fmt.Println("That request is no longer pending.")
				}
				shown = ""
				continue
			}
			err := a.Bridge.ConfirmTrace(ctx, shown)
			switch {
			case err == nil:
				shown = ""
			case errors.Is(err, confirm.ErrNoPendingRequest):
				fmt.Println("That request is no longer pending.")
				shown = ""
			default:
				fmt.Printf("Confirm failed: %v\nAnswer y to retry or n to decline.\n", err)
			}
		}
	}
}

func printEvent(ev confirm.Event) {
	switch ev.Kind {
	case confirm.RequestPending:
		var b strings.Builder
		fmt.Fprintf(&b, "\nRequest %s from %s\n", ev.Request.ID, ev.Request.PeerClientID)
		for _, o := range ev.Request.Outputs {
			fmt.Fprintf(&b, "  send %s TON to %s\n", formatTON(o.Amount), o.Address)
		}
		b.WriteString("Confirm? [y/N] ")
		fmt.Print(b.String())
	case confirm.EmulationSucceeded:
		fmt.Printf("\n  estimated fee %s TON (risk: %s)\n", formatTON(ev.Estimate.Fee), riskLabel(ev))
		for _, w := range ev.Estimate.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	case confirm.EmulationFailedEvent:
		fmt.Printf("\n  fee estimate unavailable: %v\n", ev.Err)
	case confirm.RequestSuperseded:
		fmt.Printf("\nRequest %s replaced by a newer one.\n", ev.Request.ID)
	case confirm.RequestRejected:
		fmt.Printf("\nRequest %s rejected as invalid.\n", ev.Request.ID)
	case confirm.TransactionSubmitted:
		fmt.Printf("Submitted: %s\n", ev.Receipt.Hash)
	case confirm.DeliveryFailed:
		fmt.Printf("Transaction sent but the app was not notified: %v\n", ev.Err)
	}
}

func riskLabel(ev confirm.Event) string {
	if ev.Estimate.Risk == "" {
		return "unknown"
	}
	return string(ev.Estimate.Risk)
}

// formatTON renders nanotons as a decimal TON amount.
func formatTON(nano uint64) string {
	whole, frac := nano/1_000_000_000, nano%1_000_000_000
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%09d", whole, frac), "0")
}
