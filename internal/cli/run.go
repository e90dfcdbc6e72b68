package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// forceExitAfter bounds graceful shutdown once a signal arrives.
const forceExitAfter = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		done := make(chan struct{})
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		go func() {
			select {
			case sig := <-sigCh:
				fmt.Fprintf(os.Stderr, "received %v, shutting down\n", sig)
				cancel()
			case <-done:
				return
			}

			// A second signal or a stuck shutdown forces exit.
			select {
			case sig := <-sigCh:
				fmt.Fprintf(os.Stderr, "received second %v, forcing exit\n", sig)
				os.Exit(1)
			case <-time.After(forceExitAfter):
				fmt.Fprintln(os.Stderr, "graceful shutdown timed out, forcing exit")
				os.Exit(1)
			case <-done:
			}
		}()

		err := getApp().Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
