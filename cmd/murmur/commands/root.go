package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"murmur/internal/app"
)

var (
	home       string
	passphrase string
	relayAddr  string

	wire *app.Wire
)

// Execute builds and runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:           "murmur",
		Short:         "End-to-end encrypted group chat over an untrusted relay",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".murmur")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			w, err := app.NewWire(cmd.Context(), app.Config{Home: home, RelayAddr: relayAddr})
			if err != nil {
				return err
			}
			wire = w
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire != nil {
				return wire.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.murmur)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity")
	root.PersistentFlags().StringVar(&relayAddr, "relay", "", "relay address (e.g. 127.0.0.1:7654)")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		contactCmd(),
		groupCmd(),
		sendCmd(),
		listenCmd(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}
