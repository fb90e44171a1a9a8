package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// fingerprint: show the short fingerprint of our public key for
// out-of-band comparison.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Show the fingerprint of the local identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			fp, err := wire.Identity.Fingerprint(passphrase)
			if err != nil {
				return err
			}
			fmt.Println(fp)
			return nil
		},
	}
}
