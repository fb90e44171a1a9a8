package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// init: generate the identity key pairs and store them encrypted at rest.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a new identity and encrypt it with the passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, fp, err := wire.Identity.Generate(passphrase)
			if err != nil {
				return err
			}
			fmt.Println("identity created")
			fmt.Println("public key: ", id.XPub.Hex())
			fmt.Println("fingerprint:", fp)
			return nil
		},
	}
}
