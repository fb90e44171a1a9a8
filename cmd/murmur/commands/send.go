package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// send <peer> <message>: 1:1 message over the pairwise session layer.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <contact-or-key> <message>",
		Short: "Encrypt and send a direct message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			peer, err := wire.Contacts.Resolve(args[0])
			if err != nil {
				return err
			}
			if err := wire.Messages.Send(cmd.Context(), passphrase, peer, []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
}
