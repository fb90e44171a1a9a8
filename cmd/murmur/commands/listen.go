package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"murmur/internal/domain"
)

// listen: register our key at the relay and decrypt inbound traffic until
// interrupted. Bundles are applied, group events reported, messages
// printed. Decrypt failures are logged and never retried.
func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Connect to the relay and print decrypted incoming messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if wire.Relay == nil {
				return fmt.Errorf("no relay configured, use --relay")
			}
			id, err := wire.Identity.Load(passphrase)
			if err != nil {
				return err
			}
			if err := wire.Relay.Register(cmd.Context(), id.XPub.Hex()); err != nil {
				return err
			}
			logger := log.New(cmd.ErrOrStderr(), "listen: ", log.LstdFlags)
			fmt.Println("listening as", id.XPub.Hex())

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case env, ok := <-wire.Relay.Incoming():
					if !ok {
						return domain.ErrTransportUnavailable
					}
					handleEnvelope(logger, passphrase, env)
				}
			}
		},
	}
}

func handleEnvelope(logger *log.Logger, passphrase string, env domain.Envelope) {
	switch env.Type {
	case domain.EnvMessage:
		pt, err := wire.Messages.Open(passphrase, env)
		if err != nil {
			logger.Printf("message from %s: %v", env.From, err)
			return
		}
		fmt.Printf("[%s] %s\n", env.From, pt)

	case domain.EnvSenderKey, domain.EnvSenderKeyAlt:
		bundle, applied, err := wire.Groups.HandleBundle(passphrase, env)
		if err != nil {
			logger.Printf("bundle from %s: %v", env.From, err)
			return
		}
		if applied {
			fmt.Printf("[group %s] sender key from %s installed\n", bundle.GroupID, env.From)
		}

	case domain.EnvGroupMessage:
		pt, err := wire.Groups.Receive(env.Packet)
		if err != nil {
			logger.Printf("group message from %s: %v", env.From, err)
			return
		}
		fmt.Printf("[group %s] %s: %s\n", env.Packet.GroupID, env.From, pt)

	case domain.EnvGroupEvent:
		fmt.Printf("[group %s] event from %s: %s\n", env.GroupID, env.From, env.Event)

	default:
		logger.Printf("ignoring envelope type %q", env.Type)
	}
}
