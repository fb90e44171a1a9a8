package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// contact add/list: manage the local address book.
func contactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage contacts",
	}

	add := &cobra.Command{
		Use:   "add <name> <public-key-hex>",
		Short: "Add a contact by public key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Contacts.Add(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("added %s (%s)\n", c.Name, c.Pub.Hex())
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := wire.Contacts.List()
			if err != nil {
				return err
			}
			for _, c := range contacts {
				fmt.Printf("%s\t%s\n", c.Name, c.Pub.Hex())
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
