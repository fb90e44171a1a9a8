package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// group create/list/add-member/remove-member/announce/send.
func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups and send group messages",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group with yourself as creator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			g, err := wire.Groups.Create(passphrase, args[0])
			if err != nil {
				return err
			}
			fmt.Println("group created:", g.ID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := wire.Groups.List()
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%s\t%s\t%d members\n", g.ID, g.Name, len(g.Members))
			}
			return nil
		},
	}

	addMember := &cobra.Command{
		Use:   "add-member <group-id> <contact-or-key>",
		Short: "Add a member and send them your current sender key bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			pub, err := wire.Contacts.Resolve(args[1])
			if err != nil {
				return err
			}
			return wire.Groups.AddMember(cmd.Context(), passphrase, args[0], pub)
		},
	}

	removeMember := &cobra.Command{
		Use:   "remove-member <group-id> <contact-or-key>",
		Short: "Remove a member and rotate your sender key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			pub, err := wire.Contacts.Resolve(args[1])
			if err != nil {
				return err
			}
			return wire.Groups.RemoveMember(cmd.Context(), passphrase, args[0], pub)
		},
	}

	announce := &cobra.Command{
		Use:   "announce <group-id>",
		Short: "Re-broadcast your sender key bundle to every member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			return wire.Groups.Distribute(cmd.Context(), passphrase, args[0])
		},
	}

	send := &cobra.Command{
		Use:   "send <group-id> <message>",
		Short: "Encrypt a message once and send it to every member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			msg, err := wire.Groups.Send(cmd.Context(), passphrase, args[0], []byte(args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("sent at index %d\n", msg.Index)
			return nil
		},
	}

	cmd.AddCommand(create, list, addMember, removeMember, announce, send)
	return cmd
}
