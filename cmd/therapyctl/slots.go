package main

import (
	"github.com/spf13/cobra"
)

func newSlotsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Create, list and remove therapist slots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <date> <HH:MM-HH:MM>",
		Short: "Offer a slot (therapists only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := opts.client().CreateSlot(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), slot)
		},
	})

	var therapist, from, to string
	list := &cobra.Command{
		Use:   "list",
		Short: "List slots in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := opts.client().ListSlots(cmd.Context(), therapist, from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), slots)
		},
	}
	list.Flags().StringVar(&therapist, "therapist", "", "therapist id (defaults to yourself)")
	list.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	list.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "available <therapist> <date>",
		Short: "List unreserved slots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := opts.client().ListAvailable(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printSlots(cmd.OutOrStdout(), slots)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <slot-id>",
		Short: "Remove an unreserved slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().RemoveSlot(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("removed %s\n", args[0])
			return nil
		},
	})
	return cmd
}
