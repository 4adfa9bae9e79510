package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"therapy/client"
	"therapy/models"
	"therapy/services/reconcile"

	"github.com/spf13/cobra"
)

// projectionSource reads what a patient needs to pick a slot: the
// therapist's free slots on a date and the caller's own sessions.
func projectionSource(c *client.Client, therapistID, date string) reconcile.Source {
	return reconcile.SourceFunc(func(ctx context.Context) (reconcile.Snapshot, error) {
		var snap reconcile.Snapshot
		var err error
		if therapistID != "" && date != "" {
			if snap.Available, err = c.ListAvailable(ctx, therapistID, date); err != nil {
				return snap, err
			}
		}
		snap.Sessions, err = c.ListSessions(ctx, "")
		return snap, err
	})
}

func newBookCommand(opts *globalOptions) *cobra.Command {
	var slotID string
	cmd := &cobra.Command{
		Use:   "book <therapist> <date>",
		Short: "Pick a free slot and book it",
		Long: `Lists the therapist's free slots on the date, books the chosen one and
checks the result against a fresh read. If the slot was lost to someone
else the list is shown again; no other slot is booked automatically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := opts.selfID()
			if err != nil {
				return err
			}
			c := opts.client()
			p := reconcile.NewProjection(projectionSource(c, args[0], args[1]), self, nil)
			if err := p.Refresh(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			available := p.Available()
			if len(available) == 0 {
				fmt.Fprintln(out, "no free slots")
				return nil
			}
			if slotID == "" {
				if slotID, err = chooseSlot(cmd.InOrStdin(), out, available); err != nil {
					return err
				}
			}

			tok := p.BeginBooking(slotID)
			s, bookErr := c.Book(cmd.Context(), slotID)
			p.Resolve(tok, s, bookErr)
			if err := p.Refresh(cmd.Context()); err != nil {
				fmt.Fprintf(out, "could not verify booking: %v\n", err)
			}

			if notices := p.DrainNotices(); len(notices) > 0 {
				for _, n := range notices {
					fmt.Fprintf(out, "! %s: %s\n", n.Kind, n.Message)
				}
				fmt.Fprintln(out, "slots now free:")
				_ = printSlots(out, p.Available())
				return errors.New("booking did not go through")
			}
			if bookErr != nil {
				return bookErr
			}
			fmt.Fprintf(out, "booked session %s (%s)\n", s.ID, s.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&slotID, "slot", "", "slot id to book without prompting")
	return cmd
}

func chooseSlot(in io.Reader, out io.Writer, slots []models.Slot) (string, error) {
	for i, s := range slots {
		fmt.Fprintf(out, "[%d] %s %s\n", i+1, s.Date, s.TimeRange)
	}
	fmt.Fprint(out, "slot number: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read choice: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(slots) {
		return "", fmt.Errorf("choose a number between 1 and %d", len(slots))
	}
	return slots[n-1].ID, nil
}

func printSlots(w io.Writer, slots []models.Slot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME")
	for _, s := range slots {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Date, s.TimeRange)
	}
	return tw.Flush()
}

func printSessions(w io.Writer, sessions []models.Session) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tSTATUS\tCALL")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s/%s\n", s.ID, s.ScheduledDate, s.ScheduledTime, s.Status,
			s.Call.Negotiation.Status, s.Call.Lifecycle)
	}
	return tw.Flush()
}
