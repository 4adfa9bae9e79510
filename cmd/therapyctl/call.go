package main

import (
	"context"
	"fmt"

	"therapy/client"
	"therapy/models"

	"github.com/spf13/cobra"
)

func newCallCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Negotiate and run the video call of a confirmed session",
	}

	cmd.AddCommand(
		sessionCommand(opts, "request <session-id>", "Ask the other party to start a call", 0,
			func(ctx context.Context, c *client.Client, id string, _ []string) (*models.Session, error) {
				return c.RequestCall(ctx, id)
			}),
		sessionCommand(opts, "respond <session-id> <accept|decline>", "Answer a call request", 1,
			func(ctx context.Context, c *client.Client, id string, args []string) (*models.Session, error) {
				d := models.CallDecision(optArg(args))
				if d != models.DecisionAccept && d != models.DecisionDecline {
					return nil, fmt.Errorf("decision must be accept or decline, got %q", d)
				}
				return c.RespondToCall(ctx, id, d)
			}),
		sessionCommand(opts, "activate <session-id>", "Provision or join the call room", 0,
			func(ctx context.Context, c *client.Client, id string, _ []string) (*models.Session, error) {
				return c.ActivateCall(ctx, id)
			}),
		sessionCommand(opts, "end <session-id>", "End an active call", 0,
			func(ctx context.Context, c *client.Client, id string, _ []string) (*models.Session, error) {
				return c.EndCall(ctx, id)
			}),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "token",
		Short: "Print a participant token for joining rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := opts.client().CallToken(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tok)
		},
	})
	return cmd
}
