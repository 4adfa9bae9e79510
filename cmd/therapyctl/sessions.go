package main

import (
	"context"

	"therapy/client"
	"therapy/models"

	"github.com/spf13/cobra"
)

type sessionAction func(ctx context.Context, c *client.Client, id string, args []string) (*models.Session, error)

func sessionCommand(opts *globalOptions, use, short string, nargs int, action sessionAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.RangeArgs(1, 1+nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := action(cmd.Context(), opts.client(), args[0], args[1:])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	}
}

func optArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func newSessionsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and move sessions through their lifecycle",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List your sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := opts.client().ListSessions(cmd.Context(), models.SessionStatus(status))
			if err != nil {
				return err
			}
			return printSessions(cmd.OutOrStdout(), sessions)
		},
	}
	list.Flags().StringVar(&status, "status", "", "pending, confirmed, completed or cancelled")
	cmd.AddCommand(list)

	cmd.AddCommand(
		sessionCommand(opts, "get <id>", "Show a session", 0,
			func(ctx context.Context, c *client.Client, id string, _ []string) (*models.Session, error) {
				return c.GetSession(ctx, id)
			}),
		sessionCommand(opts, "confirm <id>", "Confirm a pending session (therapist)", 0,
			func(ctx context.Context, c *client.Client, id string, _ []string) (*models.Session, error) {
				return c.Confirm(ctx, id)
			}),
		sessionCommand(opts, "decline <id> [reason]", "Decline a pending session (therapist)", 1,
			func(ctx context.Context, c *client.Client, id string, args []string) (*models.Session, error) {
				return c.Decline(ctx, id, optArg(args))
			}),
		sessionCommand(opts, "cancel <id> [reason]", "Cancel a session", 1,
			func(ctx context.Context, c *client.Client, id string, args []string) (*models.Session, error) {
				return c.Cancel(ctx, id, optArg(args))
			}),
		sessionCommand(opts, "complete <id> [notes]", "Complete a confirmed session (therapist)", 1,
			func(ctx context.Context, c *client.Client, id string, args []string) (*models.Session, error) {
				return c.Complete(ctx, id, optArg(args))
			}),
		sessionCommand(opts, "note <id> <text>", "Append a note", 1,
			func(ctx context.Context, c *client.Client, id string, args []string) (*models.Session, error) {
				return c.AddNote(ctx, id, optArg(args))
			}),
	)
	return cmd
}
