package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"therapy/models"
	"therapy/services/reconcile"

	"github.com/spf13/cobra"
)

func newWatchCommand(opts *globalOptions) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll your sessions and print changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			self, err := opts.selfID()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p := reconcile.NewProjection(projectionSource(opts.client(), "", ""), self, nil)
			return watch(ctx, p, interval, func(format string, a ...interface{}) {
				fmt.Fprintf(cmd.OutOrStdout(), format, a...)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "poll interval")
	return cmd
}

func watch(ctx context.Context, p *reconcile.Projection, interval time.Duration, printf func(string, ...interface{})) error {
	last := map[string]string{}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := p.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printf("refresh failed: %v\n", err)
		} else {
			for _, s := range p.Sessions() {
				state := describe(s)
				if last[s.ID] != state {
					printf("%s %s %s: %s\n", s.ScheduledDate, s.ScheduledTime, s.ID, state)
					last[s.ID] = state
				}
			}
		}
		for _, n := range p.DrainNotices() {
			printf("! %s: %s\n", n.Kind, n.Message)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func describe(s models.Session) string {
	state := string(s.Status)
	if s.Call.Negotiation.Status != models.NegotiationNone && s.Call.Negotiation.Status != "" {
		state += ", call " + string(s.Call.Negotiation.Status)
	}
	if s.Call.Lifecycle == models.CallActive || s.Call.Lifecycle == models.CallEnded {
		state += ", " + string(s.Call.Lifecycle)
	}
	return state
}
