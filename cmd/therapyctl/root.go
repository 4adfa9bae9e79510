package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"therapy/client"

	"github.com/golang-jwt/jwt"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	server  string
	token   string
	timeout time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "therapyctl",
		Short:         "Client for therapy sessions, slots and calls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("THERAPY_SERVER", "http://localhost:8080"), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("THERAPY_TOKEN"), "bearer token (defaults to $THERAPY_TOKEN)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")

	cmd.AddCommand(newSlotsCommand(opts))
	cmd.AddCommand(newSessionsCommand(opts))
	cmd.AddCommand(newBookCommand(opts))
	cmd.AddCommand(newCallCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	return cmd
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.server, o.token, o.timeout)
}

// selfID reads the subject of the bearer token. The server verifies the
// signature; the client only needs to know who it is.
func (o *globalOptions) selfID() (string, error) {
	if o.token == "" {
		return "", errors.New("no token: pass --token or set THERAPY_TOKEN")
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(o.token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
