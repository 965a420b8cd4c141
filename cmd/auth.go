package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/sessionbill/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		listenAddr string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to Google Calendar",
		Long: `Run the OAuth consent flow for the client in credentials.json and save the
resulting token to token.json. Open the printed URL in a browser; Google
redirects back to a short-lived local server which completes the flow.

You only need to authorize once. The token is refreshed automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			conf, err := google.LoadOAuthConfig(settings.Path(settings.CredentialsFile), google.DefaultOAuthScopes...)
			if err != nil {
				return err
			}

			state, err := randomState()
			if err != nil {
				return err
			}
			receiver, err := google.NewCodeReceiver(listenAddr, state)
			if err != nil {
				return err
			}
			conf.RedirectURL = receiver.RedirectURL()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL to authorize sessionbill:\n\n%s\n\n", google.AuthCodeURL(conf, state))
			fmt.Fprintln(out, "Waiting for the redirect...")

			code, err := receiver.Wait(ctx)
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			store := google.NewTokenStore(settings.Path(settings.TokenFile))
			if _, err := google.Exchange(ctx, conf, store, code); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved token to %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8085", "Address of the local redirect server")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the authorization")

	return cmd
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
