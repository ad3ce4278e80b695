package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/teemow/gtasks-mcp/internal/config"
	"github.com/teemow/gtasks-mcp/internal/google"
	"github.com/teemow/gtasks-mcp/internal/logging"
)

// loginTimeout bounds how long auth login waits for the browser redirect.
const loginTimeout = 5 * time.Minute

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google Tasks authorization",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var manual bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize access to Google Tasks",
		Long: `Run the OAuth consent flow and store the resulting token.

The OAuth client comes from credentials.json in the config directory (a
"Desktop app" client downloaded from the Google Cloud console), or from
GTASKS_CLIENT_ID and GTASKS_CLIENT_SECRET.

By default a temporary listener on 127.0.0.1 receives the redirect. With
--manual the authorization code is pasted on stdin instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			provider, err := newAuthProvider(cfg, logging.Discard(), nil)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, loginTimeout)
			defer cancelTimeout()

			if manual {
				return loginManual(ctx, provider, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return loginLoopback(ctx, provider, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&manual, "manual", false, "Paste the authorization code instead of using a local redirect listener")
	return cmd
}

func loginLoopback(ctx context.Context, provider *google.FileAuthProvider, out io.Writer) error {
	listener, redirectURL, err := google.ListenLoopback()
	if err != nil {
		return err
	}
	provider.SetRedirectURL(redirectURL)

	state, err := google.NewState()
	if err != nil {
		_ = listener.Close()
		return err
	}
	verifier := oauth2.GenerateVerifier()

	fmt.Fprintf(out, "Open this URL in your browser to authorize gtasks-mcp:\n\n%s\n\nWaiting for the redirect...\n",
		provider.AuthCodeURL(state, verifier))

	code, err := google.WaitForCode(ctx, listener, state)
	if err != nil {
		return err
	}
	return exchange(ctx, provider, code, verifier, out)
}

func loginManual(ctx context.Context, provider *google.FileAuthProvider, in io.Reader, out io.Writer) error {
	state, err := google.NewState()
	if err != nil {
		return err
	}
	verifier := oauth2.GenerateVerifier()

	fmt.Fprintf(out, "Open this URL in your browser to authorize gtasks-mcp:\n\n%s\n\nPaste the authorization code: ",
		provider.AuthCodeURL(state, verifier))

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("no authorization code entered")
	}
	return exchange(ctx, provider, code, verifier, out)
}

func exchange(ctx context.Context, provider *google.FileAuthProvider, code, verifier string, out io.Writer) error {
	if _, err := provider.Exchange(ctx, code, verifier); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n✅ Authorization successful. Token saved to %s\n", provider.TokenPath())
	return nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			provider, err := newAuthProvider(cfg, slog.Default(), nil)
			if err != nil {
				return err
			}
			return printAuthStatus(cmd.Context(), cmd.OutOrStdout(), provider, provider.TokenPath(), time.Now())
		},
	}
}

// printAuthStatus describes the stored token. A missing token is reported,
// not returned as an error.
func printAuthStatus(ctx context.Context, out io.Writer, provider google.AuthProvider, tokenPath string, now time.Time) error {
	fmt.Fprintf(out, "Token file: %s\n", tokenPath)

	token, err := provider.Load(ctx)
	if errors.Is(err, google.ErrNoToken) {
		fmt.Fprintln(out, "Status: not authorized")
		fmt.Fprintln(out, "Run `gtasks-mcp auth login` to authorize access to Google Tasks.")
		return nil
	}
	if err != nil {
		return err
	}

	refresh := "no"
	if token.RefreshToken != "" {
		refresh = "yes"
	}

	switch {
	case token.Expiry.IsZero():
		fmt.Fprintln(out, "Status: authorized")
	case token.Expiry.After(now):
		fmt.Fprintf(out, "Status: authorized, access token valid until %s\n", token.Expiry.Local().Format(time.RFC1123))
	case token.RefreshToken != "":
		fmt.Fprintln(out, "Status: authorized, access token expired and will be refreshed on next use")
	default:
		fmt.Fprintln(out, "Status: expired")
		fmt.Fprintln(out, "Run `gtasks-mcp auth login` to authorize again.")
	}
	fmt.Fprintf(out, "Refresh token: %s\n", refresh)
	return nil
}
