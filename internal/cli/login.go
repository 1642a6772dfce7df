package cli

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/law-makers/harvest/internal/auth"
	"github.com/law-makers/harvest/internal/ui"
	urlutil "github.com/law-makers/harvest/internal/utils/url"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	loginSession string
	waitSelector string
	loginTimeout time.Duration
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <url>",
	Short: "Log in to a website in a visible browser and save the session",
	Long: `Opens a visible browser window for you to log in to a website manually.
Once logged in, the cookies are saved as a named session.

A crawl started with --session begins with those cookies, so listing and
article pages behind a login or a cookie wall can be harvested.`,
	Example: `  # Log in and press Enter when done
  harvest login https://example.com/login --session=example

  # Finish as soon as the account menu appears
  harvest login https://example.com/login --session=example --wait="#account-menu"

  # Use the saved session
  harvest crawl https://example.com/news --session=example`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&loginSession, "session", "s", "", "Session name to save (required)")
	loginCmd.Flags().StringVarP(&waitSelector, "wait", "w", "", "CSS selector that appears once logged in (e.g., '#dashboard')")
	loginCmd.Flags().DurationVar(&loginTimeout, "login-timeout", 5*time.Minute, "Timeout for the login")
	_ = loginCmd.MarkFlagRequired("session")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	target, err := urlutil.NormalizeTarget(args[0])
	if err != nil {
		return err
	}
	st, err := a.Sessions()
	if err != nil {
		return err
	}

	log.Info().
		Str("url", target).
		Str("session", loginSession).
		Msg("Initiating login")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n\n", ui.Heading("Interactive Login"))
	fmt.Fprintf(out, "  %s %s\n", ui.Bold("Session:"), loginSession)
	fmt.Fprintf(out, "  %s %s\n", ui.Bold("URL:"), target)
	if waitSelector != "" {
		fmt.Fprintf(out, "  %s %s\n", ui.Bold("Waiting:"), waitSelector)
	}
	fmt.Fprintf(out, "  %s %s\n\n", ui.Bold("Timeout:"), loginTimeout)

	browserSession, err := a.Launch(cmd.Context(), a.BrowserOptions(false))
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer browserSession.Close()

	confirm := func(ctx context.Context) error {
		fmt.Fprint(out, "Log in in the browser window, then press Enter here... ")
		done := make(chan error, 1)
		go func() {
			_, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			done <- err
		}()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	session, err := auth.Login(cmd.Context(), browserSession, auth.LoginOptions{
		SessionName:  loginSession,
		URL:          target,
		WaitSelector: waitSelector,
		Timeout:      loginTimeout,
	}, confirm)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := st.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintln(out, ui.Success("\n✓ Session saved to "+st.Backend()))
	fmt.Fprintf(out, "\n%s\n", ui.Bold("You can now use this session with:"))
	fmt.Fprintf(out, "  harvest crawl <url> --session=%s\n\n", loginSession)

	if !session.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Session expires: %s\n\n", session.ExpiresAt.Format(time.RFC1123))
	}
	return nil
}
