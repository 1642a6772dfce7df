package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/law-makers/harvest/internal/auth"
	"github.com/law-makers/harvest/internal/ui"
	"github.com/spf13/cobra"
)

var (
	importURL    string
	importFormat string
	assumeYes    bool
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved cookie sessions",
	Long: `List, view, import and delete saved cookie sessions.

Sessions are stored in your OS keyring (or under ~/.harvest/sessions when no
keyring is available) and hold the cookies a crawl starts with.`,
	Example: `  # List all saved sessions
  harvest sessions list

  # View details of a specific session
  harvest sessions view example

  # Import cookies exported from your browser
  harvest sessions import example --url=https://example.com --format=netscape < cookies.txt

  # Delete a session
  harvest sessions delete old-session`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	RunE:  runSessionsList,
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-name>",
	Short: "View details of a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsView,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsImportCmd = &cobra.Command{
	Use:   "import <session-name>",
	Short: "Create a session from cookies exported by a browser",
	Long: `Reads cookies from standard input and saves them as a session.

Accepted formats are a JSON array of cookies (as exported by browser
extensions) and the Netscape cookies.txt format used by curl and wget.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsImport,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsViewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsImportCmd)

	sessionsDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
	sessionsImportCmd.Flags().StringVar(&importURL, "url", "", "Website URL for this session (required)")
	sessionsImportCmd.Flags().StringVar(&importFormat, "format", "json", "Import format: "+strings.Join(auth.ImportFormats, ", "))
	_ = sessionsImportCmd.MarkFlagRequired("url")
}

func sessionStore(cmd *cobra.Command) (*auth.Store, error) {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a.Sessions()
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	st, err := sessionStore(cmd)
	if err != nil {
		return err
	}
	names, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "\nNo saved sessions found.")
		fmt.Fprintln(out, "\nCreate a session with:")
		fmt.Fprintln(out, "  harvest login <url> --session=<name>")
		fmt.Fprintln(out)
		return nil
	}

	fmt.Fprintf(out, "\n%s (%d, %s)\n\n", ui.Heading("Saved Sessions"), len(names), st.Backend())

	for i, name := range names {
		fmt.Fprintf(out, "%d. %s\n", i+1, name)

		s, err := st.Load(name)
		if s == nil {
			fmt.Fprintf(out, "   %s\n", ui.Warn(fmt.Sprintf("Error loading: %v", err)))
			continue
		}

		fmt.Fprintf(out, "   URL: %s\n", s.URL)
		fmt.Fprintf(out, "   Cookies: %d\n", len(s.Cookies))
		fmt.Fprintf(out, "   Created: %s\n", s.CreatedAt.Format(time.RFC1123))
		printExpiry(out, "   ", s)

		if i < len(names)-1 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)
	return nil
}

func printExpiry(out io.Writer, indent string, s *auth.Session) {
	if s.ExpiresAt.IsZero() {
		return
	}
	if s.Expired(time.Now()) {
		fmt.Fprintf(out, "%sStatus: %s\n", indent, ui.Warn(fmt.Sprintf("Expired (%s ago)", time.Since(s.ExpiresAt).Round(time.Hour))))
		return
	}
	fmt.Fprintf(out, "%sExpires: %s (in %s)\n", indent, s.ExpiresAt.Format(time.RFC1123), time.Until(s.ExpiresAt).Round(time.Hour))
}

func runSessionsView(cmd *cobra.Command, args []string) error {
	name := args[0]
	st, err := sessionStore(cmd)
	if err != nil {
		return err
	}

	s, err := st.Load(name)
	if s == nil {
		return fmt.Errorf("failed to load session '%s': %w", name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s %s\n\n", ui.Heading("Session Details:"), name)
	fmt.Fprintf(out, "Name:     %s\n", s.Name)
	fmt.Fprintf(out, "URL:      %s\n", s.URL)
	fmt.Fprintf(out, "Created:  %s\n", s.CreatedAt.Format(time.RFC1123))
	printExpiry(out, "", s)

	fmt.Fprintf(out, "\nCookies (%d):\n", len(s.Cookies))
	for i, c := range s.Cookies {
		if i >= 5 {
			fmt.Fprintf(out, "  ... and %d more\n", len(s.Cookies)-5)
			break
		}
		fmt.Fprintf(out, "  • %s (domain: %s)\n", c.Name, c.Domain)
	}

	fmt.Fprintln(out)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	st, err := sessionStore(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !assumeYes {
		fmt.Fprintf(out, "\nDelete session '%s'? [y/N]: ", name)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := st.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Fprintf(out, "\n%s Session '%s' deleted successfully.\n\n", ui.Success("✓"), name)
	return nil
}

func runSessionsImport(cmd *cobra.Command, args []string) error {
	name := args[0]
	st, err := sessionStore(cmd)
	if err != nil {
		return err
	}

	cookies, err := auth.ReadCookies(cmd.InOrStdin(), importFormat)
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies imported")
	}

	s := auth.ImportSession(name, importURL, cookies)
	if err := st.Save(s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s Session '%s' created with %d cookies.\n", ui.Success("✓"), name, len(cookies))
	printExpiry(out, "  ", s)
	fmt.Fprintf(out, "\nUse with:\n  harvest crawl <url> --session=%s\n\n", name)
	return nil
}
