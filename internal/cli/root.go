package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/harvest/internal/app"
	"github.com/law-makers/harvest/internal/config"
	"github.com/law-makers/harvest/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Crawl news and blog listings into structured article records",
	Long: `Harvest drives a real Chrome browser through a site's article listing,
follows every article link, and extracts title, date, author, category,
tags, description and content. Results are written as CSV, JSON, XML,
Excel, Markdown or SQLite.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// ctx is cancelled on interrupt; a running crawl then stops and keeps what it has.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "%s %v\n", ui.Error("Error:"), err)
	}
	return err
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		appCtx, err := app.New(cfg)
		if err != nil {
			return err
		}

		// Store app in the current command's context for commands to access
		SetApp(cmd, appCtx)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		appCtx := GetAppFromCmd(cmd)
		if appCtx == nil {
			return
		}
		_ = appCtx.Close(context.Background())
		SetApp(cmd, nil)
	}
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for Harvest")
	rootCmd.Flags().Bool("version", false, "Version for Harvest")
}

func init() {
	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Colored help and usage
	rootCmd.SetHelpFunc(printHelp)
	rootCmd.SetUsageFunc(printUsage)
}
