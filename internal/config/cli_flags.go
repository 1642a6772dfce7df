package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy, or a comma separated list to rotate (e.g., http://localhost:8080)")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (e.g., -H \"Accept-Language: de-DE\")")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium binary")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (optional)")
}

// RegisterCrawlFlags registers the flags that tune a crawl run
func RegisterCrawlFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	f := cmd.Flags()
	f.IntP("max-items", "n", DefaultMaxItems, "Maximum number of records to collect")
	f.StringP("output", "o", DefaultOutput, "Output file path without extension")
	f.StringP("format", "f", DefaultFormat, "Output format (csv, json, xml, xlsx, md, sqlite)")
	f.Bool("headed", false, "Show the browser window")
	f.IntP("concurrency", "c", DefaultConcurrency, "Number of article pages loaded in parallel")
	f.Int("max-pages", DefaultMaxPages, "Maximum listing pages to walk (0 = no limit)")
	f.Duration("initial-timeout", DefaultInitialTimeout, "Timeout for the listing page load")
	f.Duration("link-timeout", DefaultLinkTimeout, "Timeout for each article page load")
	f.Int("retries", DefaultRetries, "Attempts for the listing page load")
	f.Float64("rate-limit", 0, "Article loads per second per host (0 = unlimited)")
	f.String("session", "", "Load cookies from a saved session")
	f.String("save-session", "", "Save the run's cookies under this session name")
	f.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	f.Bool("no-progress", false, "Disable the progress bar")
}
