package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/harvest/internal/config"
	"github.com/law-makers/harvest/internal/crawler"
	"github.com/law-makers/harvest/internal/datetime"
	"github.com/law-makers/harvest/internal/output"
	"github.com/law-makers/harvest/internal/ui"
	urlutil "github.com/law-makers/harvest/internal/utils/url"
	"github.com/law-makers/harvest/pkg/models"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	startDate  string
	endDate    string
	categories []string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Crawl a listing page and extract article metadata",
	Long: `Opens the listing page in Chrome, follows the article links it finds and
extracts title, date, author, category, description and content from each one.
Listing pages are advanced by clicking "next"/"load more" controls or by
infinite scroll until enough records are collected.

Without a URL, harvest asks for the crawl parameters interactively.`,
	Example: `  # Collect 10 articles as CSV (output.csv)
  harvest crawl https://example.com/news

  # 50 sports or business articles from 2024, as JSON
  harvest crawl https://example.com/news -n 50 -f json --categories sports,business --start-date 2024-01-01 --end-date 2024-12-31

  # Watch the browser and reuse a saved login
  harvest crawl https://example.com/news --headed --session example

  # Ask for everything interactively
  harvest crawl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	config.RegisterCrawlFlags(crawlCmd)
	crawlCmd.Flags().StringVar(&startDate, "start-date", "", "Only keep articles published on or after this date (YYYY-MM-DD)")
	crawlCmd.Flags().StringVar(&endDate, "end-date", "", "Only keep articles published on or before this date (YYYY-MM-DD)")
	crawlCmd.Flags().StringSliceVar(&categories, "categories", nil, "Only keep articles in these categories (e.g. sports,business)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := a.Config

	req := crawlRequest{
		MaxItems:   cfg.MaxItems,
		Format:     cfg.Format,
		Headed:     !cfg.Headless,
		StartDate:  startDate,
		EndDate:    endDate,
		Categories: categories,
	}
	if len(args) == 1 {
		req.URL = args[0]
	} else {
		if f, ok := cmd.InOrStdin().(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
			return fmt.Errorf("a URL is required when not running in a terminal")
		}
		if err := promptCrawl(cmd.InOrStdin(), cmd.OutOrStdout(), &req); err != nil {
			return err
		}
	}

	cc, format, err := buildCrawl(req)
	if err != nil {
		return err
	}
	sink := output.NewFileSink(cfg.Output, format)

	out := cmd.OutOrStdout()
	if !cfg.Quiet {
		printCrawlHeader(out, cc, sink)
	}

	var extra []crawler.Observer
	if !cfg.NoProgress && !cfg.Quiet && !cfg.JSONLog && isatty.IsTerminal(os.Stderr.Fd()) {
		extra = append(extra, ui.NewProgress(os.Stderr, cc.MaxItems))
	}

	res, err := a.Crawl(cmd.Context(), cc, sink, extra...)
	if err != nil {
		if crawler.IsFatal(err) {
			log.Error().Err(err).Str("url", cc.TargetURL).Msg("Crawl aborted")
		}
		return err
	}

	if !cfg.Quiet {
		printCrawlSummary(out, res, sink)
	}
	return nil
}

// buildCrawl validates a request and turns it into a crawl configuration
// and output format.
func buildCrawl(req crawlRequest) (*models.CrawlConfig, output.Format, error) {
	target, err := urlutil.NormalizeTarget(req.URL)
	if err != nil {
		return nil, "", err
	}
	format, err := output.ParseFormat(req.Format)
	if err != nil {
		return nil, "", err
	}
	if req.MaxItems <= 0 {
		return nil, "", fmt.Errorf("max items must be at least 1")
	}

	cc := &models.CrawlConfig{
		TargetURL: target,
		MaxItems:  req.MaxItems,
		Headless:  !req.Headed,
	}
	if cc.DateRange.Start, err = parseBound("start", req.StartDate); err != nil {
		return nil, "", err
	}
	if cc.DateRange.End, err = parseBound("end", req.EndDate); err != nil {
		return nil, "", err
	}
	for _, c := range req.Categories {
		if c != "" {
			cc.Categories = append(cc.Categories, c)
		}
	}
	if err := crawler.ValidateConfig(cc); err != nil {
		return nil, "", err
	}
	return cc, format, nil
}

func parseBound(name, s string) (*datetime.Timestamp, error) {
	if s == "" {
		return nil, nil
	}
	ts, ok := datetime.Parse(s)
	if !ok {
		return nil, fmt.Errorf("invalid %s date %q (expected YYYY-MM-DD)", name, s)
	}
	return &ts, nil
}

func printCrawlHeader(w io.Writer, cc *models.CrawlConfig, sink *output.FileSink) {
	fmt.Fprintf(w, "\n%s %s\n", ui.Heading("Harvesting"), cc.TargetURL)
	fmt.Fprintf(w, "  Max items: %d\n", cc.MaxItems)
	if cc.DateRange.Start != nil {
		fmt.Fprintf(w, "  Filter start: %s\n", cc.DateRange.Start.ISO())
	}
	if cc.DateRange.End != nil {
		fmt.Fprintf(w, "  Filter end: %s\n", cc.DateRange.End.ISO())
	}
	if len(cc.Categories) > 0 {
		fmt.Fprintf(w, "  Categories: %v\n", cc.Categories)
	}
	fmt.Fprintf(w, "  Output: %s\n\n", sink.Path)
}

func printCrawlSummary(w io.Writer, res *crawler.Result, sink *output.FileSink) {
	if res.Interrupted {
		fmt.Fprintln(w, ui.Warn("Interrupted, keeping what was collected so far."))
	}
	if len(res.Records) == 0 {
		fmt.Fprintln(w, ui.Warn("No records matched."))
	}
	fmt.Fprintf(w, "%s %d records saved to %s\n", ui.Success("✓"), len(res.Records), sink.Path)
	fmt.Fprintf(w, "  Pages: %d  Links: %d  Skipped: %d  Failed: %d  Time: %s\n\n",
		res.Pages, res.Visited, res.Rejected, res.Failed, res.Elapsed.Round(time.Second))
}
