package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/law-makers/harvest/internal/output"
	"github.com/law-makers/harvest/internal/ui"
)

// crawlRequest is what the user asked for, before validation
type crawlRequest struct {
	URL        string
	StartDate  string
	EndDate    string
	MaxItems   int
	Format     string
	Headed     bool
	Categories []string
}

// promptCrawl asks for the crawl parameters one line at a time. Blank
// answers keep the values already in req; only the URL is mandatory.
func promptCrawl(in io.Reader, out io.Writer, req *crawlRequest) error {
	r := bufio.NewReader(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprintf(out, "\n%s\n", ui.Heading("Interactive harvest"))

	for req.URL == "" {
		u, err := ask("Enter target website URL: ")
		if err == io.EOF {
			return fmt.Errorf("URL is required")
		}
		if err != nil {
			return err
		}
		if u == "" {
			fmt.Fprintln(out, ui.Warn("URL is required."))
		}
		req.URL = u
	}

	optional := []struct {
		prompt string
		apply  func(string)
	}{
		{"Enter start date (YYYY-MM-DD) [optional, press Enter to skip]: ", func(s string) { req.StartDate = s }},
		{"Enter end date (YYYY-MM-DD) [optional, press Enter to skip]: ", func(s string) { req.EndDate = s }},
		{fmt.Sprintf("Enter max items [default: %d]: ", req.MaxItems), func(s string) {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				req.MaxItems = n
			}
		}},
		{fmt.Sprintf("Enter output format (%s) [default: %s]: ", formatChoices(), req.Format), func(s string) {
			if _, err := output.ParseFormat(s); err == nil {
				req.Format = s
			}
		}},
		{"Run with a visible browser? (y/n) [default: n]: ", func(s string) {
			req.Headed = strings.EqualFold(s, "y") || strings.EqualFold(s, "yes")
		}},
	}
	for _, q := range optional {
		answer, err := ask(q.prompt)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if answer != "" {
			q.apply(answer)
		}
	}
	return nil
}

func formatChoices() string {
	names := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, "/")
}
