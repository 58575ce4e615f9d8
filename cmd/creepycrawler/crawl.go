package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/creepycrawler/internal/config"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <website> [<webroot>]",
		Short: "Crawl a website and build its link graph",
		Long: `Crawl fetches every page reachable from the website on the same host and
records each link in a link graph. External links are recorded but not
followed. The graph is saved to the working directory and every crawl is kept
in the history database.

When a webroot is given (a local directory or [user@]host:path reached over
SSH), its files are compared with the crawl to find unreachable files.

Examples:
  # Crawl a site and print a summary
  creepycrawler crawl https://example.com

  # Write dead link and unreachable file reports as JSON and Markdown
  creepycrawler crawl https://example.com /var/www/html -r all -f json,md

  # Compare with a webroot on a remote server and write a sitemap
  creepycrawler crawl https://example.com deploy@example.com:/srv/www -x

  # Skip calendar pages and look up archived copies of dead links
  creepycrawler crawl https://example.com -i '/calendar/' -a -r deadlinks

Press Ctrl+C to stop a crawl; the partial link graph is still saved.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runCrawlCmd,
	}

	addGraphFlags(cmd)

	f := cmd.Flags()
	f.StringP("ignore", "i", "",
		"Regular expression; matching links are neither fetched nor recorded")
	f.IntP("max-pages", "p", config.DefaultMaxPages,
		"Stop after this many fetches (0 = unlimited)")
	f.DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request, redirects included")
	f.StringP("user-agent", "u", config.DefaultUserAgent, "User-Agent header")
	f.String("proxy", "", "Route requests through a SOCKS5 proxy (host:port)")
	f.StringToStringP("header", "H", nil, "Extra request header, e.g. -H Authorization='Bearer x'")
	f.Bool("no-history", false, "Do not store the crawl in the history database")
	f.String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, config.ModeCrawl, args)
	if err != nil {
		return err
	}
	return runSite(cmd, cfg)
}
