package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/creepycrawler/internal/config"
)

// NewRootCmd creates the root command for creepycrawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creepycrawler",
		Short: "Crawl a website and report dead links and unreachable files",
		Long: `creepycrawler crawls a website from a seed URL and records every link it
finds in a link graph. From the graph it reports broken links together with the
pages linking to them, writes a sitemap, and compares the crawl with the site's
webroot (local or over SSH) to find files no page links to.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Only log warnings and errors")
	pf.BoolP("silent", "s", false, "Suppress all logging and the summary")
	pf.String("log-format", "text", "Log format: text or json")
	pf.StringP("working-dir", "w", config.DefaultWorkingDir,
		"Directory for output files and relative input paths")
	pf.StringP("config", "c", "",
		"Configuration file path (default: .creepycrawler in current or home directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
