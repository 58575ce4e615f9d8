package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/creepycrawler/internal/config"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <webroot>",
		Short: "Report on a saved link graph without crawling",
		Long: `Report loads a link graph saved by an earlier crawl and compares it with
the webroot. All report types are written unless --report-types says otherwise.

Without --link-graph the working directory is searched for a single
*_graph.json or *_graph.yaml file.

Examples:
  # Report on the graph in the current directory
  creepycrawler report /var/www/html

  # Use a specific graph and write Markdown
  creepycrawler report /var/www/html -l example.com_graph.json -f md

  # Compare with a remote webroot
  creepycrawler report deploy@example.com:/srv/www -w ./out`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}

	addGraphFlags(cmd)

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, config.ModeReport, args)
	if err != nil {
		return err
	}
	return runSite(cmd, cfg)
}
