package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/creepycrawler/internal/config"
	"github.com/nao1215/creepycrawler/internal/database"
	"github.com/nao1215/creepycrawler/internal/model"
)

// NewHistoryCmd creates the history command.
// This command lists and compares crawls stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "List and compare stored crawls",
		Long: `History shows the crawls kept in the history database.

Without a site it lists every crawled site. With a site it lists that site's
crawls, newest first. --diff compares the two latest crawls of the site (or
the crawl given by --with-id with the latest one) and shows added and removed
pages, newly broken links and fixed links.

Examples:
  # List crawled sites
  creepycrawler history

  # List the crawls of a site
  creepycrawler history example.com

  # What changed since the previous crawl?
  creepycrawler history example.com --diff

  # Compare crawl 3 with the latest crawl, as JSON
  creepycrawler history example.com --diff --with-id 3 --json

  # Forget a crawl
  creepycrawler history --delete 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 0, "Show at most this many crawls (0 = all)")
	cmd.Flags().BoolP("diff", "d", false, "Compare two crawls of the site")
	cmd.Flags().Int64("with-id", 0, "Compare this crawl with the latest one (use with --diff)")
	cmd.Flags().Bool("json", false, "Print the comparison as JSON")
	cmd.Flags().Int64("delete", 0, "Delete the crawl with this ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetInt64("delete")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	if len(args) == 0 && diff {
		return errors.New("a site is required with --diff")
	}
	if withID != 0 && !diff {
		return errors.New("--with-id requires --diff")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if deleteID != 0 {
		if err := db.DeleteCrawl(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted crawl %d\n", deleteID)
		return nil
	}

	if len(args) == 0 {
		return listSites(ctx, out, db)
	}

	site := siteArg(args[0])
	if diff {
		return compareCrawls(ctx, out, db, site, withID, jsonOutput)
	}
	return listHistory(ctx, out, db, site, limit)
}

// siteArg accepts a site name or a URL of the site.
func siteArg(arg string) string {
	if strings.Contains(arg, "://") {
		return model.SiteName(arg)
	}
	return strings.ToLower(arg)
}

// listSites lists every site with stored crawls.
func listSites(ctx context.Context, out io.Writer, db *database.CrawlDB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Fprintln(out, "No crawls found in the database.")
		fmt.Fprintln(out, "\nUse 'creepycrawler crawl <website>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(out, "Crawled sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  - %s\n", site)
	}
	fmt.Fprintln(out, "\nUse 'creepycrawler history <site>' to see the crawls of a site.")
	return nil
}

// listHistory lists the crawls of site, newest first.
func listHistory(ctx context.Context, out io.Writer, db *database.CrawlDB, site string, limit int) error {
	crawls, err := db.History(ctx, site, limit)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(crawls) == 0 {
		fmt.Fprintf(out, "No crawls found for %s\n", site)
		return nil
	}

	fmt.Fprintf(out, "Crawl history for %s (%d crawls):\n\n", site, len(crawls))
	fmt.Fprintf(out, "  %-6s  %-19s  %7s  %7s  %6s  %11s  %s\n",
		"ID", "Date", "Fetched", "Pages", "Broken", "Unreachable", "Notes")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))

	for _, c := range crawls {
		fmt.Fprintf(out, "  %-6d  %-19s  %7d  %7d  %6d  %11d  %s\n",
			c.ID,
			c.Timestamp.Local().Format("2006-01-02 15:04:05"),
			c.PagesFetched,
			c.Summary.Pages,
			c.Summary.Broken,
			c.Summary.Unreachable,
			crawlNotes(c),
		)
	}

	fmt.Fprintf(out, "\nUse 'creepycrawler history %s --diff' to compare the latest two crawls.\n", site)
	return nil
}

func crawlNotes(c database.CrawlMetadata) string {
	var notes []string
	if c.Truncated {
		notes = append(notes, "truncated")
	}
	if c.Cancelled {
		notes = append(notes, "interrupted")
	}
	return strings.Join(notes, ",")
}

// comparison is the JSON form of a crawl comparison.
type comparison struct {
	Site  string `json:"site"`
	Older int64  `json:"older_id"`
	Newer int64  `json:"newer_id"`
	database.GraphDiff
}

// compareCrawls prints what changed between two crawls of site.
func compareCrawls(ctx context.Context, out io.Writer, db *database.CrawlDB, site string, withID int64, jsonOutput bool) error {
	older, newer, err := crawlPair(ctx, db, site, withID)
	if err != nil {
		return err
	}

	diff := database.Diff(older.Graph, newer.Graph)

	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(comparison{
			Site:      site,
			Older:     older.ID,
			Newer:     newer.ID,
			GraphDiff: diff,
		})
	}

	fmt.Fprintf(out, "Changes to %s from crawl #%d (%s) to #%d (%s):\n\n",
		site,
		older.ID, older.Timestamp.Local().Format("2006-01-02 15:04"),
		newer.ID, newer.Timestamp.Local().Format("2006-01-02 15:04"),
	)
	if diff.Empty() {
		fmt.Fprintln(out, "  No changes.")
		return nil
	}
	printURLs(out, "Added pages", diff.AddedPages)
	printURLs(out, "Removed pages", diff.RemovedPages)
	printURLs(out, "Newly broken", diff.NewlyBroken)
	printURLs(out, "Fixed", diff.Fixed)
	return nil
}

// crawlPair returns the crawls to compare: the latest two of site, or the
// crawl withID and the latest one.
func crawlPair(ctx context.Context, db *database.CrawlDB, site string, withID int64) (*database.StoredCrawl, *database.StoredCrawl, error) {
	if withID == 0 {
		return db.LatestPair(ctx, site)
	}

	older, err := db.GetCrawl(ctx, withID)
	if err != nil {
		return nil, nil, err
	}
	if older.Site != site {
		return nil, nil, fmt.Errorf("crawl %d belongs to %s, not %s", withID, older.Site, site)
	}

	latest, err := db.History(ctx, site, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(latest) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", database.ErrCrawlNotFound, site)
	}
	newer, err := db.GetCrawl(ctx, latest[0].ID)
	if err != nil {
		return nil, nil, err
	}
	return older, newer, nil
}

func printURLs(out io.Writer, title string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  %s\n", u)
	}
	fmt.Fprintln(out)
}
