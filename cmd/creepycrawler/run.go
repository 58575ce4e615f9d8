package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/creepycrawler/internal/archive"
	"github.com/nao1215/creepycrawler/internal/config"
	"github.com/nao1215/creepycrawler/internal/crawler"
	"github.com/nao1215/creepycrawler/internal/database"
	"github.com/nao1215/creepycrawler/internal/filetree"
	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/log"
	"github.com/nao1215/creepycrawler/internal/model"
	"github.com/nao1215/creepycrawler/internal/pipeline"
	"github.com/nao1215/creepycrawler/internal/workdir"
)

// progressInterval is how many fetches pass between progress log lines.
const progressInterval = 100

// runSite sets up logging and signal handling and runs the crawl or report
// pipeline described by cfg.
func runSite(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cmd, cmd.ErrOrStderr(), cfg.Verbosity)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	sshOpts, err := sshOptions(cmd.Flags())
	if err != nil {
		return err
	}

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	s := &siteRun{
		cfg:     cfg,
		logger:  logger,
		sshOpts: sshOpts,
		out:     cmd.OutOrStdout(),
	}
	return s.run(ctx)
}

// siteRun holds what one crawl or report run needs.
type siteRun struct {
	cfg     *config.Config
	logger  *slog.Logger
	sshOpts []filetree.SSHOption
	out     io.Writer
	fetcher crawler.Fetcher
}

func (s *siteRun) run(ctx context.Context) error {
	cfg := s.cfg
	dir, err := workdir.New(cfg.WorkingDir, workdir.WithLogger(s.logger))
	if err != nil {
		return err
	}
	graphFormat, err := cfg.LinkGraphFormat()
	if err != nil {
		return err
	}

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	p, err := s.buildPipeline(dir, graphFormat, db)
	if err != nil {
		return err
	}
	s.logger.Debug("pipeline ready", "steps", p.StepNames())

	r := model.NewSiteReport(cfg.Website)
	err = p.Execute(ctx, r)
	if err != nil && r.Crawl != nil && r.Crawl.Cancelled && r.Graph != nil {
		s.salvage(dir, graphFormat, r)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted: %w", err)
		}
		return err
	}

	for _, path := range r.Outputs {
		s.logger.Debug("output", "path", path)
	}
	return nil
}

// buildPipeline assembles the steps for cfg. A crawl starts by fetching the
// site and saving its graph, a report by loading a saved graph; both then
// share the sitemap, comparison and reporting steps.
func (s *siteRun) buildPipeline(dir *workdir.Dir, graphFormat linkgraph.Format, db *database.CrawlDB) (*pipeline.Pipeline, error) {
	cfg := s.cfg
	p := pipeline.New(pipeline.WithLogger(s.logger))

	switch cfg.Mode {
	case config.ModeCrawl:
		spider, err := s.newSpider()
		if err != nil {
			return nil, err
		}
		p.AddSteps(
			pipeline.NewCrawlStep(spider, cfg.Website, s.logger),
			pipeline.NewSaveGraphStep(dir, cfg.LinkGraphFile, graphFormat, s.logger),
		)
	case config.ModeReport:
		p.AddStep(pipeline.NewLoadGraphStep(dir, cfg.LinkGraphFile, graphFormat, s.logger))
	}

	if cfg.SitemapXML {
		p.AddStep(pipeline.NewSitemapStep(dir, s.logger))
	}

	if cfg.Webroot != "" {
		treeIgnore, err := cfg.TreeIgnorePattern()
		if err != nil {
			return nil, err
		}
		lister, err := filetree.New(cfg.Webroot,
			filetree.WithIgnore(treeIgnore),
			filetree.WithLogger(s.logger),
			filetree.WithSSHOptions(s.sshOpts...),
		)
		if err != nil {
			return nil, err
		}
		p.AddStep(pipeline.NewFileTreeStep(lister, cfg.Webroot, s.logger))
	}

	var lookup pipeline.ArchiveLookup
	if cfg.ArchiveDeadLinks {
		lookup = archive.NewClient(
			archive.WithConcurrency(cfg.ArchiveConcurrency),
			archive.WithUserAgent(cfg.UserAgent),
			archive.WithLogger(s.logger),
		)
	}
	p.AddStep(pipeline.NewDeadLinksStep(lookup, s.logger))

	types, err := model.ParseReportTypes(cfg.ReportTypes)
	if err != nil {
		return nil, err
	}
	if len(types) > 0 {
		formats, err := model.ParseReportFormats(cfg.ReportFormats)
		if err != nil {
			return nil, err
		}
		p.AddStep(pipeline.NewReportStep(dir, types, formats, config.AppName+" "+getVersion(), s.logger))
	}

	if cfg.Verbosity != log.VerbositySilent {
		p.AddStep(pipeline.NewSummaryStep(s.out, cfg.Verbosity == log.VerbosityVerbose))
	}

	if db != nil {
		p.AddStep(pipeline.NewHistoryStep(db, s.logger))
	}
	return p, nil
}

func (s *siteRun) newSpider() (*crawler.Spider, error) {
	cfg := s.cfg
	fetcher := s.fetcher
	if fetcher == nil {
		opts := []crawler.FetcherOption{
			crawler.WithTimeout(cfg.Timeout),
			crawler.WithUserAgent(cfg.UserAgent),
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithHeaders(cfg.Headers),
		}
		if cfg.ProxyAddress != "" {
			opts = append(opts, crawler.WithProxy(cfg.ProxyAddress))
		}
		f, err := crawler.NewHTTPFetcher(opts...)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}

	ignore, err := cfg.IgnorePattern()
	if err != nil {
		return nil, err
	}
	fetched := 0
	return crawler.NewSpider(fetcher,
		crawler.WithIgnore(ignore),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithLogger(s.logger),
		crawler.WithProgress(func(rawURL string) {
			fetched++
			if fetched%progressInterval == 0 {
				s.logger.Info("crawl progress", "fetched", fetched, "url", rawURL)
			}
		}),
	), nil
}

// salvage saves the partial graph of an interrupted crawl with a fresh
// context; the run's context is already cancelled.
func (s *siteRun) salvage(dir *workdir.Dir, format linkgraph.Format, r *model.SiteReport) {
	s.logger.Warn("crawl interrupted, saving partial link graph", "nodes", r.Graph.Len())
	step := pipeline.NewSaveGraphStep(dir, s.cfg.LinkGraphFile, format, s.logger)
	if err := step.Do(context.Background(), r); err != nil {
		s.logger.Error("failed to save partial link graph", "error", err)
	}
}
