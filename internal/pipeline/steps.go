package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nao1215/creepycrawler/internal/archive"
	"github.com/nao1215/creepycrawler/internal/crawler"
	"github.com/nao1215/creepycrawler/internal/database"
	"github.com/nao1215/creepycrawler/internal/filetree"
	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/model"
	"github.com/nao1215/creepycrawler/internal/report"
	"github.com/nao1215/creepycrawler/internal/workdir"
)

// GraphFileSuffix is appended to the site name to name link graph files.
const GraphFileSuffix = "_graph"

// SitemapFileName is the name of the generated sitemap.
const SitemapFileName = "sitemap.xml"

// GraphFileName returns the default link graph file name for site.
func GraphFileName(site string, format linkgraph.Format) string {
	return site + GraphFileSuffix + format.Extension()
}

// Crawler produces a link graph from a seed URL.
type Crawler interface {
	Crawl(ctx context.Context, seed string) (*linkgraph.Graph, error)
	Stats() crawler.SpiderStats
}

// CrawlStep crawls the site and stores the graph in the report.
// A cancelled crawl stores its partial graph and marks the crawl cancelled
// before returning the cancellation error.
type CrawlStep struct {
	crawler Crawler
	seed    string
	logger  *slog.Logger
}

// NewCrawlStep creates a step crawling from seed.
func NewCrawlStep(c Crawler, seed string, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{crawler: c, seed: seed, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, r *model.SiteReport) error {
	s.logger.Info("starting crawl", "website", s.seed)
	start := time.Now()

	g, err := s.crawler.Crawl(ctx, s.seed)
	if g == nil {
		return err
	}

	stats := s.crawler.Stats()
	r.Graph = g
	if root := g.Root(); root != nil {
		r.Root = root.URL
		r.Site = model.SiteName(root.URL)
	}
	r.Crawl = &model.CrawlInfo{
		PagesFetched: stats.PagesFetched,
		Failures:     stats.Failures,
		IgnoredLinks: stats.IgnoredLinks,
		Truncated:    stats.Truncated,
		Cancelled:    errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
		Duration:     time.Since(start),
	}

	if err != nil {
		return err
	}
	s.logger.Info("crawl complete",
		"pages", stats.PagesFetched,
		"nodes", g.Len(),
		"duration", r.Crawl.Duration.Round(time.Millisecond),
	)
	return nil
}

// LoadGraphStep reads a saved link graph.
type LoadGraphStep struct {
	dir    *workdir.Dir
	path   string
	format linkgraph.Format
	logger *slog.Logger
}

// NewLoadGraphStep creates a step loading path, resolved against dir. With
// an empty path the working directory is searched for a single
// *_graph.json or *_graph.yaml file. format is used when the file name
// has no known extension.
func NewLoadGraphStep(dir *workdir.Dir, path string, format linkgraph.Format, logger *slog.Logger) *LoadGraphStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadGraphStep{dir: dir, path: path, format: format, logger: logger}
}

// Name returns the step name.
func (s *LoadGraphStep) Name() string {
	return "load_graph"
}

// Do executes the load step.
func (s *LoadGraphStep) Do(_ context.Context, r *model.SiteReport) error {
	path, err := s.locate()
	if err != nil {
		return err
	}

	format, err := linkgraph.FormatFromPath(path)
	if err != nil {
		format = s.format
	}

	s.logger.Info("loading link graph", "path", path)
	data, err := s.dir.ReadFile(path)
	if err != nil {
		return err
	}
	g, err := linkgraph.Deserialize(data, format)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	r.Graph = g
	if root := g.Root(); root != nil {
		r.Root = root.URL
		r.Site = model.SiteName(root.URL)
	}
	s.logger.Debug("link graph loaded", "nodes", g.Len(), "edges", g.EdgeCount())
	return nil
}

func (s *LoadGraphStep) locate() (string, error) {
	if s.path != "" {
		return s.dir.Resolve(s.path), nil
	}

	var candidates []string
	for _, f := range []linkgraph.Format{linkgraph.FormatJSON, linkgraph.FormatYAML} {
		matches, err := s.dir.Glob("*" + GraphFileSuffix + f.Extension())
		if err != nil {
			return "", err
		}
		candidates = append(candidates, matches...)
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrGraphNotFound, s.dir.Root())
	case 1:
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = filepath.Base(c)
		}
		return "", fmt.Errorf("%w: %v", ErrAmbiguousGraph, names)
	}
}

// SaveGraphStep writes the link graph to a file.
type SaveGraphStep struct {
	dir    *workdir.Dir
	path   string
	format linkgraph.Format
	logger *slog.Logger
}

// NewSaveGraphStep creates a step saving the graph to path in format. An
// empty path saves to <site>_graph.<ext> in dir.
func NewSaveGraphStep(dir *workdir.Dir, path string, format linkgraph.Format, logger *slog.Logger) *SaveGraphStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveGraphStep{dir: dir, path: path, format: format, logger: logger}
}

// Name returns the step name.
func (s *SaveGraphStep) Name() string {
	return "save_graph"
}

// Do executes the save step.
func (s *SaveGraphStep) Do(_ context.Context, r *model.SiteReport) error {
	if r.Graph == nil {
		return ErrNoGraph
	}
	data, err := r.Graph.Serialize(s.format)
	if err != nil {
		return fmt.Errorf("failed to serialize link graph: %w", err)
	}

	name := s.path
	if name == "" {
		name = GraphFileName(r.Site, s.format)
	}
	path, err := s.dir.WriteFile(name, data)
	if err != nil {
		return err
	}
	r.Outputs = append(r.Outputs, path)
	s.logger.Info("link graph saved", "path", path, "nodes", r.Graph.Len())
	return nil
}

// SitemapStep writes sitemap.xml for the crawled site. After a crawl that
// stopped early only fetched pages are listed.
type SitemapStep struct {
	dir    *workdir.Dir
	logger *slog.Logger
}

// NewSitemapStep creates a sitemap step writing into dir.
func NewSitemapStep(dir *workdir.Dir, logger *slog.Logger) *SitemapStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapStep{dir: dir, logger: logger}
}

// Name returns the step name.
func (s *SitemapStep) Name() string {
	return "sitemap"
}

// Do executes the sitemap step.
func (s *SitemapStep) Do(_ context.Context, r *model.SiteReport) error {
	if r.Graph == nil {
		return ErrNoGraph
	}
	generate := r.Graph.GenerateSitemap
	if r.Crawl != nil && (r.Crawl.Truncated || r.Crawl.Cancelled) {
		s.logger.Info("crawl stopped early, leaving unfetched pages out of the sitemap")
		generate = r.Graph.GenerateFetchedSitemap
	}
	data, err := generate()
	if err != nil {
		return fmt.Errorf("failed to generate sitemap: %w", err)
	}
	path, err := s.dir.WriteFile(SitemapFileName, data)
	if err != nil {
		return err
	}
	r.Outputs = append(r.Outputs, path)
	s.logger.Info("sitemap written", "path", path)
	return nil
}

// FileTreeStep lists the webroot and records the files no crawled URL
// reaches.
type FileTreeStep struct {
	lister  filetree.Lister
	webroot string
	logger  *slog.Logger
}

// NewFileTreeStep creates a step comparing the graph with webroot.
func NewFileTreeStep(lister filetree.Lister, webroot string, logger *slog.Logger) *FileTreeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileTreeStep{lister: lister, webroot: webroot, logger: logger}
}

// Name returns the step name.
func (s *FileTreeStep) Name() string {
	return "file_tree"
}

// Do executes the comparison.
func (s *FileTreeStep) Do(ctx context.Context, r *model.SiteReport) error {
	if r.Graph == nil {
		return ErrNoGraph
	}
	s.logger.Info("comparing with webroot", "webroot", s.webroot)

	files, err := s.lister.List(ctx)
	if err != nil {
		return err
	}
	r.Webroot = s.webroot
	r.Files = files
	r.Unreachable = filetree.Orphans(files, r.Graph)

	if len(r.Unreachable) > 0 {
		s.logger.Warn("unreachable files found", "count", len(r.Unreachable), "files", len(files))
	} else {
		s.logger.Info("every webroot file is reachable", "files", len(files))
	}
	return nil
}

// ArchiveLookup finds archived copies of dead links.
type ArchiveLookup interface {
	LookupAll(ctx context.Context, links []model.DeadLink) (int, error)
}

var _ ArchiveLookup = (*archive.Client)(nil)

// DeadLinksStep collects the broken URLs of the graph and optionally looks
// up archived copies of them.
type DeadLinksStep struct {
	archive ArchiveLookup
	logger  *slog.Logger
}

// NewDeadLinksStep creates a dead link step. A nil archive skips lookups.
func NewDeadLinksStep(archive ArchiveLookup, logger *slog.Logger) *DeadLinksStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLinksStep{archive: archive, logger: logger}
}

// Name returns the step name.
func (s *DeadLinksStep) Name() string {
	return "dead_links"
}

// Do executes the dead link step.
func (s *DeadLinksStep) Do(ctx context.Context, r *model.SiteReport) error {
	if r.Graph == nil {
		return ErrNoGraph
	}
	r.DeadLinks = model.FindDeadLinks(r.Graph)
	for _, d := range r.DeadLinks {
		s.logger.Warn("dead link",
			"url", d.URL,
			"status", d.ResponseCode,
			"reason", d.Reason,
			"referrers", len(d.Referrers),
		)
	}

	if s.archive == nil || len(r.DeadLinks) == 0 {
		return nil
	}
	found, err := s.archive.LookupAll(ctx, r.DeadLinks)
	if err != nil {
		return err
	}
	s.logger.Info("archived copies found", "found", found, "dead_links", len(r.DeadLinks))
	return nil
}

// ReportStep writes one file per report type and format.
type ReportStep struct {
	dir       *workdir.Dir
	types     []model.ReportType
	formats   []model.ReportFormat
	generator string
	logger    *slog.Logger
}

// NewReportStep creates a report step. generator names the program in the
// written reports.
func NewReportStep(dir *workdir.Dir, types []model.ReportType, formats []model.ReportFormat, generator string, logger *slog.Logger) *ReportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportStep{dir: dir, types: types, formats: formats, generator: generator, logger: logger}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do executes the report step.
func (s *ReportStep) Do(_ context.Context, r *model.SiteReport) error {
	for _, t := range s.types {
		doc := report.NewDocument(r, t)
		doc.Generator = s.generator
		for _, f := range s.formats {
			path, err := s.write(doc, r.Site, t, f)
			if err != nil {
				return err
			}
			r.Outputs = append(r.Outputs, path)
			s.logger.Info("report written", "type", string(t), "format", string(f), "path", path)
		}
	}
	return nil
}

func (s *ReportStep) write(doc *report.Document, site string, t model.ReportType, f model.ReportFormat) (path string, err error) {
	out, path, err := s.dir.Create(report.FileName(site, t, f))
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w, err := report.NewWriter(f, out)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(doc); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// SummaryStep prints the combined findings as plain text.
type SummaryStep struct {
	output  io.Writer
	verbose bool
}

// NewSummaryStep creates a summary step writing to output.
func NewSummaryStep(output io.Writer, verbose bool) *SummaryStep {
	return &SummaryStep{output: output, verbose: verbose}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do executes the summary step.
func (s *SummaryStep) Do(_ context.Context, r *model.SiteReport) error {
	doc := report.NewDocument(r, model.ReportCombined)
	w := report.NewSimpleWriter(s.output, report.WithVerbose(s.verbose), report.WithMaxItems(summaryMaxItems(s.verbose)))
	_, err := w.Write(doc)
	return err
}

func summaryMaxItems(verbose bool) int {
	if verbose {
		return 0
	}
	return 20
}

// HistoryStep stores the crawl in the history database.
type HistoryStep struct {
	db     *database.CrawlDB
	logger *slog.Logger
}

// NewHistoryStep creates a history step.
func NewHistoryStep(db *database.CrawlDB, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{db: db, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, r *model.SiteReport) error {
	if r.Graph == nil {
		return ErrNoGraph
	}
	id, err := s.db.SaveCrawl(ctx, r)
	if err != nil {
		return err
	}
	s.logger.Info("crawl recorded", "id", id, "database", s.db.Path())
	return nil
}
