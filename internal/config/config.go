package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/log"
	"github.com/nao1215/creepycrawler/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "creepycrawler"

	// DefaultTimeout bounds a single request, redirects included.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the crawler in server logs.
	DefaultUserAgent = "creepy-crawler"

	// DefaultMaxBodySize limits how much of each response is read.
	// 5MB covers ordinary HTML and CSS; larger bodies are truncated.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultMaxPages of 0 means the crawl runs until the site is exhausted.
	DefaultMaxPages = 0

	// DefaultTreeIgnore skips hidden files and directories in the webroot.
	DefaultTreeIgnore = `^\.`

	// DefaultWorkingDir is where output files are written.
	DefaultWorkingDir = "."

	// DefaultArchiveConcurrency is the number of parallel web archive
	// lookups. The availability API throttles aggressive clients.
	DefaultArchiveConcurrency = 4
)

// Mode is the kind of run a Config describes.
type Mode int

const (
	// ModeCrawl crawls a website and optionally compares it to a webroot.
	ModeCrawl Mode = iota
	// ModeReport loads a saved link graph and compares it to a webroot.
	ModeReport
)

// Config holds every option of a run. It is built from defaults, the
// configuration file and command line flags, in that order of precedence,
// and passed down explicitly.
type Config struct {
	// Mode selects which fields are required.
	Mode Mode

	// Website is the crawl seed URL (crawl mode).
	Website string

	// Webroot is the local directory or [user@]host:path holding the
	// site's files. Optional in crawl mode, required in report mode.
	Webroot string

	// Ignore is a regular expression; discovered links matching it are
	// neither fetched nor recorded. Empty disables it.
	Ignore string

	// TreeIgnore is a regular expression matched against file and directory
	// names in the webroot; matches are skipped.
	TreeIgnore string

	// ArchiveDeadLinks looks up web archive snapshots for dead links.
	ArchiveDeadLinks bool

	// ArchiveConcurrency bounds parallel archive lookups.
	ArchiveConcurrency int

	// ReportFormats are the formats reports are written in.
	ReportFormats []string

	// ReportTypes are the reports to write. Empty writes none.
	ReportTypes []string

	// SitemapXML writes sitemap.xml for the crawled site.
	SitemapXML bool

	// LinkGraphFile is the file the link graph is saved to (crawl mode) or
	// loaded from (report mode). Empty derives <site>_graph.<format> in the
	// working directory.
	LinkGraphFile string

	// GraphFormat is the serialization format when LinkGraphFile does not
	// determine one by its extension.
	GraphFormat string

	// WorkingDir is where output files are written and relative input
	// paths are resolved.
	WorkingDir string

	// Timeout bounds each request.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize limits bytes read per response.
	MaxBodySize int64

	// MaxPages stops the crawl after this many fetches; 0 is unlimited.
	MaxPages int

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// Headers are added to every request.
	Headers map[string]string

	// Verbosity controls log output.
	Verbosity log.Verbosity

	// ConfigFilePath is the configuration file given on the command line.
	ConfigFilePath string

	// DBDir is the directory of the crawl history database.
	DBDir string

	// SaveToDB stores every crawl in the history database.
	SaveToDB bool
}

// NewConfig returns a Config holding the default values.
func NewConfig() *Config {
	return &Config{
		Mode:               ModeCrawl,
		TreeIgnore:         DefaultTreeIgnore,
		ArchiveConcurrency: DefaultArchiveConcurrency,
		ReportFormats:      []string{string(model.FormatJSON)},
		GraphFormat:        string(linkgraph.FormatJSON),
		WorkingDir:         DefaultWorkingDir,
		Timeout:            DefaultTimeout,
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
		MaxPages:           DefaultMaxPages,
		Verbosity:          log.VerbosityNormal,
	}
}

// XDGDataDir returns the data directory for creepycrawler.
// On Linux: ~/.local/share/creepycrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory for creepycrawler.
// On Linux: ~/.config/creepycrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeCrawl:
		if strings.TrimSpace(c.Website) == "" {
			return ErrNoWebsite
		}
		if !isCrawlableURL(c.Website) {
			return fmt.Errorf("%w: %q", ErrInvalidWebsite, c.Website)
		}
	case ModeReport:
		if strings.TrimSpace(c.Webroot) == "" {
			return ErrNoWebroot
		}
	}

	if _, err := compileOptional(c.Ignore); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIgnorePattern, err)
	}
	if _, err := compileOptional(c.TreeIgnore); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIgnorePattern, err)
	}
	if _, err := model.ParseReportFormats(c.ReportFormats); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownFormat, err)
	}
	if _, err := model.ParseReportTypes(c.ReportTypes); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownReportType, err)
	}
	if _, err := c.LinkGraphFormat(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGraphFormat, err)
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.ArchiveDeadLinks && c.ArchiveConcurrency <= 0 {
		return ErrInvalidArchiveConcurrency
	}
	return nil
}

// IgnorePattern compiles Ignore, returning nil when it is empty.
func (c *Config) IgnorePattern() (*regexp.Regexp, error) {
	return compileOptional(c.Ignore)
}

// TreeIgnorePattern compiles TreeIgnore, returning nil when it is empty.
func (c *Config) TreeIgnorePattern() (*regexp.Regexp, error) {
	return compileOptional(c.TreeIgnore)
}

// LinkGraphFormat returns the format of the link graph file: the extension
// of LinkGraphFile when it has one, GraphFormat otherwise.
func (c *Config) LinkGraphFormat() (linkgraph.Format, error) {
	if c.LinkGraphFile != "" && filepath.Ext(c.LinkGraphFile) != "" {
		return linkgraph.FormatFromPath(c.LinkGraphFile)
	}
	return linkgraph.ParseFormat(c.GraphFormat)
}

// ApplySiteConfig copies the settings present in sc into c.
func (c *Config) ApplySiteConfig(sc SiteConfig) {
	if sc.Ignore != "" {
		c.Ignore = sc.Ignore
	}
	if sc.TreeIgnore != "" {
		c.TreeIgnore = sc.TreeIgnore
	}
	if sc.UserAgent != "" {
		c.UserAgent = sc.UserAgent
	}
	if sc.MaxPages > 0 {
		c.MaxPages = sc.MaxPages
	}
	if len(sc.Formats) > 0 {
		c.ReportFormats = sc.Formats
	}
	if len(sc.ReportTypes) > 0 {
		c.ReportTypes = sc.ReportTypes
	}
	if sc.Proxy != "" {
		c.ProxyAddress = sc.Proxy
	}
	if len(sc.Headers) > 0 || sc.Cookie != "" {
		headers := make(map[string]string, len(c.Headers)+len(sc.Headers)+1)
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range sc.Headers {
			headers[k] = v
		}
		if sc.Cookie != "" {
			headers["Cookie"] = sc.Cookie
		}
		c.Headers = headers
	}
}

// ResolveVerbosity turns the mutually exclusive --quiet, --silent and
// --verbose flags into a Verbosity.
func ResolveVerbosity(quiet, silent, verbose bool) (log.Verbosity, error) {
	set := 0
	for _, b := range []bool{quiet, silent, verbose} {
		if b {
			set++
		}
	}
	if set > 1 {
		return log.VerbosityNormal, ErrConflictingVerbosity
	}
	switch {
	case silent:
		return log.VerbositySilent, nil
	case quiet:
		return log.VerbosityQuiet, nil
	case verbose:
		return log.VerbosityVerbose, nil
	default:
		return log.VerbosityNormal, nil
	}
}

func compileOptional(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil //nolint:nilnil // an empty pattern disables matching
	}
	return regexp.Compile(pattern)
}

func isCrawlableURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
