package filetree

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
)

// Lister lists the files of a webroot.
type Lister interface {
	// List returns the listed files as sorted /relative/paths.
	List(ctx context.Context) ([]string, error)
}

// Option configures a lister created by New.
type Option func(*options)

type options struct {
	ignore *regexp.Regexp
	logger *slog.Logger
	runner CommandRunner
	ssh    []SSHOption
}

// WithIgnore skips files and directories whose name matches re.
func WithIgnore(re *regexp.Regexp) Option {
	return func(o *options) {
		o.ignore = re
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCommandRunner replaces the SSH connection of remote webroots.
func WithCommandRunner(r CommandRunner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithSSHOptions configures the SSH connection of remote webroots.
func WithSSHOptions(opts ...SSHOption) Option {
	return func(o *options) {
		o.ssh = append(o.ssh, opts...)
	}
}

// New returns the lister for webroot: an SSH lister for [user@]host:path,
// a local lister otherwise.
func New(webroot string, opts ...Option) (Lister, error) {
	if strings.TrimSpace(webroot) == "" {
		return nil, ErrEmptyWebroot
	}
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	loc := ParseLocation(webroot)
	if !loc.Remote() {
		return &LocalLister{root: loc.Path, ignore: o.ignore, logger: o.logger}, nil
	}

	runner := o.runner
	if runner == nil {
		runner = NewSSHRunner(loc, o.ssh...)
	}
	return &RemoteLister{location: loc, runner: runner, ignore: o.ignore, logger: o.logger}, nil
}

// LocalLister walks a directory on this machine.
type LocalLister struct {
	root   string
	ignore *regexp.Regexp
	logger *slog.Logger
}

// List walks the directory without following symbolic links.
func (l *LocalLister) List(ctx context.Context) ([]string, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to open webroot: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, l.root)
	}
	l.logger.Info("taking inventory", "webroot", l.root)

	files := make([]string, 0)
	err = filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == l.root {
			return nil
		}
		if l.ignore != nil && l.ignore.MatchString(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.Contains(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		files = append(files, "/"+filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk webroot %s: %w", l.root, err)
	}
	slices.Sort(files)
	l.logger.Debug("inventory complete", "webroot", l.root, "files", len(files))
	return files, nil
}

// RemoteLister runs find on a remote host.
type RemoteLister struct {
	location Location
	runner   CommandRunner
	ignore   *regexp.Regexp
	logger   *slog.Logger
}

// List runs the listing command and parses its output.
func (l *RemoteLister) List(ctx context.Context) ([]string, error) {
	l.logger.Info("taking inventory", "webroot", l.location.String())

	out, err := l.runner.Run(ctx, FindCommand(l.location.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", l.location, err)
	}
	files := ParseFindOutput(string(out), l.ignore)
	l.logger.Debug("inventory complete", "webroot", l.location.String(), "files", len(files))
	return files, nil
}

// FindCommand returns the shell command listing the files under dir.
func FindCommand(dir string) string {
	return "cd " + shellQuote(dir) + " && find . -type f -name '*.*'"
}

// ParseFindOutput converts `find .` output lines to sorted /relative/paths.
// Paths with any component matching ignore are dropped.
func ParseFindOutput(out string, ignore *regexp.Regexp) []string {
	files := make([]string, 0)
	seen := make(map[string]struct{})
	for line := range strings.Lines(out) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rel := strings.TrimPrefix(line, "./")
		if ignoredPath(rel, ignore) {
			continue
		}
		p := "/" + rel
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	slices.Sort(files)
	return files
}

func ignoredPath(rel string, ignore *regexp.Regexp) bool {
	if ignore == nil {
		return false
	}
	for part := range strings.SplitSeq(rel, "/") {
		if part != "" && ignore.MatchString(part) {
			return true
		}
	}
	return false
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// pageSuffixes are stripped from file names when matching them with crawled
// paths, since servers commonly hide them.
var pageSuffixes = []string{".html", ".htm", ".php"}

// indexNames are served for a bare directory path.
var indexNames = []string{"index.html", "index.htm", "index.php"}

// Orphans returns the files no crawled URL of g reaches, preserving their
// order. A file is reached when a crawled path equals it, equals it without a
// page suffix, or names the directory of an index file.
func Orphans(files []string, g *linkgraph.Graph) []string {
	return orphans(files, g.FilePaths())
}

func orphans(files, crawledPaths []string) []string {
	crawled := make(map[string]struct{}, len(crawledPaths))
	for _, p := range crawledPaths {
		crawled[p] = struct{}{}
	}
	has := func(p string) bool {
		_, ok := crawled[p]
		return ok
	}

	orphans := make([]string, 0)
	for _, f := range files {
		if !reached(f, has) {
			orphans = append(orphans, f)
		}
	}
	return orphans
}

func reached(file string, has func(string) bool) bool {
	if has(file) {
		return true
	}
	for _, suffix := range pageSuffixes {
		if stem, ok := strings.CutSuffix(file, suffix); ok && stem != "" && has(stem) {
			return true
		}
	}
	dir, name := path.Split(file)
	if slices.Contains(indexNames, name) {
		if has(dir) {
			return true
		}
		if trimmed := strings.TrimSuffix(dir, "/"); trimmed != "" && has(trimmed) {
			return true
		}
	}
	return false
}
