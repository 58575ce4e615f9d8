package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nao1215/creepycrawler/internal/archive"
	"github.com/nao1215/creepycrawler/internal/config"
	"github.com/nao1215/creepycrawler/internal/filetree"
	"github.com/nao1215/creepycrawler/internal/log"
	"github.com/nao1215/creepycrawler/internal/model"
)

// addGraphFlags registers the flags shared by crawl and report.
func addGraphFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("archive-dead-links", "a", false,
		"Look up web archive snapshots of dead links")
	f.Int("archive-concurrency", archive.DefaultConcurrency,
		"Number of parallel web archive lookups")
	f.StringSliceP("format", "f", []string{string(model.FormatJSON)},
		"Report formats: json, xml, md (comma separated or repeated)")
	f.StringSliceP("report-types", "r", nil,
		"Reports to write: deadlinks, unreachable, combined, all")
	f.String("tree-ignore", config.DefaultTreeIgnore,
		"Regular expression; webroot files and directories with matching names are skipped")
	f.StringP("link-graph", "l", "",
		"Link graph file (default: <site>_graph.<format> in the working directory)")
	f.String("graph-format", "json",
		"Link graph format when the file name has no known extension: json or yaml")
	f.BoolP("sitemap-xml", "x", false, "Write sitemap.xml to the working directory")
	f.StringSlice("ssh-key", nil,
		"Private key files for a remote webroot (default: ~/.ssh/id_ed25519, id_ecdsa, id_rsa)")
	f.String("known-hosts", "",
		"known_hosts file for a remote webroot (default: ~/.ssh/known_hosts)")
}

// buildConfig creates a Config from defaults, the configuration file and the
// flags of cmd, in increasing order of precedence.
func buildConfig(cmd *cobra.Command, mode config.Mode, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Mode = mode
	cfg.DBDir = config.XDGDataDir()

	switch mode {
	case config.ModeCrawl:
		if len(args) > 0 {
			cfg.Website = args[0]
		}
		if len(args) > 1 {
			cfg.Webroot = args[1]
		}
	case config.ModeReport:
		if len(args) > 0 {
			cfg.Webroot = args[0]
		}
		cfg.ReportTypes = []string{"all"}
	}

	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	if err := applyVerbosity(cfg, flags); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, flags); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// applyConfigFile merges the configuration file entry for the crawled host.
// A missing file is only an error when it was named explicitly.
func applyConfigFile(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return err
	}
	cfg.ApplySiteConfig(file.GetSiteConfig(hostOf(cfg.Website)))
	return nil
}

func applyVerbosity(cfg *config.Config, flags *pflag.FlagSet) error {
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return err
	}
	silent, err := flags.GetBool("silent")
	if err != nil {
		return err
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return err
	}
	cfg.Verbosity, err = config.ResolveVerbosity(quiet, silent, verbose)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	return nil
}

// applyFlags copies every flag the user set into cfg. Flags a command does
// not define are skipped.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || flags.Lookup(name) == nil {
			return
		}
		if name != "working-dir" && !flags.Changed(name) {
			return
		}
		err = apply()
	}

	set("working-dir", func() (e error) { cfg.WorkingDir, e = flags.GetString("working-dir"); return })
	set("archive-dead-links", func() (e error) { cfg.ArchiveDeadLinks, e = flags.GetBool("archive-dead-links"); return })
	set("archive-concurrency", func() (e error) { cfg.ArchiveConcurrency, e = flags.GetInt("archive-concurrency"); return })
	set("format", func() (e error) { cfg.ReportFormats, e = flags.GetStringSlice("format"); return })
	set("report-types", func() (e error) { cfg.ReportTypes, e = flags.GetStringSlice("report-types"); return })
	set("ignore", func() (e error) { cfg.Ignore, e = flags.GetString("ignore"); return })
	set("tree-ignore", func() (e error) { cfg.TreeIgnore, e = flags.GetString("tree-ignore"); return })
	set("link-graph", func() (e error) { cfg.LinkGraphFile, e = flags.GetString("link-graph"); return })
	set("graph-format", func() (e error) { cfg.GraphFormat, e = flags.GetString("graph-format"); return })
	set("sitemap-xml", func() (e error) { cfg.SitemapXML, e = flags.GetBool("sitemap-xml"); return })
	set("timeout", func() (e error) { cfg.Timeout, e = flags.GetDuration("timeout"); return })
	set("user-agent", func() (e error) { cfg.UserAgent, e = flags.GetString("user-agent"); return })
	set("max-pages", func() (e error) { cfg.MaxPages, e = flags.GetInt("max-pages"); return })
	set("proxy", func() (e error) { cfg.ProxyAddress, e = flags.GetString("proxy"); return })
	set("db-dir", func() (e error) { cfg.DBDir, e = flags.GetString("db-dir"); return })
	set("header", func() error {
		headers, e := flags.GetStringToString("header")
		if e != nil {
			return e
		}
		merged := make(map[string]string, len(cfg.Headers)+len(headers))
		for k, v := range cfg.Headers {
			merged[k] = v
		}
		for k, v := range headers {
			merged[k] = v
		}
		cfg.Headers = merged
		return nil
	})
	if err != nil {
		return err
	}

	cfg.SaveToDB = cfg.Mode == config.ModeCrawl
	if flags.Lookup("no-history") != nil {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return err
		}
		cfg.SaveToDB = cfg.SaveToDB && !noHistory
	}
	return nil
}

// sshOptions returns the SSH settings given by --ssh-key and --known-hosts.
func sshOptions(flags *pflag.FlagSet) ([]filetree.SSHOption, error) {
	var opts []filetree.SSHOption
	keys, err := flags.GetStringSlice("ssh-key")
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		opts = append(opts, filetree.WithKeyFiles(keys...))
	}
	knownHosts, err := flags.GetString("known-hosts")
	if err != nil {
		return nil, err
	}
	if knownHosts != "" {
		opts = append(opts, filetree.WithKnownHostsFile(knownHosts))
	}
	return opts, nil
}

// newLogger creates the structured logger for a run. Logs go to w, leaving
// standard output to the summary.
func newLogger(cmd *cobra.Command, w io.Writer, v log.Verbosity) (*slog.Logger, error) {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "text", "":
		return log.NewLogger(w, v), nil
	case "json":
		return log.NewJSONLogger(w, v), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

// hostOf returns the host of a website argument given with or without a
// scheme, "" when it has none.
func hostOf(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "http://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
