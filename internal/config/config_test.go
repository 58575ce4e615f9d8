package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/log"
)

// TestNewConfig pins the default values so changes to them are deliberate.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default mode is crawl", func(t *testing.T) {
		t.Parallel()
		if cfg.Mode != ModeCrawl {
			t.Errorf("expected ModeCrawl, got %v", cfg.Mode)
		}
	})

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default UserAgent is creepy-crawler", func(t *testing.T) {
		t.Parallel()
		if cfg.UserAgent != "creepy-crawler" {
			t.Errorf("expected UserAgent 'creepy-crawler', got %q", cfg.UserAgent)
		}
	})

	t.Run("default MaxBodySize is 5MB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 5*1024*1024 {
			t.Errorf("expected MaxBodySize 5MB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default MaxPages is unlimited", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 0 {
			t.Errorf("expected MaxPages 0, got %d", cfg.MaxPages)
		}
	})

	t.Run("default TreeIgnore skips dotfiles", func(t *testing.T) {
		t.Parallel()
		if cfg.TreeIgnore != `^\.` {
			t.Errorf("expected TreeIgnore '^\\.', got %q", cfg.TreeIgnore)
		}
	})

	t.Run("default report format is json and no report types", func(t *testing.T) {
		t.Parallel()
		if len(cfg.ReportFormats) != 1 || cfg.ReportFormats[0] != "json" {
			t.Errorf("expected [json], got %v", cfg.ReportFormats)
		}
		if len(cfg.ReportTypes) != 0 {
			t.Errorf("expected no report types, got %v", cfg.ReportTypes)
		}
	})

	t.Run("default working dir is current dir", func(t *testing.T) {
		t.Parallel()
		if cfg.WorkingDir != "." {
			t.Errorf("expected '.', got %q", cfg.WorkingDir)
		}
	})

	t.Run("default verbosity is normal", func(t *testing.T) {
		t.Parallel()
		if cfg.Verbosity != log.VerbosityNormal {
			t.Errorf("expected normal verbosity, got %v", cfg.Verbosity)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "valid crawl config",
			modify: func(c *Config) { c.Website = "https://example.com" },
		},
		{
			name:   "scheme-less website is accepted",
			modify: func(c *Config) { c.Website = "example.com" },
		},
		{
			name:    "missing website",
			modify:  func(_ *Config) {},
			wantErr: ErrNoWebsite,
		},
		{
			name:    "ftp website",
			modify:  func(c *Config) { c.Website = "ftp://example.com/" },
			wantErr: ErrInvalidWebsite,
		},
		{
			name: "report mode needs webroot",
			modify: func(c *Config) {
				c.Mode = ModeReport
			},
			wantErr: ErrNoWebroot,
		},
		{
			name: "report mode does not need website",
			modify: func(c *Config) {
				c.Mode = ModeReport
				c.Webroot = "/srv/www"
			},
		},
		{
			name: "invalid ignore pattern",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.Ignore = "("
			},
			wantErr: ErrInvalidIgnorePattern,
		},
		{
			name: "invalid tree ignore pattern",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.TreeIgnore = "[a-"
			},
			wantErr: ErrInvalidIgnorePattern,
		},
		{
			name: "unknown report format",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.ReportFormats = []string{"pdf"}
			},
			wantErr: ErrUnknownFormat,
		},
		{
			name: "unknown report type",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.ReportTypes = []string{"orphans"}
			},
			wantErr: ErrUnknownReportType,
		},
		{
			name: "unknown graph format",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.LinkGraphFile = "graph.toml"
			},
			wantErr: ErrInvalidGraphFormat,
		},
		{
			name: "zero timeout",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.Timeout = 0
			},
			wantErr: ErrInvalidTimeout,
		},
		{
			name: "zero body size",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.MaxBodySize = 0
			},
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name: "negative max pages",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.MaxPages = -1
			},
			wantErr: ErrInvalidMaxPages,
		},
		{
			name: "archive with zero concurrency",
			modify: func(c *Config) {
				c.Website = "https://example.com"
				c.ArchiveDeadLinks = true
				c.ArchiveConcurrency = 0
			},
			wantErr: ErrInvalidArchiveConcurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLinkGraphFormat(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if f, err := cfg.LinkGraphFormat(); err != nil || f != linkgraph.FormatJSON {
		t.Errorf("expected json by default, got %v, %v", f, err)
	}

	cfg.LinkGraphFile = "site.yml"
	if f, err := cfg.LinkGraphFormat(); err != nil || f != linkgraph.FormatYAML {
		t.Errorf("expected yaml from extension, got %v, %v", f, err)
	}

	cfg.LinkGraphFile = "graph"
	cfg.GraphFormat = "yaml"
	if f, err := cfg.LinkGraphFormat(); err != nil || f != linkgraph.FormatYAML {
		t.Errorf("expected yaml from GraphFormat, got %v, %v", f, err)
	}
}

func TestIgnorePatterns(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	re, err := cfg.IgnorePattern()
	if err != nil || re != nil {
		t.Errorf("expected nil pattern for empty Ignore, got %v, %v", re, err)
	}

	cfg.Ignore = `\.pdf$`
	re, err = cfg.IgnorePattern()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !re.MatchString("http://x/a.pdf") {
		t.Error("expected pattern to match pdf link")
	}

	tree, err := cfg.TreeIgnorePattern()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tree.MatchString(".git") || tree.MatchString("index.html") {
		t.Error("default tree ignore should match dotfiles only")
	}
}

func TestResolveVerbosity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		quiet, silent, verbose bool
		want                   log.Verbosity
		wantErr                error
	}{
		{name: "none", want: log.VerbosityNormal},
		{name: "quiet", quiet: true, want: log.VerbosityQuiet},
		{name: "silent", silent: true, want: log.VerbositySilent},
		{name: "verbose", verbose: true, want: log.VerbosityVerbose},
		{name: "quiet and silent", quiet: true, silent: true, wantErr: ErrConflictingVerbosity},
		{name: "quiet and verbose", quiet: true, verbose: true, wantErr: ErrConflictingVerbosity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveVerbosity(tt.quiet, tt.silent, tt.verbose)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			UserAgent: "default-agent",
			Formats:   []string{"json"},
			Headers:   map[string]string{"X-Default": "1"},
		},
		Sites: map[string]SiteConfig{
			"Example.com": {
				Ignore:   `\.pdf$`,
				MaxPages: 10,
				Cookie:   "session=abc",
				Headers:  map[string]string{"Authorization": "Bearer t"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("other.org")
		if sc.UserAgent != "default-agent" || sc.Ignore != "" {
			t.Errorf("unexpected config: %+v", sc)
		}
	})

	t.Run("site overrides merge with defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("www.example.com")
		if sc.Ignore != `\.pdf$` || sc.MaxPages != 10 {
			t.Errorf("expected site overrides, got %+v", sc)
		}
		if sc.UserAgent != "default-agent" {
			t.Errorf("expected default user agent to remain, got %q", sc.UserAgent)
		}
		if sc.Headers["X-Default"] != "1" || sc.Headers["Authorization"] != "Bearer t" {
			t.Errorf("expected merged headers, got %v", sc.Headers)
		}
	})

	t.Run("defaults are not mutated", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetSiteConfig("example.com")
		if _, ok := cf.Defaults.Headers["Authorization"]; ok {
			t.Error("defaults headers were modified")
		}
	})
}

func TestApplySiteConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.ApplySiteConfig(SiteConfig{
		Ignore:      "admin",
		UserAgent:   "bot",
		MaxPages:    3,
		ReportTypes: []string{"deadlinks"},
		Proxy:       "127.0.0.1:1080",
		Cookie:      "a=b",
	})

	if cfg.Ignore != "admin" || cfg.UserAgent != "bot" || cfg.MaxPages != 3 {
		t.Errorf("site settings not applied: %+v", cfg)
	}
	if cfg.ProxyAddress != "127.0.0.1:1080" {
		t.Errorf("expected proxy to be applied, got %q", cfg.ProxyAddress)
	}
	if cfg.Headers["Cookie"] != "a=b" {
		t.Errorf("expected Cookie header, got %v", cfg.Headers)
	}
	if cfg.TreeIgnore != DefaultTreeIgnore {
		t.Errorf("empty site value should keep default, got %q", cfg.TreeIgnore)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.creepycrawler")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".creepycrawler")
		content := `defaults:
  formats: [json, md]
sites:
  example.com:
    ignore: '\.pdf$'
    treeIgnore: '^(\.|_)'
    maxPages: 100
    reportTypes: [deadlinks]
    headers:
      Authorization: "Bearer token"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cf.Defaults.Formats) != 2 {
			t.Errorf("expected 2 default formats, got %v", cf.Defaults.Formats)
		}
		site, ok := cf.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.Ignore != `\.pdf$` || site.TreeIgnore != `^(\.|_)` || site.MaxPages != 100 {
			t.Errorf("unexpected site config: %+v", site)
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Error("expected Authorization header")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".creepycrawler")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".creepycrawler")
		if err := os.WriteFile(configPath, []byte("defaults:\n  maxPages: 5\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if filepath.Base(XDGDataDir()) != AppName {
		t.Errorf("unexpected data dir %q", XDGDataDir())
	}
	if filepath.Base(XDGConfigDir()) != AppName {
		t.Errorf("unexpected config dir %q", XDGConfigDir())
	}
}
