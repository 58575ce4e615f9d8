package config

import "strings"

// SiteConfig holds settings for one website, keyed by host in the
// configuration file.
type SiteConfig struct {
	// Ignore is a regular expression for links to skip.
	Ignore string `yaml:"ignore,omitempty"`

	// TreeIgnore is a regular expression for webroot names to skip.
	TreeIgnore string `yaml:"treeIgnore,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxPages limits the number of fetches.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Formats are the report formats to write.
	Formats []string `yaml:"formats,omitempty"`

	// ReportTypes are the reports to write.
	ReportTypes []string `yaml:"reportTypes,omitempty"`

	// Proxy is a SOCKS5 proxy address ("host:port").
	Proxy string `yaml:"proxy,omitempty"`

	// Cookie is sent as the Cookie header, e.g. "session=abc".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File is the structure of the .creepycrawler configuration file.
type File struct {
	// Defaults apply to every site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps hosts (e.g. "example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the defaults merged with the settings of host.
// The host is matched case-insensitively, with or without a "www." prefix.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Ignore != "" {
		result.Ignore = site.Ignore
	}
	if site.TreeIgnore != "" {
		result.TreeIgnore = site.TreeIgnore
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.MaxPages != 0 {
		result.MaxPages = site.MaxPages
	}
	if len(site.Formats) > 0 {
		result.Formats = site.Formats
	}
	if len(site.ReportTypes) > 0 {
		result.ReportTypes = site.ReportTypes
	}
	if site.Proxy != "" {
		result.Proxy = site.Proxy
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(site.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range site.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	bare := strings.TrimPrefix(host, "www.")
	for key, site := range cf.Sites {
		k := strings.ToLower(key)
		if k == host || strings.TrimPrefix(k, "www.") == bare {
			return site, true
		}
	}
	return SiteConfig{}, false
}
