package model

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
)

// SiteReport is the working state and result of one run against a site.
type SiteReport struct {
	// Site is the host of the crawl root, used to name output files.
	Site string `json:"site"`

	// Root is the URL the crawl started from.
	Root string `json:"root"`

	// Webroot is the local path or [user@]host:path that was compared
	// against the graph, empty when no comparison was made.
	Webroot string `json:"webroot,omitempty"`

	// GeneratedAt is when the run started.
	GeneratedAt time.Time `json:"generated_at"`

	// Crawl describes the crawl, nil when the graph was loaded from disk.
	Crawl *CrawlInfo `json:"crawl,omitempty"`

	// Graph is the link graph the findings are derived from.
	Graph *linkgraph.Graph `json:"-"`

	// Files are the webroot files, as /relative/paths.
	Files []string `json:"-"`

	// DeadLinks are the broken URLs in the graph.
	DeadLinks []DeadLink `json:"dead_links"`

	// Unreachable are webroot files no crawled URL reaches.
	Unreachable []string `json:"unreachable"`

	// Outputs lists the files written during the run.
	Outputs []string `json:"-"`

	// Performed lists the processing steps that ran, in order.
	Performed []string `json:"-"`
}

// CrawlInfo summarizes how the graph was obtained.
type CrawlInfo struct {
	PagesFetched int           `json:"pages_fetched" xml:"pages_fetched"`
	Failures     int           `json:"failures" xml:"failures"`
	IgnoredLinks int           `json:"ignored_links" xml:"ignored_links"`
	Truncated    bool          `json:"truncated" xml:"truncated"`
	Cancelled    bool          `json:"cancelled" xml:"cancelled"`
	Duration     time.Duration `json:"duration_ns" xml:"duration_ns"`
}

// NewSiteReport returns an empty report for the crawl rooted at root.
func NewSiteReport(root string) *SiteReport {
	return &SiteReport{
		Site:        SiteName(root),
		Root:        root,
		GeneratedAt: time.Now(),
	}
}

// SiteName returns the lowercased host of rawURL with any port, suitable for
// naming output files. Non-URLs are returned as given.
func SiteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(strings.ReplaceAll(u.Host, ":", "_"))
}

// Summary holds counts derived from the report.
type Summary struct {
	Pages       int `json:"pages" xml:"pages"`
	External    int `json:"external" xml:"external"`
	Edges       int `json:"edges" xml:"edges"`
	Broken      int `json:"broken" xml:"broken"`
	Files       int `json:"files" xml:"files"`
	Unreachable int `json:"unreachable" xml:"unreachable"`
}

// Summary computes counts over the graph and findings.
func (r *SiteReport) Summary() Summary {
	s := Summary{
		Broken:      len(r.DeadLinks),
		Files:       len(r.Files),
		Unreachable: len(r.Unreachable),
	}
	if r.Graph == nil {
		return s
	}
	for _, n := range r.Graph.Nodes() {
		if n.External {
			s.External++
		} else {
			s.Pages++
		}
	}
	s.Edges = r.Graph.EdgeCount()
	return s
}

// DeadLink is a URL that answered with an error status or not at all.
type DeadLink struct {
	// URL is the broken URL.
	URL string `json:"url" xml:"url"`

	// ResponseCode is the HTTP status, or -1 for a network failure.
	ResponseCode int `json:"response_code" xml:"response_code"`

	// Reason describes the failure.
	Reason string `json:"reason" xml:"reason"`

	// Referrers are the pages linking to URL.
	Referrers []string `json:"referrers" xml:"referrers>referrer"`

	// Archive is the closest web archive snapshot, when one was looked up
	// and found.
	Archive *ArchiveSnapshot `json:"archive,omitempty" xml:"archive,omitempty"`
}

// ArchiveSnapshot is a copy of a URL kept by a web archive.
type ArchiveSnapshot struct {
	URL       string `json:"url" xml:"url,attr"`
	Timestamp string `json:"timestamp" xml:"timestamp,attr"`
	Status    string `json:"status,omitempty" xml:"status,attr,omitempty"`
}

// FindDeadLinks returns every broken node of g with the pages linking to it,
// in graph order.
func FindDeadLinks(g *linkgraph.Graph) []DeadLink {
	referrers := make(map[string][]string)
	for _, n := range g.Nodes() {
		for _, target := range n.Links() {
			if target.Broken {
				referrers[target.URL] = append(referrers[target.URL], n.URL)
			}
		}
	}

	dead := make([]DeadLink, 0)
	for _, n := range g.Nodes() {
		if !n.Broken {
			continue
		}
		code := linkgraph.StatusNetworkError
		if n.ResponseCode != nil {
			code = *n.ResponseCode
		}
		refs := referrers[n.URL]
		if refs == nil {
			refs = []string{}
		}
		dead = append(dead, DeadLink{
			URL:          n.URL,
			ResponseCode: code,
			Reason:       FailureReason(code),
			Referrers:    refs,
		})
	}
	return dead
}

// FailureReason describes a response code recorded for a broken node.
func FailureReason(code int) string {
	if code == linkgraph.StatusNetworkError {
		return "network error"
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "HTTP error"
}
