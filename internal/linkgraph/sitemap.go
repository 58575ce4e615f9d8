package linkgraph

import (
	"encoding/xml"
	"fmt"
	"time"
)

// SitemapNamespace is the XML namespace of sitemaps.org urlset documents.
const SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// GenerateSitemap renders every node that is neither external nor broken as
// a sitemaps.org urlset document, indented with two spaces.
//
// A lastmod element is written when the node has a Last-Modified value. ISO
// 8601 values are shortened to their date (YYYY-MM-DD); anything else is
// written as stored.
func (g *Graph) GenerateSitemap() ([]byte, error) {
	return g.sitemap(func(*Node) bool { return true })
}

// GenerateFetchedSitemap is GenerateSitemap restricted to nodes with a
// response code. Internal nodes that were queued but never fetched, as left
// by a crawl stopped at its page limit, are not listed.
func (g *Graph) GenerateFetchedSitemap() ([]byte, error) {
	return g.sitemap(func(n *Node) bool { return n.ResponseCode != nil })
}

func (g *Graph) sitemap(keep func(*Node) bool) ([]byte, error) {
	set := urlset{Xmlns: SitemapNamespace}
	for _, n := range g.Nodes() {
		if n.External || n.Broken || !keep(n) {
			continue
		}
		entry := sitemapURL{Loc: n.URL}
		if n.LastModified != nil && *n.LastModified != "" {
			entry.LastMod = sitemapDate(*n.LastModified)
		}
		set.URLs = append(set.URLs, entry)
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(data)+1)
	out = append(out, xml.Header...)
	out = append(out, data...)
	return append(out, '\n'), nil
}

// isoLayouts are the ISO 8601 shapes accepted as lastmod input.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func sitemapDate(value string) string {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return value
}
