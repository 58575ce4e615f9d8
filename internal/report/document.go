package report

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/nao1215/creepycrawler/internal/model"
)

// Document is one report type's view of a SiteReport.
type Document struct {
	XMLName xml.Name `json:"-" xml:"report"`

	// Generator names the program and version that wrote the report.
	Generator string `json:"generator,omitempty" xml:"generator,attr,omitempty"`

	// Type is the report type.
	Type model.ReportType `json:"type" xml:"type,attr"`

	Site        string           `json:"site" xml:"site"`
	Root        string           `json:"root" xml:"root"`
	Webroot     string           `json:"webroot,omitempty" xml:"webroot,omitempty"`
	GeneratedAt time.Time        `json:"generated_at" xml:"generated_at"`
	Crawl       *model.CrawlInfo `json:"crawl,omitempty" xml:"crawl,omitempty"`
	Summary     model.Summary    `json:"summary" xml:"summary"`

	// DeadLinks is set when the type includes dead links.
	DeadLinks *DeadLinkSection `json:"dead_links,omitempty" xml:"dead_links,omitempty"`

	// Unreachable is set when the type includes unreachable files.
	Unreachable *UnreachableSection `json:"unreachable,omitempty" xml:"unreachable,omitempty"`
}

// DeadLinkSection lists broken URLs.
type DeadLinkSection struct {
	Count int              `json:"count" xml:"count,attr"`
	Links []model.DeadLink `json:"links" xml:"link"`
}

// UnreachableSection lists webroot files no crawled URL reaches.
type UnreachableSection struct {
	// Compared is false when no webroot was compared, in which case Files
	// is always empty.
	Compared bool     `json:"compared" xml:"compared,attr"`
	Count    int      `json:"count" xml:"count,attr"`
	Files    []string `json:"files" xml:"file"`
}

// NewDocument returns the view of r for report type t.
func NewDocument(r *model.SiteReport, t model.ReportType) *Document {
	doc := &Document{
		Type:        t,
		Site:        r.Site,
		Root:        r.Root,
		Webroot:     r.Webroot,
		GeneratedAt: r.GeneratedAt,
		Crawl:       r.Crawl,
		Summary:     r.Summary(),
	}

	if t.HasDeadLinks() {
		links := r.DeadLinks
		if links == nil {
			links = []model.DeadLink{}
		}
		doc.DeadLinks = &DeadLinkSection{Count: len(links), Links: links}
	}

	if t.HasUnreachable() {
		files := r.Unreachable
		if files == nil {
			files = []string{}
		}
		doc.Unreachable = &UnreachableSection{
			Compared: r.Webroot != "",
			Count:    len(files),
			Files:    files,
		}
	}
	return doc
}

// FileName returns the output file name of a report: <site>_<type><ext>.
func FileName(site string, t model.ReportType, f model.ReportFormat) string {
	return fmt.Sprintf("%s_%s%s", site, t, f.Extension())
}
