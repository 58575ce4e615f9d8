package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
)

// SimpleWriter outputs a plain text summary for the terminal.
//
// The output is plain ASCII without ANSI colors.
type SimpleWriter struct {
	baseWriter

	// verbose lists referrers and archived copies of dead links.
	verbose bool

	// maxItems limits the entries listed per section; 0 lists everything.
	maxItems int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithMaxItems limits how many dead links and files are listed.
func WithMaxItems(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if n >= 0 {
			w.maxItems = n
		}
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the document in human-readable format.
func (w *SimpleWriter) Write(doc *Document) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, doc)
	w.writeSummary(&sb, doc)
	if doc.DeadLinks != nil {
		w.writeDeadLinks(&sb, doc.DeadLinks)
	}
	if doc.Unreachable != nil {
		w.writeUnreachable(&sb, doc.Unreachable)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, doc *Document) {
	title := "Crawl results for " + doc.Site
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n")
	fmt.Fprintf(sb, "Root:      %s\n", doc.Root)
	if doc.Webroot != "" {
		fmt.Fprintf(sb, "Webroot:   %s\n", doc.Webroot)
	}
	if doc.Crawl != nil {
		fmt.Fprintf(sb, "Fetched:   %d page(s) in %s\n",
			doc.Crawl.PagesFetched, doc.Crawl.Duration.Round(time.Millisecond))
		switch {
		case doc.Crawl.Cancelled:
			sb.WriteString("Status:    cancelled, results are partial\n")
		case doc.Crawl.Truncated:
			sb.WriteString("Status:    page limit reached, results are partial\n")
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, doc *Document) {
	s := doc.Summary
	fmt.Fprintf(sb, "Pages: %d  External: %d  Links: %d  Dead: %d",
		s.Pages, s.External, s.Edges, s.Broken)
	if doc.Webroot != "" {
		fmt.Fprintf(sb, "  Files: %d  Unreachable: %d", s.Files, s.Unreachable)
	}
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeDeadLinks(sb *strings.Builder, section *DeadLinkSection) {
	fmt.Fprintf(sb, "Dead links (%d)\n", section.Count)
	sb.WriteString("--------------\n")
	if section.Count == 0 {
		sb.WriteString("  none\n\n")
		return
	}

	for i, l := range section.Links {
		if w.maxItems > 0 && i == w.maxItems {
			fmt.Fprintf(sb, "  ... and %d more\n", section.Count-w.maxItems)
			break
		}
		status := fmt.Sprintf("%d", l.ResponseCode)
		if l.ResponseCode == linkgraph.StatusNetworkError {
			status = "ERR"
		}
		fmt.Fprintf(sb, "  [%s] %s (%s)\n", status, l.URL, l.Reason)
		if !w.verbose {
			continue
		}
		for _, ref := range l.Referrers {
			fmt.Fprintf(sb, "        <- %s\n", ref)
		}
		if l.Archive != nil {
			fmt.Fprintf(sb, "        archived: %s\n", l.Archive.URL)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeUnreachable(sb *strings.Builder, section *UnreachableSection) {
	fmt.Fprintf(sb, "Unreachable files (%d)\n", section.Count)
	sb.WriteString("----------------------\n")
	switch {
	case !section.Compared:
		sb.WriteString("  no webroot compared\n\n")
		return
	case section.Count == 0:
		sb.WriteString("  none\n\n")
		return
	}

	for i, f := range section.Files {
		if w.maxItems > 0 && i == w.maxItems {
			fmt.Fprintf(sb, "  ... and %d more\n", section.Count-w.maxItems)
			break
		}
		fmt.Fprintf(sb, "  %s\n", f)
	}
	sb.WriteString("\n")
}
