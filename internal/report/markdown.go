package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/model"
)

// maxInlineReferrers is how many referrers are listed in the dead link
// table before the rest move to a collapsible block.
const maxInlineReferrers = 3

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the document in Markdown format.
func (w *MarkdownWriter) Write(doc *Document) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, doc)
	w.writeSummary(md, doc)
	if doc.DeadLinks != nil {
		w.writeDeadLinks(md, doc.DeadLinks)
	}
	if doc.Unreachable != nil {
		w.writeUnreachable(md, doc.Unreachable)
	}
	w.writeFooter(md, doc)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, doc *Document) {
	md.H1("Link Report: " + doc.Site)
	md.PlainText("")

	rows := [][]string{
		{"Report", doc.Type.Title()},
		{"Root", "`" + doc.Root + "`"},
		{"Generated", doc.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if doc.Webroot != "" {
		rows = append(rows, []string{"Webroot", "`" + doc.Webroot + "`"})
	}
	if doc.Crawl != nil {
		rows = append(rows,
			[]string{"Pages Fetched", strconv.Itoa(doc.Crawl.PagesFetched)},
			[]string{"Duration", doc.Crawl.Duration.Round(time.Millisecond).String()},
			[]string{"Status", crawlStatus(doc.Crawl)},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func crawlStatus(c *model.CrawlInfo) string {
	switch {
	case c.Cancelled:
		return "⚠️ Cancelled (partial results)"
	case c.Truncated:
		return "⚠️ Page limit reached (partial results)"
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, doc *Document) {
	s := doc.Summary
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Measure", "Count"},
		Rows: [][]string{
			{"Internal pages", strconv.Itoa(s.Pages)},
			{"External links", strconv.Itoa(s.External)},
			{"Links", strconv.Itoa(s.Edges)},
			{"🔴 Dead links", strconv.Itoa(s.Broken)},
			{"Webroot files", strconv.Itoa(s.Files)},
			{"🟡 Unreachable files", strconv.Itoa(s.Unreachable)},
		},
	})
	md.PlainText("")

	if s.Pages+s.External > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, doc)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Crawled URLs"),
		piechart.WithShowData(true),
	)

	healthy := s.Pages + s.External - s.Broken
	if healthy > 0 {
		chart.LabelAndIntValue("Working", uint64(healthy))
	}
	if s.Broken > 0 {
		chart.LabelAndIntValue("Dead", uint64(s.Broken))
	}
	if s.Unreachable > 0 {
		chart.LabelAndIntValue("Unreachable files", uint64(s.Unreachable))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, doc *Document) {
	dead := doc.DeadLinks != nil && doc.DeadLinks.Count > 0
	unreachable := doc.Unreachable != nil && doc.Unreachable.Count > 0

	switch {
	case dead && unreachable:
		md.Cautionf("%d dead link(s) and %d unreachable file(s) found.",
			doc.DeadLinks.Count, doc.Unreachable.Count)
	case dead:
		md.Warningf("%d dead link(s) found.", doc.DeadLinks.Count)
	case unreachable:
		md.Importantf("%d file(s) in the webroot are not linked from the site.", doc.Unreachable.Count)
	case doc.Crawl != nil && (doc.Crawl.Cancelled || doc.Crawl.Truncated):
		md.Note("The crawl did not finish, so the findings may be incomplete.")
	default:
		md.Tip("No problems found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDeadLinks(md *markdown.Markdown, section *DeadLinkSection) {
	md.H2("Dead Links")
	md.PlainText("")

	if section.Count == 0 {
		md.PlainText("No dead links detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(section.Links))
	for i, l := range section.Links {
		status := strconv.Itoa(l.ResponseCode)
		if l.ResponseCode == linkgraph.StatusNetworkError {
			status = "-"
		}
		archived := "-"
		if l.Archive != nil {
			archived = mdLink(l.Archive.Timestamp, l.Archive.URL)
		}
		rows[i] = []string{
			"`" + l.URL + "`",
			status,
			l.Reason,
			referrerCell(l.Referrers),
			archived,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Reason", "Linked From", "Archived Copy"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, l := range section.Links {
		if len(l.Referrers) > maxInlineReferrers {
			md.Details(l.URL, strings.Join(l.Referrers, "\n"))
		}
	}
	md.PlainText("")
}

func referrerCell(refs []string) string {
	if len(refs) == 0 {
		return "-"
	}
	if len(refs) <= maxInlineReferrers {
		return strings.Join(refs, "<br>")
	}
	return fmt.Sprintf("%s<br>and %d more",
		strings.Join(refs[:maxInlineReferrers], "<br>"), len(refs)-maxInlineReferrers)
}

func (w *MarkdownWriter) writeUnreachable(md *markdown.Markdown, section *UnreachableSection) {
	md.H2("Unreachable Files")
	md.PlainText("")

	switch {
	case !section.Compared:
		md.PlainText("No webroot was compared with the crawl.")
	case section.Count == 0:
		md.PlainText("Every file in the webroot is reachable.")
	default:
		items := make([]string, len(section.Files))
		for i, f := range section.Files {
			items[i] = "`" + f + "`"
		}
		md.BulletList(items...)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, doc *Document) {
	md.HorizontalRule()
	md.PlainText("")
	generator := doc.Generator
	if generator == "" {
		generator = "creepycrawler"
	}
	md.PlainTextf("*Report generated by %s*", generator)
}

func mdLink(text, url string) string {
	return "[" + text + "](" + url + ")"
}
