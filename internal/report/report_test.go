package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
	"github.com/nao1215/creepycrawler/internal/model"
)

// createTestReport builds a report for a small site with one dead internal
// link, one unreachable file and one dead external link.
func createTestReport() *model.SiteReport {
	g := linkgraph.New()
	root, _ := g.SetRoot("http://x/", linkgraph.NodeAttrs{
		ResponseCode: linkgraph.Int(200),
		FilePath:     linkgraph.String("/"),
	})
	about := g.GetOrCreateNode("http://x/about", linkgraph.NodeAttrs{
		ResponseCode: linkgraph.Int(200),
		FilePath:     linkgraph.String("/about"),
	})
	gone := g.GetOrCreateNode("http://x/gone", linkgraph.NodeAttrs{
		ResponseCode: linkgraph.Int(404),
		Broken:       linkgraph.Bool(true),
	})
	down := g.GetOrCreateNode("http://down.example/", linkgraph.NodeAttrs{
		ResponseCode: linkgraph.Int(linkgraph.StatusNetworkError),
		Broken:       linkgraph.Bool(true),
		External:     linkgraph.Bool(true),
	})
	g.AddEdge(root, about)
	g.AddEdge(root, gone)
	g.AddEdge(about, gone)
	g.AddEdge(about, down)

	r := model.NewSiteReport("http://x/")
	r.GeneratedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.Webroot = "/srv/www"
	r.Graph = g
	r.Files = []string{"/index.html", "/about.html", "/old.html"}
	r.Unreachable = []string{"/old.html"}
	r.DeadLinks = model.FindDeadLinks(g)
	r.DeadLinks[0].Archive = &model.ArchiveSnapshot{
		URL:       "http://web.archive.org/web/2020/http://x/gone",
		Timestamp: "20200101000000",
		Status:    "200",
	}
	r.Crawl = &model.CrawlInfo{PagesFetched: 4, Duration: 1500 * time.Millisecond}
	return r
}

func TestNewDocument(t *testing.T) {
	t.Parallel()

	r := createTestReport()

	t.Run("deadlinks has only the dead link section", func(t *testing.T) {
		t.Parallel()

		doc := NewDocument(r, model.ReportDeadLinks)
		if doc.DeadLinks == nil || doc.DeadLinks.Count != 2 {
			t.Fatalf("unexpected dead link section: %+v", doc.DeadLinks)
		}
		if doc.Unreachable != nil {
			t.Error("deadlinks report must not include unreachable files")
		}
	})

	t.Run("unreachable has only the unreachable section", func(t *testing.T) {
		t.Parallel()

		doc := NewDocument(r, model.ReportUnreachable)
		if doc.DeadLinks != nil {
			t.Error("unreachable report must not include dead links")
		}
		if doc.Unreachable == nil || !doc.Unreachable.Compared || doc.Unreachable.Count != 1 {
			t.Fatalf("unexpected unreachable section: %+v", doc.Unreachable)
		}
	})

	t.Run("combined has both", func(t *testing.T) {
		t.Parallel()

		doc := NewDocument(r, model.ReportCombined)
		if doc.DeadLinks == nil || doc.Unreachable == nil {
			t.Error("combined report must include both sections")
		}
		if doc.Summary.Pages != 3 || doc.Summary.External != 1 || doc.Summary.Broken != 2 {
			t.Errorf("unexpected summary %+v", doc.Summary)
		}
	})

	t.Run("no webroot", func(t *testing.T) {
		t.Parallel()

		bare := model.NewSiteReport("http://x/")
		doc := NewDocument(bare, model.ReportCombined)
		if doc.Unreachable.Compared {
			t.Error("expected Compared to be false without a webroot")
		}
		if doc.DeadLinks.Links == nil || doc.Unreachable.Files == nil {
			t.Error("empty sections should hold empty slices")
		}
	})
}

func TestFileName(t *testing.T) {
	t.Parallel()

	got := FileName("example.com", model.ReportCombined, model.FormatMarkdown)
	if got != "example.com_combined.md" {
		t.Errorf("unexpected file name %q", got)
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		doc := NewDocument(createTestReport(), model.ReportCombined)
		doc.Generator = "creepycrawler test"
		if _, err := NewJSONWriter(&buf).Write(doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["type"] != "combined" || decoded["site"] != "x" {
			t.Errorf("unexpected fields: %v", decoded)
		}
		dead, ok := decoded["dead_links"].(map[string]any)
		if !ok || dead["count"] != float64(2) {
			t.Errorf("unexpected dead_links: %v", decoded["dead_links"])
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("omits sections of other types", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		doc := NewDocument(createTestReport(), model.ReportDeadLinks)
		if _, err := NewJSONWriter(&buf).Write(doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), `"unreachable":{`) {
			t.Error("deadlinks report should not contain the unreachable section")
		}
	})
}

func TestWithIndent(t *testing.T) {
	t.Parallel()

	doc := NewDocument(createTestReport(), model.ReportUnreachable)

	var compact, pretty bytes.Buffer
	if _, err := NewJSONWriter(&compact).Write(doc); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONWriter(&pretty, WithIndent("", "\t")).Write(doc); err != nil {
		t.Fatal(err)
	}
	if strings.Count(compact.String(), "\n") != 1 {
		t.Error("compact output should be a single line")
	}
	if !strings.Contains(pretty.String(), "\n\t\"type\"") {
		t.Error("expected tab-indented output")
	}
}

func TestXMLWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	doc := NewDocument(createTestReport(), model.ReportCombined)
	if _, err := NewXMLWriter(&buf).Write(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, xml.Header) {
		t.Error("expected XML declaration")
	}
	for _, want := range []string{
		`<report type="combined">`,
		`<dead_links count="2">`,
		`<url>http://x/gone</url>`,
		`<referrer>http://x/about</referrer>`,
		`<archive url="http://web.archive.org/web/2020/http://x/gone" timestamp="20200101000000" status="200"></archive>`,
		`<unreachable compared="true" count="1">`,
		`<file>/old.html</file>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	var decoded Document
	if err := xml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if decoded.DeadLinks == nil || len(decoded.DeadLinks.Links) != 2 {
		t.Errorf("unexpected decoded dead links: %+v", decoded.DeadLinks)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("combined report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		doc := NewDocument(createTestReport(), model.ReportCombined)
		if _, err := NewMarkdownWriter(&buf).Write(doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{
			"# Link Report: x",
			"## Summary",
			"## Dead Links",
			"## Unreachable Files",
			"`http://x/gone`",
			"`/old.html`",
			"mermaid",
			"[!CAUTION]",
			"[20200101000000]",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("clean site gets a tip", func(t *testing.T) {
		t.Parallel()

		r := model.NewSiteReport("http://clean/")
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(NewDocument(r, model.ReportDeadLinks)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "[!TIP]") {
			t.Errorf("expected tip alert:\n%s", out)
		}
		if strings.Contains(out, "## Unreachable Files") {
			t.Error("deadlinks report should not have an unreachable section")
		}
	})

	t.Run("many referrers go to details", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.DeadLinks[0].Referrers = []string{"http://x/1", "http://x/2", "http://x/3", "http://x/4"}
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(NewDocument(r, model.ReportDeadLinks)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "<details>") {
			t.Error("expected a details block")
		}
		if !strings.Contains(buf.String(), "and 1 more") {
			t.Error("expected truncated referrer cell")
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("lists sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		doc := NewDocument(createTestReport(), model.ReportCombined)
		if _, err := NewSimpleWriter(&buf).Write(doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{
			"Crawl results for x",
			"Dead links (2)",
			"[404] http://x/gone (Not Found)",
			"[ERR] http://down.example/ (network error)",
			"Unreachable files (1)",
			"/old.html",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
		if strings.Contains(out, "<- ") {
			t.Error("referrers should only be listed in verbose mode")
		}
	})

	t.Run("verbose lists referrers", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		doc := NewDocument(createTestReport(), model.ReportDeadLinks)
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "<- http://x/about") {
			t.Errorf("expected referrers:\n%s", buf.String())
		}
		if !strings.Contains(buf.String(), "archived: http://web.archive.org") {
			t.Errorf("expected archive line:\n%s", buf.String())
		}
	})

	t.Run("max items", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		doc := NewDocument(createTestReport(), model.ReportDeadLinks)
		if _, err := NewSimpleWriter(&buf, WithMaxItems(1)).Write(doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "... and 1 more") {
			t.Errorf("expected truncation:\n%s", buf.String())
		}
	})
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	for _, f := range []model.ReportFormat{model.FormatJSON, model.FormatXML, model.FormatMarkdown} {
		if _, err := NewWriter(f, &buf); err != nil {
			t.Errorf("NewWriter(%s): %v", f, err)
		}
	}
	if _, err := NewWriter("pdf", &buf); !errors.Is(err, model.ErrUnknownReportFormat) {
		t.Errorf("expected ErrUnknownReportFormat, got %v", err)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewJSONWriter(&a), NewSimpleWriter(&b))
	n, err := mw.Write(NewDocument(createTestReport(), model.ReportDeadLinks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
	}
}
