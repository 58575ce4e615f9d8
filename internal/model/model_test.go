package model

import (
	"errors"
	"slices"
	"testing"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
)

func TestParseReportTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   []string
		want    []ReportType
		wantErr error
	}{
		{
			name:  "single",
			input: []string{"deadlinks"},
			want:  []ReportType{ReportDeadLinks},
		},
		{
			name:  "comma separated",
			input: []string{"unreachable, deadlinks"},
			want:  []ReportType{ReportUnreachable, ReportDeadLinks},
		},
		{
			name:  "all expands",
			input: []string{"all"},
			want:  []ReportType{ReportDeadLinks, ReportUnreachable, ReportCombined},
		},
		{
			name:  "duplicates removed",
			input: []string{"combined", "all"},
			want:  []ReportType{ReportCombined, ReportDeadLinks, ReportUnreachable},
		},
		{
			name:  "empty",
			input: nil,
			want:  []ReportType{},
		},
		{
			name:    "unknown",
			input:   []string{"orphans"},
			wantErr: ErrUnknownReportType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseReportTypes(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReportTypeSections(t *testing.T) {
	t.Parallel()

	if !ReportDeadLinks.HasDeadLinks() || ReportDeadLinks.HasUnreachable() {
		t.Error("deadlinks should only include the dead link section")
	}
	if ReportUnreachable.HasDeadLinks() || !ReportUnreachable.HasUnreachable() {
		t.Error("unreachable should only include the unreachable section")
	}
	if !ReportCombined.HasDeadLinks() || !ReportCombined.HasUnreachable() {
		t.Error("combined should include both sections")
	}
}

func TestParseReportFormats(t *testing.T) {
	t.Parallel()

	got, err := ParseReportFormats([]string{"json,md", "markdown", "XML"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ReportFormat{FormatJSON, FormatMarkdown, FormatXML}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := ParseReportFormats([]string{"pdf"}); !errors.Is(err, ErrUnknownReportFormat) {
		t.Errorf("expected ErrUnknownReportFormat, got %v", err)
	}
	if FormatMarkdown.Extension() != ".md" {
		t.Errorf("unexpected extension %q", FormatMarkdown.Extension())
	}
}

func TestSiteName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"https://Example.com/path", "example.com"},
		{"http://localhost:8080/", "localhost_8080"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := SiteName(tt.input); got != tt.want {
				t.Errorf("SiteName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindDeadLinks(t *testing.T) {
	t.Parallel()

	g := linkgraph.New()
	root, _ := g.SetRoot("http://x/", linkgraph.NodeAttrs{ResponseCode: linkgraph.Int(200)})
	a := g.GetOrCreateNode("http://x/a", linkgraph.NodeAttrs{ResponseCode: linkgraph.Int(200)})
	gone := g.GetOrCreateNode("http://x/gone", linkgraph.NodeAttrs{
		ResponseCode: linkgraph.Int(404),
		Broken:       linkgraph.Bool(true),
	})
	down := g.GetOrCreateNode("http://x/down", linkgraph.NodeAttrs{
		ResponseCode: linkgraph.Int(linkgraph.StatusNetworkError),
		Broken:       linkgraph.Bool(true),
	})
	g.AddEdge(root, a)
	g.AddEdge(root, gone)
	g.AddEdge(a, gone)
	g.AddEdge(a, down)

	dead := FindDeadLinks(g)
	if len(dead) != 2 {
		t.Fatalf("expected 2 dead links, got %d", len(dead))
	}

	if dead[0].URL != "http://x/gone" || dead[0].ResponseCode != 404 || dead[0].Reason != "Not Found" {
		t.Errorf("unexpected first dead link: %+v", dead[0])
	}
	if !slices.Equal(dead[0].Referrers, []string{"http://x/", "http://x/a"}) {
		t.Errorf("unexpected referrers: %v", dead[0].Referrers)
	}
	if dead[1].Reason != "network error" || dead[1].ResponseCode != -1 {
		t.Errorf("unexpected second dead link: %+v", dead[1])
	}

	r := NewSiteReport("http://x/")
	r.Graph = g
	r.DeadLinks = dead
	s := r.Summary()
	if s.Pages != 4 || s.Broken != 2 || s.Edges != 4 {
		t.Errorf("unexpected summary: %+v", s)
	}
}
