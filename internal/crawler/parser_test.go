package crawler

import (
	"slices"
	"strings"
	"testing"
)

func TestClassifyContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        ContentClass
	}{
		{"text/html", ContentHTML},
		{"text/html; charset=utf-8", ContentHTML},
		{"TEXT/HTML", ContentHTML},
		{"application/xhtml+xml", ContentHTML},
		{"text/css", ContentCSS},
		{"text/css;charset=UTF-8", ContentCSS},
		{"image/png", ContentOther},
		{"application/pdf", ContentOther},
		{"", ContentOther},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()

			if got := ClassifyContentType(tt.contentType); got != tt.want {
				t.Errorf("ClassifyContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestParseHTML(t *testing.T) {
	t.Parallel()

	t.Run("extracts trimmed title", func(t *testing.T) {
		t.Parallel()

		parser, err := NewParser("http://x/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}
		result, err := parser.ParseHTML(strings.NewReader(`<html><head><title>
			Test Page
		</title></head></html>`))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if result.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", result.Title)
		}
	})

	t.Run("missing title is empty", func(t *testing.T) {
		t.Parallel()

		parser, _ := NewParser("http://x/")
		result, err := parser.ParseHTML(strings.NewReader(`<p>no title</p>`))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if result.Title != "" {
			t.Errorf("expected empty title, got %q", result.Title)
		}
	})

	t.Run("extracts every link attribute", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head>
			<link rel="stylesheet" href="/style.css">
			<script src="app.js"></script>
		</head><body>
			<a href="/about#team">About</a>
			<img src="img/logo.png">
			<iframe src="https://other.example/embed"></iframe>
			<video><source src="/movie.mp4"></video>
			<a href="/about">About again</a>
			<a>no href</a>
			<div href="/not-a-link"></div>
		</body></html>`

		parser, _ := NewParser("http://x/dir/page.html")
		result, err := parser.ParseHTML(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		want := []string{
			"http://x/style.css",
			"http://x/dir/app.js",
			"http://x/about",
			"http://x/dir/img/logo.png",
			"https://other.example/embed",
			"http://x/movie.mp4",
		}
		if !slices.Equal(result.Links, want) {
			t.Errorf("links mismatch\n got: %v\nwant: %v", result.Links, want)
		}
	})

	t.Run("drops unfetchable references", func(t *testing.T) {
		t.Parallel()

		doc := `<a href="mailto:a@b.c">m</a><a href="javascript:void(0)">j</a>
			<a href="tel:123">t</a><img src="data:image/png;base64,AAAA">
			<a href="#top">top</a><a href="ftp://x/file">ftp</a><a href="  ">blank</a>`

		parser, _ := NewParser("http://x/")
		result, err := parser.ParseHTML(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if len(result.Links) != 0 {
			t.Errorf("expected no links, got %v", result.Links)
		}
	})

	t.Run("honors base element", func(t *testing.T) {
		t.Parallel()

		doc := `<head><base href="/assets/"></head><body><img src="a.png"></body>`
		parser, _ := NewParser("http://x/pages/index.html")
		result, err := parser.ParseHTML(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(result.Links, []string{"http://x/assets/a.png"}) {
			t.Errorf("unexpected links: %v", result.Links)
		}
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		doc := `<html><body><a href="/one">one<div><a href="/two"</body>`
		parser, _ := NewParser("http://x/")
		result, err := parser.ParseHTML(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("expected malformed markup to parse, got %v", err)
		}
		if !slices.Contains(result.Links, "http://x/one") {
			t.Errorf("expected recovered link, got %v", result.Links)
		}
	})
}

func TestParseCSS(t *testing.T) {
	t.Parallel()

	css := `body { background: url("img/bg.png"); }
		.a { background-image: URL( 'fonts/f.woff#iefix' ) }
		.b { background: url(/abs.gif) }
		.c { background: url(img/bg.png) }`

	parser, _ := NewParser("http://x/css/site.css")
	got := parser.ParseCSS(css)
	want := []string{
		"http://x/css/img/bg.png",
		"http://x/css/fonts/f.woff",
		"http://x/abs.gif",
	}
	if !slices.Equal(got, want) {
		t.Errorf("links mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestParseByClass(t *testing.T) {
	t.Parallel()

	parser, _ := NewParser("http://x/")
	result, err := parser.Parse(ContentOther, []byte(`<a href="/x">x</a>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Links) != 0 {
		t.Errorf("expected no links for other content, got %v", result.Links)
	}

	result, err = parser.Parse(ContentCSS, []byte(`a{background:url(/b.png)}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(result.Links, []string{"http://x/b.png"}) {
		t.Errorf("unexpected css links: %v", result.Links)
	}
}
