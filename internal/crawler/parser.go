package crawler

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ContentClass selects how links are extracted from a response body.
type ContentClass int

const (
	// ContentOther bodies are recorded but never parsed for links.
	ContentOther ContentClass = iota
	// ContentHTML bodies are parsed as HTML documents.
	ContentHTML
	// ContentCSS bodies are scanned for url(...) references.
	ContentCSS
)

// String returns the name of the class.
func (c ContentClass) String() string {
	switch c {
	case ContentHTML:
		return "html"
	case ContentCSS:
		return "css"
	default:
		return "other"
	}
}

// ClassifyContentType maps a MIME type (parameters allowed) to a ContentClass.
func ClassifyContentType(contentType string) ContentClass {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "text/html", "application/xhtml+xml":
		return ContentHTML
	case "text/css":
		return ContentCSS
	default:
		return ContentOther
	}
}

// linkAttributes lists the element attributes that reference other resources.
var linkAttributes = map[string]string{
	"a":      "href",
	"link":   "href",
	"script": "src",
	"img":    "src",
	"iframe": "src",
	"source": "src",
}

// cssURLPattern matches url(...) references in stylesheets, quoted or not.
var cssURLPattern = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// Parser extracts outbound links from response bodies.
type Parser struct {
	// baseURL is the final URL of the response; relative links resolve against it.
	baseURL *url.URL
}

// ParseResult is what a Parser found in one body.
type ParseResult struct {
	// Title is the trimmed <title> text of an HTML document.
	Title string

	// Links are absolute, fragment-free URLs in order of first appearance.
	Links []string
}

// NewParser returns a parser resolving relative links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse extracts links from body according to its content class. Bodies of
// class ContentOther yield an empty result.
func (p *Parser) Parse(class ContentClass, body []byte) (*ParseResult, error) {
	switch class {
	case ContentHTML:
		return p.ParseHTML(bytes.NewReader(body))
	case ContentCSS:
		return &ParseResult{Links: p.ParseCSS(string(body))}, nil
	default:
		return &ParseResult{}, nil
	}
}

// ParseHTML extracts the title and the link attributes of an HTML document.
// Malformed markup is tolerated; whatever the tokenizer recovers is used.
func (p *Parser) ParseHTML(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{}
	links := newLinkSet()
	base := p.baseURL
	baseSeen := false
	titleSeen := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if !titleSeen {
					titleSeen = true
					result.Title = strings.TrimSpace(textContent(n))
				}
			case "base":
				if href := getAttr(n, "href"); href != "" && !baseSeen {
					baseSeen = true
					if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
						base = u
					}
				}
			default:
				if attr, ok := linkAttributes[n.Data]; ok {
					links.add(resolveURL(base, getAttr(n, attr)))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result.Links = links.list
	return result, nil
}

// ParseCSS extracts url(...) references from a stylesheet.
func (p *Parser) ParseCSS(text string) []string {
	links := newLinkSet()
	for _, m := range cssURLPattern.FindAllStringSubmatch(text, -1) {
		links.add(resolveURL(p.baseURL, m[1]))
	}
	return links.list
}

// skippedSchemes are references that cannot be fetched.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// resolveURL resolves href against base and removes its fragment.
// It returns "" for references that are empty, fragment-only, or not
// http(s) after resolution.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// linkSet keeps unique links in order of first insertion.
type linkSet struct {
	seen map[string]struct{}
	list []string
}

func newLinkSet() *linkSet {
	return &linkSet{seen: make(map[string]struct{}), list: make([]string, 0)}
}

func (s *linkSet) add(link string) {
	if link == "" {
		return
	}
	if _, ok := s.seen[link]; ok {
		return
	}
	s.seen[link] = struct{}{}
	s.list = append(s.list, link)
}

// textContent concatenates the text nodes below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
