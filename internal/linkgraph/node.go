package linkgraph

// StatusNetworkError is the response code recorded for a URL whose fetch
// failed before any HTTP status was received (timeout, DNS, reset, TLS).
const StatusNetworkError = -1

// Node is a single URL in the link graph.
type Node struct {
	// URL is the identity of the node in its display form (fragment removed).
	URL string

	// ContentType is the MIME type of the response without parameters.
	ContentType *string

	// ResponseCode is the HTTP status code, or StatusNetworkError.
	// It is nil for URLs that were never fetched.
	ResponseCode *int

	// LastModified is the raw Last-Modified header of the response.
	LastModified *string

	// Title is the <title> of an HTML document, "" when the document has none.
	Title *string

	// Broken reports a status >= 400 or a network failure.
	Broken bool

	// External reports a host that differs from the crawl root.
	// External nodes are recorded but never fetched or expanded.
	External bool

	// FilePath is the path component of URL, "/" when empty.
	FilePath *string

	links   []*Node
	linkSet map[string]struct{}
}

func newNode(url string) *Node {
	return &Node{
		URL:     url,
		linkSet: make(map[string]struct{}),
	}
}

// Links returns the outbound edges of the node in insertion order.
// The returned slice must not be modified.
func (n *Node) Links() []*Node {
	return n.links
}

// LinkURLs returns the target URLs of the outbound edges in insertion order.
func (n *Node) LinkURLs() []string {
	urls := make([]string, 0, len(n.links))
	for _, l := range n.links {
		urls = append(urls, l.URL)
	}
	return urls
}

// HasLink reports whether the node has an edge to url.
func (n *Node) HasLink(url string) bool {
	_, ok := n.linkSet[url]
	return ok
}

// addTarget appends an edge unless one to the same URL already exists.
func (n *Node) addTarget(target *Node) bool {
	if _, ok := n.linkSet[target.URL]; ok {
		return false
	}
	n.linkSet[target.URL] = struct{}{}
	n.links = append(n.links, target)
	return true
}

// NodeAttrs is a partial update of node attributes.
// Only non-nil fields are applied.
type NodeAttrs struct {
	ContentType  *string
	ResponseCode *int
	LastModified *string
	Title        *string
	Broken       *bool
	External     *bool
	FilePath     *string
}

func (a NodeAttrs) apply(n *Node) {
	if a.ContentType != nil {
		n.ContentType = a.ContentType
	}
	if a.ResponseCode != nil {
		n.ResponseCode = a.ResponseCode
	}
	if a.LastModified != nil {
		n.LastModified = a.LastModified
	}
	if a.Title != nil {
		n.Title = a.Title
	}
	if a.Broken != nil {
		n.Broken = *a.Broken
	}
	if a.External != nil {
		n.External = *a.External
	}
	if a.FilePath != nil {
		n.FilePath = a.FilePath
	}
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// deref returns the value of p or "" when p is nil.
func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
