package linkgraph

import (
	"fmt"
)

// Graph is a directed graph of URLs.
//
// Graph is not safe for concurrent mutation. The crawl engine that builds it
// is single-threaded; readers may share a finished graph freely.
type Graph struct {
	root  *Node
	nodes map[string]*Node
	order []string
}

// New returns an empty graph without a root.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// GetOrCreateNode returns the node for url, creating it when missing, and
// applies attrs to it. It is the only way node metadata changes.
func (g *Graph) GetOrCreateNode(url string, attrs NodeAttrs) *Node {
	n, ok := g.nodes[url]
	if !ok {
		n = newNode(url)
		g.nodes[url] = n
		g.order = append(g.order, url)
	}
	attrs.apply(n)
	return n
}

// SetRoot creates (or updates) the node for url and marks it as the root.
// A graph has exactly one root; a second call returns ErrRootAlreadySet.
func (g *Graph) SetRoot(url string, attrs NodeAttrs) (*Node, error) {
	if g.root != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootAlreadySet, g.root.URL)
	}
	g.root = g.GetOrCreateNode(url, attrs)
	return g.root, nil
}

// AddEdge records an edge from source to target. Both nodes must belong to
// g. Adding an edge that already exists does nothing.
func (g *Graph) AddEdge(source, target *Node) {
	source.addTarget(target)
}

// Root returns the root node, or nil when no root was set.
func (g *Graph) Root() *Node {
	return g.root
}

// Node returns the node for url, or nil when the graph has none.
func (g *Graph) Node(url string) *Node {
	return g.nodes[url]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes in the order they were first created.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, url := range g.order {
		nodes = append(nodes, g.nodes[url])
	}
	return nodes
}

// EdgeCount returns the total number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		count += len(n.links)
	}
	return count
}

// Referrers returns the URLs of the nodes that link to url, in node order.
func (g *Graph) Referrers(url string) []string {
	var refs []string
	for _, key := range g.order {
		if g.nodes[key].HasLink(url) {
			refs = append(refs, key)
		}
	}
	return refs
}

// View projects one attribute of every node, in node order. Attribute
// names are those of the persisted form (url, content_type, response_code,
// last_modified, title, broken, external, file_path, links). Unset
// attributes are returned as nil.
func (g *Graph) View(attribute string) ([]any, error) {
	get, ok := attributeGetters[attribute]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	values := make([]any, 0, len(g.order))
	for _, url := range g.order {
		values = append(values, get(g.nodes[url]))
	}
	return values, nil
}

// FilePaths returns the file path of every internal node that has one.
func (g *Graph) FilePaths() []string {
	paths := make([]string, 0, len(g.order))
	for _, url := range g.order {
		n := g.nodes[url]
		if n.External || n.FilePath == nil {
			continue
		}
		paths = append(paths, *n.FilePath)
	}
	return paths
}

var attributeGetters = map[string]func(*Node) any{
	"url":           func(n *Node) any { return n.URL },
	"content_type":  func(n *Node) any { return ptrValue(n.ContentType) },
	"response_code": func(n *Node) any { return ptrValue(n.ResponseCode) },
	"last_modified": func(n *Node) any { return ptrValue(n.LastModified) },
	"title":         func(n *Node) any { return ptrValue(n.Title) },
	"broken":        func(n *Node) any { return n.Broken },
	"external":      func(n *Node) any { return n.External },
	"file_path":     func(n *Node) any { return ptrValue(n.FilePath) },
	"links":         func(n *Node) any { return n.LinkURLs() },
}

func ptrValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
