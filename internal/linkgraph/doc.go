// Package linkgraph models a crawled website as a directed graph of pages
// and the resources they reference.
//
// # Model
//
// A Graph holds Nodes keyed by URL. Each Node carries the response metadata
// observed when the URL was fetched (content type, status code, Last-Modified
// header, HTML title) together with an ordered set of outbound edges. Edges
// are unique per target URL: adding the same edge twice is a no-op.
//
// Nodes are never removed. Revisiting a URL updates the supplied attributes
// in place through NodeAttrs, a partial update where only non-nil fields are
// written. Existing edges are kept.
//
// Optional attributes are pointers so that "never observed" (null in the
// persisted form) is distinguishable from an empty value. The helpers String,
// Int and Bool build those pointers.
//
// # Persistence
//
// Serialize and Deserialize convert a graph to and from JSON or YAML. Both
// formats share one document shape:
//
//	{"root": "<url>", "nodes": {"<url>": {"url": ..., "links": ["<url>", ...]}}}
//
// Deserialization runs in two passes. The first pass creates every node with
// its attributes, the second resolves edges by URL, so edge order in the
// document does not matter and forward references are allowed.
//
// # Sitemaps
//
// GenerateSitemap renders every internal, non-broken node as a
// sitemaps.org urlset document.
package linkgraph
