package linkgraph

import "errors"

var (
	// ErrUnknownFormat is returned when a serialization format is not supported.
	ErrUnknownFormat = errors.New("unknown link graph format")

	// ErrCorruptGraph is returned when persisted graph data cannot be turned
	// back into a graph: undecodable input, missing nodes section, edges to
	// URLs that are not in the document, or a root that is not a node.
	ErrCorruptGraph = errors.New("corrupt link graph")

	// ErrRootAlreadySet is returned by SetRoot when the graph already has a root.
	ErrRootAlreadySet = errors.New("link graph root already set")

	// ErrUnknownAttribute is returned by View for an attribute name that
	// nodes do not have.
	ErrUnknownAttribute = errors.New("unknown node attribute")
)
