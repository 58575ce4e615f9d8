package pipeline

import "errors"

var (
	// ErrNoGraph is returned by steps that need a link graph when no
	// earlier step produced one.
	ErrNoGraph = errors.New("no link graph")

	// ErrGraphNotFound is returned when no link graph file can be found.
	ErrGraphNotFound = errors.New("link graph file not found")

	// ErrAmbiguousGraph is returned when several link graph files match and
	// none was named.
	ErrAmbiguousGraph = errors.New("several link graph files found, choose one with --link-graph")
)
