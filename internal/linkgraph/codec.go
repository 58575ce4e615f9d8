package linkgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a serialization format for link graphs.
type Format string

const (
	// FormatJSON is the default, two-space indented JSON document.
	FormatJSON Format = "json"
	// FormatYAML stores the same document shape as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a format name into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

type document struct {
	Root  *string                 `json:"root" yaml:"root"`
	Nodes map[string]nodeDocument `json:"nodes" yaml:"nodes"`
}

type nodeDocument struct {
	URL          string   `json:"url" yaml:"url"`
	ContentType  *string  `json:"content_type" yaml:"content_type"`
	ResponseCode *int     `json:"response_code" yaml:"response_code"`
	LastModified *string  `json:"last_modified" yaml:"last_modified"`
	Title        *string  `json:"title" yaml:"title"`
	Broken       bool     `json:"broken" yaml:"broken"`
	External     bool     `json:"external" yaml:"external"`
	FilePath     *string  `json:"file_path" yaml:"file_path"`
	Links        []string `json:"links" yaml:"links"`
}

// Serialize encodes the graph in the given format.
func (g *Graph) Serialize(format Format) ([]byte, error) {
	doc := document{Nodes: make(map[string]nodeDocument, len(g.nodes))}
	if g.root != nil {
		doc.Root = String(g.root.URL)
	}
	for url, n := range g.nodes {
		doc.Nodes[url] = nodeDocument{
			URL:          n.URL,
			ContentType:  n.ContentType,
			ResponseCode: n.ResponseCode,
			LastModified: n.LastModified,
			Title:        n.Title,
			Broken:       n.Broken,
			External:     n.External,
			FilePath:     n.FilePath,
			Links:        n.LinkURLs(),
		}
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode link graph as JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode link graph as YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode link graph as YAML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Deserialize decodes a graph previously produced by Serialize.
//
// Nodes are materialized first and edges resolved second. An edge to a URL
// that has no node entry, a root that has no node entry, or a node whose
// url field disagrees with its key makes the data corrupt. A null or empty
// root means the graph has none.
func Deserialize(data []byte, format Format) (*Graph, error) {
	var doc document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptGraph, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptGraph, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if doc.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes", ErrCorruptGraph)
	}

	keys := make([]string, 0, len(doc.Nodes))
	for key := range doc.Nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	g := New()
	for _, key := range keys {
		nd := doc.Nodes[key]
		if nd.URL != "" && nd.URL != key {
			return nil, fmt.Errorf("%w: node %q has url %q", ErrCorruptGraph, key, nd.URL)
		}
		g.GetOrCreateNode(key, NodeAttrs{
			ContentType:  nd.ContentType,
			ResponseCode: nd.ResponseCode,
			LastModified: nd.LastModified,
			Title:        nd.Title,
			Broken:       Bool(nd.Broken),
			External:     Bool(nd.External),
			FilePath:     nd.FilePath,
		})
	}

	for _, key := range keys {
		source := g.nodes[key]
		for _, link := range doc.Nodes[key].Links {
			target, ok := g.nodes[link]
			if !ok {
				return nil, fmt.Errorf("%w: edge %q -> %q has no target node", ErrCorruptGraph, key, link)
			}
			g.AddEdge(source, target)
		}
	}

	if doc.Root != nil && *doc.Root != "" {
		if _, ok := g.nodes[*doc.Root]; !ok {
			return nil, fmt.Errorf("%w: root %q is not a node", ErrCorruptGraph, *doc.Root)
		}
		g.root = g.nodes[*doc.Root]
	}

	return g, nil
}
