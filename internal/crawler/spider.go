package crawler

import (
	"context"
	"log/slog"
	"regexp"
	"sync"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
)

// Spider crawls a website breadth-first and records what it finds in a
// link graph.
//
// Only URLs on the seed's host are fetched. Links to other hosts become
// external nodes that are never fetched. Every internal URL is fetched at
// most once per crawl, where "the same URL" is decided by DedupKey.
//
// A Spider runs one crawl at a time; it is not safe for concurrent calls to
// Crawl.
type Spider struct {
	fetcher  Fetcher
	ignore   *regexp.Regexp
	maxPages int
	logger   *slog.Logger
	progress func(rawURL string)

	mutex sync.Mutex
	stats SpiderStats
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithIgnore drops every discovered link whose absolute URL matches re.
// Ignored links produce neither a node nor an edge.
func WithIgnore(re *regexp.Regexp) SpiderOption {
	return func(s *Spider) {
		s.ignore = re
	}
}

// WithMaxPages stops the crawl after n fetches. Zero means no limit.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = n
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithProgress registers fn to be called before each fetch.
func WithProgress(fn func(rawURL string)) SpiderOption {
	return func(s *Spider) {
		s.progress = fn
	}
}

// NewSpider returns a Spider that fetches through fetcher.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher: fetcher,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SpiderStats summarizes a crawl.
type SpiderStats struct {
	// PagesFetched counts fetch attempts, successful or not.
	PagesFetched int

	// Failures counts fetches that failed without an HTTP response.
	Failures int

	// Broken counts fetched URLs that answered with status >= 400.
	Broken int

	// IgnoredLinks counts links dropped by the ignore pattern.
	IgnoredLinks int

	// Truncated reports that the page limit stopped the crawl early.
	Truncated bool
}

// Stats returns the statistics of the current or most recent crawl.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stats
}

func (s *Spider) updateStats(fn func(*SpiderStats)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	fn(&s.stats)
}

// crawlState is the per-crawl bookkeeping.
type crawlState struct {
	graph    *linkgraph.Graph
	frontier *Frontier
	rootHost string

	// canonical maps a dedup key to the node that represents it, so that
	// equivalent spellings of an internal URL share one node.
	canonical map[string]*linkgraph.Node
}

// Crawl fetches seed and everything reachable from it on the same host.
//
// The returned graph is always valid. When ctx is cancelled the crawl stops
// before the next fetch and the partial graph is returned with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, seed string) (*linkgraph.Graph, error) {
	seedURL, err := NormalizeSeed(seed)
	if err != nil {
		return nil, err
	}

	s.updateStats(func(st *SpiderStats) { *st = SpiderStats{} })

	state := &crawlState{
		graph:     linkgraph.New(),
		frontier:  NewFrontier(),
		rootHost:  HostOf(seedURL),
		canonical: make(map[string]*linkgraph.Node),
	}
	root, err := state.graph.SetRoot(seedURL, linkgraph.NodeAttrs{External: linkgraph.Bool(false)})
	if err != nil {
		return nil, err
	}
	state.canonical[DedupKey(seedURL)] = root
	state.frontier.Push(seedURL)

	s.logger.Info("crawl started", "seed", seedURL)

	fetched := 0
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("crawl cancelled", "fetched", fetched, "queued", state.frontier.Len())
			return state.graph, err
		}

		if s.maxPages > 0 && fetched >= s.maxPages {
			if state.frontier.Pending() {
				s.updateStats(func(st *SpiderStats) { st.Truncated = true })
				s.logger.Warn("page limit reached", "limit", s.maxPages, "queued", state.frontier.Len())
			}
			break
		}

		rawURL, ok := state.frontier.Pop()
		if !ok {
			break
		}

		key := DedupKey(rawURL)
		if state.frontier.Visited(key) {
			continue
		}
		state.frontier.MarkVisited(key)

		fetched++
		s.visit(ctx, state, rawURL)
	}

	stats := s.Stats()
	s.logger.Info("crawl finished",
		"seed", seedURL,
		"nodes", state.graph.Len(),
		"edges", state.graph.EdgeCount(),
		"fetched", stats.PagesFetched,
		"failures", stats.Failures,
		"broken", stats.Broken,
	)
	return state.graph, nil
}

// visit fetches one internal URL and records the result.
func (s *Spider) visit(ctx context.Context, state *crawlState, rawURL string) {
	if s.progress != nil {
		s.progress(rawURL)
	}

	source := state.internalNode(rawURL)
	resp, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("fetch failed", "url", rawURL, "error", err)
		s.updateStats(func(st *SpiderStats) {
			st.PagesFetched++
			st.Failures++
		})
		state.graph.GetOrCreateNode(source.URL, linkgraph.NodeAttrs{
			ResponseCode: linkgraph.Int(linkgraph.StatusNetworkError),
			Broken:       linkgraph.Bool(true),
			External:     linkgraph.Bool(false),
			FilePath:     linkgraph.String(FilePathOf(source.URL)),
		})
		return
	}

	broken := resp.StatusCode >= 400
	s.updateStats(func(st *SpiderStats) {
		st.PagesFetched++
		if broken {
			st.Broken++
		}
	})
	s.logger.Debug("fetched", "url", rawURL, "status", resp.StatusCode, "content_type", resp.ContentType)

	finalURL := DisplayURL(resp.FinalURL)
	if finalURL == "" {
		finalURL = rawURL
	}

	node := source
	offsite := false
	if finalKey := DedupKey(finalURL); finalKey != DedupKey(rawURL) {
		if HostOf(finalURL) != state.rootHost {
			offsite = true
			target := state.graph.GetOrCreateNode(finalURL, linkgraph.NodeAttrs{External: linkgraph.Bool(true)})
			state.graph.AddEdge(source, target)
		} else {
			state.frontier.MarkVisited(finalKey)
			node = state.internalNode(finalURL)
			state.graph.AddEdge(source, node)
		}
		s.logger.Debug("redirected", "from", rawURL, "to", finalURL)
	}

	attrs := linkgraph.NodeAttrs{
		ContentType:  linkgraph.String(resp.ContentType),
		ResponseCode: linkgraph.Int(resp.StatusCode),
		Broken:       linkgraph.Bool(broken),
		External:     linkgraph.Bool(false),
		FilePath:     linkgraph.String(FilePathOf(node.URL)),
	}
	if resp.LastModified != "" {
		attrs.LastModified = linkgraph.String(resp.LastModified)
	}

	class := ClassifyContentType(resp.ContentType)
	var result *ParseResult
	if class != ContentOther && !offsite {
		result = s.parse(finalURL, class, resp.Body)
		if class == ContentHTML && result != nil {
			attrs.Title = linkgraph.String(result.Title)
		}
	}
	state.graph.GetOrCreateNode(node.URL, attrs)

	if result == nil {
		return
	}
	for _, link := range result.Links {
		s.follow(state, node, link)
	}
}

func (s *Spider) parse(baseURL string, class ContentClass, body []byte) *ParseResult {
	parser, err := NewParser(baseURL)
	if err != nil {
		s.logger.Debug("invalid base URL", "url", baseURL, "error", err)
		return nil
	}
	result, err := parser.Parse(class, body)
	if err != nil {
		s.logger.Debug("failed to parse body", "url", baseURL, "class", class.String(), "error", err)
		return nil
	}
	return result
}

// follow records the edge from source to link and queues link when it is
// internal and unseen.
func (s *Spider) follow(state *crawlState, source *linkgraph.Node, link string) {
	if s.ignore != nil && s.ignore.MatchString(link) {
		s.updateStats(func(st *SpiderStats) { st.IgnoredLinks++ })
		s.logger.Debug("ignored link", "url", link, "source", source.URL)
		return
	}

	if HostOf(link) != state.rootHost {
		target := state.graph.GetOrCreateNode(link, linkgraph.NodeAttrs{External: linkgraph.Bool(true)})
		state.graph.AddEdge(source, target)
		return
	}

	target := state.internalNode(link)
	state.frontier.Push(link)
	state.graph.AddEdge(source, target)
}

// internalNode returns the canonical node for the dedup key of rawURL,
// creating it under rawURL when the key is new.
func (st *crawlState) internalNode(rawURL string) *linkgraph.Node {
	key := DedupKey(rawURL)
	if n, ok := st.canonical[key]; ok {
		return n
	}
	n := st.graph.GetOrCreateNode(rawURL, linkgraph.NodeAttrs{})
	st.canonical[key] = n
	return n
}
