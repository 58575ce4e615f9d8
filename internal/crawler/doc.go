// Package crawler walks a website breadth-first and builds its link graph.
//
// # Architecture
//
// The package is organized around the Spider type, which owns the crawl
// loop. A Frontier holds the URLs waiting to be fetched along with the keys
// already queued or visited. A Fetcher performs the HTTP requests and a
// Parser pulls links out of the bodies it returns.
//
// FetcherFunc turns a plain function into a Fetcher, which lets tests drive
// the crawl loop without a network.
//
// # URL identity
//
// Two forms of a URL are used:
//
//   - DisplayURL strips the fragment. It names nodes in the graph.
//   - DedupKey is the lowercased host plus the path without trailing slashes.
//     It decides whether a URL has been seen.
//
// Internal URLs sharing a key are represented by a single node, named after
// the first spelling the crawl encountered. External URLs are named by their
// display form only.
//
// # Crawl loop
//
//  1. Pop a URL; skip it when its key is already visited.
//  2. Mark the key visited, then fetch.
//  3. Record status, content type, Last-Modified, title and path on the node.
//     A transport failure records response code -1 and marks the node broken.
//  4. Extract links from HTML and CSS bodies. For each link, drop it if it
//     matches the ignore pattern, record it as external if its host differs
//     from the seed's host, or queue it otherwise. An edge is added in every
//     case except the ignore match.
//
// The loop is single-threaded. Cancelling the context stops it before the
// next fetch and leaves a consistent partial graph.
//
// # Usage
//
//	fetcher, err := crawler.NewHTTPFetcher()
//	spider := crawler.NewSpider(fetcher, crawler.WithIgnore(regexp.MustCompile(`\.pdf$`)))
//	graph, err := spider.Crawl(ctx, "https://example.com/")
package crawler
