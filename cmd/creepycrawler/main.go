// Package main provides the entry point for the creepycrawler CLI.
//
// creepycrawler crawls a website, records every internal and external link
// in a link graph, and reports dead links and files in the webroot that no
// crawled page links to.
//
// Usage:
//
//	creepycrawler crawl <website> [<webroot>]
//	creepycrawler report <webroot> --link-graph <file>
//	creepycrawler history [<site>]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
