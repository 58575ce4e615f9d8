// Package pipeline runs the processing of a crawl as a sequence of steps.
//
// A run either crawls a site or loads a saved link graph, and then passes
// the resulting SiteReport through the steps the command line asked for:
// saving the graph, writing a sitemap, comparing the graph with the webroot,
// collecting dead links, writing reports and recording history. Each stage
// is a Step that receives the report and adds to it.
//
// Steps run in the order they were added. A failing step stops the run
// unless the pipeline was built WithContinueOnError.
package pipeline
