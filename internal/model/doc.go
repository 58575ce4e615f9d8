// Package model defines the report data shared by the pipeline, the report
// writers and the crawl history store.
//
// A SiteReport is the working state of one run: the link graph produced by
// a crawl (or loaded from disk), the files found under the webroot, and the
// findings derived from both. Report types select which findings a written
// report contains:
//
//   - deadlinks: broken URLs with the pages that link to them
//   - unreachable: files under the webroot that no crawled URL reaches
//   - combined: both sections in one report
package model
