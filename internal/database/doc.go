// Package database provides SQLite-based storage for crawl history.
//
// Every crawl of a site is stored with its serialized link graph and a
// summary of its findings, so later runs can list a site's history and
// compare two crawls: pages that appeared or disappeared, links that broke
// and links that were fixed.
//
// The database is a single file, creepycrawler.db, opened through the
// CGO-free modernc.org/sqlite driver in WAL mode.
//
// Graphs are stored in their JSON form, the same bytes the link graph file
// holds, together with a SHA3-256 digest that tells identical crawls apart
// without decoding them.
package database
