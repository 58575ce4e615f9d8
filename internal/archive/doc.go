// Package archive looks up web archive copies of dead links through the
// Wayback Machine availability API.
//
// Lookups are best effort: a failed lookup is logged and leaves the dead
// link without a snapshot, it never fails the run.
package archive
