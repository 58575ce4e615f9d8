package config

import "errors"

// Configuration validation errors returned by Config.Validate and friends.
// Callers match them with errors.Is; wrapped errors carry the offending value.
var (
	// ErrNoWebsite is returned when a crawl has no seed URL.
	ErrNoWebsite = errors.New("no website specified")

	// ErrInvalidWebsite is returned when the seed is not an http(s) URL.
	ErrInvalidWebsite = errors.New("invalid website: must be an http or https URL")

	// ErrNoWebroot is returned when report mode has no webroot to compare.
	ErrNoWebroot = errors.New("no webroot specified")

	// ErrInvalidIgnorePattern is returned when an ignore pattern is not a
	// valid regular expression.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")

	// ErrUnknownFormat is returned for unknown report formats.
	ErrUnknownFormat = errors.New("unknown report format")

	// ErrUnknownReportType is returned for unknown report types.
	ErrUnknownReportType = errors.New("unknown report type")

	// ErrInvalidGraphFormat is returned when the link graph format is unknown.
	ErrInvalidGraphFormat = errors.New("invalid link graph format")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the body limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidArchiveConcurrency is returned when archive lookups are
	// enabled with a non-positive concurrency.
	ErrInvalidArchiveConcurrency = errors.New("invalid archive concurrency: must be positive")

	// ErrConflictingVerbosity is returned when more than one of --quiet,
	// --silent and --verbose is given.
	ErrConflictingVerbosity = errors.New("conflicting verbosity: --quiet, --silent and --verbose are mutually exclusive")
)
