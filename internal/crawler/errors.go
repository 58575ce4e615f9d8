package crawler

import "errors"

var (
	// ErrInvalidSeed is returned when the crawl seed is not an absolute
	// http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrInvalidProxy is returned when the fetch proxy address cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy address")
)
