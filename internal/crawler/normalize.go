package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// DisplayURL returns the form of rawURL that identifies a node in the link
// graph: the URL with its fragment removed and nothing else changed.
func DisplayURL(rawURL string) string {
	before, _, _ := strings.Cut(strings.TrimSpace(rawURL), "#")
	return before
}

// DedupKey returns the key under which a URL is considered already seen.
//
// The key is the lowercased host followed by the path with trailing slashes
// removed; an empty path becomes "/". Scheme, query and fragment are not part
// of the key, so http://x/a and https://x/a/ share the key "x/a". Path case,
// percent-encoding and query parameters are left alone.
func DedupKey(rawURL string) string {
	u, err := url.Parse(DisplayURL(rawURL))
	if err != nil {
		return DisplayURL(rawURL)
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}
	return strings.ToLower(u.Host) + path
}

// HostOf returns the lowercased host (including any port) of rawURL.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// FilePathOf returns the path component of rawURL, "/" when empty.
func FilePathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// NormalizeSeed validates a crawl seed and returns its display form.
// A seed without a scheme is treated as http.
func NormalizeSeed(seed string) (string, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidSeed)
	}
	if !strings.Contains(seed, "://") {
		seed = "http://" + seed
	}

	u, err := url.Parse(DisplayURL(seed))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSeed, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidSeed, seed)
	}
	return u.String(), nil
}
