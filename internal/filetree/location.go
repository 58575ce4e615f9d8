package filetree

import (
	"regexp"
	"strings"
)

var locationPattern = regexp.MustCompile(`^(?:(?P<user>[^@/]+)@)?(?P<host>[^:/]+):(?P<path>.+)$`)

// Location is a parsed webroot.
type Location struct {
	// User is the SSH user, empty for the default.
	User string
	// Host is the SSH host, empty for a local webroot.
	Host string
	// Path is the directory holding the site's files.
	Path string
}

// ParseLocation splits a webroot of the form [user@]host:path. Anything else
// is a local path.
func ParseLocation(webroot string) Location {
	m := locationPattern.FindStringSubmatch(webroot)
	if m == nil || isWindowsDrive(webroot) {
		return Location{Path: webroot}
	}
	return Location{
		User: m[locationPattern.SubexpIndex("user")],
		Host: m[locationPattern.SubexpIndex("host")],
		Path: m[locationPattern.SubexpIndex("path")],
	}
}

// Remote reports whether the webroot lives on another host.
func (l Location) Remote() bool {
	return l.Host != ""
}

// String returns the webroot in [user@]host:path form.
func (l Location) String() string {
	if !l.Remote() {
		return l.Path
	}
	var b strings.Builder
	if l.User != "" {
		b.WriteString(l.User)
		b.WriteByte('@')
	}
	b.WriteString(l.Host)
	b.WriteByte(':')
	b.WriteString(l.Path)
	return b.String()
}

// isWindowsDrive reports whether s starts like C:\ or C:/.
func isWindowsDrive(s string) bool {
	return len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/') &&
		(s[0] >= 'a' && s[0] <= 'z' || s[0] >= 'A' && s[0] <= 'Z')
}
