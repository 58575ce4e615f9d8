// Package filetree lists the files of a website's webroot and compares them
// with a crawled link graph.
//
// A webroot is either a local directory or a remote one written as
// [user@]host:path, which is listed over SSH. Only files whose name contains
// a dot are listed, mirroring `find . -type f -name '*.*'`, and every path is
// reported relative to the webroot with a leading slash ("/blog/post.html").
//
// Remote listings run `find` on the server through golang.org/x/crypto/ssh
// in a single session. The remote host needs a POSIX shell and find.
package filetree
