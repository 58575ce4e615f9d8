package filetree

import "errors"

var (
	// ErrEmptyWebroot is returned when no webroot is given.
	ErrEmptyWebroot = errors.New("empty webroot")

	// ErrNotDirectory is returned when a local webroot is not a directory.
	ErrNotDirectory = errors.New("webroot is not a directory")

	// ErrRemoteCommand is returned when the listing command fails on the
	// remote host.
	ErrRemoteCommand = errors.New("remote listing command failed")
)
