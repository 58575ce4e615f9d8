package workdir

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when the working directory exists but is a file.
var ErrNotDirectory = errors.New("working directory is not a directory")

// Dir is a working directory.
type Dir struct {
	root   string
	logger *slog.Logger
}

// Option configures a Dir.
type Option func(*Dir)

// WithLogger sets the logger used to report written files.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dir) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New returns a Dir rooted at root. An empty root is the current directory.
// The directory does not have to exist yet; it is created on first write.
func New(root string, opts ...Option) (*Dir, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory %s: %w", root, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	d := &Dir{
		root:   abs,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Root returns the absolute path of the working directory.
func (d *Dir) Root() string {
	return d.root
}

// Resolve returns name joined to the working directory, or name itself when
// it is absolute.
func (d *Dir) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(d.root, name)
}

// WriteFile writes data to name, creating parent directories as needed, and
// returns the path written.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	path := d.Resolve(name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	d.logger.Info("file written", "path", path, "bytes", len(data))
	return path, nil
}

// Create opens name for writing, truncating it, with parent directories
// created as needed. The caller closes the returned file.
func (d *Dir) Create(name string) (io.WriteCloser, string, error) {
	path := d.Resolve(name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is under the user-chosen working directory
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, path, nil
}

// ReadFile reads name.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	path := d.Resolve(name)
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d.logger.Debug("file read", "path", path)
	return data, nil
}

// Find returns the resolved path of the first name that exists as a regular
// file, and false when none does.
func (d *Dir) Find(names ...string) (string, bool) {
	for _, name := range names {
		path := d.Resolve(name)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, true
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.logger.Debug("cannot stat candidate", "path", path, "error", err)
		}
	}
	return "", false
}

// Glob returns the regular files in the working directory matching pattern,
// sorted by name.
func (d *Dir) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.root, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}
