package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Verbosity selects how much the command line tool logs.
type Verbosity int

const (
	// VerbositySilent discards all log output.
	VerbositySilent Verbosity = iota
	// VerbosityQuiet logs warnings and errors only.
	VerbosityQuiet
	// VerbosityNormal adds progress information.
	VerbosityNormal
	// VerbosityVerbose adds per-URL debug output.
	VerbosityVerbose
)

// String returns the name used in configuration files.
func (v Verbosity) String() string {
	switch v {
	case VerbositySilent:
		return "silent"
	case VerbosityQuiet:
		return "quiet"
	case VerbosityVerbose:
		return "verbose"
	default:
		return "normal"
	}
}

// ParseVerbosity converts a name from a configuration file.
func ParseVerbosity(name string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent":
		return VerbositySilent, nil
	case "quiet":
		return VerbosityQuiet, nil
	case "", "normal":
		return VerbosityNormal, nil
	case "verbose", "debug":
		return VerbosityVerbose, nil
	default:
		return VerbosityNormal, fmt.Errorf("unknown verbosity %q", name)
	}
}

// Level returns the minimum slog level logged at v.
func (v Verbosity) Level() slog.Level {
	switch v {
	case VerbosityQuiet:
		return slog.LevelWarn
	case VerbosityVerbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger writing to w at the given verbosity, with
// secrets redacted. VerbositySilent yields a logger that discards everything.
func NewLogger(w io.Writer, v Verbosity) *slog.Logger {
	if v == VerbositySilent {
		return slog.New(slog.DiscardHandler)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: v.Level()})
	return slog.New(NewRedactingHandler(handler))
}

// NewJSONLogger is NewLogger with JSON output, for log aggregation.
func NewJSONLogger(w io.Writer, v Verbosity) *slog.Logger {
	if v == VerbositySilent {
		return slog.New(slog.DiscardHandler)
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: v.Level()})
	return slog.New(NewRedactingHandler(handler))
}
