package report

import (
	"fmt"
	"io"

	"github.com/nao1215/creepycrawler/internal/model"
)

// Writer renders a Document.
type Writer interface {
	// Write outputs the document and returns the number of bytes written.
	Write(doc *Document) (int, error)
}

// NewWriter returns the Writer for format f writing to output.
func NewWriter(f model.ReportFormat, output io.Writer) (Writer, error) {
	switch f {
	case model.FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case model.FormatXML:
		return NewXMLWriter(output), nil
	case model.FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownReportFormat, f)
	}
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the document to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(doc *Document) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(doc)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
