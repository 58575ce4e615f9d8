package report

import (
	"encoding/xml"
	"io"
)

// XMLWriter outputs reports as an indented XML document.
type XMLWriter struct {
	baseWriter
}

// NewXMLWriter creates an XMLWriter that outputs to the given writer.
func NewXMLWriter(output io.Writer) *XMLWriter {
	return &XMLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the document in XML format with an XML declaration.
func (w *XMLWriter) Write(doc *Document) (int, error) {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, err
	}
	out := make([]byte, 0, len(xml.Header)+len(data)+1)
	out = append(out, xml.Header...)
	out = append(out, data...)
	out = append(out, '\n')
	return w.output.Write(out)
}
