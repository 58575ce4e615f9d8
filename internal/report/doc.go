// Package report renders the findings of a run.
//
// A SiteReport is first narrowed to a Document for one report type
// (deadlinks, unreachable or combined), which holds only the sections that
// type includes. Writers then render a Document:
//   - JSONWriter: structured JSON for tool integration
//   - XMLWriter: the same structure as XML
//   - MarkdownWriter: a readable page with tables and a chart
//   - SimpleWriter: plain text for the terminal
//
// JSON and XML carry the same fields.
package report
