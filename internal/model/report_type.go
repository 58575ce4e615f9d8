package model

import (
	"fmt"
	"strings"
)

// ReportType selects the sections of a written report.
type ReportType string

const (
	// ReportDeadLinks lists broken URLs and their referrers.
	ReportDeadLinks ReportType = "deadlinks"
	// ReportUnreachable lists webroot files no crawled URL reaches.
	ReportUnreachable ReportType = "unreachable"
	// ReportCombined contains both sections.
	ReportCombined ReportType = "combined"
)

// reportTypeAll expands to every report type.
const reportTypeAll = "all"

// AllReportTypes returns every report type in output order.
func AllReportTypes() []ReportType {
	return []ReportType{ReportDeadLinks, ReportUnreachable, ReportCombined}
}

// HasDeadLinks reports whether the type includes the dead link section.
func (t ReportType) HasDeadLinks() bool {
	return t == ReportDeadLinks || t == ReportCombined
}

// HasUnreachable reports whether the type includes the unreachable section.
func (t ReportType) HasUnreachable() bool {
	return t == ReportUnreachable || t == ReportCombined
}

// Title returns a human readable heading for the type.
func (t ReportType) Title() string {
	switch t {
	case ReportDeadLinks:
		return "dead links"
	case ReportUnreachable:
		return "unreachable files"
	case ReportCombined:
		return "combined report"
	default:
		return string(t)
	}
}

// ParseReportTypes converts names into report types. Each name may itself
// be a comma separated list. "all" expands to every type. Duplicates are
// removed and the first occurrence decides the order.
func ParseReportTypes(names []string) ([]ReportType, error) {
	seen := make(map[ReportType]bool)
	types := make([]ReportType, 0, len(names))
	add := func(t ReportType) {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}

	for _, name := range splitList(names) {
		switch name {
		case reportTypeAll:
			for _, t := range AllReportTypes() {
				add(t)
			}
		case string(ReportDeadLinks), string(ReportUnreachable), string(ReportCombined):
			add(ReportType(name))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, name)
		}
	}
	return types, nil
}

// ReportFormat is an output format for written reports.
type ReportFormat string

const (
	// FormatJSON writes indented JSON.
	FormatJSON ReportFormat = "json"
	// FormatXML writes indented XML.
	FormatXML ReportFormat = "xml"
	// FormatMarkdown writes GitHub flavored Markdown.
	FormatMarkdown ReportFormat = "md"
)

// Extension returns the file extension for the format, including the dot.
func (f ReportFormat) Extension() string {
	return "." + string(f)
}

// ParseReportFormats converts names into formats. Each name may itself be a
// comma separated list; "markdown" is accepted for md.
func ParseReportFormats(names []string) ([]ReportFormat, error) {
	seen := make(map[ReportFormat]bool)
	formats := make([]ReportFormat, 0, len(names))
	for _, name := range splitList(names) {
		var f ReportFormat
		switch name {
		case "json":
			f = FormatJSON
		case "xml":
			f = FormatXML
		case "md", "markdown":
			f = FormatMarkdown
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownReportFormat, name)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// splitList splits comma separated entries, trimming and lowercasing each
// and dropping empty ones.
func splitList(names []string) []string {
	var out []string
	for _, name := range names {
		for part := range strings.SplitSeq(name, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
