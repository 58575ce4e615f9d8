package model

import "errors"

var (
	// ErrUnknownReportType is returned for report type names other than
	// deadlinks, unreachable, combined and all.
	ErrUnknownReportType = errors.New("unknown report type")

	// ErrUnknownReportFormat is returned for report formats other than
	// json, xml and md.
	ErrUnknownReportFormat = errors.New("unknown report format")
)
