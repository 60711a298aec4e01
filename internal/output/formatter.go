package output

import (
	"io"
	"strings"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

// Formatter renders analytics results in one output format
type Formatter interface {
	Summaries(res *analytics.SummaryResult, w io.Writer) error
	TimeSeries(res *analytics.TimeSeriesResult, w io.Writer) error
	Commits(commits []models.CommitRecord, w io.Writer) error
}

// Format selects a Formatter
type Format string

const (
	FormatTable Format = "table" // terminal table
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format flag value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", errors.ConfigErrorf("unknown output format %q (want table, csv or json)", s)
	}
}

// NewFormatter creates the formatter for format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatCSV:
		return &CSVFormatter{}
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TableFormatter{}
	}
}
