package output

import (
	"encoding/json"
	"io"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/models"
)

// JSONFormatter writes machine-readable results
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) Summaries(res *analytics.SummaryResult, w io.Writer) error {
	return f.encode(w, res)
}

func (f *JSONFormatter) TimeSeries(res *analytics.TimeSeriesResult, w io.Writer) error {
	return f.encode(w, res)
}

func (f *JSONFormatter) Commits(commits []models.CommitRecord, w io.Writer) error {
	if commits == nil {
		commits = []models.CommitRecord{}
	}
	return f.encode(w, commits)
}

func (f *JSONFormatter) encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
