package output

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

// Export is the set of CSV files written by `devpulse report --export`
type Export struct {
	Summaries map[string]*analytics.SummaryResult
	Daily     *analytics.TimeSeriesResult
	Weekly    *analytics.TimeSeriesResult
	Commits   []models.CommitRecord
}

// WriteFiles writes every populated part of e into dir and returns the
// paths written, sorted
func (e *Export) WriteFiles(dir string, logger *logrus.Logger) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "create output directory %s", dir)
	}

	csvf := &CSVFormatter{}
	var written []string
	write := func(name string, fn func(f *os.File) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return errors.FileSystemErrorf(err, "create %s", path)
		}
		if err := fn(f); err != nil {
			f.Close()
			return errors.FileSystemErrorf(err, "write %s", path)
		}
		if err := f.Close(); err != nil {
			return errors.FileSystemErrorf(err, "close %s", path)
		}
		written = append(written, path)
		if logger != nil {
			logger.WithField("path", path).Debug("wrote export file")
		}
		return nil
	}

	for name, res := range e.Summaries {
		if err := write("developer_summary_"+name+".csv", func(f *os.File) error {
			return csvf.Summaries(res, f)
		}); err != nil {
			return nil, err
		}
	}
	if e.Daily != nil {
		if err := write("daily_stats.csv", func(f *os.File) error {
			return csvf.TimeSeries(e.Daily, f)
		}); err != nil {
			return nil, err
		}
	}
	if e.Weekly != nil {
		if err := write("weekly_stats.csv", func(f *os.File) error {
			return csvf.TimeSeries(e.Weekly, f)
		}); err != nil {
			return nil, err
		}
	}
	if e.Commits != nil {
		if err := write("commits.csv", func(f *os.File) error {
			return csvf.Commits(e.Commits, f)
		}); err != nil {
			return nil, err
		}
	}

	sort.Strings(written)
	return written, nil
}
