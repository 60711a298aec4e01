package output

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/models"
)

const maxMessageWidth = 60

// TableFormatter renders results as terminal tables
type TableFormatter struct{}

func (f *TableFormatter) Summaries(res *analytics.SummaryResult, w io.Writer) error {
	fmt.Fprintf(w, "Period: %s (%s)\n", res.Period, windowLabel(res))
	if len(res.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No commits in this period")
		return err
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Developer", "Commits", "Quality", "Lines Changed", "Issue Ref %", "Conventional %", "Hotfix %", "Active Days", "Repos"})
	for _, s := range res.Rows {
		tbl.AppendRow(table.Row{
			s.Developer,
			humanize.Comma(int64(s.TotalCommits)),
			fmt.Sprintf("%.2f", s.AvgQualityScore),
			humanize.Comma(int64(s.TotalChanges)),
			fmt.Sprintf("%.1f", s.IssueRefRate),
			fmt.Sprintf("%.1f", s.ConventionalRate),
			fmt.Sprintf("%.1f", s.HotfixRate),
			s.ActiveDays,
			s.RepositoriesCount,
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d developers", len(res.Rows)), humanize.Comma(int64(res.Commits))})
	tbl.Render()

	if res.Rejected > 0 {
		fmt.Fprintf(w, "%d malformed records were rejected\n", res.Rejected)
	}
	return nil
}

func (f *TableFormatter) TimeSeries(res *analytics.TimeSeriesResult, w io.Writer) error {
	fmt.Fprintf(w, "Period: %s, %s buckets\n", res.Period, res.Granularity)
	if len(res.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No commits in this period")
		return err
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Developer", "Bucket", "Commits", "Lines Changed", "Quality", "Issue Ref %", "Conventional %"})
	for _, r := range res.Rows {
		quality := "-"
		if r.AvgQuality != nil {
			quality = fmt.Sprintf("%.2f", *r.AvgQuality)
		}
		tbl.AppendRow(table.Row{
			r.Developer,
			r.BucketStart.Format(dateLayout),
			r.Commits,
			humanize.Comma(int64(r.TotalChanges)),
			quality,
			fmt.Sprintf("%.1f", r.IssueRefRate),
			fmt.Sprintf("%.1f", r.ConventionalRate),
		})
	}
	tbl.Render()
	return nil
}

func (f *TableFormatter) Commits(commits []models.CommitRecord, w io.Writer) error {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"SHA", "Author", "Repository", "When", "Score", "Type", "Message"})
	for _, c := range commits {
		sha := c.SHA
		if len(sha) > 8 {
			sha = sha[:8]
		}
		tbl.AppendRow(table.Row{
			sha,
			c.Author,
			c.Repository,
			c.Timestamp.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f", c.QualityScore),
			c.FeatureType,
			text.Trim(firstLine(c.Message), maxMessageWidth),
		})
	}
	tbl.AppendFooter(table.Row{"Total", humanize.Comma(int64(len(commits)))})
	tbl.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

func windowLabel(res *analytics.SummaryResult) string {
	if res.Window.IsZero() {
		return "no data"
	}
	return res.Window.Start.Format(dateLayout) + " to " + res.Window.End.Format(dateLayout)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
