// Package dashboard renders a self-contained HTML page of developer
// activity charts.
package dashboard

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rohankatakam/devpulse/internal/analytics"
	"github.com/rohankatakam/devpulse/internal/models"
)

const (
	chartWidth  = "1200px"
	chartHeight = "480px"
	dateLayout  = "2006-01-02"
	fullZoomPct = 100
	areaOpacity = 0.3
)

// Data is everything the dashboard plots
type Data struct {
	Title     string
	Summaries *analytics.SummaryResult
	Daily     *analytics.TimeSeriesResult
	Weekly    *analytics.TimeSeriesResult
}

// Render writes the dashboard page to w
func Render(w io.Writer, data Data) error {
	title := data.Title
	if title == "" {
		title = "Developer Productivity"
	}

	page := components.NewPage()
	page.SetPageTitle(title)

	if data.Daily != nil {
		page.AddCharts(activityChart("Daily Commits", data.Daily))
	}
	if data.Weekly != nil {
		page.AddCharts(weeklyChart(data.Weekly))
	}
	if data.Summaries != nil {
		page.AddCharts(qualityChart(data.Summaries))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// series pivots grid rows into per-developer series over the shared bucket axis
func series(rows []models.TimeBucketRow, value func(models.TimeBucketRow) float64) (labels []string, devs []string, values map[string][]float64) {
	bucketIdx := make(map[string]int)
	values = make(map[string][]float64)

	for _, r := range rows {
		label := r.BucketStart.Format(dateLayout)
		if _, ok := bucketIdx[label]; !ok {
			bucketIdx[label] = len(labels)
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	for i, l := range labels {
		bucketIdx[l] = i
	}

	for _, r := range rows {
		vals, ok := values[r.Developer]
		if !ok {
			vals = make([]float64, len(labels))
			values[r.Developer] = vals
			devs = append(devs, r.Developer)
		}
		vals[bucketIdx[r.BucketStart.Format(dateLayout)]] = value(r)
	}
	sort.Strings(devs)
	return labels, devs, values
}

func commitsOf(r models.TimeBucketRow) float64 { return float64(r.Commits) }

func activityChart(title string, res *analytics.TimeSeriesResult) *charts.Line {
	labels, devs, values := series(res.Rows, commitsOf)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("Period %s, commits per developer per day", res.Period),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "5px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Commits"}),
	)
	line.SetXAxis(labels)

	for _, dev := range devs {
		data := make([]opts.LineData, len(labels))
		for i, v := range values[dev] {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(dev, data,
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}),
		)
	}
	return line
}

func weeklyChart(res *analytics.TimeSeriesResult) *charts.Bar {
	labels, devs, values := series(res.Rows, commitsOf)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Weekly Commits",
			Subtitle: "ISO weeks starting Monday",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "5px"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Commits"}),
	)
	bar.SetXAxis(labels)

	for _, dev := range devs {
		data := make([]opts.BarData, len(labels))
		for i, v := range values[dev] {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(dev, data, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
	}
	return bar
}

func qualityChart(res *analytics.SummaryResult) *charts.Bar {
	devs := make([]string, len(res.Rows))
	quality := make([]opts.BarData, len(res.Rows))
	volume := make([]opts.BarData, len(res.Rows))
	for i, s := range res.Rows {
		devs[i] = s.Developer
		quality[i] = opts.BarData{Value: s.AvgQualityScore}
		volume[i] = opts.BarData{Value: s.TotalCommits}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Quality vs Volume",
			Subtitle: fmt.Sprintf("Period %s", res.Period),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "5px"}),
	)
	bar.SetXAxis(devs).
		AddSeries("Avg quality score", quality).
		AddSeries("Commits", volume)
	return bar
}
