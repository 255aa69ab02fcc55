// Package stats renders a crawl log into a small HTML report of charts.
package stats

import (
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"xscraper/pkg/crawlog"
	"xscraper/pkg/errors"
)

const maxAuthorSlices = 20

// Summary is what the report was built from.
type Summary struct {
	Posts   int
	Authors int
	Skipped int
}

// WriteReport reads the crawl log at path and renders two charts to out:
// a pie of posts per author and a bar of posts per hour. A log with no
// post records is an empty_input error, same as the exporter.
func WriteReport(path string, out io.Writer) (Summary, error) {
	records, skipped, err := crawlog.ReadPosts(path)
	if err != nil {
		return Summary{Skipped: skipped}, err
	}
	if len(records) == 0 {
		return Summary{Skipped: skipped}, errors.Newf(errors.KindEmptyInput, "no post records in %s", path)
	}

	authorCounts := make(map[string]int)
	hourCounts := make(map[string]int)
	for _, rec := range records {
		label := rec.Data.AuthorID()
		if label == "" {
			label = "(unknown)"
		}
		// Prefer the handle when the log was enriched
		if u, ok := rec.AuthorData["username"].(string); ok {
			label = "@" + u
		}
		authorCounts[label]++

		if created, ok := rec.Data["created_at"].(string); ok {
			if ts, err := time.Parse(time.RFC3339, created); err == nil {
				hourCounts[ts.UTC().Format("2006-01-02 15:00")]++
			}
		}
	}

	if err := renderAuthorPie(out, authorCounts); err != nil {
		return Summary{}, err
	}
	if err := renderHourBar(out, hourCounts); err != nil {
		return Summary{}, err
	}

	return Summary{Posts: len(records), Authors: len(authorCounts), Skipped: skipped}, nil
}

func renderAuthorPie(out io.Writer, counts map[string]int) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posts per author"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	type slice struct {
		name  string
		count int
	}
	slices := make([]slice, 0, len(counts))
	for name, count := range counts {
		slices = append(slices, slice{name, count})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].count != slices[j].count {
			return slices[i].count > slices[j].count
		}
		return slices[i].name < slices[j].name
	})
	if len(slices) > maxAuthorSlices {
		rest := 0
		for _, s := range slices[maxAuthorSlices:] {
			rest += s.count
		}
		slices = append(slices[:maxAuthorSlices], slice{"(others)", rest})
	}

	items := make([]opts.PieData, 0, len(slices))
	for _, s := range slices {
		items = append(items, opts.PieData{Name: s.name, Value: s.count})
	}
	pie.AddSeries("Posts", items)

	return pie.Render(out)
}

func renderHourBar(out io.Writer, counts map[string]int) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Posts per hour"}))

	hours := make([]string, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Strings(hours)

	values := make([]opts.BarData, 0, len(hours))
	for _, h := range hours {
		values = append(values, opts.BarData{Value: counts[h]})
	}
	bar.SetXAxis(hours).AddSeries("Posts", values)

	return bar.Render(out)
}
