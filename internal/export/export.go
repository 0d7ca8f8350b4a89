// Package export renders activity summaries over a set of standard
// periods for consumption by other tools.
package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"quantify/internal/engine"
	"quantify/internal/gitlog"
	"quantify/internal/qerrors"
)

// Format selects the report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat recognizes a format by name.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), true
	}
	return "", false
}

// Aggregator is the slice of the engine the exporter needs.
type Aggregator interface {
	Totals(ctx context.Context, start *time.Time, end time.Time, progress engine.ProgressFunc) (gitlog.Stats, error)
	CountCreated(ctx context.Context, start *time.Time, end time.Time) (int, error)
}

// PeriodStats is one period's activity totals.
type PeriodStats struct {
	Period          string `json:"period" yaml:"period"`
	Start           string `json:"start,omitempty" yaml:"start,omitempty"`
	End             string `json:"end" yaml:"end"`
	Added           int    `json:"added" yaml:"added"`
	Removed         int    `json:"removed" yaml:"removed"`
	Net             int    `json:"net" yaml:"net"`
	Commits         int    `json:"commits" yaml:"commits"`
	ProjectsCreated int    `json:"projectsCreated" yaml:"projectsCreated"`
}

// Report is a full multi-period activity summary.
type Report struct {
	Author      string        `json:"author" yaml:"author"`
	GeneratedAt string        `json:"generatedAt" yaml:"generatedAt"`
	Periods     []PeriodStats `json:"periods" yaml:"periods"`
}

type period struct {
	name  string
	start *time.Time // nil means unbounded
	end   time.Time
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// standardPeriods returns the reporting windows relative to now: the last
// 7 and 31 days (inclusive of today), the current and previous calendar
// months, the current year, and all time.
func standardPeriods(now time.Time) []period {
	today := midnight(now)
	lastMonthEnd := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, 0, -1)
	lastMonthStart := time.Date(lastMonthEnd.Year(), lastMonthEnd.Month(), 1, 0, 0, 0, 0, today.Location())

	ptr := func(t time.Time) *time.Time { return &t }
	return []period{
		{"last-7-days", ptr(today.AddDate(0, 0, -6)), today},
		{"last-31-days", ptr(today.AddDate(0, 0, -30)), today},
		{"this-month", ptr(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())), today},
		{"last-month", ptr(lastMonthStart), lastMonthEnd},
		{"this-year", ptr(time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())), today},
		{"total", nil, today},
	}
}

// BuildReport computes stats for every standard period. Periods run
// sequentially so each can reuse the daily cache filled by the ones
// before it.
func BuildReport(ctx context.Context, agg Aggregator, author string, now time.Time, progress engine.ProgressFunc) (*Report, error) {
	report := &Report{
		Author:      author,
		GeneratedAt: now.Format(time.RFC3339),
	}
	for _, p := range standardPeriods(now) {
		totals, err := agg.Totals(ctx, p.start, p.end, progress)
		if err != nil {
			return nil, err
		}
		created, err := agg.CountCreated(ctx, p.start, p.end)
		if err != nil {
			return nil, err
		}
		ps := PeriodStats{
			Period:          p.name,
			End:             p.end.Format(gitlog.DateFormat),
			Added:           totals.Added,
			Removed:         totals.Removed,
			Net:             totals.Net(),
			Commits:         totals.Commits,
			ProjectsCreated: created,
		}
		if p.start != nil {
			ps.Start = p.start.Format(gitlog.DateFormat)
		}
		report.Periods = append(report.Periods, ps)
	}
	return report, nil
}

// Write encodes the report to w. With compress set the output is
// gzip-wrapped.
func (r *Report) Write(w io.Writer, format Format, compress bool) error {
	out := w
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(w)
		out = gz
	}

	var err error
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err = enc.Encode(r); err == nil {
			err = enc.Close()
		}
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	}
	if err != nil {
		return qerrors.New(qerrors.InternalError, "failed to encode report", err)
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return qerrors.New(qerrors.InternalError, "failed to finish compressed report", err)
		}
	}
	return nil
}
