// Package timing records per-test durations and reports percentiles and the
// slowest tests of a run.
package timing

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Entry is the duration of one finished test
type Entry struct {
	Test    outcome.TestCase
	Elapsed time.Duration
}

// Stats summarizes recorded durations
type Stats struct {
	Count int64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Recorder collects test durations
type Recorder struct {
	// Histogram: 1us to 1h range, 3 significant digits
	histogram *hdrhistogram.Histogram
	entries   []Entry
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		histogram: hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3),
	}
}

// Record adds the duration of a finished test
func (r *Recorder) Record(test outcome.TestCase, elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	us := elapsed.Microseconds()
	if us < 1 {
		us = 1
	}
	_ = r.histogram.RecordValue(us)
	r.entries = append(r.entries, Entry{Test: test, Elapsed: elapsed})
}

// Stats returns duration percentiles
func (r *Recorder) Stats() Stats {
	if r.histogram.TotalCount() == 0 {
		return Stats{}
	}
	return Stats{
		Count: r.histogram.TotalCount(),
		P50:   time.Duration(r.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(r.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(r.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(r.histogram.Max()) * time.Microsecond,
	}
}

// Slowest returns up to n entries, slowest first
func (r *Recorder) Slowest(n int) []Entry {
	sorted := make([]Entry, len(r.entries))
	copy(sorted, r.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Elapsed != sorted[j].Elapsed {
			return sorted[i].Elapsed > sorted[j].Elapsed
		}
		return sorted[i].Test.Identifier() < sorted[j].Test.Identifier()
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Render writes a table of the n slowest tests followed by percentiles
func (r *Recorder) Render(w io.Writer, n int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Test", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 70, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
	})

	for i, e := range r.Slowest(n) {
		t.AppendRow(table.Row{i + 1, e.Test.Identifier(), formatDuration(e.Elapsed)})
	}

	s := r.Stats()
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tests  p50 %s  p95 %s  p99 %s", s.Count,
		formatDuration(s.P50), formatDuration(s.P95), formatDuration(s.P99)), formatDuration(s.Max)})
	t.Render()
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}
