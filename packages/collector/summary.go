package collector

import (
	"fmt"
	"html/template"
	"strings"
)

// NoTestsMessage is rendered in place of a summary when no test ran
const NoTestsMessage = "No tests found."

// MinFailPercent keeps the failure bar visible when few tests failed
const MinFailPercent = 5

// Style selects a rendering
type Style int

const (
	// Rich renders an HTML report
	Rich Style = iota
	// Plain renders a single summary line
	Plain
)

// SummaryStats are the figures shown in a summary
type SummaryStats struct {
	Total       int
	Passed      int
	Failed      int
	FailPercent int
	PassPercent int
	Text        string
}

// Summarize computes the summary figures for total tests of which failed
// did not pass
func Summarize(total, failed int) SummaryStats {
	s := SummaryStats{
		Total:  total,
		Passed: total - failed,
		Failed: failed,
	}
	if failed > 0 {
		s.Text = fmt.Sprintf("%d/%d tests passed; %d failed", s.Passed, total, failed)
	} else {
		s.Text = fmt.Sprintf("%d/%d tests passed", total, total)
	}

	if total > 0 {
		s.FailPercent = failed * 100 / total
	}
	if failed > 0 && s.FailPercent < MinFailPercent {
		s.FailPercent = MinFailPercent
	}
	s.PassPercent = 100 - s.FailPercent
	return s
}

// Summary returns the summary figures of the collected run
func (c *Collector) Summary() SummaryStats {
	return Summarize(c.total, len(c.failures))
}

// RenderSummary renders the collected run in the given style
func (c *Collector) RenderSummary(style Style) string {
	if c.total <= 0 {
		return NoTestsMessage
	}
	stats := c.Summary()
	if style == Plain {
		return stats.Text
	}

	data := richData{
		FailPercent: stats.FailPercent,
		PassPercent: stats.PassPercent,
		Text:        stats.Text,
	}
	for _, f := range c.failures {
		data.Failures = append(data.Failures, richFailure{
			Name:      f.Test.Identifier(),
			Traceback: f.Detail.Format(),
		})
	}

	var b strings.Builder
	if err := richTemplate.Execute(&b, data); err != nil {
		return template.HTMLEscapeString(fmt.Sprintf("rendering report: %v", err))
	}
	return b.String()
}

// HTML returns the rich rendering
func (c *Collector) HTML() string {
	return c.RenderSummary(Rich)
}

// String returns the plain rendering
func (c *Collector) String() string {
	return c.RenderSummary(Plain)
}
