package collector

import (
	"github.com/abdul-hamid-achik/nbtest/packages/live"
	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
)

// Progress glyphs published per outcome
const (
	GlyphSuccess = "."
	GlyphFailure = "F"
	GlyphError   = "E"
	GlyphSkip    = "S"
)

// Failure is a failed or errored test together with its detail
type Failure struct {
	Test   outcome.TestCase
	Detail outcome.FailureDetail
	Error  bool
}

// Collector accumulates the outcomes of one run
type Collector struct {
	channel   live.Channel
	total     int
	passed    int
	skipped   int
	failures  []Failure
	finalized bool
}

var _ outcome.Listener = (*Collector)(nil)

// New creates a collector publishing progress to ch. A nil channel
// publishes nowhere.
func New(ch live.Channel) *Collector {
	return &Collector{channel: ch}
}

func (c *Collector) publish(glyph string) {
	if c.channel != nil {
		c.channel.Publish(glyph)
	}
}

// StartTest counts a test
func (c *Collector) StartTest(test outcome.TestCase) {
	c.total++
}

// AddSuccess records a passing test
func (c *Collector) AddSuccess(test outcome.TestCase) {
	c.passed++
	c.publish(GlyphSuccess)
}

// AddFailure records a test whose assertions failed
func (c *Collector) AddFailure(test outcome.TestCase, detail outcome.FailureDetail) {
	c.publish(GlyphFailure)
	c.failures = append(c.failures, Failure{Test: test, Detail: detail})
}

// AddError records a test that could not complete
func (c *Collector) AddError(test outcome.TestCase, detail outcome.FailureDetail) {
	c.publish(GlyphError)
	c.failures = append(c.failures, Failure{Test: test, Detail: detail, Error: true})
}

// AddSkip records a skipped test
func (c *Collector) AddSkip(test outcome.TestCase) {
	c.skipped++
	c.publish(GlyphSkip)
}

// Finalize ends the run's live output. Repeated calls do nothing.
func (c *Collector) Finalize() {
	if c.finalized {
		return
	}
	c.finalized = true
	if c.channel != nil {
		c.channel.Finalize()
	}
}

// Total returns the number of started tests
func (c *Collector) Total() int { return c.total }

// Failed returns the number of failed and errored tests
func (c *Collector) Failed() int { return len(c.failures) }

// Passed returns the number of successful tests
func (c *Collector) Passed() int { return c.passed }

// Skipped returns the number of skipped tests
func (c *Collector) Skipped() int { return c.skipped }

// Finalized reports whether Finalize has been called
func (c *Collector) Finalized() bool { return c.finalized }

// Failures returns a copy of the recorded failures in arrival order
func (c *Collector) Failures() []Failure {
	out := make([]Failure, len(c.failures))
	copy(out, c.failures)
	return out
}
