package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
)

// Status is the final state of a recorded test
type Status int

// Recorded test states
const (
	Passed Status = iota
	Failed
	Errored
	Skipped
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Errored:
		return "error"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Case is one finished test
type Case struct {
	Test    outcome.TestCase
	Status  Status
	Detail  outcome.FailureDetail
	Elapsed time.Duration
}

// Recorder keeps the outcome of every test of a run
type Recorder struct {
	cases     []Case
	finalized bool
}

var _ outcome.Listener = (*Recorder)(nil)

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// StartTest does nothing; tests are recorded when they finish
func (r *Recorder) StartTest(outcome.TestCase) {}

// AddSuccess records a passing test
func (r *Recorder) AddSuccess(test outcome.TestCase) {
	r.cases = append(r.cases, Case{Test: test, Status: Passed})
}

// AddFailure records a failed test with its detail
func (r *Recorder) AddFailure(test outcome.TestCase, detail outcome.FailureDetail) {
	r.cases = append(r.cases, Case{Test: test, Status: Failed, Detail: detail})
}

// AddError records a test that could not complete
func (r *Recorder) AddError(test outcome.TestCase, detail outcome.FailureDetail) {
	r.cases = append(r.cases, Case{Test: test, Status: Errored, Detail: detail})
}

// AddSkip records a skipped test
func (r *Recorder) AddSkip(test outcome.TestCase) {
	r.cases = append(r.cases, Case{Test: test, Status: Skipped})
}

// Finalize marks the run as complete
func (r *Recorder) Finalize() {
	r.finalized = true
}

// Observe attaches the duration of a test to its most recent outcome. It
// matches the engine's elapsed callback.
func (r *Recorder) Observe(test outcome.TestCase, elapsed time.Duration) {
	for i := len(r.cases) - 1; i >= 0; i-- {
		if r.cases[i].Test == test {
			r.cases[i].Elapsed = elapsed
			return
		}
	}
}

// Cases returns the recorded tests in completion order
func (r *Recorder) Cases() []Case {
	out := make([]Case, len(r.cases))
	copy(out, r.cases)
	return out
}

// Format is a machine-readable report format
type Format string

// Supported report formats
const (
	FormatJUnit Format = "junit"
	FormatTAP   Format = "tap"
)

// Write renders the recorded run in the given format
func (r *Recorder) Write(w io.Writer, format Format, total time.Duration) error {
	switch Format(strings.ToLower(string(format))) {
	case FormatJUnit:
		return WriteJUnit(w, r.cases, total)
	case FormatTAP:
		return WriteTAP(w, r.cases)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
