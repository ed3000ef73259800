package outcome

import "strings"

// Failure kinds reported by the engine adapter
const (
	KindFailure = "FAIL"
	KindPanic   = "PANIC"
	KindBuild   = "BUILD FAILED"
	KindPackage = "PACKAGE FAILED"
)

// TestCase identifies a single test
type TestCase struct {
	Package     string
	Name        string
	Description string
}

// Identifier returns the human-readable description of the test
func (t TestCase) Identifier() string {
	if t.Description != "" {
		return t.Description
	}
	if t.Package == "" {
		return t.Name
	}
	return t.Name + " (" + t.Package + ")"
}

// FailureDetail carries the structured information about a failed or errored test
type FailureDetail struct {
	Kind    string
	Message string
	Trace   string
}

// Format returns the fully formatted failure text: the trace followed by a
// "Kind: Message" line.
func (d FailureDetail) Format() string {
	last := d.Kind
	if d.Message != "" {
		if last != "" {
			last += ": "
		}
		last += d.Message
	}

	trace := strings.TrimRight(d.Trace, "\n")
	if trace == "" {
		return last
	}
	if last == "" {
		return trace
	}
	return trace + "\n" + last
}

// EventType tags an Event
type EventType int

const (
	Start EventType = iota
	Success
	Failure
	Error
	Skip
	Finalize
)

var eventNames = [...]string{"start", "success", "failure", "error", "skip", "finalize"}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[t]
}

// Event is one entry of the lifecycle stream. Detail is only set for
// Failure and Error.
type Event struct {
	Type   EventType
	Test   TestCase
	Detail FailureDetail
}

// Listener consumes the sequential callback protocol of a test run
type Listener interface {
	StartTest(test TestCase)
	AddSuccess(test TestCase)
	AddFailure(test TestCase, detail FailureDetail)
	AddError(test TestCase, detail FailureDetail)
	AddSkip(test TestCase)
	Finalize()
}

// Dispatch delivers e to the matching Listener callback
func Dispatch(l Listener, e Event) {
	switch e.Type {
	case Start:
		l.StartTest(e.Test)
	case Success:
		l.AddSuccess(e.Test)
	case Failure:
		l.AddFailure(e.Test, e.Detail)
	case Error:
		l.AddError(e.Test, e.Detail)
	case Skip:
		l.AddSkip(e.Test)
	case Finalize:
		l.Finalize()
	}
}

// Replay dispatches events to l in order
func Replay(l Listener, events []Event) {
	for _, e := range events {
		Dispatch(l, e)
	}
}

type tee []Listener

// Tee returns a Listener that forwards every callback to each of ls in order
func Tee(ls ...Listener) Listener {
	out := make(tee, 0, len(ls))
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (t tee) StartTest(test TestCase) {
	for _, l := range t {
		l.StartTest(test)
	}
}

func (t tee) AddSuccess(test TestCase) {
	for _, l := range t {
		l.AddSuccess(test)
	}
}

func (t tee) AddFailure(test TestCase, detail FailureDetail) {
	for _, l := range t {
		l.AddFailure(test, detail)
	}
}

func (t tee) AddError(test TestCase, detail FailureDetail) {
	for _, l := range t {
		l.AddError(test, detail)
	}
}

func (t tee) AddSkip(test TestCase) {
	for _, l := range t {
		l.AddSkip(test)
	}
}

func (t tee) Finalize() {
	for _, l := range t {
		l.Finalize()
	}
}
