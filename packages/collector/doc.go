// Package collector accumulates test outcomes as they stream in and renders
// the finished run.
//
// A Collector implements outcome.Listener. Each outcome forwards a single
// glyph to the run's live.Channel:
//
//	.  success
//	F  failure
//	E  error
//	S  skip
//
// Failures and errors are kept in arrival order together with their detail,
// and rendered either as a rich HTML report (pass/fail bar plus toggle-able
// tracebacks) or as one plain summary line.
package collector
