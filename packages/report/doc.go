// Package report writes recorded test runs in machine-readable formats.
//
// A Recorder listens to a run like any outcome.Listener and keeps every
// test in completion order. The JUnit and TAP writers render what it
// recorded for CI systems.
package report
