// Package outcome defines the test lifecycle events delivered by the test
// execution engine and the Listener protocol that consumes them.
//
// Events arrive sequentially, one test at a time:
//   - Start: a test began
//   - Success, Failure, Error, Skip: the test's outcome
//   - Finalize: the run is over
package outcome
