// Package runner is the invocation surface of nbtest.
//
// A Runner takes an explicit reference to the code under test (Go package
// patterns), picks the live output channel once for the host environment,
// drives the test engine into a result collector and hands back a Result
// that renders itself either as rich HTML or as a plain summary line.
package runner
