// Package engine adapts the Go toolchain's test runner to the outcome
// Listener protocol.
//
// Discovery, execution and assertions stay with `go test`. The engine starts
// `go test -json`, decodes the test2json event stream line by line and turns
// it into the sequential start/outcome/finalize callbacks a Listener expects:
//
//	run   -> StartTest
//	pass  -> AddSuccess
//	skip  -> AddSkip
//	fail  -> AddFailure, or AddError when the test panicked
//
// Package-level failures that no test accounts for (build errors, TestMain
// exits, race reports) are reported as an error of a synthetic "[package]"
// test so they are never lost.
package engine
