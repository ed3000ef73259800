// Package live shows incremental progress while tests run.
//
// A Channel receives one glyph per test outcome. NotebookChannel appends the
// glyphs to a uniquely named display region through out-of-band display
// updates; ConsoleChannel writes them straight to a text stream. New picks
// the variant once, at the start of a run.
package live
