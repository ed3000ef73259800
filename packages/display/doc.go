// Package display models the host shell's display capabilities.
//
// A host is either a plain console or an interactive notebook. Notebook hosts
// expose two side-effecting primitives through the Publisher interface:
// publishing a block of markup and publishing a script fragment.
// StreamPublisher encodes both as Jupyter display_data bundles, one JSON
// document per line, for a kernel bridge to forward.
package display
