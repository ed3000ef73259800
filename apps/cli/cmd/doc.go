// Package cmd implements the nbtest CLI commands using Cobra.
//
// Available commands:
//   - run: Run Go tests with live progress and a summary report
//   - render: Render a report from a recorded `go test -json` stream
//   - completion: Generate shell completion scripts
//   - version: Show nbtest version information
package cmd
