package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/nbtest/packages/collector"
	"github.com/abdul-hamid-achik/nbtest/packages/core/engine"
	"github.com/abdul-hamid-achik/nbtest/packages/core/runner"
	"github.com/abdul-hamid-achik/nbtest/packages/display"
	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
	"github.com/abdul-hamid-achik/nbtest/packages/report"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a report from a recorded go test -json stream",
	Long: `Replay a stream recorded with go test -json and write its report.
Reads stdin when no file or "-" is given.

Examples:
  go test -json ./... > run.json
  nbtest render run.json --format html --output report.html
  nbtest render run.json --format junit --output junit.xml
  go test -json ./... | nbtest render`,
	Args: cobra.MaximumNArgs(1),
	RunE: renderCommand,
}

var (
	renderFormatFlag   string
	renderOutputFlag   string
	renderSubtestsFlag bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderFormatFlag, "format", "f", "text", "Report format: html, text, junit, tap")
	renderCmd.Flags().StringVarP(&renderOutputFlag, "output", "o", "", "Write the report to a file instead of stdout")
	renderCmd.Flags().BoolVar(&renderSubtestsFlag, "subtests", false, "Report subtests as tests of their own")
}

// renderFormat is either a summary style or a machine-readable report format
type renderFormat struct {
	style  collector.Style
	report report.Format
}

func parseFormat(name string) (renderFormat, error) {
	switch strings.ToLower(name) {
	case "html", "rich":
		return renderFormat{style: collector.Rich}, nil
	case "text", "plain", "":
		return renderFormat{style: collector.Plain}, nil
	case "junit":
		return renderFormat{report: report.FormatJUnit}, nil
	case "tap":
		return renderFormat{report: report.FormatTAP}, nil
	default:
		return renderFormat{}, fmt.Errorf("unknown report format %q (expected html, text, junit or tap)", name)
	}
}

func renderCommand(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(renderFormatFlag)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("failed to open stream: %w", err))
		}
		defer f.Close()
		in = f
	}

	rec := report.NewRecorder()
	r := runner.NewRunner(&runner.Config{
		Display:   display.Console,
		Stream:    io.Discard,
		Engine:    engine.Options{Subtests: renderSubtestsFlag, OnElapsed: rec.Observe},
		Listeners: []outcome.Listener{rec},
	})
	res, err := r.Replay(in)
	if err != nil {
		return exitWith(ExitEngineError, err)
	}

	out := cmd.OutOrStdout()
	if renderOutputFlag != "" {
		f, err := os.Create(renderOutputFlag)
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	if format.report != "" {
		if err := rec.Write(out, format.report, res.Duration); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return nil
	}
	if _, err := fmt.Fprintln(out, res.RenderSummary(format.style)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
