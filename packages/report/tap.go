package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteTAP writes cases in TAP (Test Anything Protocol) version 13
func WriteTAP(w io.Writer, cases []Case) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "TAP version 13\n")
	fmt.Fprintf(bw, "1..%d\n", len(cases))

	for i, c := range cases {
		n := i + 1
		name := c.Test.Identifier()

		switch c.Status {
		case Passed:
			fmt.Fprintf(bw, "ok %d - %s\n", n, name)
		case Skipped:
			fmt.Fprintf(bw, "ok %d - %s # SKIP\n", n, name)
		default:
			fmt.Fprintf(bw, "not ok %d - %s\n", n, name)
			fmt.Fprintf(bw, "  ---\n")
			fmt.Fprintf(bw, "  message: %s\n", escapeYAML(c.Detail.Message))
			fmt.Fprintf(bw, "  severity: %s\n", severity(c.Status))
			if trace := strings.TrimSpace(c.Detail.Trace); trace != "" {
				fmt.Fprintf(bw, "  trace: |\n")
				for _, line := range strings.Split(trace, "\n") {
					fmt.Fprintf(bw, "    %s\n", line)
				}
			}
			fmt.Fprintf(bw, "  ...\n")
		}
	}

	return bw.Flush()
}

func severity(s Status) string {
	if s == Errored {
		return "error"
	}
	return "fail"
}

func escapeYAML(s string) string {
	// Quote when the value carries YAML syntax
	if s == "" || strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `"`, `\"`)
		s = strings.ReplaceAll(s, "\n", `\n`)
		return `"` + s + `"`
	}
	return s
}
