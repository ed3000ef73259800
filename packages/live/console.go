package live

import (
	"io"
	"os"

	"github.com/fatih/color"
)

// ConsoleChannel writes progress glyphs straight to a text stream
type ConsoleChannel struct {
	stream    io.Writer
	glyphs    map[string]*color.Color
	finalized bool
}

// NewConsoleChannel creates a channel writing to stream (stdout when nil)
func NewConsoleChannel(stream io.Writer, opts ...Option) *ConsoleChannel {
	o := buildOptions(opts)
	if stream == nil {
		stream = os.Stdout
	}

	c := &ConsoleChannel{
		stream: stream,
		glyphs: map[string]*color.Color{
			".": color.New(color.FgGreen),
			"F": color.New(color.FgRed),
			"E": color.New(color.FgRed, color.Bold),
			"S": color.New(color.FgYellow),
		},
	}
	if o.noColor {
		for _, g := range c.glyphs {
			g.DisableColor()
		}
	}
	return c
}

// Publish writes text to the stream
func (c *ConsoleChannel) Publish(text string) {
	if g, ok := c.glyphs[text]; ok {
		_, _ = g.Fprint(c.stream, text)
		return
	}
	_, _ = io.WriteString(c.stream, text)
}

// Finalize terminates the progress line
func (c *ConsoleChannel) Finalize() {
	if c.finalized {
		return
	}
	c.finalized = true
	_, _ = io.WriteString(c.stream, "\n")
}
