package live

import (
	"io"
	"log/slog"

	"github.com/abdul-hamid-achik/nbtest/packages/display"
	"github.com/abdul-hamid-achik/nbtest/packages/logging"
	"golang.org/x/time/rate"
)

// Channel is the live progress sink of a single run
type Channel interface {
	// Publish appends text to the live output
	Publish(text string)
	// Finalize ends the live output. Calls after the first do nothing.
	Finalize()
}

type options struct {
	updateRate rate.Limit
	noColor    bool
	logger     *slog.Logger
}

// Option configures a Channel
type Option func(*options)

// WithUpdateRate caps the number of display updates per second issued by a
// NotebookChannel. Glyphs refused by the limiter are sent with the next
// update.
func WithUpdateRate(limit rate.Limit) Option {
	return func(o *options) {
		o.updateRate = limit
	}
}

// WithNoColor disables glyph colouring on a ConsoleChannel
func WithNoColor(noColor bool) Option {
	return func(o *options) {
		o.noColor = noColor
	}
}

// WithLogger sets the logger used to report display errors
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) *options {
	o := &options{updateRate: rate.Inf}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	return o
}

// New creates the channel matching env. Notebook hosts get a NotebookChannel
// unless pub is nil or the display region cannot be created, in which case
// the run falls back to a ConsoleChannel on stream.
func New(env display.Environment, pub display.Publisher, stream io.Writer, opts ...Option) Channel {
	if env == display.Notebook {
		ch, err := NewNotebookChannel(pub, opts...)
		if err == nil {
			return ch
		}
		buildOptions(opts).logger.Warn("rich display unavailable, using console output", "error", err)
	}
	return NewConsoleChannel(stream, opts...)
}
