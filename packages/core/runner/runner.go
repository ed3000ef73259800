package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/abdul-hamid-achik/nbtest/packages/collector"
	"github.com/abdul-hamid-achik/nbtest/packages/core/engine"
	"github.com/abdul-hamid-achik/nbtest/packages/display"
	"github.com/abdul-hamid-achik/nbtest/packages/live"
	"github.com/abdul-hamid-achik/nbtest/packages/logging"
	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
	"github.com/abdul-hamid-achik/nbtest/packages/timing"
	"golang.org/x/time/rate"
)

// Config configures a Runner
type Config struct {
	// Display is the host environment the run is shown in
	Display display.Environment
	// Publisher provides the rich display primitives of notebook hosts
	Publisher display.Publisher
	// Stream receives console progress and plain reports. Defaults to stdout.
	Stream io.Writer

	Engine engine.Options

	NoColor bool
	// UpdateRate caps live display updates per second; zero is unlimited
	UpdateRate rate.Limit
	// Listeners receive every outcome alongside the collector
	Listeners []outcome.Listener
	Logger    *slog.Logger
}

// Runner runs tests and collects their outcomes
type Runner struct {
	config *Config
}

// Result is a finished run. It renders as HTML through HTML() and as a
// summary line through String().
type Result struct {
	*collector.Collector
	Timings  *timing.Recorder
	Duration time.Duration
	// Rich is set when the run was shown through a notebook display region
	Rich bool
}

// NewRunner creates a runner. A nil config runs in a console on stdout.
func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Stream == nil {
		cfg.Stream = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Runner{config: cfg}
}

// Run tests the given package patterns. The returned Result is usable even
// when err is set.
func (r *Runner) Run(ctx context.Context, patterns ...string) (*Result, error) {
	res, eng := r.prepare()
	start := time.Now()
	err := eng.Run(ctx, patterns, r.listener(res))
	res.Collector.Finalize()
	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("running tests: %w", err)
	}
	return res, nil
}

// Replay runs the pipeline over a recorded `go test -json` stream
func (r *Runner) Replay(in io.Reader) (*Result, error) {
	res, eng := r.prepare()
	start := time.Now()
	err := eng.Consume(in, r.listener(res))
	res.Collector.Finalize()
	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("replaying tests: %w", err)
	}
	return res, nil
}

func (r *Runner) listener(res *Result) outcome.Listener {
	if len(r.config.Listeners) == 0 {
		return res.Collector
	}
	return outcome.Tee(append([]outcome.Listener{res.Collector}, r.config.Listeners...)...)
}

func (r *Runner) prepare() (*Result, *engine.Engine) {
	opts := []live.Option{
		live.WithNoColor(r.config.NoColor),
		live.WithLogger(r.config.Logger),
	}
	if r.config.UpdateRate > 0 {
		opts = append(opts, live.WithUpdateRate(r.config.UpdateRate))
	}
	ch := live.New(r.config.Display, r.config.Publisher, r.config.Stream, opts...)
	_, rich := ch.(*live.NotebookChannel)
	r.config.Logger.Debug("live output selected", "display", r.config.Display.String(), "rich", rich)

	res := &Result{
		Collector: collector.New(ch),
		Timings:   timing.NewRecorder(),
		Rich:      rich,
	}

	engOpts := r.config.Engine
	next := engOpts.OnElapsed
	engOpts.OnElapsed = func(test outcome.TestCase, elapsed time.Duration) {
		res.Timings.Record(test, elapsed)
		if next != nil {
			next(test, elapsed)
		}
	}
	if engOpts.Logger == nil {
		engOpts.Logger = r.config.Logger
	}
	return res, engine.New(engOpts)
}

// Present shows a finished run the way the host displays results: as an
// HTML block in notebooks, as a summary line on the console stream
func (r *Runner) Present(res *Result) error {
	if res.Rich && r.config.Publisher != nil {
		if err := r.config.Publisher.PublishHTML(res.HTML()); err != nil {
			return fmt.Errorf("publishing report: %w", err)
		}
		return nil
	}
	if _, err := fmt.Fprintln(r.config.Stream, res.String()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
