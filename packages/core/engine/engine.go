package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/nbtest/packages/logging"
	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
)

// ErrNoEvents is returned when the test process failed without producing
// any test event
var ErrNoEvents = errors.New("test process produced no events")

// DefaultPattern is tested when no package pattern is given
const DefaultPattern = "./..."

// Options configures the engine
type Options struct {
	GoTool    string
	Dir       string
	Env       []string
	Run       string
	Skip      string
	Tags      []string
	Timeout   time.Duration
	Count     int
	Race      bool
	Short     bool
	ExtraArgs []string

	// Subtests reports every subtest as a test of its own
	Subtests bool

	// Output receives the engine's own text output. Discarded when nil.
	Output io.Writer

	// OnElapsed is called with the duration of every finished test
	OnElapsed func(test outcome.TestCase, elapsed time.Duration)

	Logger *slog.Logger
}

// Engine runs go test and streams its events to a Listener
type Engine struct {
	opts Options
}

// New creates an engine
func New(opts Options) *Engine {
	if opts.GoTool == "" {
		opts.GoTool = "go"
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Engine{opts: opts}
}

// Args returns the tool arguments used to test patterns
func (e *Engine) Args(patterns []string) []string {
	args := []string{"test", "-json"}
	if e.opts.Run != "" {
		args = append(args, "-run", e.opts.Run)
	}
	if e.opts.Skip != "" {
		args = append(args, "-skip", e.opts.Skip)
	}
	if len(e.opts.Tags) > 0 {
		args = append(args, "-tags", strings.Join(e.opts.Tags, ","))
	}
	if e.opts.Timeout > 0 {
		args = append(args, "-timeout", e.opts.Timeout.String())
	}
	if e.opts.Count > 0 {
		args = append(args, "-count", strconv.Itoa(e.opts.Count))
	}
	if e.opts.Race {
		args = append(args, "-race")
	}
	if e.opts.Short {
		args = append(args, "-short")
	}
	args = append(args, e.opts.ExtraArgs...)

	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	return append(args, patterns...)
}

// Run tests patterns and delivers the resulting events to l. Test failures
// are reported through l, not as errors; an error means the engine itself
// could not run.
func (e *Engine) Run(ctx context.Context, patterns []string, l outcome.Listener) error {
	args := e.Args(patterns)
	cmd := exec.CommandContext(ctx, e.opts.GoTool, args...)
	cmd.Dir = e.opts.Dir
	if len(e.opts.Env) > 0 {
		cmd.Env = e.opts.Env
	}

	var stderr bytes.Buffer
	cmd.Stderr = io.MultiWriter(&stderr, e.opts.Output)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", e.opts.GoTool, err)
	}

	e.opts.Logger.Debug("starting test engine", "tool", e.opts.GoTool, "args", args, "dir", e.opts.Dir)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", e.opts.GoTool, err)
	}

	events, consumeErr := e.consume(stdout, l)
	if consumeErr != nil {
		// Wait must not run before the pipe is drained
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if consumeErr != nil {
		return consumeErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return fmt.Errorf("waiting for %s: %w", e.opts.GoTool, waitErr)
		}
		if events == 0 {
			return fmt.Errorf("%w: %v: %s", ErrNoEvents, waitErr, strings.TrimSpace(stderr.String()))
		}
		e.opts.Logger.Debug("test engine exited", "code", exitErr.ExitCode(), "events", events)
	}
	return nil
}

// Consume decodes a test2json stream from r, delivers its events to l and
// finalizes l once the stream ends
func (e *Engine) Consume(r io.Reader, l outcome.Listener) error {
	_, err := e.consume(r, l)
	return err
}
