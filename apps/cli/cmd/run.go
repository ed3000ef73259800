package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/nbtest/packages/core/config"
	"github.com/abdul-hamid-achik/nbtest/packages/core/engine"
	"github.com/abdul-hamid-achik/nbtest/packages/core/env"
	"github.com/abdul-hamid-achik/nbtest/packages/core/runner"
	"github.com/abdul-hamid-achik/nbtest/packages/display"
	"github.com/abdul-hamid-achik/nbtest/packages/logging"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var runCmd = &cobra.Command{
	Use:   "run [packages...]",
	Short: "Run Go tests with live progress and a summary report",
	Long: `Run go test on the given package patterns (default ./...) and show the
run live. In a terminal each test prints one glyph (. pass, F fail, E error,
S skip) and the run ends with a summary line. Inside a notebook kernel the
glyphs stream into a display region and the run ends with an HTML report.

Examples:
  nbtest run
  nbtest run ./calc/... --run 'TestAdd|TestSub'
  nbtest run ./... --race --timings 10
  nbtest run --display notebook ./calc
  nbtest run ./... --watch`,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	displayFlag    string
	configFlag     string
	envFileFlag    string
	runFlag        string
	skipFlag       string
	tagsFlag       string
	timeoutFlag    string
	goToolFlag     string
	dirFlag        string
	countFlag      int
	timingsFlag    int
	maxUpdatesFlag float64
	raceFlag       bool
	shortFlag      bool
	subtestsFlag   bool
	noColorFlag    bool
	verboseFlag    bool
	watchFlag      bool
)

func init() {
	// Display flags
	runCmd.Flags().StringVar(&displayFlag, "display", getEnvString(display.DisplayEnvVar, ""), "Display: auto, console, notebook (env: NBTEST_DISPLAY)")
	runCmd.Flags().Float64Var(&maxUpdatesFlag, "max-updates", getEnvFloat("NBTEST_MAX_UPDATES", 0), "Maximum live display updates per second, 0 for unlimited (env: NBTEST_MAX_UPDATES)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("NBTEST_NO_COLOR", false), "Disable colored output (env: NBTEST_NO_COLOR)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("NBTEST_VERBOSE", false), "Forward go test output to stderr and log debug details (env: NBTEST_VERBOSE)")
	runCmd.Flags().IntVar(&timingsFlag, "timings", getEnvInt("NBTEST_TIMINGS", 0), "Report the N slowest tests (env: NBTEST_TIMINGS)")

	// Configuration flags
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("NBTEST_CONFIG", ""), "Path to config file (env: NBTEST_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("NBTEST_ENV_FILE", ""), "Path to .env file passed to the test process (env: NBTEST_ENV_FILE)")
	runCmd.Flags().StringVar(&dirFlag, "dir", "", "Directory to run go test in")
	runCmd.Flags().StringVar(&goToolFlag, "go-tool", getEnvString("NBTEST_GO_TOOL", ""), "Go tool to run (env: NBTEST_GO_TOOL)")

	// Test selection flags, passed through to go test
	runCmd.Flags().StringVar(&runFlag, "run", "", "Run only tests matching the regular expression")
	runCmd.Flags().StringVar(&skipFlag, "skip", "", "Skip tests matching the regular expression")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("NBTEST_TAGS", ""), "Build tags (comma-separated) (env: NBTEST_TAGS)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("NBTEST_TIMEOUT", ""), "go test timeout (e.g., 30s, 10m) (env: NBTEST_TIMEOUT)")
	runCmd.Flags().IntVar(&countFlag, "count", 0, "Run each test this many times")
	runCmd.Flags().BoolVar(&raceFlag, "race", false, "Enable the race detector")
	runCmd.Flags().BoolVar(&shortFlag, "short", false, "Tell long-running tests to shorten their run time")
	runCmd.Flags().BoolVar(&subtestsFlag, "subtests", getEnvBool("NBTEST_SUBTESTS", false), "Report subtests as tests of their own (env: NBTEST_SUBTESTS)")

	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch Go files for changes and re-run tests")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// flagOverrides returns the CLI settings that take precedence over the config file
func flagOverrides(cmd *cobra.Command) *config.Config {
	o := &config.Config{
		Display:             displayFlag,
		Run:                 runFlag,
		Skip:                skipFlag,
		Tags:                splitList(tagsFlag),
		Timeout:             timeoutFlag,
		Count:               countFlag,
		GoTool:              goToolFlag,
		Dir:                 dirFlag,
		EnvFile:             envFileFlag,
		MaxUpdatesPerSecond: maxUpdatesFlag,
		Timings:             timingsFlag,
	}

	boolOverride := func(name string, v bool) *bool {
		if v || cmd.Flags().Changed(name) {
			return config.BoolPtr(v)
		}
		return nil
	}
	o.Race = boolOverride("race", raceFlag)
	o.Short = boolOverride("short", shortFlag)
	o.Subtests = boolOverride("subtests", subtestsFlag)
	o.NoColor = boolOverride("no-color", noColorFlag)
	o.Verbose = boolOverride("verbose", verboseFlag)
	return o
}

// buildRunner turns the effective configuration into a runner
func buildRunner(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*runner.Runner, error) {
	host, err := display.ParseEnvironment(cfg.Display, func() display.Environment {
		return display.Detect(os.Getenv)
	})
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	environ, err := testEnviron(cfg, logger)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	var engineOutput io.Writer
	if cfg.GetVerbose() {
		engineOutput = cmd.ErrOrStderr()
	}

	rc := &runner.Config{
		Display: host,
		Stream:  cmd.OutOrStdout(),
		Engine: engine.Options{
			GoTool:   cfg.GoTool,
			Dir:      cfg.Dir,
			Env:      environ,
			Run:      cfg.Run,
			Skip:     cfg.Skip,
			Tags:     cfg.Tags,
			Timeout:  timeout,
			Count:    cfg.Count,
			Race:     cfg.GetRace(),
			Short:    cfg.GetShort(),
			Subtests: cfg.GetSubtests(),
			Output:   engineOutput,
			Logger:   logger,
		},
		NoColor: cfg.GetNoColor(),
		Logger:  logger,
	}
	if cfg.MaxUpdatesPerSecond > 0 {
		rc.UpdateRate = rate.Limit(cfg.MaxUpdatesPerSecond)
	}
	if host == display.Notebook {
		rc.Publisher = display.NewStreamPublisher(cmd.OutOrStdout())
	}

	logger.Debug("configured run", "display", host.String(), "packages", cfg.Packages, "dir", cfg.Dir)
	return runner.NewRunner(rc), nil
}

// testEnviron builds the environment of the test process. Only set when
// the config adds variables, otherwise the process environment is inherited.
func testEnviron(cfg *config.Config, logger *slog.Logger) ([]string, error) {
	resolver := env.NewResolver()
	resolver.SetWarnFunc(func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...))
	})

	var overlays []map[string]string
	if cfg.EnvFile != "" {
		vars, err := env.LoadDotEnv(cfg.EnvFile)
		if err != nil {
			return nil, err
		}
		resolver.SetVariables(vars)
		overlays = append(overlays, vars)
	}
	if len(cfg.Env) > 0 {
		overlays = append(overlays, resolver.ResolveAll(cfg.Env))
	}
	if len(overlays) == 0 {
		return nil, nil
	}
	return env.Environ(os.Environ(), overlays...), nil
}

// loadConfig reads the explicit config file, or searches the directory
// tests run in
func loadConfig(path, dir string) (*config.Config, error) {
	if path == "" && dir != "" {
		return config.FindAndLoadConfig(dir)
	}
	return config.LoadConfig(path)
}

func runCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := loadConfig(configFlag, dirFlag)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	cfg := fileConfig.Merge(flagOverrides(cmd))

	packages := cfg.Packages
	if len(args) > 0 {
		packages = args
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.GetVerbose(), cfg.GetNoColor())
	r, err := buildRunner(cmd, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed, err := runOnce(ctx, cmd, r, cfg, packages)
	if err != nil {
		return err
	}

	// If watch mode is not enabled, exit normally
	if !watchFlag {
		if failed > 0 {
			return exitWith(ExitTestFailure, nil)
		}
		return nil
	}

	return watch(ctx, cmd, cfg, packages, logger, func(changed string) {
		notice(cmd, cfg, "\nFile changed: %s\nRe-running tests...\n\n", changed)
		if _, err := runOnce(ctx, cmd, r, cfg, packages); err != nil && ctx.Err() == nil {
			logger.Error("test run failed", "error", err)
		}
		notice(cmd, cfg, "\nWatching for changes... (press Ctrl+C to stop)\n")
	})
}

// runOnce runs the packages with a fresh collector and presents the result
func runOnce(ctx context.Context, cmd *cobra.Command, r *runner.Runner, cfg *config.Config, packages []string) (int, error) {
	res, err := r.Run(ctx, packages...)
	if err != nil {
		if ctx.Err() != nil {
			return res.Failed(), nil
		}
		return 0, exitWith(ExitEngineError, err)
	}

	if err := r.Present(res); err != nil {
		return 0, exitWith(ExitEngineError, err)
	}

	if cfg.Timings > 0 {
		out := cmd.OutOrStdout()
		if res.Rich {
			out = cmd.ErrOrStderr()
		}
		res.Timings.Render(out, cfg.Timings)
	}
	return res.Failed(), nil
}

// notice writes a status message to stderr
func notice(cmd *cobra.Command, cfg *config.Config, format string, args ...any) {
	c := color.New(color.FgCyan)
	if cfg.GetNoColor() {
		c.DisableColor()
	}
	_, _ = c.Fprintf(cmd.ErrOrStderr(), format, args...)
}

// watch re-runs the tests whenever a Go file in the tested directories changes
func watch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, packages []string, logger *slog.Logger, rerun func(changed string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	base := cfg.Dir
	if base == "" {
		base = "."
	}
	dirs, err := watchDirs(base, packages)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	notice(cmd, cfg, "\nWatching for changes... (press Ctrl+C to stop)\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	trigger := make(chan string, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isGoFile(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := event.Name
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case trigger <- name:
				default:
				}
			})

		case changed := <-trigger:
			rerun(changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func isGoFile(path string) bool {
	return filepath.Ext(path) == ".go"
}

// watchDirs resolves package patterns to the directories holding their
// sources. Patterns that are not relative paths resolve to the whole base
// directory tree.
func watchDirs(base string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{engine.DefaultPattern}
	}

	seen := make(map[string]bool)
	add := func(dir string) {
		seen[filepath.Clean(dir)] = true
	}

	for _, p := range patterns {
		local := p == "." || p == "..." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") || filepath.IsAbs(p)
		recursive := strings.HasSuffix(p, "...")
		root := strings.TrimSuffix(strings.TrimSuffix(p, "..."), "/")

		if !local {
			root, recursive = "", true
		}
		dir := root
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, root)
		}

		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("cannot watch %s: %w", p, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("cannot watch %s: not a directory", p)
		}
		if !recursive {
			add(dir)
			continue
		}

		err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs, nil
}
