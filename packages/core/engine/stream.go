package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
	"github.com/acarl005/stripansi"
	"github.com/tidwall/gjson"
)

// test2json actions
const (
	ActionStart       = "start"
	ActionRun         = "run"
	ActionPause       = "pause"
	ActionCont        = "cont"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionOutput      = "output"
	ActionBench       = "bench"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// PackageTestName names the synthetic test reporting package-level failures
const PackageTestName = "[package]"

// maxLineSize bounds a decoded line. Longer lines are cut and kept as
// package output.
const maxLineSize = 16 * 1024 * 1024

// truncatedSnippet is how much of a cut line is kept
const truncatedSnippet = 1024

var (
	locationLine = regexp.MustCompile(`^\s*(\S+\.go:\d+(?::\d+)?: .*)$`)
	framingLine  = regexp.MustCompile(`^\s*=== (RUN|PAUSE|CONT|NAME)\b`)
)

type testState struct {
	test   outcome.TestCase
	output strings.Builder
}

type packageState struct {
	output      strings.Builder
	build       strings.Builder
	buildFailed bool
	failures    int
	open        []string
}

type decoder struct {
	opts     *Options
	l        outcome.Listener
	tests    map[string]*testState
	packages map[string]*packageState
	order    []string
	lastPkg  string
	events   int
}

func (e *Engine) consume(r io.Reader, l outcome.Listener) (int, error) {
	d := &decoder{
		opts:     &e.opts,
		l:        l,
		tests:    make(map[string]*testState),
		packages: make(map[string]*packageState),
	}
	defer l.Finalize()

	br := bufio.NewReaderSize(r, 64*1024)
	var buf []byte
	for {
		line, truncated, err := readLine(br, buf)
		buf = line
		line = bytes.TrimRight(line, "\r\n")
		if truncated {
			d.longLine(line)
		} else {
			d.line(line)
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.closeAll()
			return d.events, fmt.Errorf("reading test events: %w", err)
		}
	}
	d.closeAll()
	return d.events, nil
}

// readLine reads one line into buf, keeping at most maxLineSize bytes of it.
// The rest of an over-long line is read and dropped.
func readLine(br *bufio.Reader, buf []byte) ([]byte, bool, error) {
	buf = buf[:0]
	truncated := false
	for {
		chunk, err := br.ReadSlice('\n')
		if room := maxLineSize - len(buf); len(chunk) <= room {
			buf = append(buf, chunk...)
		} else {
			buf = append(buf, chunk[:room]...)
			truncated = true
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, truncated, err
	}
}

// longLine keeps the start of a line that exceeded maxLineSize as package output
func (d *decoder) longLine(line []byte) {
	if len(line) > truncatedSnippet {
		line = line[:truncatedSnippet]
	}
	text := fmt.Sprintf("%s... [line truncated]\n", line)
	_, _ = io.WriteString(d.opts.Output, text)
	d.pkg(d.lastPkg).output.WriteString(text)
}

func testKey(pkg, name string) string {
	return pkg + "\x00" + name
}

func (d *decoder) pkg(name string) *packageState {
	p, ok := d.packages[name]
	if !ok {
		p = &packageState{}
		d.packages[name] = p
	}
	return p
}

// tracked reports whether name is reported as a test of its own
func (d *decoder) tracked(name string) bool {
	return d.opts.Subtests || !strings.Contains(name, "/")
}

// owner returns the tracked test collecting the output of name
func (d *decoder) owner(name string) string {
	if d.tracked(name) {
		return name
	}
	top, _, _ := strings.Cut(name, "/")
	return top
}

func (d *decoder) line(line []byte) {
	if len(line) == 0 {
		return
	}
	if !gjson.ValidBytes(line) {
		text := string(line) + "\n"
		_, _ = io.WriteString(d.opts.Output, text)
		d.pkg(d.lastPkg).output.WriteString(text)
		return
	}

	fields := gjson.GetManyBytes(line, "Action", "Package", "Test", "Output", "Elapsed", "ImportPath", "FailedBuild")
	action := fields[0].String()
	pkgName := fields[1].String()
	name := fields[2].String()
	text := fields[3].String()
	elapsed := time.Duration(fields[4].Float() * float64(time.Second))
	importPath := fields[5].String()
	failedBuild := fields[6].String()

	d.events++
	if pkgName != "" {
		d.lastPkg = pkgName
	}

	switch action {
	case ActionBuildOutput:
		_, _ = io.WriteString(d.opts.Output, text)
		d.pkg(importPath).build.WriteString(text)
	case ActionBuildFail:
		d.pkg(importPath).buildFailed = true
	case ActionOutput:
		_, _ = io.WriteString(d.opts.Output, text)
		if st, ok := d.tests[testKey(pkgName, d.owner(name))]; ok && name != "" {
			st.output.WriteString(text)
		} else {
			d.pkg(pkgName).output.WriteString(text)
		}
	case ActionRun:
		if d.tracked(name) {
			d.start(pkgName, name)
		}
	case ActionPass, ActionFail, ActionSkip:
		if name == "" {
			d.finishPackage(pkgName, action, failedBuild)
			return
		}
		if d.tracked(name) {
			d.finish(pkgName, name, action, elapsed)
		}
	}
}

func (d *decoder) start(pkgName, name string) *testState {
	key := testKey(pkgName, name)
	if st, ok := d.tests[key]; ok {
		return st
	}
	st := &testState{test: outcome.TestCase{Package: pkgName, Name: name}}
	d.tests[key] = st
	d.order = append(d.order, key)
	p := d.pkg(pkgName)
	p.open = append(p.open, key)
	d.l.StartTest(st.test)
	return st
}

func (d *decoder) finish(pkgName, name, action string, elapsed time.Duration) {
	key := testKey(pkgName, name)
	st, ok := d.tests[key]
	if !ok {
		st = d.start(pkgName, name)
	}
	d.forget(pkgName, key)

	switch action {
	case ActionPass:
		d.l.AddSuccess(st.test)
	case ActionSkip:
		d.l.AddSkip(st.test)
	case ActionFail:
		d.pkg(pkgName).failures++
		detail := testFailure(st.output.String())
		if detail.Kind == outcome.KindPanic {
			d.l.AddError(st.test, detail)
		} else {
			d.l.AddFailure(st.test, detail)
		}
	}

	if d.opts.OnElapsed != nil {
		d.opts.OnElapsed(st.test, elapsed)
	}
}

// forget drops a finished test from the open sets
func (d *decoder) forget(pkgName, key string) {
	delete(d.tests, key)
	p := d.pkg(pkgName)
	for i, k := range p.open {
		if k == key {
			p.open = append(p.open[:i], p.open[i+1:]...)
			break
		}
	}
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// abandon reports a test that never finished
func (d *decoder) abandon(key string) {
	st, ok := d.tests[key]
	if !ok {
		return
	}
	d.forget(st.test.Package, key)
	d.pkg(st.test.Package).failures++

	detail := testFailure(st.output.String())
	detail.Kind = outcome.KindPanic
	if detail.Message == "" {
		detail.Message = "test did not complete"
	}
	d.l.AddError(st.test, detail)
}

func (d *decoder) finishPackage(pkgName, action, failedBuild string) {
	p := d.pkg(pkgName)
	for _, key := range append([]string(nil), p.open...) {
		d.abandon(key)
	}
	if action != ActionFail || p.failures > 0 {
		return
	}

	buildFailed := p.buildFailed || failedBuild != ""
	if failedBuild != "" && failedBuild != pkgName {
		if fb, ok := d.packages[failedBuild]; ok && fb.build.Len() > 0 {
			p.build.WriteString(fb.build.String())
		}
	}
	pkgOutput := p.output.String()
	if strings.Contains(pkgOutput, "[build failed]") || strings.Contains(pkgOutput, "[setup failed]") {
		buildFailed = true
	}

	detail := packageFailure(p.build.String()+pkgOutput, buildFailed)
	test := outcome.TestCase{Package: pkgName, Name: PackageTestName}
	p.failures++
	d.l.StartTest(test)
	d.l.AddError(test, detail)
}

func (d *decoder) closeAll() {
	for _, key := range append([]string(nil), d.order...) {
		d.abandon(key)
	}
}

// cleanTrace removes test2json framing lines and terminal escapes
func cleanTrace(output string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(stripansi.Strip(output), "\n") {
		if line == "" || framingLine.MatchString(line) {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

func testFailure(output string) outcome.FailureDetail {
	trace := cleanTrace(output)
	detail := outcome.FailureDetail{Kind: outcome.KindFailure, Trace: trace}

	for _, line := range strings.Split(trace, "\n") {
		trimmed := strings.TrimSpace(line)
		if msg, ok := strings.CutPrefix(trimmed, "panic: "); ok {
			detail.Kind = outcome.KindPanic
			detail.Message = msg
			return detail
		}
	}
	detail.Message = firstMessage(trace)
	return detail
}

func packageFailure(output string, build bool) outcome.FailureDetail {
	trace := cleanTrace(output)
	detail := outcome.FailureDetail{Kind: outcome.KindPackage, Trace: trace}
	if build {
		detail.Kind = outcome.KindBuild
	}
	detail.Message = firstMessage(trace)
	if detail.Message == "" {
		detail.Message = "package failed"
	}
	return detail
}

// firstMessage picks the first source location line, falling back to the
// first non-empty line that is not a result marker
func firstMessage(trace string) string {
	lines := strings.Split(trace, "\n")
	for _, line := range lines {
		if m := locationLine.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--- ") || trimmed == "FAIL" {
			continue
		}
		return trimmed
	}
	return ""
}
