package report

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/nbtest/packages/outcome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addTest  = outcome.TestCase{Package: "example.com/calc", Name: "TestAdd"}
	divTest  = outcome.TestCase{Package: "example.com/calc", Name: "TestDiv"}
	skipTest = outcome.TestCase{Package: "example.com/calc", Name: "TestSlow"}
	panTest  = outcome.TestCase{Package: "example.com/parse", Name: "TestParse"}
)

func recordedRun() *Recorder {
	r := NewRecorder()
	r.StartTest(addTest)
	r.AddSuccess(addTest)
	r.Observe(addTest, 10*time.Millisecond)
	r.StartTest(divTest)
	r.AddFailure(divTest, outcome.FailureDetail{
		Kind:    outcome.KindFailure,
		Message: "calc_test.go:12: want 2, got 3",
		Trace:   "calc_test.go:12: want 2, got 3\n",
	})
	r.Observe(divTest, 20*time.Millisecond)
	r.StartTest(skipTest)
	r.AddSkip(skipTest)
	r.StartTest(panTest)
	r.AddError(panTest, outcome.FailureDetail{Kind: outcome.KindPanic, Message: "runtime error: index out of range"})
	r.Finalize()
	return r
}

func TestRecorder(t *testing.T) {
	r := recordedRun()
	cases := r.Cases()
	require.Len(t, cases, 4)

	assert.Equal(t, Passed, cases[0].Status)
	assert.Equal(t, 10*time.Millisecond, cases[0].Elapsed)
	assert.Equal(t, Failed, cases[1].Status)
	assert.Equal(t, 20*time.Millisecond, cases[1].Elapsed)
	assert.Equal(t, Skipped, cases[2].Status)
	assert.Equal(t, Errored, cases[3].Status)
	assert.True(t, r.finalized)

	cases[0].Status = Failed
	assert.Equal(t, Passed, r.Cases()[0].Status)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "error", Errored.String())
	assert.Equal(t, "unknown", Status(9).String())
}

func TestBuildJUnit(t *testing.T) {
	suites := BuildJUnit(recordedRun().Cases(), time.Second)

	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)
	assert.Equal(t, 1.0, suites.Time)

	require.Len(t, suites.TestSuites, 2)
	calc := suites.TestSuites[0]
	assert.Equal(t, "example.com/calc", calc.Name)
	assert.Equal(t, 3, calc.Tests)
	assert.InDelta(t, 0.03, calc.Time, 1e-9)
	require.NotNil(t, calc.TestCases[1].Failure)
	assert.Equal(t, "FAIL", calc.TestCases[1].Failure.Type)
	assert.Equal(t, "calc_test.go:12: want 2, got 3\nFAIL: calc_test.go:12: want 2, got 3", calc.TestCases[1].Failure.Content)
	assert.NotNil(t, calc.TestCases[2].Skipped)

	parse := suites.TestSuites[1]
	require.NotNil(t, parse.TestCases[0].Error)
	assert.Equal(t, "PANIC", parse.TestCases[0].Error.Type)
}

func TestWriteJUnit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, recordedRun().Write(&buf, FormatJUnit, time.Second))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, xml.Header))

	var decoded JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 4, decoded.Tests)
	assert.Len(t, decoded.TestSuites, 2)
}

func TestWriteTAP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, recordedRun().Write(&buf, "TAP", 0))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "TAP version 13", lines[0])
	assert.Equal(t, "1..4", lines[1])
	assert.Equal(t, "ok 1 - TestAdd (example.com/calc)", lines[2])
	assert.Equal(t, "not ok 2 - TestDiv (example.com/calc)", lines[3])
	assert.Contains(t, buf.String(), `  message: "calc_test.go:12: want 2, got 3"`)
	assert.Contains(t, buf.String(), "  severity: fail\n")
	assert.Contains(t, buf.String(), "  trace: |\n    calc_test.go:12: want 2, got 3\n")
	assert.Contains(t, buf.String(), "ok 3 - TestSlow (example.com/calc) # SKIP\n")
	assert.Contains(t, buf.String(), "not ok 4 - TestParse (example.com/parse)\n")
	assert.Contains(t, buf.String(), "  severity: error\n")
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := NewRecorder().Write(&bytes.Buffer{}, "csv", 0)
	assert.Error(t, err)
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain words", escapeYAML("plain words"))
	assert.Equal(t, `""`, escapeYAML(""))
	assert.Equal(t, `"a: \"b\"\nc"`, escapeYAML("a: \"b\"\nc"))
}
