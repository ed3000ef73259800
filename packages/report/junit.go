package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite holds the tests of one package
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single test case
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitProblem `xml:"failure,omitempty"`
	Error     *JUnitProblem `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitProblem is the body of a failure or error element
type JUnitProblem struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitSkipped represents a skipped test
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// BuildJUnit groups cases into one suite per package, in order of first appearance
func BuildJUnit(cases []Case, total time.Duration) JUnitTestSuites {
	root := JUnitTestSuites{Name: "nbtest", Time: total.Seconds()}
	index := make(map[string]int)

	for _, c := range cases {
		i, ok := index[c.Test.Package]
		if !ok {
			i = len(root.TestSuites)
			index[c.Test.Package] = i
			root.TestSuites = append(root.TestSuites, JUnitTestSuite{Name: c.Test.Package})
		}
		suite := &root.TestSuites[i]

		tc := JUnitTestCase{
			Name:      c.Test.Name,
			ClassName: c.Test.Package,
			Time:      c.Elapsed.Seconds(),
		}
		switch c.Status {
		case Skipped:
			suite.Skipped++
			tc.Skipped = &JUnitSkipped{}
		case Failed:
			suite.Failures++
			tc.Failure = problem(c)
		case Errored:
			suite.Errors++
			tc.Error = problem(c)
		}
		suite.Tests++
		suite.Time += tc.Time
		suite.TestCases = append(suite.TestCases, tc)
	}

	for _, s := range root.TestSuites {
		root.Tests += s.Tests
		root.Failures += s.Failures
		root.Errors += s.Errors
		root.Skipped += s.Skipped
	}
	return root
}

func problem(c Case) *JUnitProblem {
	return &JUnitProblem{
		Message: c.Detail.Message,
		Type:    c.Detail.Kind,
		Content: c.Detail.Format(),
	}
}

// WriteJUnit writes cases as a JUnit XML document
func WriteJUnit(w io.Writer, cases []Case, total time.Duration) error {
	if _, err := fmt.Fprint(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(BuildJUnit(cases, total)); err != nil {
		return fmt.Errorf("encoding junit report: %w", err)
	}
	_, err := fmt.Fprintln(w)
	return err
}
