// Package junit is for writing JUnit XML reports.
package junit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jstemmer/go-junit-report/v2/junit"

	"github.com/gnmoseke/peregrine/internal/swifttest"
)

// crashSuite names the suite that carries the backtrace of a crashed run.
const crashSuite = "crash"

// Write a JUnit XML file from the provided run output.
func Write(out *swifttest.RunOutput, outPath string) (err error) {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, out)
}

// Encode writes the JUnit XML for the provided run output to w. There is
// one testsuite per XCTest suite, sorted by name.
func Encode(w io.Writer, out *swifttest.RunOutput) error {
	suites := Convert(out)
	return suites.WriteXML(w)
}

// Convert builds the JUnit test suites for the provided run output.
func Convert(out *swifttest.RunOutput) junit.Testsuites {
	bySuite := map[string]*junit.Testsuite{}
	durations := map[string]time.Duration{}
	for _, res := range out.Results {
		suite, ok := bySuite[res.Test.Suite]
		if !ok {
			suite = &junit.Testsuite{Name: res.Test.Suite}
			bySuite[res.Test.Suite] = suite
		}
		suite.AddTestcase(testcase(res))
		durations[res.Test.Suite] += res.Duration
	}

	names := make([]string, 0, len(bySuite))
	for name := range bySuite {
		names = append(names, name)
	}
	sort.Strings(names)

	var suites junit.Testsuites
	for i, name := range names {
		suite := bySuite[name]
		suite.ID = i
		suite.Time = formatDuration(durations[name])
		suites.AddSuite(*suite)
	}
	if out.Crashed() {
		suites.AddSuite(junit.Testsuite{
			Name:      crashSuite,
			ID:        len(names),
			Errors:    1,
			Time:      formatDuration(0),
			SystemErr: &junit.Output{Data: strings.Join(out.BacktraceLines, "\n")},
		})
	}
	return suites
}

func testcase(res swifttest.TestResult) junit.Testcase {
	tc := junit.Testcase{
		Name:      res.Test.Name,
		Classname: res.Test.Suite,
		Time:      formatDuration(res.Duration),
	}
	switch {
	case res.Skipped:
		tc.Skipped = &junit.Result{Message: messages(res.Errors)}
	case !res.Passed:
		tc.Failure = &junit.Result{
			Message: fmt.Sprintf("%d failure(s)", len(res.Errors)),
			Type:    "XCTestFailure",
			Data:    details(res.Errors),
		}
	}
	return tc
}

func messages(failures []swifttest.Failure) string {
	var msgs []string
	for _, f := range failures {
		if f.Message != "" {
			msgs = append(msgs, f.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

func details(failures []swifttest.Failure) string {
	lines := make([]string, 0, len(failures))
	for _, f := range failures {
		lines = append(lines, f.Location+": "+f.Message)
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
