// Package report renders the outcome of a "swift test" run: a summary of
// failures, crashes and skips, and an optional list of the slowest tests
// either as a table or as a CSV file.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gnmoseke/peregrine/internal/printing"
	"github.com/gnmoseke/peregrine/internal/swifttest"
)

// Format is the output format of the timing report.
type Format string

const (
	// FormatStdout prints a ranked table.
	FormatStdout Format = "stdout"
	// FormatCSV writes a CSV file.
	FormatCSV Format = "csv"
)

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatStdout, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown timing output format %q (want stdout or csv)", name)
}

// CSVHeader is the header row of the timing CSV.
var CSVHeader = []string{"Suite", "Name", "Time (s)", "Passed"}

// Options controls what Write renders besides the summary.
type Options struct {
	Symbols printing.Symbols

	// ShowTimes enables the timing report.
	ShowTimes bool
	// Limit is the number of slowest tests to report. Zero or less
	// reports all of them.
	Limit int
	// Format selects where the timing report goes.
	Format Format
	// OutputPath is the CSV file written with FormatCSV.
	OutputPath string
}

// Write renders the summary and, if enabled, the timing report.
func Write(w io.Writer, out *swifttest.RunOutput, opts Options) error {
	if err := Summary(w, out, opts.Symbols); err != nil {
		return err
	}
	if !opts.ShowTimes {
		return nil
	}
	timings := Timings(out.Results, opts.Limit)
	switch opts.Format {
	case FormatCSV:
		if err := WriteTimingCSV(opts.OutputPath, timings); err != nil {
			return err
		}
		_, err := printing.Cyan.Fprintf(w, "Successfully output test times to %s\n", opts.OutputPath)
		return err
	default:
		return WriteTimingTable(w, timings, opts.Symbols)
	}
}

// Summary writes the outcome of the run: a success banner, the crash
// backtrace, or the failed tests grouped by suite. Skipped tests are
// listed unless the run crashed.
func Summary(w io.Writer, out *swifttest.RunOutput, symbols printing.Symbols) error {
	var b strings.Builder
	var c *color.Color
	b.WriteString("\n\n")
	switch {
	case out.Success:
		c = printing.GreenBold
		b.WriteString(strings.TrimSpace(symbols.Get(printing.Success) + " All Tests Passed!"))
		b.WriteString("\n")
		writeSkipped(&b, out.Results)
	case out.BacktraceLines != nil:
		c = printing.RedBold
		b.WriteString("=== TESTS CRASHED ===\n")
		for _, line := range out.BacktraceLines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	default:
		c = printing.RedBold
		b.WriteString("=== TESTS FAILED ===\n")
		writeFailures(&b, out.Results, symbols)
		writeSkipped(&b, out.Results)
	}
	_, err := c.Fprint(w, b.String())
	return err
}

// writeFailures lists the failed tests, grouped by suite in the order the
// suites were first seen. Errors keep the order they were reported in.
func writeFailures(b *strings.Builder, results []swifttest.TestResult, symbols printing.Symbols) {
	var suites []string
	bySuite := map[string][]swifttest.TestResult{}
	for _, res := range results {
		if !res.Failed() {
			continue
		}
		if _, ok := bySuite[res.Test.Suite]; !ok {
			suites = append(suites, res.Test.Suite)
		}
		bySuite[res.Test.Suite] = append(bySuite[res.Test.Suite], res)
	}

	arrow := symbols.Get(printing.RightArrow)
	for _, suite := range suites {
		b.WriteString(suite)
		b.WriteString("\n")
		for _, res := range bySuite[suite] {
			fmt.Fprintf(b, " %s %s %s - (%s)\n", arrow, symbols.Get(printing.FailedFlask), res.Test.Name, seconds(res.Duration))
			for _, f := range res.Errors {
				fmt.Fprintf(b, "   %s %s -> %s\n", arrow, f.Message, f.Location)
			}
		}
		b.WriteString("\n")
	}
}

func writeSkipped(b *strings.Builder, results []swifttest.TestResult) {
	var skipped []string
	for _, res := range results {
		if !res.Skipped {
			continue
		}
		line := res.Test.FullName()
		for _, f := range res.Errors {
			if f.Message != "" {
				line += ": " + f.Message
			}
		}
		skipped = append(skipped, line)
	}
	if len(skipped) == 0 {
		return
	}
	b.WriteString("The following tests were skipped:\n")
	for _, line := range skipped {
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// Timings returns the results sorted by duration, longest first, and
// truncated to limit entries. A limit of zero or less, or larger than the
// number of results, returns all of them.
func Timings(results []swifttest.TestResult, limit int) []swifttest.TestResult {
	sorted := append([]swifttest.TestResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// WriteTimingTable writes the timings as a ranked table.
func WriteTimingTable(w io.Writer, timings []swifttest.TestResult, symbols printing.Symbols) error {
	if _, err := printing.CyanBold.Fprintf(w, "=== %s SLOWEST TESTS ===\n", symbols.Get(printing.Timer)); err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Test", "Result", "Time (s)"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Time (s)", Align: text.AlignRight},
	})
	for i, res := range timings {
		t.AppendRow(table.Row{i + 1, res.Test.FullName(), outcome(res), formatSeconds(res.Duration)})
	}
	t.Render()
	return nil
}

// WriteTimingCSV writes the timings to a CSV file at path.
func WriteTimingCSV(path string, timings []swifttest.TestResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return writeTimingCSV(f, timings)
}

func writeTimingCSV(w io.Writer, timings []swifttest.TestResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, res := range timings {
		row := []string{res.Test.Suite, res.Test.Name, formatSeconds(res.Duration), strconv.FormatBool(res.Passed)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func outcome(res swifttest.TestResult) string {
	switch {
	case res.Skipped:
		return "Succeeded - Skipped"
	case res.Passed:
		return "Succeeded"
	}
	return "Failed"
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func seconds(d time.Duration) string {
	return formatSeconds(d) + " seconds"
}
