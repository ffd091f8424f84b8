package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/subcommands"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gnmoseke/peregrine/internal/printing"
	"github.com/gnmoseke/peregrine/internal/swifttest"
)

// CountCmd returns a subcommand that counts the tests of a swift package.
func CountCmd() subcommands.Command {
	return &countCmd{out: os.Stdout}
}

type countCmd struct {
	out io.Writer
	commonFlags

	groupBySuite bool
}

func (*countCmd) Name() string {
	return "count"
}

func (*countCmd) Synopsis() string {
	return "count the tests of a swift package"
}

func (*countCmd) Usage() string {
	return `count [-group-by-suite]:
  Build a swift package and count its tests.
`
}

func (c *countCmd) SetFlags(f *flag.FlagSet) {
	c.commonFlags.setFlags(f)
	f.BoolVar(&c.groupBySuite, "group-by-suite", false, "show the number of tests in each suite")
}

func (c *countCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := interruptible(ctx)
	defer stop()
	return executeNoArgs(f, func() error {
		return c.impl(ctx, f)
	})
}

func (c *countCmd) impl(ctx context.Context, f *flag.FlagSet) (err error) {
	swiftFlags, err := c.loadConfig(f)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, c.out, c.commonFlags)
	if err != nil {
		return err
	}
	defer func() { s.close(err) }()

	console := printing.NewConsole(c.out)
	opts := []swifttest.Option{
		swifttest.PassThrough(swiftFlags...),
		swifttest.Output(console),
		swifttest.Logger(s.logger),
		swifttest.Glyphs(printing.Symbols{Plain: c.plain}),
	}
	if c.toolchain != "" {
		opts = append(opts, swifttest.Toolchain(c.toolchain))
	}
	runner, err := swifttest.New(c.packagePath, opts...)
	if err != nil {
		return err
	}

	console.ColorPrintln(printing.CyanBold, "=== PEREGRINE - COUNTING TESTS ===")
	tests, err := runner.Enumerate(ctx)
	if err != nil {
		printBuildFailure(console, err)
		return describe(err, s.logPath)
	}

	counts := countBySuite(tests)
	console.ColorPrintln(printing.GreenBold,
		fmt.Sprintf("Found %d total tests across %d Suites", len(tests), len(counts)))
	if c.groupBySuite {
		writeSuiteTable(console, counts)
	}
	return nil
}

type suiteCount struct {
	suite string
	tests int
}

// countBySuite returns the number of tests per suite, largest first and
// then by name.
func countBySuite(tests []swifttest.Test) []suiteCount {
	bySuite := map[string]int{}
	for _, t := range tests {
		bySuite[t.Suite]++
	}
	counts := make([]suiteCount, 0, len(bySuite))
	for suite, n := range bySuite {
		counts = append(counts, suiteCount{suite: suite, tests: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].tests != counts[j].tests {
			return counts[i].tests > counts[j].tests
		}
		return counts[i].suite < counts[j].suite
	})
	return counts
}

func writeSuiteTable(w io.Writer, counts []suiteCount) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Suite", "Tests"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.suite, c.tests})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tests", Align: text.AlignRight},
	})
	t.Render()
}
