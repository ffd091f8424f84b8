package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/gnmoseke/peregrine/internal/junit"
	"github.com/gnmoseke/peregrine/internal/printing"
	"github.com/gnmoseke/peregrine/internal/report"
	"github.com/gnmoseke/peregrine/internal/swifttest"
)

// RunCmd returns a subcommand that runs the tests of a swift package.
func RunCmd() subcommands.Command {
	return &runCmd{out: os.Stdout}
}

type runCmd struct {
	out io.Writer
	commonFlags

	quiet        bool
	grammar      string
	showTimes    bool
	longestCount int
	timesFormat  string
	timesPath    string
	junit        string
}

func (*runCmd) Name() string {
	return "run"
}

func (*runCmd) Synopsis() string {
	return "run swift tests with a progress bar and a readable summary"
}

func (*runCmd) Usage() string {
	return `run [flags] [-- <swift test flags>...]:
  Build and run the tests of a swift package. Positional arguments are
  passed to "swift test" and "swift test list" unchanged.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.commonFlags.setFlags(f)
	f.BoolVar(&c.quiet, "quiet", false, "suppress toolchain information and progress output")
	f.StringVar(&c.grammar, "grammar", "auto", "XCTest output dialect: auto, linux or mac")
	f.BoolVar(&c.showTimes, "show-times", false, "list the tests by duration, longest first")
	f.IntVar(&c.longestCount, "longest-test-count", 0, "number of tests in the duration list (all when 0)")
	f.StringVar(&c.timesFormat, "long-test-output-format", string(report.FormatStdout), "format of the duration list: stdout or csv")
	f.StringVar(&c.timesPath, "longest-test-output-path", "tests-by-time", "file the duration list is written to with csv")
	f.StringVar(&c.junit, "junit", "", "write JUnit XML test results")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := interruptible(ctx)
	defer stop()
	return execute(f, func() error {
		return c.impl(ctx, f)
	})
}

func (c *runCmd) impl(ctx context.Context, f *flag.FlagSet) (err error) {
	swiftFlags, err := c.loadConfig(f)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(c.timesFormat)
	if err != nil {
		return err
	}
	grammar, err := swifttest.ParseGrammar(c.grammar)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, c.out, c.commonFlags)
	if err != nil {
		return err
	}
	defer func() { s.close(err) }()

	console := printing.NewConsole(c.out)
	symbols := printing.Symbols{Plain: c.plain}
	opts := []swifttest.Option{
		swifttest.PassThrough(append(swiftFlags, f.Args()...)...),
		swifttest.Output(console),
		swifttest.Logger(s.logger),
		swifttest.WithGrammar(grammar),
		swifttest.Glyphs(symbols),
	}
	if c.toolchain != "" {
		opts = append(opts, swifttest.Toolchain(c.toolchain))
	}
	if c.quiet {
		opts = append(opts, swifttest.Quiet())
	}
	runner, err := swifttest.New(c.packagePath, opts...)
	if err != nil {
		return err
	}

	err = c.runTests(ctx, runner, console, symbols, format, s)
	return describe(err, s.logPath)
}

func (c *runCmd) runTests(
	ctx context.Context,
	runner *swifttest.Runner,
	console *printing.Console,
	symbols printing.Symbols,
	format report.Format,
	s *session,
) error {
	if !c.quiet {
		console.ColorPrintln(printing.CyanBold, "=== PEREGRINE - EXECUTING TESTS ===")
		version, err := runner.ToolchainVersion(ctx)
		if err != nil {
			s.logger.Warn("could not determine the toolchain version", "err", err)
			version = "Unknown"
		}
		console.ColorPrintln(printing.Cyan, "Toolchain Information:\n"+version)
	}

	tests, err := runner.Enumerate(ctx)
	if err != nil {
		printBuildFailure(console, err)
		return err
	}
	s.logger.Info("found tests", "count", len(tests))

	out, err := runner.Execute(ctx, len(tests))
	if err != nil {
		printBuildFailure(console, err)
		return err
	}

	var errs []error
	reportErr := report.Write(console, out, report.Options{
		Symbols:    symbols,
		ShowTimes:  c.showTimes,
		Limit:      c.longestCount,
		Format:     format,
		OutputPath: c.timesPath,
	})
	if reportErr != nil {
		errs = append(errs, fmt.Errorf("failed to write the report: %w", reportErr))
	}
	if c.junit != "" {
		if junitErr := junit.Write(out, c.junit); junitErr != nil {
			errs = append(errs, fmt.Errorf("failed to write JUnit XML: %w", junitErr))
		}
	}
	switch {
	case out.Crashed():
		errs = append(errs, errTestsCrashed)
	case !out.Success:
		errs = append(errs, errTestsFailed)
	}
	return CombineErrors(errs)
}

// printBuildFailure shows the compiler diagnostics of a failed build.
func printBuildFailure(console *printing.Console, err error) {
	var buildErr *swifttest.BuildFailureError
	if !errors.As(err, &buildErr) {
		return
	}
	console.ColorPrintln(printing.RedBold, "=== BUILD FAILED ===")
	console.ColorPrintln(printing.RedBold, strings.Join(buildErr.Lines, "\n"))
}
