package swifttest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"github.com/gnmoseke/peregrine/internal/printing"
	"github.com/gnmoseke/peregrine/internal/run"
)

// ManifestFile is the file that makes a directory a Swift package.
const ManifestFile = "Package.swift"

// Option can be passed to New to change how the Runner behaves (e.g. use
// a specific toolchain, or pass flags through to "swift test").
type Option func(o *options) error

type options struct {
	toolchain     string
	flags         []string
	quiet         bool
	out           io.Writer
	logger        *log.Logger
	grammar       Grammar
	symbols       printing.Symbols
	progressWidth int
	newSpinner    func(out io.Writer, prefix string) buildSpinner
}

// Toolchain runs the swift executable at the provided path instead of the
// one found on the PATH.
func Toolchain(path string) Option {
	return func(o *options) error {
		o.toolchain = path
		return nil
	}
}

// PassThrough appends flags to both "swift test list" and "swift test",
// for example "--filter" or "--skip".
func PassThrough(flags ...string) Option {
	return func(o *options) error {
		o.flags = append(o.flags, flags...)
		return nil
	}
}

// Quiet suppresses the build spinner, the progress bar and banners.
func Quiet() Option {
	return func(o *options) error {
		o.quiet = true
		return nil
	}
}

// Output changes where the spinner and progress bar are drawn (os.Stdout
// by default).
func Output(to io.Writer) Option {
	return func(o *options) error {
		o.out = to
		return nil
	}
}

// Logger sets the logger that receives every line of subprocess output
// at debug level. Nothing is logged by default.
func Logger(l *log.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

// WithGrammar interprets the output with the provided grammar instead of
// the one for the current platform.
func WithGrammar(g Grammar) Option {
	return func(o *options) error {
		if _, ok := grammars[g]; !ok {
			return fmt.Errorf("swifttest: invalid grammar: %v", g)
		}
		o.grammar = g
		return nil
	}
}

// Glyphs sets the symbols used by the spinner and progress bar.
func Glyphs(s printing.Symbols) Option {
	return func(o *options) error {
		o.symbols = s
		return nil
	}
}

// ProgressWidth sets the number of cells in the progress bar.
func ProgressWidth(width int) Option {
	return func(o *options) error {
		if width <= 0 {
			return fmt.Errorf("swifttest: invalid progress width: %d", width)
		}
		o.progressWidth = width
		return nil
	}
}

// withSpinner replaces the build spinner.
func withSpinner(start func(out io.Writer, prefix string) buildSpinner) Option {
	return func(o *options) error {
		o.newSpinner = start
		return nil
	}
}

// Runner runs "swift test" for one Swift package.
type Runner struct {
	packagePath string
	o           options
	console     *printing.Console
	classifier  *Classifier
}

// New returns a Runner for the package at packagePath.
func New(packagePath string, opts ...Option) (*Runner, error) {
	o := options{
		out:           os.Stdout,
		logger:        log.New(io.Discard),
		grammar:       DefaultGrammar(),
		progressWidth: DefaultProgressWidth,
		newSpinner:    newTerminalSpinner,
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	classifier, err := NewClassifier(o.grammar)
	if err != nil {
		return nil, err
	}
	console, ok := o.out.(*printing.Console)
	if !ok {
		console = printing.NewConsole(o.out)
	}
	return &Runner{
		packagePath: packagePath,
		o:           o,
		console:     console,
		classifier:  classifier,
	}, nil
}

// Enumerate lists the tests of the package with "swift test list", which
// builds the package first. A spinner is shown until the first test is
// listed.
//
// ErrNotAProject is returned, before anything is run, when the package has
// no manifest. A *BuildFailureError is returned when "swift test list"
// fails.
func (r *Runner) Enumerate(ctx context.Context) ([]Test, error) {
	r.o.logger.Info("listing tests", "path", r.packagePath)
	if err := r.checkManifest(); err != nil {
		return nil, err
	}
	exe, err := r.executable()
	if err != nil {
		return nil, err
	}

	spin := r.startSpinner()
	defer spin.Stop()

	var tests []Test
	build := lineCollector{isMarker: IsBuildErrorMarker}
	code, err := streamCmd(ctx, r.o.logger, exe, r.args("test", "list"),
		func(line string) error {
			r.o.logger.Debug("swift test list stdout", "line", line)
			t, ok := ParseCatalogLine(line)
			if !ok {
				r.o.logger.Debug("line is not a test and has been discarded", "line", line)
				return nil
			}
			spin.Stop()
			tests = append(tests, t)
			return nil
		},
		r.stderrHandler("swift test list stderr", &build),
	)
	if err != nil {
		return nil, err
	}

	r.o.logger.Info("build and list finished", "code", code, "tests", len(tests))
	if code != 0 {
		return nil, &BuildFailureError{Lines: build.Lines(), ExitCode: code}
	}
	return tests, nil
}

// Execute runs the tests with "swift test" and returns the outcome.
// expected is the number of tests expected to run and only sizes the
// progress bar.
//
// Failing and crashing tests are reported through the RunOutput, not as
// an error. A *BuildFailureError is returned when "swift test" fails
// before any test reports, and an *UnexpectedLineFormatError when its
// output cannot be interpreted.
func (r *Runner) Execute(ctx context.Context, expected int) (*RunOutput, error) {
	exe, err := r.executable()
	if err != nil {
		return nil, err
	}

	results := NewAggregator()
	backtrace := lineCollector{isMarker: IsCrashMarker}
	build := lineCollector{isMarker: IsBuildErrorMarker}

	progress := r.newProgress(expected)
	if !r.o.quiet {
		r.console.ColorPrintln(printing.CyanBold, r.o.symbols.Get(printing.Flask)+" Running Tests...")
	}
	progress.Start()

	code, err := streamCmd(ctx, r.o.logger, exe, r.args("test"),
		func(line string) error {
			r.o.logger.Debug("swift test stdout", "line", line)
			if backtrace.Offer(line) {
				return nil
			}
			l, err := r.classifier.Classify(line)
			if err != nil {
				return err
			}
			if l.Kind == Unclassified {
				r.o.logger.Debug("line matched no pattern and has been discarded", "line", line)
				return nil
			}
			if results.Apply(l) {
				progress.Advance()
			}
			return nil
		},
		r.stderrHandler("swift test stderr", &build),
	)
	if err != nil {
		if !r.o.quiet {
			r.console.Println("")
		}
		return nil, err
	}
	progress.Finish()

	r.o.logger.Info("tests finished", "code", code, "results", results.Len())
	out := &RunOutput{
		Success: code == 0,
		Results: results.Results(),
	}
	if code != 0 {
		switch {
		case len(backtrace.Lines()) > 0:
			out.BacktraceLines = backtrace.Lines()
		case results.Len() == 0 && len(build.Lines()) > 0:
			return nil, &BuildFailureError{Lines: build.Lines(), ExitCode: code}
		}
	}
	return out, nil
}

// ToolchainVersion returns the output of "swift --version".
func (r *Runner) ToolchainVersion(ctx context.Context) (string, error) {
	exe, err := r.executable()
	if err != nil {
		return "", err
	}
	stdout, _, err := run.Cmd(ctx, exe, run.Args("--version"), run.Logger(r.o.logger))
	if err != nil {
		return "", fmt.Errorf("swift --version failed: %w", err)
	}
	return strings.TrimSpace(stdout), nil
}

func (r *Runner) checkManifest() error {
	_, err := os.Stat(filepath.Join(r.packagePath, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		r.o.logger.Error("path is not a swift package", "path", r.packagePath)
		return fmt.Errorf("%w: no %s in %s", ErrNotAProject, ManifestFile, r.packagePath)
	}
	return err
}

func (r *Runner) executable() (string, error) {
	name := r.o.toolchain
	if name == "" {
		name = "swift"
	}
	exe, err := run.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExecutableNotFound, err)
	}
	return exe, nil
}

func (r *Runner) args(subcommand ...string) []string {
	args := append([]string{}, subcommand...)
	args = append(args, "--package-path", r.packagePath)
	return append(args, r.o.flags...)
}

func (r *Runner) stderrHandler(msg string, build *lineCollector) lineHandler {
	return func(line string) error {
		r.o.logger.Debug(msg, "line", line)
		if build.Offer(line) && len(build.Lines()) == 1 {
			r.o.logger.Debug("build failure found, collecting remaining stderr")
		}
		return nil
	}
}

func (r *Runner) newProgress(expected int) progressRenderer {
	if r.o.quiet {
		return noopProgress{}
	}
	return NewProgressBar(r.console, expected, r.o.progressWidth,
		r.o.symbols.Get(printing.ShadedBlock), r.o.symbols.Get(printing.FilledBlock))
}

// buildSpinner is shown while the package builds.
type buildSpinner interface {
	Stop()
}

type noopSpinner struct{}

func (noopSpinner) Stop() {}

func (r *Runner) startSpinner() buildSpinner {
	if r.o.quiet {
		return noopSpinner{}
	}
	return r.o.newSpinner(r.console, r.o.symbols.Get(printing.Build)+" Building... ")
}

// newTerminalSpinner starts a spinner on out. It only draws when stdout is
// a terminal.
func newTerminalSpinner(out io.Writer, prefix string) buildSpinner {
	s := spinner.New([]string{"/", "-", `\`, "|"}, 100*time.Millisecond,
		spinner.WithWriter(out),
		spinner.WithHiddenCursor(false),
	)
	s.Prefix = prefix
	_ = s.Color("cyan", "bold")
	s.Start()
	return s
}
