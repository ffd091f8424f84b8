package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"

	"github.com/gnmoseke/peregrine/internal/swifttest"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// runWith parses args with the flags of the "run" subcommand and runs it.
func runWith(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := &runCmd{out: &out}
	f := flag.NewFlagSet("run", flag.ContinueOnError)
	f.SetOutput(io.Discard)
	c.SetFlags(f)
	require.NoError(t, f.Parse(args))
	err := c.impl(context.Background(), f)
	return out.String(), err
}

func Test_runCmd_impl_passing(t *testing.T) {
	tmp := tempDir(t)
	exe, argsLog := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_pass.txt"}.install(t)
	pkg := swiftPackage(t)

	out, err := runWith(t, "-toolchain", exe, "-package-path", pkg, "-grammar", "linux", "-plain")
	require.NoError(t, err)
	require.Contains(t, out, "=== PEREGRINE - EXECUTING TESTS ===")
	require.Contains(t, out, "Toolchain Information:\nSwift version 5.10 (swift-5.10-RELEASE)\n")
	require.Contains(t, out, "All Tests Passed!")
	require.Equal(t, []string{
		"test list --package-path " + pkg,
		"test --package-path " + pkg,
	}, readArgs(t, argsLog))
	require.Empty(t, logFiles(t, tmp), "the log file is removed after a successful run")
}

func Test_runCmd_impl_keepLogs(t *testing.T) {
	tmp := tempDir(t)
	exe, _ := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_pass.txt"}.install(t)

	_, err := runWith(t, "-toolchain", exe, "-package-path", swiftPackage(t),
		"-grammar", "linux", "-keep-logs", "-log-level", "trace")
	require.NoError(t, err)
	logs := logFiles(t, tmp)
	require.Len(t, logs, 1)
	b, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	require.Contains(t, string(b), "swift test stdout")
}

func Test_runCmd_impl_quiet(t *testing.T) {
	tempDir(t)
	exe, _ := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_pass.txt"}.install(t)

	out, err := runWith(t, "-toolchain", exe, "-package-path", swiftPackage(t), "-grammar", "linux", "-quiet")
	require.NoError(t, err)
	require.NotContains(t, out, "EXECUTING TESTS")
	require.NotContains(t, out, "Toolchain Information")
	require.NotContains(t, out, "Running Tests")
	require.Contains(t, out, "All Tests Passed!")
}

func Test_runCmd_impl_failures(t *testing.T) {
	tmp := tempDir(t)
	exe, _ := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_mixed.txt", RunExit: 1}.install(t)
	junitPath := filepath.Join(t.TempDir(), "junit.xml")

	out, err := runWith(t, "-toolchain", exe, "-package-path", swiftPackage(t),
		"-grammar", "linux", "-plain", "-junit", junitPath)
	require.ErrorIs(t, err, errTestsFailed)
	require.Equal(t, exitTestsFailed, exitStatus(err))
	require.Contains(t, out, "=== TESTS FAILED ===")
	require.Contains(t, out, "Lernie is hard")
	require.Len(t, logFiles(t, tmp), 1, "the log file is kept after a failed run")

	b, err := os.ReadFile(junitPath)
	require.NoError(t, err)
	require.Contains(t, string(b), `<testsuite name="SuiteOne"`)
	require.Contains(t, string(b), `<testsuite name="SuiteTwo"`)
}

func Test_runCmd_impl_crash(t *testing.T) {
	tempDir(t)
	exe, _ := fakeSwift{
		ListStdout: "list_stdout.txt",
		RunStdout:  "linux_crash.txt",
		RunStderr:  "crash_stderr.txt",
		RunExit:    1,
	}.install(t)

	out, err := runWith(t, "-toolchain", exe, "-package-path", swiftPackage(t), "-grammar", "linux")
	require.ErrorIs(t, err, errTestsCrashed)
	require.Equal(t, exitTestsCrashed, exitStatus(err))
	require.Contains(t, out, "=== TESTS CRASHED ===")
	require.Contains(t, out, "Fatal error: Unexpectedly found nil")
}

func Test_runCmd_impl_buildFailure(t *testing.T) {
	tempDir(t)
	exe, argsLog := fakeSwift{ListStderr: "build_failure_stderr.txt", ListExit: 1}.install(t)

	out, err := runWith(t, "-toolchain", exe, "-package-path", swiftPackage(t), "-grammar", "linux")
	var buildErr *swifttest.BuildFailureError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, exitBuildFailure, exitStatus(err))
	require.Contains(t, out, "=== BUILD FAILED ===\n")
	require.Contains(t, out, "error: cannot find 'undefinedThing' in scope")
	require.Len(t, readArgs(t, argsLog), 1, "the tests are not run after a failed build")
}

func Test_runCmd_impl_notAProject(t *testing.T) {
	tempDir(t)
	exe, _ := fakeSwift{}.install(t)

	_, err := runWith(t, "-toolchain", exe, "-package-path", t.TempDir(), "-quiet")
	require.ErrorIs(t, err, swifttest.ErrNotAProject)
	require.Equal(t, exitNotAProject, exitStatus(err))
}

func Test_runCmd_impl_executableNotFound(t *testing.T) {
	tempDir(t)
	missing := filepath.Join(t.TempDir(), "swift")

	out, err := runWith(t, "-toolchain", missing, "-package-path", swiftPackage(t))
	require.ErrorIs(t, err, swifttest.ErrExecutableNotFound)
	require.Equal(t, exitExecutableNotFound, exitStatus(err))
	require.Contains(t, out, "Toolchain Information:\nUnknown")
}

func Test_runCmd_impl_unexpectedLine(t *testing.T) {
	tmp := tempDir(t)
	exe, _ := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_bad_time.txt"}.install(t)

	_, err := runWith(t, "-toolchain", exe, "-package-path", swiftPackage(t), "-grammar", "linux", "-quiet")
	var lineErr *swifttest.UnexpectedLineFormatError
	require.ErrorAs(t, err, &lineErr)
	require.Equal(t, exitUnexpectedLineFormat, exitStatus(err))
	logs := logFiles(t, tmp)
	require.Len(t, logs, 1)
	require.Contains(t, err.Error(), logs[0])
	require.Contains(t, err.Error(), "submit a bug report")
}

func Test_runCmd_impl_passThrough(t *testing.T) {
	tempDir(t)
	exe, argsLog := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_pass.txt"}.install(t)
	pkg := swiftPackage(t)
	cfg := "swift-flags: [--parallel]\nquiet: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(pkg, ".peregrine.yml"), []byte(cfg), 0o644))

	out, err := runWith(t, "-toolchain", exe, "-package-path", pkg, "-grammar", "linux", "--", "--filter", "SuiteOne")
	require.NoError(t, err)
	require.NotContains(t, out, "EXECUTING TESTS")
	require.Equal(t, []string{
		"test list --package-path " + pkg + " --parallel --filter SuiteOne",
		"test --package-path " + pkg + " --parallel --filter SuiteOne",
	}, readArgs(t, argsLog))
}

func Test_runCmd_impl_timingCSV(t *testing.T) {
	tempDir(t)
	exe, _ := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_mixed.txt", RunExit: 1}.install(t)
	csvPath := filepath.Join(t.TempDir(), "times.csv")

	out, err := runWith(t, "-toolchain", exe, "-package-path", swiftPackage(t), "-grammar", "linux",
		"-show-times", "-long-test-output-format", "csv", "-longest-test-output-path", csvPath,
		"-longest-test-count", "1")
	require.ErrorIs(t, err, errTestsFailed)
	require.Contains(t, out, "Successfully output test times to "+csvPath)
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.Equal(t, "Suite,Name,Time (s),Passed\nSuiteTwo,testSuccess,1.25,true\n", string(b))
}

func Test_runCmd_impl_invalidFlags(t *testing.T) {
	tempDir(t)

	_, err := runWith(t, "-long-test-output-format", "xml")
	require.Error(t, err)
	_, err = runWith(t, "-grammar", "windows")
	require.Error(t, err)
	_, err = runWith(t, "-log-level", "loud", "-package-path", swiftPackage(t))
	require.Error(t, err)
}

func Test_runCmd_Execute(t *testing.T) {
	tempDir(t)
	exe, _ := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_mixed.txt", RunExit: 1}.install(t)

	var usage bytes.Buffer
	c := &runCmd{out: io.Discard}
	f := flag.NewFlagSet("run", flag.ContinueOnError)
	f.SetOutput(&usage)
	c.SetFlags(f)
	require.NoError(t, f.Parse([]string{"-toolchain", exe, "-package-path", swiftPackage(t), "-grammar", "linux"}))

	status := c.Execute(context.Background(), f)
	require.Equal(t, exitTestsFailed, status)
	require.Empty(t, usage.String(), "failed tests are reported by the summary only")
}

func Test_runCmd_Execute_cancelled(t *testing.T) {
	tempDir(t)
	exe, _ := fakeSwift{ListStdout: "list_stdout.txt", RunStdout: "linux_pass.txt"}.install(t)

	c := &runCmd{out: io.Discard}
	f := flag.NewFlagSet("run", flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse([]string{"-toolchain", exe, "-package-path", swiftPackage(t), "-quiet"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.impl(ctx, f)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	require.Equal(t, subcommands.ExitFailure, exitStatus(err))
}
