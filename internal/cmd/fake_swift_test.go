package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnmoseke/peregrine/internal/swifttest"
)

// fakeSwift describes a stand-in for the swift executable that replays
// files from the swifttest testdata. Empty file names produce no output.
type fakeSwift struct {
	ListStdout string
	ListStderr string
	ListExit   int

	RunStdout string
	RunStderr string
	RunExit   int
}

// install writes the fake executable and returns its path and the path of
// the file it appends its arguments to.
func (f fakeSwift) install(t *testing.T) (exe string, argsLog string) {
	t.Helper()
	dir := t.TempDir()
	exe = filepath.Join(dir, "swift")
	argsLog = filepath.Join(dir, "args.log")

	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Swift version 5.10 (swift-5.10-RELEASE)"
  echo "Target: x86_64-unknown-linux-gnu"
  exit 0
fi
echo "$@" >> %[1]q
if [ "$2" = "list" ]; then
  cat %[2]q
  cat %[3]q >&2
  exit %[4]d
fi
cat %[5]q
cat %[6]q >&2
exit %[7]d
`, argsLog,
		testdata(t, f.ListStdout), testdata(t, f.ListStderr), f.ListExit,
		testdata(t, f.RunStdout), testdata(t, f.RunStderr), f.RunExit)
	require.NoError(t, os.WriteFile(exe, []byte(script), 0o755))
	return exe, argsLog
}

func testdata(t *testing.T, name string) string {
	t.Helper()
	if name == "" {
		return os.DevNull
	}
	p, err := filepath.Abs(filepath.Join("..", "swifttest", "testdata", name))
	require.NoError(t, err)
	require.FileExists(t, p)
	return p
}

// swiftPackage creates an empty Swift package directory.
func swiftPackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifest := "// swift-tools-version:5.9\nimport PackageDescription\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, swifttest.ManifestFile), []byte(manifest), 0o644))
	return dir
}

func readArgs(t *testing.T, argsLog string) []string {
	t.Helper()
	b, err := os.ReadFile(argsLog)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(b)), "\n")
}

// tempDir points the temporary directory, where log files go, at a fresh
// directory and returns it.
func tempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)
	return dir
}

func logFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "peregrine-*.log"))
	require.NoError(t, err)
	return matches
}
