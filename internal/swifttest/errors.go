package swifttest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAProject is returned when the package path has no Package.swift.
	ErrNotAProject = errors.New("not a swift package")

	// ErrExecutableNotFound is returned when the swift executable cannot
	// be resolved.
	ErrExecutableNotFound = errors.New("could not find swift executable")
)

// UnexpectedLineFormatError is returned when a line looks like a line
// peregrine understands but a required field cannot be parsed.
type UnexpectedLineFormatError struct {
	Line   string
	Detail string
}

func (e *UnexpectedLineFormatError) Error() string {
	return fmt.Sprintf("unexpected line format: %s: %q", e.Detail, e.Line)
}

// BuildFailureError is returned when "swift test" fails before any test
// runs. Lines holds the build diagnostics starting at the first error
// tied to a source file.
type BuildFailureError struct {
	Lines    []string
	ExitCode int
}

func (e *BuildFailureError) Error() string {
	if len(e.Lines) == 0 {
		return fmt.Sprintf("build failed with exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("build failed with exit code %d:\n%s", e.ExitCode, strings.Join(e.Lines, "\n"))
}
