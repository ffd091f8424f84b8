package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/google/subcommands"

	"github.com/gnmoseke/peregrine/internal/swifttest"
)

// Exit statuses besides subcommands.ExitSuccess (0), ExitFailure (1) and
// ExitUsageError (2). Scripts may rely on these values.
const (
	exitBuildFailure         subcommands.ExitStatus = 3
	exitNotAProject          subcommands.ExitStatus = 4
	exitExecutableNotFound   subcommands.ExitStatus = 5
	exitUnexpectedLineFormat subcommands.ExitStatus = 6
	exitTestsFailed          subcommands.ExitStatus = 7
	exitTestsCrashed         subcommands.ExitStatus = 8
)

var (
	// errTestsFailed is returned by the "run" subcommand when at least one
	// test failed.
	errTestsFailed = errors.New("tests failed")

	// errTestsCrashed is returned by the "run" subcommand when the test
	// process crashed.
	errTestsCrashed = errors.New("tests crashed")
)

// exitStatus maps an error returned by a subcommand implementation to the
// exit status of peregrine.
func exitStatus(err error) subcommands.ExitStatus {
	var (
		lineErr  *swifttest.UnexpectedLineFormatError
		buildErr *swifttest.BuildFailureError
	)
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case errors.Is(err, swifttest.ErrNotAProject):
		return exitNotAProject
	case errors.Is(err, swifttest.ErrExecutableNotFound):
		return exitExecutableNotFound
	case errors.As(err, &lineErr):
		return exitUnexpectedLineFormat
	case errors.As(err, &buildErr):
		return exitBuildFailure
	case errors.Is(err, errTestsCrashed):
		return exitTestsCrashed
	case errors.Is(err, errTestsFailed):
		return exitTestsFailed
	}
	return subcommands.ExitFailure
}

// isReported reports whether the outcome behind err has already been
// shown to the user by the report or a banner.
func isReported(err error) bool {
	var buildErr *swifttest.BuildFailureError
	return errors.Is(err, errTestsFailed) ||
		errors.Is(err, errTestsCrashed) ||
		errors.Is(err, context.Canceled) ||
		errors.As(err, &buildErr)
}

// CombineErrors returns nil for no errors, the error itself for a single
// error, and an error listing every error otherwise. The combined error
// matches each of its errors with errors.Is and errors.As.
func CombineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return multiError(errs)
}

type multiError []error

func (m multiError) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors occurred:\n")
	for _, err := range m {
		sb.WriteString("  * " + err.Error() + "\n")
	}
	return sb.String()
}

func (m multiError) Unwrap() []error {
	return m
}
