package cmd

import (
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/gnmoseke/peregrine/internal/swifttest"
)

// execute runs impl() and maps the returned error to an exit status.
//
// Errors the user has not seen yet are written to f.Output().
func execute(f *flag.FlagSet, impl func() error) subcommands.ExitStatus {
	err := impl()
	if msg := CombineErrors(unreported(err)); msg != nil {
		_, _ = fmt.Fprintln(f.Output(), msg)
	}
	return exitStatus(err)
}

// unreported returns the errors behind err that the user has not seen.
func unreported(err error) []error {
	var errs []error
	if m, ok := err.(multiError); ok {
		for _, e := range m {
			errs = append(errs, unreported(e)...)
		}
		return errs
	}
	if err != nil && !isReported(err) {
		errs = append(errs, err)
	}
	return errs
}

// executeNoArgs checks that no positional arguments were passed, and
// if so runs impl() like execute.
//
// If arguments were provided a usage error will be written and
// subcommands.ExitUsageError will be returned.
func executeNoArgs(f *flag.FlagSet, impl func() error) subcommands.ExitStatus {
	if !ensureNoArgs(f) {
		return subcommands.ExitUsageError
	}
	return execute(f, impl)
}

// ensureNoArgs checks that no positional arguments were provided.
func ensureNoArgs(f *flag.FlagSet) bool {
	if f.NArg() == 0 {
		return true
	}

	_, _ = fmt.Fprintln(
		f.Output(),
		fmt.Errorf("unexpected positional argument(s): %q", f.Args()))
	f.Usage()
	return false
}

// describe returns the message shown for an engine error, pointing at the
// log file where one helps.
func describe(err error, logPath string) error {
	var lineErr *swifttest.UnexpectedLineFormatError
	switch {
	case errors.As(err, &lineErr):
		return fmt.Errorf("peregrine ran into an issue when running: %w\n\n"+
			"Please submit a bug report at https://github.com/GNMoseke/peregrine/issues\n"+
			"Please include the logs found at %s", err, logPath)
	case errors.Is(err, swifttest.ErrNotAProject):
		return fmt.Errorf("given path does not appear to be a swift package: %w", err)
	case errors.Is(err, swifttest.ErrExecutableNotFound):
		return fmt.Errorf("peregrine could not find the swift executable in your PATH or at the given toolchain: %w", err)
	}
	return err
}
