// Package run provides utilities for executing auxiliary external programs
// such as "swift --version" and "tput".
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/log"
)

type cmdinfo struct {
	cmd    *exec.Cmd
	logger *log.Logger
}

// Cmd runs the provided command (with the provided args) and returns the
// stdout and stderr. A non-nil error will be returned when the command
// cannot be started or its exit code is non-zero. The command is killed
// when ctx is cancelled.
//
// Cmd logs the command before it runs and its outcome afterwards at debug
// level. Nothing is logged unless Logger is used.
func Cmd(ctx context.Context, command string, args []string, opts ...Option) (string, string, error) {
	ci := cmdinfo{
		cmd:    exec.CommandContext(ctx, command, args...),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&ci)
	}

	var stdout, stderr bytes.Buffer
	if ci.cmd.Stdout != nil {
		ci.cmd.Stdout = io.MultiWriter(&stdout, ci.cmd.Stdout)
	} else {
		ci.cmd.Stdout = &stdout
	}
	ci.cmd.Stderr = &stderr

	ci.logger.Debug("running command", "path", ci.cmd.Path, "args", ci.cmd.Args[1:])
	err := ci.cmd.Run()
	if err != nil {
		ci.logger.Debug("command failed", "path", ci.cmd.Path, "err", err, "stderr", stderr.String())
	} else {
		ci.logger.Debug("command completed successfully", "path", ci.cmd.Path)
	}

	return stdout.String(), stderr.String(), err
}

// Args returns the provided variadic args as a slice. This allows
// you to use Cmd like this:
//
//	run.Cmd(ctx, "tput", run.Args("civis"))
func Args(args ...string) []string {
	return args
}

// ErrNotFound is returned by Lookup when the program is not on the PATH
// (or, for a path containing a separator, does not exist or is not
// executable).
var ErrNotFound = errors.New("executable not found")

// Lookup resolves the provided program name or path to an executable path.
func Lookup(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}
	return p, nil
}

// ExitCode extracts the exit code of a failed command from the error
// returned by Cmd or exec.Cmd.Wait. The second value is false when err is
// not an exit error, for example when the command could not be started.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// Option alters the way Cmd runs the provided command.
type Option func(*cmdinfo)

// Stdout causes Cmd to tee the stdout of the process to the provided io.Writer.
func Stdout(out io.Writer) Option {
	return func(s *cmdinfo) {
		s.cmd.Stdout = out
	}
}

// Logger changes where Cmd logs information about running the command.
func Logger(l *log.Logger) Option {
	return func(s *cmdinfo) {
		s.logger = l
	}
}
