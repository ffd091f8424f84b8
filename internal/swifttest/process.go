package swifttest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gnmoseke/peregrine/internal/run"
)

// maxLineLength bounds a single line of subprocess output.
const maxLineLength = 1024 * 1024

// lineHandler consumes one line of output (without the newline). A
// non-nil error stops the process.
type lineHandler func(line string) error

// streamCmd runs the command with both output streams piped to the
// handlers, which run concurrently with each other. Both streams are read
// to the end before the process is waited for.
//
// The returned exit code is only meaningful when the error is nil. If a
// handler fails, or ctx is cancelled, the process is killed and its pipes
// are closed so that output still held open by its own children cannot
// block the return.
func streamCmd(ctx context.Context, logger *log.Logger, name string, args []string, onStdout, onStderr lineHandler) (int, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, err
	}

	logger.Debug("starting process", "path", name, "args", args)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("could not start %s: %w", name, err)
	}
	stop := context.AfterFunc(runCtx, func() {
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stop()

	consume := func(r io.Reader, handle lineHandler) func() error {
		return func() error {
			err := scanLines(r, handle)
			if err == nil {
				return nil
			}
			if runCtx.Err() != nil && errors.Is(err, os.ErrClosed) {
				// Aborted by the other stream or by the caller.
				return nil
			}
			cancel()
			return err
		}
	}

	var g errgroup.Group
	g.Go(consume(stdout, onStdout))
	g.Go(consume(stderr, onStderr))
	streamErr := g.Wait()
	waitErr := cmd.Wait()

	if streamErr != nil {
		return 0, streamErr
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if code, ok := run.ExitCode(waitErr); ok {
		logger.Debug("process exited", "path", name, "code", code)
		return code, nil
	}
	if waitErr != nil {
		return 0, waitErr
	}
	logger.Debug("process exited", "path", name, "code", 0)
	return 0, nil
}

func scanLines(r io.Reader, handle lineHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		if err := handle(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
