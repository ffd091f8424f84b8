package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_interruptible_parentCancelled(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, stop := interruptible(parent)
	defer stop()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		require.FailNow(t, "context not cancelled with its parent")
	}
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func Test_interruptible_stop(t *testing.T) {
	ctx, stop := interruptible(context.Background())
	stop()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

// Test_interruptible_secondSignal runs itself as a child process: the first
// SIGINT cancels the context, the second one kills the child while it is
// still unwinding.
func Test_interruptible_secondSignal(t *testing.T) {
	if os.Getenv("PEREGRINE_SIGNAL_CHILD") == "1" {
		ctx, stop := interruptible(context.Background())
		defer stop()
		fmt.Println("ready")
		<-ctx.Done()
		fmt.Println("cancelled")
		time.Sleep(30 * time.Second)
		return
	}

	child := exec.Command(os.Args[0], "-test.run=^Test_interruptible_secondSignal$")
	child.Env = append(os.Environ(), "PEREGRINE_SIGNAL_CHILD=1")
	stdout, err := child.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, child.Start())
	lines := bufio.NewScanner(stdout)

	require.True(t, lines.Scan())
	require.Equal(t, "ready", lines.Text())
	require.NoError(t, child.Process.Signal(os.Interrupt))
	require.True(t, lines.Scan())
	require.Equal(t, "cancelled", lines.Text())
	require.NoError(t, child.Process.Signal(os.Interrupt))

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()
	select {
	case err := <-done:
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		require.True(t, ok)
		require.True(t, status.Signaled(), "child exited with %v", err)
		require.Equal(t, syscall.SIGINT, status.Signal())
	case <-time.After(10 * time.Second):
		_ = child.Process.Kill()
		require.FailNow(t, "second interrupt was swallowed")
	}
}
