package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// interruptible returns a context cancelled on SIGINT, SIGQUIT or SIGTERM.
// The running swift process is killed and the command unwinds normally, so
// the cursor is restored on the way out. The signals are released before
// the context is cancelled: a second one while unwinding terminates
// peregrine at once. SIGSTOP cannot be caught.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	sigCtx, release := signal.NotifyContext(parent, os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(parent)
	go func() {
		<-sigCtx.Done()
		release()
		cancel()
	}()
	return ctx, func() {
		release()
		cancel()
	}
}
