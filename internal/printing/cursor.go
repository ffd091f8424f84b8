package printing

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/gnmoseke/peregrine/internal/run"
)

// Cursor is a hidden terminal cursor. Restore shows it again; only the
// first call has an effect.
type Cursor struct {
	out    io.Writer
	logger *log.Logger
	once   sync.Once
}

// HideCursor hides the terminal cursor by writing the output of
// "tput civis" to out. Failures to run tput are logged and otherwise
// ignored: the returned Cursor is always usable.
func HideCursor(ctx context.Context, out io.Writer, logger *log.Logger) *Cursor {
	c := &Cursor{out: out, logger: logger}
	c.tput(ctx, "civis")
	return c
}

// Restore makes the cursor visible again ("tput cnorm").
func (c *Cursor) Restore() {
	c.once.Do(func() {
		// The caller's context may already be cancelled by the time the
		// cursor is restored.
		c.tput(context.Background(), "cnorm")
	})
}

func (c *Cursor) tput(ctx context.Context, capability string) {
	_, _, err := run.Cmd(ctx, "tput", run.Args(capability), run.Stdout(c.out), run.Logger(c.logger))
	if err != nil {
		c.logger.Warn("could not change cursor visibility", "capability", capability, "err", err)
	}
}
