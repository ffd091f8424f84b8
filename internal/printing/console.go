// Package printing holds the pieces peregrine uses to draw on the user's
// terminal: a serialized console writer, the symbol table and the cursor
// scope.
package printing

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// NewConsole creates and returns a new Console writing to the provided
// io.Writer.
func NewConsole(to io.Writer) *Console {
	return &Console{out: to}
}

// Console wraps an io.Writer so that the spinner, the progress bar and the
// reports can share it. Every write is serialized and flushed immediately.
// Write errors are ignored.
type Console struct {
	out io.Writer
	mu  sync.Mutex
}

var _ io.Writer = (*Console)(nil)

// Write to the underlying io.Writer. Errors are silently ignored. Always
// returns len(p) and a nil error.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.out.Write(p)
	if f, ok := c.out.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	return len(p), nil
}

// Println writes a line. A newline is automatically appended.
func (c *Console) Println(line string) {
	_, _ = io.WriteString(c, line+"\n")
}

// ColorPrintln writes a line in the provided colour.
func (c *Console) ColorPrintln(col *color.Color, line string) {
	_, _ = col.Fprintln(c, line)
}
