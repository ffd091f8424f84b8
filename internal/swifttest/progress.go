package swifttest

import (
	"fmt"
	"io"
	"strings"
)

// DefaultProgressWidth is the number of cells in the progress bar.
const DefaultProgressWidth = 45

// progressRenderer shows how many tests have finished.
type progressRenderer interface {
	Start()
	Advance()
	Finish()
}

// noopProgress is used for quiet runs.
type noopProgress struct{}

var _ progressRenderer = noopProgress{}

func (noopProgress) Start()   {}
func (noopProgress) Advance() {}
func (noopProgress) Finish()  {}

// ProgressBar is a fixed-width bar redrawn in place on every finished test.
//
// The bar denotes tests finished, not tests passed: Finish fills it
// whatever the outcome of the run.
type ProgressBar struct {
	out       io.Writer
	total     int
	width     int
	empty     string
	full      string
	filled    int
	completed int
}

var _ progressRenderer = (*ProgressBar)(nil)

// NewProgressBar returns a bar of width cells for total tests. A total
// below one is treated as one, and so is a width below one.
func NewProgressBar(out io.Writer, total, width int, empty, full string) *ProgressBar {
	if total < 1 {
		total = 1
	}
	if width < 1 {
		width = 1
	}
	return &ProgressBar{
		out:   out,
		total: total,
		width: width,
		empty: empty,
		full:  full,
	}
}

// Start draws the empty bar.
func (p *ProgressBar) Start() {
	p.render()
}

// Advance records one finished test and redraws the bar.
//
// When there are fewer tests than cells each test fills width/total cells,
// otherwise every total/width tests fill one cell. The last expected test
// always fills the bar.
func (p *ProgressBar) Advance() {
	p.completed++
	switch {
	case p.completed >= p.total:
		p.filled = p.width
	case p.total < p.width:
		p.filled += p.width / p.total
	case p.completed%max(1, p.total/p.width) == 0:
		p.filled++
	}
	if p.filled > p.width {
		p.filled = p.width
	}
	p.render()
}

// Finish fills the bar, redraws it and ends the line.
func (p *ProgressBar) Finish() {
	p.filled = p.width
	p.render()
	_, _ = io.WriteString(p.out, "\n")
	flush(p.out)
}

// Filled returns the number of filled cells.
func (p *ProgressBar) Filled() int {
	return p.filled
}

// Completed returns the number of finished tests seen.
func (p *ProgressBar) Completed() int {
	return p.completed
}

// String returns the bar with its "(completed/total)" suffix.
func (p *ProgressBar) String() string {
	return fmt.Sprintf("%s%s (%d/%d)",
		strings.Repeat(p.full, p.filled),
		strings.Repeat(p.empty, p.width-p.filled),
		p.completed, p.total)
}

func (p *ProgressBar) render() {
	_, _ = io.WriteString(p.out, "\r"+p.String())
	flush(p.out)
}

func flush(w io.Writer) {
	if f, ok := w.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}
