package utils

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress represents a progress bar using mpb. Update may be called from
// any goroutine.
type Progress struct {
	out         io.Writer
	container   *mpb.Progress
	bar         *mpb.Bar
	description atomic.Pointer[string]
}

var descLength = 20

// NewProgress creates a progress bar on stderr with the given total count.
// It renders only when enabled and stderr is a terminal.
func NewProgress(total int, enabled bool) *Progress {
	return newProgress(os.Stderr, total, enabled && isTerminal())
}

func newProgress(out io.Writer, total int, enabled bool) *Progress {
	p := &Progress{out: out}
	empty := ""
	p.description.Store(&empty)

	if !enabled {
		return p
	}

	// Add space before progress bar
	fmt.Fprintln(out)

	p.container = mpb.New(
		mpb.WithOutput(out),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return truncate(*p.description.Load(), descLength)
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	return p
}

// Enabled reports whether the bar renders.
func (p *Progress) Enabled() bool {
	return p.bar != nil
}

// Update sets the bar to current and shows description beside it.
func (p *Progress) Update(current int, description string) {
	if p.bar == nil {
		return
	}
	p.description.Store(&description)
	p.bar.SetCurrent(int64(current))
}

// Callback adapts Update to the (current, total, description) callbacks
// used by the bundle writer and the exporter.
func (p *Progress) Callback() func(current, total int, description string) {
	return func(current, _ int, description string) {
		p.Update(current, description)
	}
}

// Finish completes the progress bar and shuts down the container. A bar
// that never reached its total is aborted in place.
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}

	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()
	p.container = nil
	p.bar = nil

	// Add space after progress bar
	fmt.Fprintln(p.out)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-2] + ".."
	}
	return s
}

// isTerminal checks if stderr is a terminal (TTY)
func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
