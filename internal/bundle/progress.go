package bundle

import "sync"

type progressReporter struct {
	mu    sync.Mutex
	fn    ProgressFunc
	done  int
	total int
}

func newProgressReporter(fn ProgressFunc, total int) *progressReporter {
	return &progressReporter{fn: fn, total: total}
}

func (p *progressReporter) step(path string) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.fn(p.done, p.total, path)
}
