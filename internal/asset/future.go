package asset

import "context"

// Future is the pending result of LoadAsync.
type Future[T any] struct {
	done   chan struct{}
	handle Handle[T]
	err    error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(h Handle[T], err error) {
	f.handle, f.err = h, err
	close(f.done)
}

// Done is closed once the load has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the load finishes or ctx ends. Abandoning the wait does
// not stop the load; it still completes and populates the cache.
func (f *Future[T]) Wait(ctx context.Context) (Handle[T], error) {
	select {
	case <-f.done:
		return f.handle, f.err
	case <-ctx.Done():
		return Handle[T]{}, ctx.Err()
	}
}
