package runner

import "context"

// Queue is a Dispatcher whose callbacks run on whichever goroutine calls
// Drain, such as a terminal rendering loop.
type Queue struct {
	fns chan func()
}

// NewQueue returns a queue buffering up to size pending callbacks.
func NewQueue(size int) *Queue {
	return &Queue{fns: make(chan func(), size)}
}

// Dispatch enqueues fn. It blocks while the buffer is full.
func (q *Queue) Dispatch(fn func()) {
	q.fns <- fn
}

// Drain runs queued callbacks until until returns true after a callback or
// ctx is cancelled.
func (q *Queue) Drain(ctx context.Context, until func() bool) error {
	for {
		if until() {
			return nil
		}
		select {
		case fn := <-q.fns:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
