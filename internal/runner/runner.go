// Package runner executes long jobs on a serial background worker and
// delivers their progress and completion callbacks on a caller-chosen
// context.
package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ALT-F4-LLC/mailvault/internal/logging"
	"github.com/ALT-F4-LLC/mailvault/internal/progress"
)

// ErrStopped is returned by Submit after Stop has been called.
var ErrStopped = errors.New("worker stopped")

// Job is a unit of work. It reports progress through report and must return
// promptly once ctx is cancelled.
type Job func(ctx context.Context, report progress.Func) error

// Dispatcher runs callbacks on the caller's context.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to a Dispatcher.
type DispatchFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatchFunc) Dispatch(fn func()) { f(fn) }

// Inline runs callbacks directly on the worker goroutine.
var Inline Dispatcher = DispatchFunc(func(fn func()) { fn() })

// Callbacks receive a job's progress and its final result. Either may be nil.
type Callbacks struct {
	Progress progress.Func
	Done     func(err error)
}

type task struct {
	name string
	job  Job
	cb   Callbacks
}

// Worker runs submitted jobs one at a time in submission order.
type Worker struct {
	dispatch Dispatcher
	log      logrus.FieldLogger

	mu      sync.Mutex
	pending []task
	stopped bool
	wake    chan struct{}
	wg      sync.WaitGroup
}

// NewWorker returns a worker whose callbacks go through d. A nil d runs them
// inline; a nil log discards log output.
func NewWorker(d Dispatcher, log logrus.FieldLogger) *Worker {
	if d == nil {
		d = Inline
	}
	return &Worker{dispatch: d, log: logging.OrDiscard(log), wake: make(chan struct{}, 1)}
}

// Start launches the worker goroutine. Jobs receive a context derived from
// ctx.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			t, ok := w.next()
			if !ok {
				return
			}
			w.run(ctx, t)
		}
	}()
}

// next blocks until a task is queued or the worker is stopped with an empty
// queue.
func (w *Worker) next() (task, bool) {
	for {
		w.mu.Lock()
		if len(w.pending) > 0 {
			t := w.pending[0]
			w.pending = w.pending[1:]
			w.mu.Unlock()
			return t, true
		}
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return task{}, false
		}
		<-w.wake
	}
}

func (w *Worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Submit queues a job without blocking. Jobs run sequentially; a job never
// starts before the previous one has delivered its Done callback to the
// dispatcher.
func (w *Worker) Submit(name string, job Job, cb Callbacks) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.pending = append(w.pending, task{name: name, job: job, cb: cb})
	w.mu.Unlock()
	w.signal()
	return nil
}

// Stop stops accepting jobs and waits for queued jobs to finish. Jobs queued
// on a worker that was never started are dropped.
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.signal()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, t task) {
	log := w.log.WithField("job", t.name)
	log.Debug("job started")

	updates := make(chan int, 64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(updates)
		return t.job(gctx, func(p int) {
			select {
			case updates <- p:
			case <-gctx.Done():
			}
		})
	})
	g.Go(func() error {
		for p := range updates {
			if t.cb.Progress != nil {
				w.dispatch.Dispatch(func() { t.cb.Progress(p) })
			}
		}
		return nil
	})
	err := g.Wait()

	if err != nil {
		log.WithError(err).Warn("job failed")
	} else {
		log.Debug("job finished")
	}
	if t.cb.Done != nil {
		w.dispatch.Dispatch(func() { t.cb.Done(err) })
	}
}

// Run submits job and blocks until its Done callback has been dispatched,
// returning the job's error.
func (w *Worker) Run(name string, job Job, report progress.Func) error {
	done := make(chan error, 1)
	err := w.Submit(name, job, Callbacks{
		Progress: report,
		Done:     func(err error) { done <- err },
	})
	if err != nil {
		return err
	}
	return <-done
}
