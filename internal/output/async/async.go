package async

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hejijunhao/calltrace/internal/model"
	"github.com/hejijunhao/calltrace/internal/output"
)

const defaultDrainTimeout = 5 * time.Second

// ErrClosed is returned by Write once Close has been called.
var ErrClosed = errors.New("async output closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via logrus.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDrainTimeout bounds how long Close waits for queued events to be
// written. Default: 5s. Non-positive values keep the default.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) {
		if d > 0 {
			a.drainTimeout = d
		}
	}
}

// Async decouples event production from consumption through an unbounded
// FIFO mailbox. Producers append and return immediately; a single
// background goroutine drains the mailbox into the wrapped output, so the
// inner output is only ever touched by one goroutine. Errors from the inner
// output are passed to errFunc rather than propagated to the caller.
type Async struct {
	inner        output.Output
	errFunc      func(error)
	drainTimeout time.Duration

	mu     sync.Mutex
	queue  []model.Event
	closed bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New wraps an output.Output in an async mailbox writer.
// The background drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		drainTimeout: defaultDrainTimeout,
		errFunc: func(err error) {
			logrus.WithError(err).Warn("async output write error")
		},
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.drain()
	return a
}

// Write appends the event to the mailbox. It never blocks on the inner
// output. After Close it returns ErrClosed and the event is dropped.
func (a *Async) Write(_ context.Context, event model.Event) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.queue = append(a.queue, event)
	a.mu.Unlock()

	a.signal()
	return nil
}

// Pending reports the number of events waiting to be written.
func (a *Async) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Close stops accepting events, waits for the drain goroutine to write
// everything already queued (with a timeout), then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		a.signal()

		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			logrus.WithField("pending", a.Pending()).Warn("async output drain timed out")
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// drain takes the whole mailbox on every wake-up and writes it in order.
// Once the closed flag is observed with the queue taken, nothing more can
// be appended and the goroutine exits.
func (a *Async) drain() {
	defer close(a.done)
	for range a.wake {
		a.mu.Lock()
		batch := a.queue
		a.queue = nil
		closed := a.closed
		a.mu.Unlock()

		for _, event := range batch {
			if err := a.inner.Write(context.Background(), event); err != nil {
				a.errFunc(err)
			}
		}
		if closed {
			return
		}
	}
}
