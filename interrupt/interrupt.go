// Package interrupt turns process signals into a one-shot cancellation.
package interrupt

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

var ErrInterrupted = errors.New("interrupt received")

// Coordinator owns the run's cancellation context. It moves from armed to
// interrupted exactly once and never back.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	notice func(os.Signal)

	once        sync.Once
	interrupted atomic.Bool

	signals  chan os.Signal
	stopOnce sync.Once
	stopped  chan struct{}
}

// New returns an armed coordinator that is not attached to any signal.
// notice, if non-nil, is called once on the first interrupt.
func New(parent context.Context, notice func(os.Signal)) *Coordinator {
	ctx, cancel := context.WithCancelCause(parent)
	return &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		notice:  notice,
		stopped: make(chan struct{}),
	}
}

// Arm creates a coordinator and routes sigs to it. SIGINT and SIGTERM are
// used when no signals are given. Call Stop to restore default handling.
func Arm(parent context.Context, notice func(os.Signal), sigs ...os.Signal) *Coordinator {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	c := New(parent, notice)
	c.signals = make(chan os.Signal, 1)
	signal.Notify(c.signals, sigs...)

	go func() {
		for {
			select {
			case sig := <-c.signals:
				c.Interrupt(sig)
			case <-c.stopped:
				return
			}
		}
	}()
	return c
}

// Context is cancelled with ErrInterrupted once Interrupt has been called.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Interrupt flips the coordinator into the interrupted state. Repeated calls
// are no-ops; only the first one emits the notice.
func (c *Coordinator) Interrupt(sig os.Signal) {
	c.once.Do(func() {
		c.interrupted.Store(true)
		if c.notice != nil {
			c.notice(sig)
		}
		c.cancel(ErrInterrupted)
	})
}

func (c *Coordinator) Interrupted() bool {
	return c.interrupted.Load()
}

// Stop detaches the signal handler. The interrupted state is kept.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		if c.signals != nil {
			signal.Stop(c.signals)
		}
		close(c.stopped)
	})
}
