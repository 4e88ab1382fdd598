// Package loop runs tasks one at a time on a dedicated goroutine. Every
// read and write of the agenda state goes through a single Queue, so no
// task ever observes another one half-way through.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	appLog "agenda/internal/log"
)

// ErrClosed is returned once the queue has been closed.
var ErrClosed = errors.New("loop: queue closed")

type Queue struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	closeOnce sync.Once
}

// New starts a queue. buffer bounds how many posted tasks may wait.
func New(buffer int) *Queue {
	if buffer < 1 {
		buffer = 1
	}
	q := &Queue{
		tasks: make(chan func(), buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			return
		case fn := <-q.tasks:
			q.exec(fn)
		}
	}
}

func (q *Queue) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("loop: task panicked", fmt.Errorf("%v", r))
		}
	}()
	fn()
}

// Post enqueues fn without waiting for it to run.
func (q *Queue) Post(fn func()) error {
	select {
	case <-q.quit:
		return ErrClosed
	default:
	}
	select {
	case <-q.quit:
		return ErrClosed
	case q.tasks <- fn:
		return nil
	}
}

// Do enqueues fn and waits until it has run. It must not be called from
// inside a task of the same queue.
func (q *Queue) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case <-q.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case q.tasks <- task:
	}

	select {
	case <-finished:
		return nil
	case <-q.done:
		// The queue stopped; the task may still have run just before.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue after the task in progress; pending tasks are
// dropped. Close blocks until the queue goroutine has exited and is safe to
// call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.quit) })
	<-q.done
}
