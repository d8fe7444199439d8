// Package binder connects asynchronous gateway calls to observable per-screen
// view state. All view-state mutations run on a Loop, one at a time.
package binder

import (
	"errors"
	"sync"
)

var (
	// ErrLoopClosed is returned when work is posted to a closed Loop
	ErrLoopClosed = errors.New("binder: loop closed")
	// ErrUnmounted is returned when a mutation targets an unmounted binder
	ErrUnmounted = errors.New("binder: unmounted")
)

// Loop runs posted functions sequentially on a single goroutine
type Loop struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	done   chan struct{}
}

// NewLoop starts a Loop with the given queue depth
func NewLoop(queue int) *Loop {
	l := &Loop{
		tasks: make(chan func(), queue),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

// run drains tasks until Close closes the queue, so everything accepted by
// Post runs
func (l *Loop) run() {
	defer close(l.done)
	for fn := range l.tasks {
		fn()
	}
}

// Post queues fn and returns without waiting
func (l *Loop) Post(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLoopClosed
	}
	l.tasks <- fn
	return nil
}

// Do queues fn and waits for it to finish
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopClosed
		}
	}
}

// Close stops the Loop after running already-queued work
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.tasks)
	}
	l.mu.Unlock()
	<-l.done
}
