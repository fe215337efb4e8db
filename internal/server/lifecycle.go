package server

import (
	"context"
	"sync"
	"time"
)

// lifecycle tracks the shutdown handshake. A shutdown request leaves the
// server pending with a deadline; it terminates at the deadline or at the
// exit notification, whichever comes first.
type lifecycle struct {
	mu       sync.Mutex
	now      func() time.Time
	delay    time.Duration
	deadline time.Time

	shutdown chan struct{} // closed by the first shutdown request
	done     chan struct{} // closed once the exit code is known
	code     int
	err      error
}

func newLifecycle(delay time.Duration, now func() time.Time) *lifecycle {
	return &lifecycle{
		now:      now,
		delay:    delay,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// requestShutdown enters the pending state and returns its deadline.
// Repeated requests keep the first deadline.
func (l *lifecycle) requestShutdown() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.shutdown:
	default:
		l.deadline = l.now().Add(l.delay)
		close(l.shutdown)
	}
	return l.deadline
}

// Deadline reports when a pending shutdown terminates the server.
func (l *lifecycle) Deadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.shutdown:
		return l.deadline, true
	default:
		return time.Time{}, false
	}
}

func (l *lifecycle) shutdownRequested() bool {
	_, ok := l.Deadline()
	return ok
}

// exit terminates with 0 after a shutdown request and 1 otherwise.
func (l *lifecycle) exit() int {
	code := 1
	if l.shutdownRequested() {
		code = 0
	}
	l.finish(code, nil)
	return code
}

func (l *lifecycle) fail(err error) {
	l.finish(1, err)
}

// finish records the outcome. Only the first call counts.
func (l *lifecycle) finish(code int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.done:
	default:
		l.code, l.err = code, err
		close(l.done)
	}
}

func (l *lifecycle) result() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code, l.err
}

// wait blocks until the server has terminated and returns its exit code.
func (l *lifecycle) wait(ctx context.Context) (int, error) {
	select {
	case <-l.done:
		return l.result()
	case <-l.shutdown:
	case <-ctx.Done():
		return 1, ctx.Err()
	}

	deadline, _ := l.Deadline()
	timer := time.NewTimer(deadline.Sub(l.now()))
	defer timer.Stop()

	select {
	case <-l.done:
	case <-timer.C:
		l.finish(0, nil)
	case <-ctx.Done():
		return 1, ctx.Err()
	}
	return l.result()
}
