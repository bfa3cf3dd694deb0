package bridge

import "sync"

// lifecycle is the only process-wide state: whether the engine has been
// touched and whether it has been shut down. It is never held across a call.
type lifecycle struct {
	mu          sync.Mutex
	initialized bool
	closed      bool
}

// enter marks the engine as in use. It fails once shutdown has run.
func (l *lifecycle) enter() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrShutdown
	}
	l.initialized = true
	return nil
}

// shutdown runs fn once, and only if the engine was ever used. Later calls
// are no-ops. It reports whether fn ran.
func (l *lifecycle) shutdown(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.closed = true
	if !l.initialized {
		return false
	}
	fn()
	l.initialized = false
	return true
}

func (l *lifecycle) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
