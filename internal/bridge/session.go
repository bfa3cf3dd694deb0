package bridge

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Session is the error channel of one calling thread: the last result and
// the last error, each overwritten unconditionally. A Session must not be
// shared between threads; obtain one per thread from a SessionTable.
type Session struct {
	ID         string
	lastResult string
	lastError  string
}

// NewSession returns an empty session with a fresh correlation id.
func NewSession() *Session { return &Session{ID: uuid.NewString()} }

// SetResult stores text as the last result and returns it.
func (s *Session) SetResult(text string) string {
	s.lastResult = text
	return s.lastResult
}

// SetError records "ERROR: {context}: {detail}" and returns it.
func (s *Session) SetError(context, detail string) string {
	s.lastError = errorPrefix + context + ": " + detail
	return s.lastError
}

// Fail records err, whose message already carries its context.
func (s *Session) Fail(err error) string {
	s.lastError = errorPrefix + err.Error()
	return s.lastError
}

// LastError is empty until the first failure. Successful calls do not clear it.
func (s *Session) LastError() string { return s.lastError }

// LastResult returns the text produced by the last successful generation.
func (s *Session) LastResult() string { return s.lastResult }

// IsError reports whether a string returned by a generation call is an error.
func IsError(text string) bool { return strings.HasPrefix(text, errorPrefix) }

// SessionTable hands out one Session per caller key, typically an OS thread id.
// Entries live until Release; an owner that reuses keys, as operating
// systems do with thread ids, must release a key before it is reused.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[uint64]*Session
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[uint64]*Session)}
}

// Get returns the session registered for key, creating it on first use.
func (t *SessionTable) Get(key uint64) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[key]
	if !ok {
		s = NewSession()
		t.sessions[key] = s
	}
	return s
}

// Release forgets the session for key.
func (t *SessionTable) Release(key uint64) {
	t.mu.Lock()
	delete(t.sessions, key)
	t.mu.Unlock()
}

// Len is the number of registered sessions.
func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
