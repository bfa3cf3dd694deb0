package bridge

import "sync"

// Names of the events a Bridge emits. Generation events carry the session
// that made the call; configuration events carry the handle in Fields.
const (
	EventGenerateDone    = "generate_done"
	EventGenerateFailed  = "generate_failed"
	EventConfigCreated   = "config_created"
	EventConfigDestroyed = "config_destroyed"
	EventShutdown        = "shutdown"
)

// Event is one observable step of a call: a finished or failed generation,
// a configuration handle coming or going, or the engine shutting down.
// Session is empty for process-wide events.
type Event struct {
	Name    string
	Session string
	Fields  map[string]any
}

// EventPublisher is called synchronously on the calling thread, inside the
// call that produced the event. It must return quickly.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher records every event in order.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// Events returns a copy of everything recorded so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Names returns the recorded event names in publish order.
func (p *MemoryPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.events))
	for i, e := range p.events {
		names[i] = e.Name
	}
	return names
}

// Count reports how many events named name were recorded.
func (p *MemoryPublisher) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
