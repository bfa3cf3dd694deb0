package bridge

import (
	"fmt"
	"sync"

	"genaibridge/internal/engine"
)

// Handle is an opaque configuration reference: slot index+1 in the low 32
// bits, slot generation in the high 32 bits. Zero is never issued.
type Handle uint64

func (h Handle) String() string { return fmt.Sprintf("0x%x", uint64(h)) }

func makeHandle(index, gen uint32) Handle { return Handle(uint64(gen)<<32 | uint64(index+1)) }

func (h Handle) split() (index uint32, gen uint32, ok bool) {
	lo := uint32(h)
	if lo == 0 {
		return 0, 0, false
	}
	return lo - 1, uint32(h >> 32), true
}

type slot struct {
	gen  uint32
	cfg  engine.Config
	used bool
}

// Registry owns configurations between create and destroy. A slot's
// generation advances on every release so old handles stay invalid after the
// slot is reused.
type Registry struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
	live  int
}

func NewRegistry() *Registry { return &Registry{} }

// Insert stores cfg and returns its handle.
func (r *Registry) Insert(cfg engine.Config) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		idx = uint32(len(r.slots) - 1)
	}
	s := &r.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.cfg = cfg
	s.used = true
	r.live++
	return makeHandle(idx, s.gen)
}

func (r *Registry) find(h Handle) (*slot, uint32, error) {
	if h == 0 {
		return nil, 0, &HandleError{Handle: h, Reason: "null handle"}
	}
	idx, gen, ok := h.split()
	if !ok || int(idx) >= len(r.slots) {
		return nil, 0, &HandleError{Handle: h, Reason: "unknown handle"}
	}
	s := &r.slots[idx]
	if !s.used || s.gen != gen {
		return nil, 0, &HandleError{Handle: h, Reason: "stale handle"}
	}
	return s, idx, nil
}

// Lookup returns the live configuration for h.
func (r *Registry) Lookup(h Handle) (engine.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, _, err := r.find(h)
	if err != nil {
		return nil, err
	}
	return s.cfg, nil
}

// Remove unregisters h and hands the configuration back for release.
func (r *Registry) Remove(h Handle) (engine.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, idx, err := r.find(h)
	if err != nil {
		return nil, err
	}
	cfg := s.cfg
	s.cfg = nil
	s.used = false
	r.free = append(r.free, idx)
	r.live--
	return cfg, nil
}

// Drain removes every live configuration and returns them.
func (r *Registry) Drain() []engine.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Config
	for i := range r.slots {
		s := &r.slots[i]
		if !s.used {
			continue
		}
		out = append(out, s.cfg)
		s.cfg = nil
		s.used = false
		r.free = append(r.free, uint32(i))
	}
	r.live = 0
	return out
}

// Len is the number of live configurations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
