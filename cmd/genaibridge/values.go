package main

import (
	"fmt"
	"sync"
)

// checkImageArray validates the (array, count) pair of a C image list.
// A zero count is valid with or without an array.
func checkImageArray(count int, null bool) error {
	switch {
	case count < 0:
		return fmt.Errorf("negative image count %d", count)
	case null && count > 0:
		return fmt.Errorf("null image array with count %d", count)
	}
	return nil
}

// convertStrings converts each element with conv. Null elements become "",
// which every operation rejects as invalid input.
func convertStrings[P comparable](ptrs []P, conv func(P) string) []string {
	if len(ptrs) == 0 {
		return nil
	}
	var null P
	out := make([]string, len(ptrs))
	for i, p := range ptrs {
		if p != null {
			out[i] = conv(p)
		}
	}
	return out
}

// optionalImage maps a single image argument to an image list; "" is none.
func optionalImage(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}

// Kinds of value handed back to a thread.
const (
	kindResult = iota
	kindError
	numKinds
)

// threadValues owns the values returned to each OS thread. A value stays
// valid until the next value of the same kind replaces it on that thread,
// or until the thread releases its state.
type threadValues[T comparable] struct {
	mu    sync.Mutex
	free  func(T)
	slots map[uint64]*[numKinds]T
}

func newThreadValues[T comparable](free func(T)) *threadValues[T] {
	return &threadValues[T]{free: free, slots: make(map[uint64]*[numKinds]T)}
}

// set stores v for tid, frees the value it replaces, and returns v.
func (tv *threadValues[T]) set(tid uint64, kind int, v T) T {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	slot, ok := tv.slots[tid]
	if !ok {
		slot = new([numKinds]T)
		tv.slots[tid] = slot
	}
	var zero T
	if old := slot[kind]; old != zero {
		tv.free(old)
	}
	slot[kind] = v
	return v
}

// release frees every value held for tid.
func (tv *threadValues[T]) release(tid uint64) {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	slot, ok := tv.slots[tid]
	if !ok {
		return
	}
	var zero T
	for _, v := range slot {
		if v != zero {
			tv.free(v)
		}
	}
	delete(tv.slots, tid)
}

func (tv *threadValues[T]) threads() int {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	return len(tv.slots)
}
