package bridge

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"genaibridge/internal/engine/enginetest"
)

var errBoom = errors.New("boom")

// newTestBridge wires a Bridge to a fake engine that emits tokens in order.
func newTestBridge(t *testing.T, tokens ...string) (*Bridge, *enginetest.Engine, *MemoryPublisher) {
	t.Helper()
	fe := enginetest.New(tokens...)
	pub := NewMemoryPublisher()
	b := New(Options{Engine: fe, Publisher: pub})
	return b, fe, pub
}

// requireBalanced asserts every acquisition was released exactly once, in
// exact reverse order.
func requireBalanced(t *testing.T, fe *enginetest.Engine) {
	t.Helper()
	acq := fe.Acquired()
	rel := fe.Released()
	rev := slices.Clone(acq)
	slices.Reverse(rev)
	require.Equal(t, rev, rel, "release order must mirror acquisition")
	require.Empty(t, fe.Live(), "resources leaked")
}
