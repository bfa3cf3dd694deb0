package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"genaibridge/internal/engine/enginetest"
)

func TestEvents_FailureAndDoneOrder(t *testing.T) {
	b, fe, pub := newTestBridge(t, "ok")
	s := NewSession()

	fe.Fail = map[string]error{enginetest.OpCreateTokenizer: errBoom}
	b.GenerateText(s, "m", "p", 0)
	fe.Fail = nil
	b.GenerateText(s, "m", "p", 0)
	b.Shutdown()

	assert.Equal(t, []string{EventGenerateFailed, EventGenerateDone, EventShutdown}, pub.Names())
	assert.Equal(t, 1, pub.Count(EventGenerateFailed))
	assert.Zero(t, pub.Count(EventConfigCreated))

	evs := pub.Events()
	assert.Equal(t, s.ID, evs[0].Session)
	assert.Equal(t, CtxTokenizer+": boom", evs[0].Fields["error"])
	assert.Empty(t, evs[2].Session)
}
