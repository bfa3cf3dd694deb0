package bridge

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genaibridge/internal/engine"
	"genaibridge/internal/engine/enginetest"
)

func TestGenerateText_EmptyInputsTouchNoEngine(t *testing.T) {
	b, fe, _ := newTestBridge(t, "x")
	s := NewSession()

	out := b.GenerateText(s, "", "Hello", 0)
	assert.True(t, IsError(out))
	assert.Equal(t, "ERROR: Invalid input: null or empty model path", out)

	out = b.GenerateText(s, "valid/model", "", 0)
	assert.True(t, IsError(out))
	assert.Contains(t, out, "null or empty prompt")

	out = b.GenerateMultimodal(s, "valid/model", "<|image_1|>", []string{"a.png", " "})
	assert.Contains(t, out, "empty image path at index 1")

	assert.Equal(t, HealthBadInput, b.Health(s, ""))
	assert.Equal(t, Handle(0), b.CreateConfig(s, ""))

	assert.Zero(t, fe.Calls(), "validation failures must not reach the engine")
}

func TestGenerateText_Success(t *testing.T) {
	b, fe, pub := newTestBridge(t, "Hel", "lo", "!")
	s := NewSession()

	out := b.GenerateText(s, "valid/model", "Hello", 0)
	require.Equal(t, "Hello!", out)
	assert.Equal(t, "Hello!", s.LastResult())
	assert.Empty(t, s.LastError())

	assert.Equal(t,
		[]string{"model", "tokenizer", "params", "sequences", "generator", "stream"},
		fe.Acquired())
	requireBalanced(t, fe)
	assert.Empty(t, fe.Processed(), "text path must not use the processor")
	assert.NotContains(t, fe.SearchNumbers(), "max_length")

	evs := pub.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, EventGenerateDone, evs[0].Name)
	assert.Equal(t, 3, evs[0].Fields["tokens"])
}

func TestGenerateText_MaxLength(t *testing.T) {
	b, fe, _ := newTestBridge(t, "a")
	s := NewSession()

	require.Equal(t, "a", b.GenerateText(s, "m", "p", 64))
	assert.Equal(t, 64.0, fe.SearchNumbers()["max_length"])

	fe.Reset()
	fe.Fail = map[string]error{enginetest.OpSetSearchNumber: errBoom}
	out := b.GenerateText(s, "m", "p", 64)
	assert.Equal(t, "ERROR: "+CtxMaxLength+": boom", out)
	requireBalanced(t, fe)
}

func TestGenerate_FailureAtEachStepReleasesPrefix(t *testing.T) {
	textSteps := []struct {
		op, ctx string
		held    int
	}{
		{enginetest.OpCreateModel, CtxModel, 0},
		{enginetest.OpCreateTokenizer, CtxTokenizer, 1},
		{enginetest.OpCreateGeneratorParams, CtxParams, 2},
		{enginetest.OpEncode, CtxTokenize, 3},
		{enginetest.OpCreateGenerator, CtxGenerator, 4},
		{enginetest.OpAppendTokenSequences, CtxSetSequences, 5},
		{enginetest.OpCreateStream, CtxStream, 5},
	}
	for _, tc := range textSteps {
		t.Run("text/"+tc.op, func(t *testing.T) {
			b, fe, _ := newTestBridge(t, "a")
			fe.Fail = map[string]error{tc.op: errBoom}
			s := NewSession()

			out := b.GenerateText(s, "m", "p", 0)
			assert.Equal(t, "ERROR: "+tc.ctx+": boom", out)
			assert.Equal(t, out, s.LastError())
			assert.Len(t, fe.Acquired(), tc.held)
			requireBalanced(t, fe)
		})
	}

	mmSteps := []struct {
		op, ctx string
		held    int
	}{
		{enginetest.OpCreateModel, CtxModel, 0},
		{enginetest.OpCreateProcessor, CtxProcessor, 1},
		{enginetest.OpProcessorTokenizer, CtxTokenizer, 2},
		{enginetest.OpLoadImages, CtxImages, 3},
		{enginetest.OpCreateGeneratorParams, CtxParams, 4},
		{enginetest.OpProcess, CtxProcess, 5},
		{enginetest.OpCreateGenerator, CtxGenerator, 6},
		{enginetest.OpGeneratorSetInputs, CtxSetTensors, 7},
		{enginetest.OpCreateStream, CtxStream, 7},
	}
	for _, tc := range mmSteps {
		t.Run("multimodal/"+tc.op, func(t *testing.T) {
			b, fe, _ := newTestBridge(t, "a")
			fe.Fail = map[string]error{tc.op: errBoom}
			s := NewSession()

			out := b.GenerateMultimodal(s, "m", "<|image_1|> describe", []string{"a.png"})
			assert.Equal(t, "ERROR: "+tc.ctx+": boom", out)
			assert.Len(t, fe.Acquired(), tc.held)
			requireBalanced(t, fe)
		})
	}
}

func TestGenerateMultimodal_TeardownIsExactReverse(t *testing.T) {
	b, fe, _ := newTestBridge(t, "two ", "cats")
	s := NewSession()

	out := b.GenerateMultimodal(s, "m", "<|image_1|><|image_2|> compare", []string{"a.png", "b.png"})
	require.Equal(t, "two cats", out)
	assert.Equal(t,
		[]string{"model", "processor", "tokenizer", "images", "params", "tensors", "generator", "stream"},
		fe.Acquired())
	assert.Equal(t,
		[]string{"stream", "generator", "tensors", "params", "images", "tokenizer", "processor", "model"},
		fe.Released())
	requireBalanced(t, fe)
}

func TestGenerateMultimodal_ZeroImagesUseSameFusionPath(t *testing.T) {
	for name, imgs := range map[string][]string{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			b, fe, _ := newTestBridge(t, "ok")
			s := NewSession()

			require.Equal(t, "ok", b.GenerateMultimodal(s, "m", "describe nothing", imgs))
			calls := fe.Processed()
			require.Len(t, calls, 1)
			assert.True(t, calls[0].NilImages)
			assert.Equal(t, "describe nothing", calls[0].Prompt)
			assert.Empty(t, fe.Loaded())
			assert.NotContains(t, fe.Acquired(), "images")
			requireBalanced(t, fe)
		})
	}
}

func TestGenerateMultimodal_ManyImagesOneBatch(t *testing.T) {
	b, fe, _ := newTestBridge(t, "ok")
	s := NewSession()
	imgs := []string{"a.png", "b.png", "c.png"}

	require.Equal(t, "ok", b.GenerateMultimodal(s, "m", "<|image_1|><|image_2|><|image_3|>", imgs))
	assert.Equal(t, [][]string{imgs}, fe.Loaded())
	calls := fe.Processed()
	require.Len(t, calls, 1)
	assert.Equal(t, 3, calls[0].ImageCount)
	assert.False(t, calls[0].NilImages)
}

func TestGenerateMultimodal_MissingImageFailsBatch(t *testing.T) {
	b, fe, _ := newTestBridge(t, "ok")
	fe.MissingImages = map[string]bool{"missing.png": true}
	s := NewSession()

	out := b.GenerateMultimodal(s, "m", "<|image_1|><|image_2|>", []string{"a.png", "missing.png"})
	assert.True(t, strings.HasPrefix(out, "ERROR: "+CtxImages+": "), out)
	assert.Contains(t, out, "missing.png")
	assert.Empty(t, fe.Processed(), "a partial batch must never reach fusion")
	requireBalanced(t, fe)
}

func TestGenerateMultimodal_DefaultBudget(t *testing.T) {
	b, fe, _ := newTestBridge(t, "ok")
	s := NewSession()

	require.Equal(t, "ok", b.GenerateMultimodal(s, "m", "p", nil))
	assert.Equal(t, float64(DefaultMultimodalMaxLength), fe.SearchNumbers()["max_length"])

	// The default is advisory: failing to apply it does not fail the call.
	fe.Reset()
	fe.Fail = map[string]error{enginetest.OpSetSearchNumber: errBoom}
	assert.Equal(t, "ok", b.GenerateMultimodal(s, "m", "p", nil))
	requireBalanced(t, fe)
}

func TestGenerateMultimodal_CustomAndDisabledBudget(t *testing.T) {
	fe := enginetest.New("ok")
	b := New(Options{Engine: fe, MultimodalMaxLength: 512})
	require.Equal(t, "ok", b.GenerateMultimodal(NewSession(), "m", "p", nil))
	assert.Equal(t, 512.0, fe.SearchNumbers()["max_length"])

	fe = enginetest.New("ok")
	b = New(Options{Engine: fe, MultimodalMaxLength: -1})
	require.Equal(t, "ok", b.GenerateMultimodal(NewSession(), "m", "p", nil))
	assert.NotContains(t, fe.SearchNumbers(), "max_length")
}

func TestGenerate_LoopFailureKeepsPartialText(t *testing.T) {
	b, fe, _ := newTestBridge(t)
	fe.Tokens = []enginetest.Token{{Text: "par"}, {Text: "tial"}, {GenErr: errBoom}, {Text: "never"}}
	s := NewSession()

	out := b.GenerateText(s, "m", "p", 0)
	assert.Equal(t, "partial", out)
	assert.Equal(t, "ERROR: "+CtxGenerateNext+": boom", s.LastError())
	assert.Equal(t, "partial", s.LastResult())
	requireBalanced(t, fe)

	res, err := b.Generate(NewSession(), Request{ModelPath: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tokens)
	assert.True(t, IsStep(res.Err, CtxGenerateNext))
}

func TestGenerate_DecodeFailureIsSkipped(t *testing.T) {
	b, fe, _ := newTestBridge(t)
	fe.Tokens = []enginetest.Token{{Text: "a"}, {Text: "X", DecodeErr: errBoom}, {Text: "c"}}
	s := NewSession()

	res, err := b.Generate(s, Request{ModelPath: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ac", res.Text)
	assert.Equal(t, 3, res.Tokens)
	assert.Equal(t, 1, res.DecodeSkipped)
	assert.NoError(t, res.Err)
	assert.Empty(t, s.LastError())
}

func TestGenerate_StreamsFragments(t *testing.T) {
	b, _, _ := newTestBridge(t, "a", "", "b")
	var got []string
	res, err := b.Generate(NewSession(), Request{
		ModelPath:  "m",
		Prompt:     "p",
		OnFragment: func(f string) { got = append(got, f) },
	})
	require.NoError(t, err)
	assert.Equal(t, "ab", res.Text)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestGenerate_ParamsBinding(t *testing.T) {
	b, fe, _ := newTestBridge(t, "ok")
	fe.Bind = engine.BindParams
	s := NewSession()

	require.Equal(t, "ok", b.GenerateText(s, "m", "p", 0))
	assert.Equal(t, []string{"model", "tokenizer", "params", "sequences", "generator", "stream"}, fe.Acquired())
	requireBalanced(t, fe)

	fe.Reset()
	require.Equal(t, "ok", b.GenerateMultimodal(s, "m", "p", []string{"a.png"}))
	requireBalanced(t, fe)

	fe.Reset()
	fe.Fail = map[string]error{enginetest.OpParamsSetInputs: errBoom}
	out := b.GenerateMultimodal(s, "m", "p", nil)
	assert.Equal(t, "ERROR: "+CtxSetTensors+": boom", out)
	assert.NotContains(t, fe.Acquired(), "generator", "params binding fails before the generator exists")
	requireBalanced(t, fe)
}

func TestLastError_SurvivesSuccess(t *testing.T) {
	b, fe, _ := newTestBridge(t, "ok")
	s := NewSession()

	fe.Fail = map[string]error{enginetest.OpCreateModel: errBoom}
	bad := b.GenerateText(s, "m", "p", 0)
	require.True(t, IsError(bad))

	fe.Fail = nil
	require.Equal(t, "ok", b.GenerateText(s, "m", "p", 0))
	assert.Equal(t, bad, b.LastError(s))
}

func TestHealth(t *testing.T) {
	b, fe, _ := newTestBridge(t)
	s := NewSession()

	assert.Equal(t, HealthOK, b.Health(s, "m"))
	assert.Equal(t, []string{"model", "tokenizer"}, fe.Acquired())
	requireBalanced(t, fe)

	fe.Reset()
	fe.Fail = map[string]error{enginetest.OpCreateModel: errBoom}
	assert.Equal(t, HealthModelFailed, b.Health(s, "m"))
	assert.Equal(t, "ERROR: "+CtxModel+": boom", s.LastError())

	fe.Reset()
	fe.Fail = map[string]error{enginetest.OpCreateTokenizer: errBoom}
	assert.Equal(t, HealthTokenizerFailed, b.Health(s, "m"))
	assert.Equal(t, []string{"model"}, fe.Released())
	requireBalanced(t, fe)
}

func TestSessions_DoNotInterfere(t *testing.T) {
	b, _, _ := newTestBridge(t, "ok")
	var wg sync.WaitGroup
	good := make([]*Session, 8)
	bad := make([]*Session, 8)
	for i := range good {
		good[i], bad[i] = NewSession(), NewSession()
		wg.Add(2)
		go func(s *Session) { defer wg.Done(); b.GenerateText(s, "m", "p", 0) }(good[i])
		go func(s *Session, i int) {
			defer wg.Done()
			b.GenerateText(s, "", fmt.Sprint(i), 0)
		}(bad[i], i)
	}
	wg.Wait()
	for i := range good {
		assert.Empty(t, good[i].LastError())
		assert.Equal(t, "ok", good[i].LastResult())
		assert.True(t, IsError(bad[i].LastError()))
	}
}

func TestVersion(t *testing.T) {
	b, _, _ := newTestBridge(t)
	assert.Equal(t, "0.1.0", b.Version())
	assert.Equal(t, "enginetest", b.EngineVersion())
}
