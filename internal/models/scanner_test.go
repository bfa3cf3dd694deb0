package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visionConfig = `{
  "model": {
    "type": "phi3v",
    "context_length": 131072,
    "decoder": {"session_options": {"provider_options": [{"cuda": {}}]}},
    "vision": {"filename": "phi-3.5-v-instruct-vision.onnx"}
  },
  "search": {"max_length": 4096}
}`

const textConfig = `{"model": {"type": "phi3", "context_length": 4096}}`

func writeModel(t *testing.T, dir, config string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(config), 0o644))
}

func TestInspect(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "phi-3.5-vision")
	writeModel(t, dir, visionConfig)

	m, err := Inspect(dir)
	require.NoError(t, err)
	assert.Equal(t, "phi-3.5-vision", m.ID)
	assert.Equal(t, "phi3v", m.Type)
	assert.EqualValues(t, 131072, m.ContextLength)
	assert.EqualValues(t, 4096, m.MaxLength)
	assert.True(t, m.Multimodal, "vision section not detected")
	assert.Equal(t, []string{"cuda"}, m.Providers)

	text := filepath.Join(t.TempDir(), "phi3")
	writeModel(t, text, textConfig)
	m, err = Inspect(text)
	require.NoError(t, err)
	assert.False(t, m.Multimodal)
	assert.Equal(t, "phi3", m.Type)
}

func TestInspectBadConfig(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "{not json")
	_, err := Inspect(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ConfigFile)

	_, err = Inspect(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeModel(t, filepath.Join(root, "microsoft", "phi-3.5-vision", "cpu-int4"), visionConfig)
	writeModel(t, filepath.Join(root, "microsoft", "phi-3.5-vision", "cuda-fp16"), visionConfig)
	writeModel(t, filepath.Join(root, "phi3"), textConfig)
	writeModel(t, filepath.Join(root, "broken"), "{")
	writeModel(t, filepath.Join(root, ".cache", "hidden"), textConfig)
	// Too deep to be considered.
	writeModel(t, filepath.Join(root, "a", "b", "c", "d"), textConfig)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	found, skipped, err := Scan(root)
	require.NoError(t, err)
	var ids []string
	for _, m := range found {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"microsoft/phi-3.5-vision/cpu-int4", "microsoft/phi-3.5-vision/cuda-fp16", "phi3"}, ids)
	assert.Len(t, skipped, 1, "only the broken config is skipped")
}

func TestScanErrors(t *testing.T) {
	_, _, err := Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	writeModel(t, filepath.Join(root, "microsoft", "phi-3.5-vision", "cpu-int4"), visionConfig)
	writeModel(t, filepath.Join(root, "microsoft", "phi-3.5-vision", "cuda-fp16"), visionConfig)
	writeModel(t, filepath.Join(root, "phi3", "cpu"), textConfig)

	direct := filepath.Join(root, "phi3", "cpu")
	p, err := Resolve(root, direct)
	require.NoError(t, err)
	assert.Equal(t, direct, p, "direct path")

	p, err = Resolve(root, "phi3")
	require.NoError(t, err)
	assert.Equal(t, direct, p, "single-variant prefix")

	p, err = Resolve(root, "microsoft/phi-3.5-vision/cuda-fp16")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "microsoft", "phi-3.5-vision", "cuda-fp16"), p)

	_, err = Resolve(root, "microsoft/phi-3.5-vision")
	assert.ErrorContains(t, err, "ambiguous")
	_, err = Resolve(root, "missing")
	assert.ErrorContains(t, err, "not found")
	_, err = Resolve(root, "")
	assert.Error(t, err)
}
