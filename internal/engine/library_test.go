package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLibraryName(t *testing.T) {
	cases := map[string]string{
		"linux":   "libonnxruntime-genai.so",
		"darwin":  "libonnxruntime-genai.dylib",
		"windows": "onnxruntime-genai.dll",
		"freebsd": "libonnxruntime-genai.so",
	}
	for goos, want := range cases {
		assert.Equal(t, want, LibraryName(goos), goos)
	}
}

func TestDiscoverLibrary_ExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "custom", "genai.so")
	touch(t, explicit)
	root := filepath.Join(dir, "root")
	touch(t, filepath.Join(root, "lib", "libonnxruntime-genai.so"))

	lib, ok := discoverLibrary(envOf(map[string]string{
		"ORTGENAI_DYLIB_PATH": explicit,
		"ONNXRUNTIME_ROOT":    root,
	}), "linux", "amd64", "")
	require.True(t, ok)
	assert.Equal(t, explicit, lib.Path)
	assert.Equal(t, "ORTGENAI_DYLIB_PATH", lib.Source)
}

func TestDiscoverLibrary_MissingExplicitFallsThrough(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "root")
	want := filepath.Join(root, "lib", "libonnxruntime-genai.so")
	touch(t, want)

	lib, ok := discoverLibrary(envOf(map[string]string{
		"ORTGENAI_DYLIB_PATH": filepath.Join(dir, "nope.so"),
		"ONNXRUNTIME_ROOT":    root,
	}), "linux", "amd64", "")
	require.True(t, ok)
	assert.Equal(t, want, lib.Path)
}

func TestDiscoverLibrary_PlatformDirPreferred(t *testing.T) {
	root := t.TempDir()
	platform := filepath.Join(root, "linux-arm64", "lib", "libonnxruntime-genai.so")
	touch(t, platform)
	touch(t, filepath.Join(root, "lib", "libonnxruntime-genai.so"))

	lib, ok := discoverLibrary(envOf(map[string]string{"ONNXRUNTIME_ROOT": root}), "linux", "arm64", "")
	require.True(t, ok)
	assert.Equal(t, platform, lib.Path)
}

func TestDiscoverLibrary_LoaderPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	want := filepath.Join(b, "libonnxruntime-genai.dylib")
	touch(t, want)

	lib, ok := discoverLibrary(envOf(map[string]string{
		"DYLD_LIBRARY_PATH": a + string(os.PathListSeparator) + b,
	}), "darwin", "arm64", "")
	require.True(t, ok)
	assert.Equal(t, want, lib.Path)
	assert.Equal(t, "DYLD_LIBRARY_PATH", lib.Source)
}

func TestDiscoverLibrary_ExecutableDir(t *testing.T) {
	exeDir := t.TempDir()
	want := filepath.Join(exeDir, "libonnxruntime-genai.so")
	touch(t, want)

	lib, ok := discoverLibrary(envOf(nil), "linux", "amd64", exeDir)
	require.True(t, ok)
	assert.Equal(t, want, lib.Path)
}

func TestDiscoverLibrary_NotFound(t *testing.T) {
	lib, ok := discoverLibrary(envOf(nil), "linux", "amd64", t.TempDir())
	assert.False(t, ok, "found %+v", lib)
}
