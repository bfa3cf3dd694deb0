package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	// Deterministic HOME so the test never skips.
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}

	// raw path unaffected
	got, err := ExpandHome("/tmp")
	require.NoError(t, err)
	assert.Equal(t, "/tmp", got)

	got, err = ExpandHome("")
	require.NoError(t, err)
	assert.Empty(t, got)

	p, err := ExpandHome("~")
	require.NoError(t, err)
	assert.Equal(t, home, p)

	sub := "test-sub"
	exp, err := ExpandHome("~/" + sub)
	require.NoError(t, err)
	if runtime.GOOS == "windows" {
		assert.Equal(t, sub, filepath.Base(exp))
	} else {
		assert.Equal(t, filepath.Join(home, sub), exp)
	}
}

func TestResolveAndIsDir(t *testing.T) {
	dir := t.TempDir()
	got, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	rel, err := Resolve("relative/x")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(rel), rel)

	assert.True(t, IsDir(dir))
	f := filepath.Join(dir, "f.png")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	assert.False(t, IsDir(f))
	assert.True(t, PathExists(f))
}

func TestMissingFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	b := filepath.Join(dir, "b.png")
	assert.Equal(t, []string{b}, MissingFiles([]string{a, b, a}))
	assert.Nil(t, MissingFiles(nil))
}
