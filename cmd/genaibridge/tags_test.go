package main

import (
	"bufio"
	"go/build/constraint"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildExpr(t *testing.T, file string) constraint.Expr {
	t.Helper()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if constraint.IsGoBuild(line) {
			expr, err := constraint.Parse(line)
			require.NoError(t, err, file)
			return expr
		}
		if strings.HasPrefix(line, "package ") {
			break
		}
	}
	return nil
}

func builds(expr constraint.Expr, goos string) bool {
	if expr == nil {
		return true
	}
	return expr.Eval(func(tag string) bool { return tag == "cgo" || tag == goos })
}

// Every supported host gets the whole export surface and exactly one thread id source.
func TestExportSurfaceBuildsOnEveryHost(t *testing.T) {
	threadFiles := []string{"thread_linux.go", "thread_windows.go", "thread_darwin.go"}
	for _, goos := range []string{"linux", "windows", "darwin"} {
		for _, file := range []string{"exports.go", "state.go", "values.go"} {
			assert.True(t, builds(buildExpr(t, file), goos), "%s excluded on %s", file, goos)
		}
		n := 0
		for _, file := range threadFiles {
			if builds(buildExpr(t, file), goos) {
				n++
			}
		}
		assert.Equal(t, 1, n, "thread id sources on %s", goos)
	}
}
